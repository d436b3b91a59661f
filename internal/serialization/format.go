package serialization

import (
	"time"
)

// Format constants.
const (
	MagicBytes      = "BORN"
	FormatVersion   = 2
	FixedHeaderSize = 64 // 0x40 bytes
	HeaderAlignment = 64 // tensor data starts on a 64-byte boundary
	ChecksumSize    = 32
	ChecksumOffset  = 0x20
	LibraryVersion  = "0.1.0"
	DTypeFloat64    = "float64"
	ModelTypeMLP    = "sigmoid-mlp"
	bytesPerElement = 8
)

// Flags stored in the fixed header.
const (
	FlagHasMetadata   uint32 = 1 << 0
	FlagHasCheckpoint uint32 = 1 << 1
)

// Header is the JSON metadata block.
type Header struct {
	FormatVersion  int               `json:"format_version"`
	LibraryVersion string            `json:"library_version"`
	ModelType      string            `json:"model_type"`
	CreatedAt      time.Time         `json:"created_at"`
	LayerSizes     []int             `json:"layer_sizes"`
	Tensors        []TensorMeta      `json:"tensors"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	Checkpoint     *CheckpointMeta   `json:"checkpoint,omitempty"`
}

// CheckpointMeta records the training state a parameter file was saved at.
type CheckpointMeta struct {
	Epoch     int     `json:"epoch"`
	BatchSize int     `json:"batch_size"`
	Eta       float64 `json:"eta"`
	Accuracy  float64 `json:"accuracy"`
}

// TensorMeta describes one tensor in the data section.
type TensorMeta struct {
	Name   string `json:"name"`   // e.g. "layer.0.weight"
	DType  string `json:"dtype"`  // always "float64"
	Shape  []int  `json:"shape"`  // row-major
	Offset int64  `json:"offset"` // bytes from the start of the data section
	Size   int64  `json:"size"`   // bytes
}

// Tensor is a named row-major float64 array.
type Tensor struct {
	Name  string
	Shape []int
	Data  []float64
}

// numElements returns the product of shape.
func numElements(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

// alignedHeaderEnd returns the data offset for a JSON header of the given size.
func alignedHeaderEnd(headerSize int64) int64 {
	pos := int64(FixedHeaderSize) + headerSize
	return pos + (HeaderAlignment-pos%HeaderAlignment)%HeaderAlignment
}
