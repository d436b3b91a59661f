package serialization

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"time"
)

// Write encodes tensors with header to w.
//
// Tensor metadata, format version and library version in header are filled
// in by Write; the caller provides model type, layer sizes, metadata and
// checkpoint information. Tensors are stored in the order given.
func Write(w io.Writer, header Header, tensors []Tensor) error {
	header.FormatVersion = FormatVersion
	header.LibraryVersion = LibraryVersion
	if header.CreatedAt.IsZero() {
		header.CreatedAt = time.Now().UTC()
	}

	// Lay out tensors and encode the data section.
	header.Tensors = make([]TensorMeta, 0, len(tensors))
	var total int64
	for _, t := range tensors {
		if numElements(t.Shape) != len(t.Data) {
			return fmt.Errorf("%w: %s has shape %v and %d values", ErrShapeMismatch, t.Name, t.Shape, len(t.Data))
		}
		size := int64(len(t.Data)) * bytesPerElement
		header.Tensors = append(header.Tensors, TensorMeta{
			Name:   t.Name,
			DType:  DTypeFloat64,
			Shape:  append([]int(nil), t.Shape...),
			Offset: total,
			Size:   size,
		})
		total += size
	}
	if err := ValidateHeader(&header, total); err != nil {
		return fmt.Errorf("invalid tensors: %w", err)
	}

	data := make([]byte, total)
	for i, t := range tensors {
		off := header.Tensors[i].Offset
		for j, v := range t.Data {
			binary.LittleEndian.PutUint64(data[off+int64(j)*bytesPerElement:], math.Float64bits(v))
		}
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}

	flags := uint32(0)
	if len(header.Metadata) > 0 {
		flags |= FlagHasMetadata
	}
	if header.Checkpoint != nil {
		flags |= FlagHasCheckpoint
	}

	// Fixed header.
	fixed := make([]byte, FixedHeaderSize)
	copy(fixed[0:4], MagicBytes)
	binary.LittleEndian.PutUint32(fixed[4:8], FormatVersion)
	binary.LittleEndian.PutUint32(fixed[8:12], flags)
	binary.LittleEndian.PutUint64(fixed[16:24], uint64(len(headerJSON)))
	binary.LittleEndian.PutUint64(fixed[24:32], uint64(total))
	checksum := ComputeChecksum(data)
	copy(fixed[ChecksumOffset:ChecksumOffset+ChecksumSize], checksum[:])

	bw := bufio.NewWriter(w)
	if _, err := bw.Write(fixed); err != nil {
		return fmt.Errorf("failed to write fixed header: %w", err)
	}
	if _, err := bw.Write(headerJSON); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	padding := alignedHeaderEnd(int64(len(headerJSON))) - int64(FixedHeaderSize) - int64(len(headerJSON))
	if _, err := bw.Write(make([]byte, padding)); err != nil {
		return fmt.Errorf("failed to write padding: %w", err)
	}
	if _, err := bw.Write(data); err != nil {
		return fmt.Errorf("failed to write tensor data: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to flush: %w", err)
	}
	return nil
}

// WriteFile writes tensors to path, replacing any existing file. The data is
// written to a temporary file in the same directory and renamed into place.
func WriteFile(path string, header Header, tensors []Tensor) (err error) {
	tmp := path + ".tmp"
	//nolint:gosec // G304: File path comes from user input, which is expected for model saving
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(tmp)
		}
	}()

	if err = Write(f, header, tensors); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}
	if err = os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to rename file: %w", err)
	}
	return nil
}
