package serialization

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Size limits checked before any allocation.
const (
	MaxHeaderSize = 16 * 1024 * 1024 // 16MB - maximum JSON header size
	MaxDataSize   = 4 << 30          // 4GB - maximum data section size
)

// Parameter kinds stored for every layer.
const (
	KindWeight = "weight"
	KindBias   = "bias"
)

// ParseTensorName splits a tensor name of the form layer.<i>.weight or
// layer.<i>.bias. The index must be a canonical decimal number.
func ParseTensorName(name string) (layer int, kind string, err error) {
	rest, ok := strings.CutPrefix(name, "layer.")
	if !ok {
		return 0, "", &ValidationError{Type: "invalid_name", Tensor: name, Details: `missing "layer." prefix`}
	}
	idx, kind, ok := strings.Cut(rest, ".")
	if !ok || (kind != KindWeight && kind != KindBias) {
		return 0, "", &ValidationError{Type: "invalid_name", Tensor: name, Details: "want layer.<i>.weight or layer.<i>.bias"}
	}
	if idx == "" || (len(idx) > 1 && idx[0] == '0') || strings.TrimLeft(idx, "0123456789") != "" {
		return 0, "", &ValidationError{Type: "invalid_name", Tensor: name, Details: fmt.Sprintf("layer index %q is not a decimal number", idx)}
	}
	layer, err = strconv.Atoi(idx)
	if err != nil {
		return 0, "", &ValidationError{Type: "invalid_name", Tensor: name, Details: err.Error()}
	}
	return layer, kind, nil
}

// expectedShape returns the shape of the named parameter of layer i for a
// network with the given layer sizes.
func expectedShape(sizes []int, layer int, kind string) []int {
	if kind == KindWeight {
		return []int{sizes[layer+1], sizes[layer]}
	}
	return []int{sizes[layer+1]}
}

// ValidateLayerSizes checks that sizes describes a network: at least two
// layers, every one positive, and every parameter tensor within MaxDataSize.
func ValidateLayerSizes(sizes []int) error {
	if len(sizes) < 2 {
		return &ValidationError{Type: "invalid_layer_sizes", Details: fmt.Sprintf("%v has fewer than two layers", sizes)}
	}
	const maxElements = MaxDataSize / bytesPerElement
	for i, s := range sizes {
		if s <= 0 || s > maxElements {
			return &ValidationError{Type: "invalid_layer_sizes", Details: fmt.Sprintf("layer %d has size %d", i, s)}
		}
		if i > 0 && int64(s) > maxElements/int64(sizes[i-1]) {
			return &ValidationError{Type: "invalid_layer_sizes", Details: fmt.Sprintf("layer %d weight %d×%d exceeds the data limit", i-1, s, sizes[i-1])}
		}
	}
	return nil
}

// ValidateHeader checks the tensor table in h against its layer sizes and a
// data section of dataSize bytes.
//
// Every layer.<i>.weight and layer.<i>.bias for i < len(LayerSizes)-1 must
// appear exactly once with the shape the layer sizes imply. Tensors are
// float64, packed back to back in table order starting at offset 0, and
// together fill the data section exactly.
func ValidateHeader(h *Header, dataSize int64) error {
	if err := ValidateLayerSizes(h.LayerSizes); err != nil {
		return err
	}
	layers := len(h.LayerSizes) - 1

	seen := make(map[string]bool, len(h.Tensors))
	var offset int64
	for i, t := range h.Tensors {
		layer, kind, err := ParseTensorName(t.Name)
		if err != nil {
			return err
		}
		if layer >= layers {
			return &ValidationError{
				Type:    "unexpected_tensor",
				Tensor:  t.Name,
				Details: fmt.Sprintf("layer %d of a %d-layer network", layer, layers),
			}
		}
		if seen[t.Name] {
			return &ValidationError{Type: "duplicate_tensor", Tensor: t.Name, Details: "listed more than once"}
		}
		seen[t.Name] = true

		if t.DType != DTypeFloat64 {
			return &ValidationError{
				Type:    "unsupported_dtype",
				Tensor:  t.Name,
				Details: fmt.Sprintf("dtype %q, want %q", t.DType, DTypeFloat64),
			}
		}
		want := expectedShape(h.LayerSizes, layer, kind)
		if !slices.Equal(t.Shape, want) {
			return &ValidationError{
				Type:    "shape_mismatch",
				Tensor:  t.Name,
				Details: fmt.Sprintf("shape %v, layer sizes %v imply %v", t.Shape, h.LayerSizes, want),
			}
		}
		if size := int64(numElements(want)) * bytesPerElement; t.Size != size {
			return &ValidationError{
				Type:    "size_mismatch",
				Tensor:  t.Name,
				Details: fmt.Sprintf("shape %v needs %d bytes, header says %d", t.Shape, size, t.Size),
			}
		}
		if t.Offset != offset {
			verr := &ValidationError{
				Type:    "offset_gap",
				Tensor:  t.Name,
				Details: fmt.Sprintf("offset %d, want %d", t.Offset, offset),
			}
			if i > 0 {
				verr.Tensor2 = h.Tensors[i-1].Name
			}
			return verr
		}
		offset += t.Size
	}

	for l := range layers {
		for _, kind := range []string{KindWeight, KindBias} {
			if name := fmt.Sprintf("layer.%d.%s", l, kind); !seen[name] {
				return &ValidationError{Type: "missing_tensor", Tensor: name, Details: fmt.Sprintf("required by layer sizes %v", h.LayerSizes)}
			}
		}
	}

	if offset != dataSize {
		return &ValidationError{
			Type:    "data_size_mismatch",
			Details: fmt.Sprintf("tensors cover %d bytes, data section has %d", offset, dataSize),
		}
	}
	return nil
}
