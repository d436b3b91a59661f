// Package mnist loads the MNIST handwritten digit dataset from IDX files and
// converts it into training examples.
//
// Both the raw files (train-images-idx3-ubyte) and the gzip-compressed
// distribution (train-images-idx3-ubyte.gz) are supported.
package mnist

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/petar/GoMNIST"

	"github.com/born-ml/mlp/internal/nn"
)

// Classes is the number of digit classes.
const Classes = 10

// Split selects the training or the test set.
type Split int

// Dataset splits.
const (
	Train Split = iota
	Test
)

// String returns the file prefix of the split.
func (s Split) String() string {
	if s == Test {
		return "t10k"
	}
	return "train"
}

var (
	// ErrBadMagic is returned when an IDX file does not start with the
	// expected magic number.
	ErrBadMagic = errors.New("mnist: bad magic number")

	// ErrCountMismatch is returned when the image and label files disagree
	// on the number of samples.
	ErrCountMismatch = errors.New("mnist: image and label counts differ")

	// ErrBadDimensions is returned when an IDX image header declares an
	// empty or implausibly large image.
	ErrBadDimensions = errors.New("mnist: image dimensions out of range")

	// ErrNotFound is returned when no image/label file pair exists for a split.
	ErrNotFound = errors.New("mnist: dataset files not found")
)

// Set holds raw images and labels of one split.
type Set struct {
	Rows   int
	Cols   int
	Images [][]byte // Rows*Cols pixels per image, row-major, 0..255
	Labels []uint8
}

// Count returns the number of samples.
func (s *Set) Count() int { return len(s.Images) }

// Load reads split from dir. limit > 0 keeps only the first limit samples.
//
// The file names tried, in order, are the standard names
// (train-images-idx3-ubyte), the dotted variant (train-images.idx3-ubyte)
// and the gzip-compressed standard names.
func Load(dir string, split Split, limit int) (*Set, error) {
	prefix := split.String()
	raw := [][2]string{
		{prefix + "-images-idx3-ubyte", prefix + "-labels-idx1-ubyte"},
		{prefix + "-images.idx3-ubyte", prefix + "-labels.idx1-ubyte"},
	}

	var (
		set *Set
		err error
	)
	for _, names := range raw {
		images, labels := filepath.Join(dir, names[0]), filepath.Join(dir, names[1])
		if exists(images) && exists(labels) {
			set, err = readRawSet(images, labels)
			break
		}
	}
	if set == nil && err == nil {
		images := filepath.Join(dir, raw[0][0]+".gz")
		labels := filepath.Join(dir, raw[0][1]+".gz")
		if !exists(images) || !exists(labels) {
			return nil, fmt.Errorf("%w: %s split in %s", ErrNotFound, prefix, dir)
		}
		set, err = readGzipSet(images, labels)
	}
	if err != nil {
		return nil, err
	}

	if len(set.Images) != len(set.Labels) {
		return nil, fmt.Errorf("%w: %d images, %d labels", ErrCountMismatch, len(set.Images), len(set.Labels))
	}
	for i, l := range set.Labels {
		if int(l) >= Classes {
			return nil, fmt.Errorf("mnist: label %d of sample %d out of range [0, %d)", l, i, Classes)
		}
	}
	if limit > 0 && limit < set.Count() {
		set.Images = set.Images[:limit]
		set.Labels = set.Labels[:limit]
	}
	return set, nil
}

// readGzipSet reads the compressed distribution with GoMNIST.
func readGzipSet(images, labels string) (*Set, error) {
	gs, err := GoMNIST.ReadSet(images, labels)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", images, err)
	}
	set := &Set{
		Rows:   gs.NRow,
		Cols:   gs.NCol,
		Images: make([][]byte, len(gs.Images)),
		Labels: make([]uint8, len(gs.Labels)),
	}
	for i, img := range gs.Images {
		set.Images[i] = []byte(img)
	}
	for i, l := range gs.Labels {
		set.Labels[i] = uint8(l)
	}
	return set, nil
}

func exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Examples converts set into network examples: pixels scaled to [0, 1] and
// one-hot targets of length classes.
func Examples(set *Set, classes int) []nn.Example {
	out := make([]nn.Example, set.Count())
	for i, img := range set.Images {
		x := make([]float64, len(img))
		for j, p := range img {
			x[j] = float64(p) / 255.0
		}
		out[i] = nn.NewExample(x, int(set.Labels[i]), classes)
	}
	return out
}
