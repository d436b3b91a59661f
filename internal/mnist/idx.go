package mnist

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// IDX magic numbers.
const (
	imageMagic = 2051 // 0x00000803
	labelMagic = 2049 // 0x00000801
)

// Limits on what an IDX header may make us allocate before the data backs it.
const (
	maxImageSide = 1024
	maxPrealloc  = 1 << 16 // images reserved up front
)

// readRawSet reads an uncompressed image/label file pair.
func readRawSet(images, labels string) (*Set, error) {
	set := &Set{}
	var err error
	if set.Rows, set.Cols, set.Images, err = readImageFile(images); err != nil {
		return nil, fmt.Errorf("failed to load images: %w", err)
	}
	if set.Labels, err = readLabelFile(labels); err != nil {
		return nil, fmt.Errorf("failed to load labels: %w", err)
	}
	return set, nil
}

func readImageFile(name string) (rows, cols int, images [][]byte, err error) {
	//nolint:gosec // G304: dataset path is user-provided by design
	f, err := os.Open(name)
	if err != nil {
		return 0, 0, nil, err
	}
	defer f.Close()
	return readImages(bufio.NewReader(f))
}

func readLabelFile(name string) ([]uint8, error) {
	//nolint:gosec // G304: dataset path is user-provided by design
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readLabels(bufio.NewReader(f))
}

// readImages parses an IDX image stream:
//
//	magic number: 0x00000803 (2051)
//	number of images: 4 bytes
//	number of rows: 4 bytes
//	number of cols: 4 bytes
//	pixel data: unsigned bytes (0-255)
func readImages(r io.Reader) (rows, cols int, images [][]byte, err error) {
	var hdr [4]uint32
	if err := binary.Read(r, binary.BigEndian, &hdr); err != nil {
		return 0, 0, nil, fmt.Errorf("failed to read header: %w", err)
	}
	if hdr[0] != imageMagic {
		return 0, 0, nil, fmt.Errorf("%w: got %d, want %d", ErrBadMagic, hdr[0], imageMagic)
	}

	if hdr[2] == 0 || hdr[3] == 0 || hdr[2] > maxImageSide || hdr[3] > maxImageSide {
		return 0, 0, nil, fmt.Errorf("%w: %d×%d", ErrBadDimensions, hdr[2], hdr[3])
	}
	n, rows, cols := int(hdr[1]), int(hdr[2]), int(hdr[3])

	// The count comes from the file; grow with the data actually read.
	size := rows * cols
	images = make([][]byte, 0, min(n, maxPrealloc))
	for i := range n {
		img := make([]byte, size)
		if _, err := io.ReadFull(r, img); err != nil {
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return 0, 0, nil, fmt.Errorf("failed to read image %d of %d: %w", i, n, err)
		}
		images = append(images, img)
	}
	return rows, cols, images, nil
}

// readLabels parses an IDX label stream:
//
//	magic number: 0x00000801 (2049)
//	number of labels: 4 bytes
//	label data: unsigned bytes (0-9)
func readLabels(r io.Reader) ([]uint8, error) {
	var hdr [2]uint32
	if err := binary.Read(r, binary.BigEndian, &hdr); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if hdr[0] != labelMagic {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrBadMagic, hdr[0], labelMagic)
	}
	n := int64(hdr[1])
	labels, err := io.ReadAll(io.LimitReader(r, n))
	if err != nil {
		return nil, fmt.Errorf("failed to read labels: %w", err)
	}
	if int64(len(labels)) != n {
		return nil, fmt.Errorf("failed to read labels: got %d of %d: %w", len(labels), n, io.ErrUnexpectedEOF)
	}
	return labels, nil
}
