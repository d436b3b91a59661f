package mnist

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func idxImages(t *testing.T, magic uint32, rows, cols int, images [][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	hdr := [4]uint32{magic, uint32(len(images)), uint32(rows), uint32(cols)}
	require.NoError(t, binary.Write(&buf, binary.BigEndian, hdr))
	for _, img := range images {
		buf.Write(img)
	}
	return buf.Bytes()
}

func idxLabels(t *testing.T, magic uint32, labels []uint8) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.BigEndian, [2]uint32{magic, uint32(len(labels))}))
	buf.Write(labels)
	return buf.Bytes()
}

func gz(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, err := w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func writeFile(t *testing.T, dir, name string, data []byte) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o600))
}

var (
	testImages = [][]byte{
		{0, 255, 128, 64},
		{255, 255, 0, 0},
		{10, 20, 30, 40},
	}
	testLabels = []uint8{7, 0, 9}
)

func TestLoad_Raw(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "train-images-idx3-ubyte", idxImages(t, imageMagic, 2, 2, testImages))
	writeFile(t, dir, "train-labels-idx1-ubyte", idxLabels(t, labelMagic, testLabels))

	set, err := Load(dir, Train, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, set.Rows)
	assert.Equal(t, 2, set.Cols)
	assert.Equal(t, 3, set.Count())
	assert.Equal(t, testImages, set.Images)
	assert.Equal(t, testLabels, set.Labels)
}

func TestLoad_DottedNames(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "t10k-images.idx3-ubyte", idxImages(t, imageMagic, 2, 2, testImages))
	writeFile(t, dir, "t10k-labels.idx1-ubyte", idxLabels(t, labelMagic, testLabels))

	set, err := Load(dir, Test, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, set.Count(), "limit")
	assert.Equal(t, testLabels[:2], set.Labels)
}

func TestLoad_Gzip(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "train-images-idx3-ubyte.gz", gz(t, idxImages(t, imageMagic, 2, 2, testImages)))
	writeFile(t, dir, "train-labels-idx1-ubyte.gz", gz(t, idxLabels(t, labelMagic, testLabels)))

	set, err := Load(dir, Train, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, set.Rows)
	assert.Equal(t, 2, set.Cols)
	assert.Equal(t, testImages, set.Images)
	assert.Equal(t, testLabels, set.Labels)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		_, err := Load(t.TempDir(), Train, 0)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("bad image magic", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "train-images-idx3-ubyte", idxImages(t, labelMagic, 2, 2, testImages))
		writeFile(t, dir, "train-labels-idx1-ubyte", idxLabels(t, labelMagic, testLabels))
		_, err := Load(dir, Train, 0)
		assert.ErrorIs(t, err, ErrBadMagic)
	})

	t.Run("bad label magic", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "train-images-idx3-ubyte", idxImages(t, imageMagic, 2, 2, testImages))
		writeFile(t, dir, "train-labels-idx1-ubyte", idxLabels(t, imageMagic, testLabels))
		_, err := Load(dir, Train, 0)
		assert.ErrorIs(t, err, ErrBadMagic)
	})

	t.Run("count mismatch", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "train-images-idx3-ubyte", idxImages(t, imageMagic, 2, 2, testImages))
		writeFile(t, dir, "train-labels-idx1-ubyte", idxLabels(t, labelMagic, testLabels[:2]))
		_, err := Load(dir, Train, 0)
		assert.ErrorIs(t, err, ErrCountMismatch)
	})

	t.Run("label out of range", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "train-images-idx3-ubyte", idxImages(t, imageMagic, 2, 2, testImages))
		writeFile(t, dir, "train-labels-idx1-ubyte", idxLabels(t, labelMagic, []uint8{1, 2, 10}))
		_, err := Load(dir, Train, 0)
		assert.ErrorContains(t, err, "out of range")
	})

	t.Run("truncated", func(t *testing.T) {
		dir := t.TempDir()
		data := idxImages(t, imageMagic, 2, 2, testImages)
		writeFile(t, dir, "train-images-idx3-ubyte", data[:len(data)-1])
		writeFile(t, dir, "train-labels-idx1-ubyte", idxLabels(t, labelMagic, testLabels))
		_, err := Load(dir, Train, 0)
		assert.Error(t, err)
	})
}

func TestReadImages_CorruptHeader(t *testing.T) {
	t.Run("huge count", func(t *testing.T) {
		data := idxImages(t, imageMagic, 2, 2, testImages)
		binary.BigEndian.PutUint32(data[4:8], 0xFFFFFFFF)
		_, _, _, err := readImages(bytes.NewReader(data))
		require.Error(t, err)
		assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
		assert.Contains(t, err.Error(), "image 3 of 4294967295")
	})

	for _, dims := range [][2]uint32{{0, 28}, {28, 0}, {0xFFFFFFFF, 0xFFFFFFFF}, {maxImageSide + 1, 1}} {
		data := idxImages(t, imageMagic, 2, 2, testImages)
		binary.BigEndian.PutUint32(data[8:12], dims[0])
		binary.BigEndian.PutUint32(data[12:16], dims[1])
		_, _, _, err := readImages(bytes.NewReader(data))
		assert.ErrorIs(t, err, ErrBadDimensions, "%v", dims)
	}
}

func TestReadLabels_CorruptHeader(t *testing.T) {
	data := idxLabels(t, labelMagic, testLabels)
	binary.BigEndian.PutUint32(data[4:8], 0xFFFFFFFF)
	_, err := readLabels(bytes.NewReader(data))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

	labels, err := readLabels(bytes.NewReader(idxLabels(t, labelMagic, testLabels)))
	require.NoError(t, err)
	assert.Equal(t, testLabels, labels)
}

func TestExamples(t *testing.T) {
	set := &Set{Rows: 2, Cols: 2, Images: testImages, Labels: testLabels}
	examples := Examples(set, Classes)
	require.Len(t, examples, 3)

	ex := examples[0]
	assert.Equal(t, 7, ex.Class)
	assert.Equal(t, 4, ex.X.Len())
	assert.Equal(t, 0.0, ex.X.AtVec(0))
	assert.Equal(t, 1.0, ex.X.AtVec(1))
	assert.InDelta(t, 128.0/255.0, ex.X.AtVec(2), 1e-15)
	assert.Equal(t, Classes, ex.Y.Len())
	assert.Equal(t, 1.0, ex.Y.AtVec(7))
	assert.Equal(t, 1.0, sum(ex.Y.RawVector().Data))
}

func sum(xs []float64) float64 {
	var s float64
	for _, x := range xs {
		s += x
	}
	return s
}

func TestRender(t *testing.T) {
	img := []byte{255, 180, 120, 60, 0, 0}
	out := Render(img, 2, 3)
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "█▓▒", lines[0])
	assert.Equal(t, "░  ", lines[1])
}

func TestSplitString(t *testing.T) {
	assert.Equal(t, "train", Train.String())
	assert.Equal(t, "t10k", Test.String())
}
