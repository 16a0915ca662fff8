package yolods

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateLabelFile(t *testing.T) {
	dir := t.TempDir()
	cases := []struct {
		name    string
		content string
		valid   bool
	}{
		{"single", "0 0.5 0.5 0.2 0.3\n", true},
		{"multiple", "0 0.5 0.5 0.2 0.3\n0 0.1 0.9 0.05 0.05\n", true},
		{"bounds", "0 0 1 0 1\n", true},
		{"tabs", "0\t0.5\t0.5\t0.2\t0.3\n", true},
		{"no trailing newline", "0 0.5 0.5 0.2 0.3", true},
		{"four tokens", "0 0.5 0.5 0.2\n", false},
		{"six tokens", "0 0.5 0.5 0.2 0.3 0.9\n", false},
		{"above one", "0 1.2 0.5 0.2 0.3\n", false},
		{"negative", "0 0.5 -0.1 0.2 0.3\n", false},
		{"not a number", "0 0.5 abc 0.2 0.3\n", false},
		{"nan", "0 0.5 NaN 0.2 0.3\n", false},
		{"exponent", "0 5e-1 0.5 0.2 0.3\n", true},
		{"hex float", "0 0x1p-1 0.5 0.2 0.3\n", false},
		{"digit separator", "0 0.5 0.5 0.2 0.3_0\n", false},
		{"one bad line", "0 0.5 0.5 0.2 0.3\n0 0.5 0.5 2 0.3\n", false},
		{"blank line", "0 0.5 0.5 0.2 0.3\n\n", false},
		{"empty", "", false},
	}
	for i, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			path := filepath.Join(dir, string(rune('a'+i))+LabelFileExt)
			writeFile(t, path, c.content)
			err := ValidateLabelFile(path, false)
			if c.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidateLabelFileEmptyAllowed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.txt")
	writeFile(t, path, "")
	require.Error(t, ValidateLabelFile(path, false))
	require.NoError(t, ValidateLabelFile(path, true))
}

func TestValidateLabelFileMissing(t *testing.T) {
	require.Error(t, ValidateLabelFile(filepath.Join(t.TempDir(), "nope.txt"), true))
}

func TestParseLabelLine(t *testing.T) {
	b, err := ParseLabelLine("2 0.5 0.25 0.1 0.2")
	require.NoError(t, err)
	require.Equal(t, Box{ClassID: 2, XCenter: 0.5, YCenter: 0.25, Width: 0.1, Height: 0.2}, b)

	_, err = ParseLabelLine("1.5 0.5 0.25 0.1 0.2")
	require.Error(t, err)
	_, err = ParseLabelLine("-1 0.5 0.25 0.1 0.2")
	require.Error(t, err)
}

func TestBoxToPixels(t *testing.T) {
	b := Box{ClassID: 0, XCenter: 0.5, YCenter: 0.5, Width: 0.2, Height: 0.1}
	r := b.ToPixels(200, 100)
	assert.InDelta(t, 80, r.X1, 1e-9)
	assert.InDelta(t, 45, r.Y1, 1e-9)
	assert.InDelta(t, 40, r.W, 1e-9)
	assert.InDelta(t, 10, r.H, 1e-9)
	assert.InDelta(t, 120, r.X2(), 1e-9)
	assert.InDelta(t, 55, r.Y2(), 1e-9)

	xmin, ymin, xmax, ymax := b.Corners()
	assert.InDelta(t, 0.4, xmin, 1e-9)
	assert.InDelta(t, 0.45, ymin, 1e-9)
	assert.InDelta(t, 0.6, xmax, 1e-9)
	assert.InDelta(t, 0.55, ymax, 1e-9)
}

func TestReadLabelFileSkipsBadLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "l.txt")
	writeFile(t, path, "0 0.5 0.5 0.2 0.1\nbroken\n0 0.2 0.2 0.1 0.1\n")

	boxes, err := ReadLabelFile(path)
	require.NoError(t, err)
	require.Len(t, boxes, 2)
	assert.Equal(t, 0.2, boxes[1].XCenter)

	n, err := CountLabelLines(path)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestReadLabelFileKeepsOutOfRangeBoxes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "l.txt")
	writeFile(t, path, "0 0.5 0.5 0.2 0.1\n0 1.05 0.5 0.2 0.1\n0 0x1p-1 0.5 0.2 0.1\n")

	boxes, err := ReadLabelFile(path)
	require.NoError(t, err)
	require.Len(t, boxes, 2)
	assert.Equal(t, 1.05, boxes[1].XCenter)
}

func TestCountLabelLinesLongLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "long.txt")
	writeFile(t, path, "0 0.5 0.5 0.2 0.1"+strings.Repeat(" ", 70000)+"\r\n0 0.1 0.1 0.1 0.1")

	n, err := CountLabelLines(path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	boxes, err := ReadLabelFile(path)
	require.NoError(t, err)
	assert.Len(t, boxes, 2)
}
