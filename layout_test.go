package yolods

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrepareCreatesLayout(t *testing.T) {
	layout := Layout{BaseDir: t.TempDir()}
	require.NoError(t, layout.Prepare())

	for _, s := range Splits {
		assert.DirExists(t, layout.ImagesDir(s))
		assert.DirExists(t, layout.LabelsDir(s))
	}
	assert.Equal(t, filepath.Join(layout.BaseDir, "datasets", "pothole_combined", "valid", "labels"),
		layout.LabelsDir(Valid))

	c, err := LoadDataConfig(layout.DataFilePath())
	require.NoError(t, err)
	assert.Equal(t, 1, c.NC)
	assert.Equal(t, ClassNames{"pothole"}, c.Names)
	assert.Equal(t, filepath.Join("train", "images"), c.Train)
	assert.Equal(t, filepath.Join("valid", "images"), c.Val)
	assert.True(t, filepath.IsAbs(c.Path))
}

func TestPrepareIsIdempotent(t *testing.T) {
	layout := Layout{BaseDir: t.TempDir()}
	require.NoError(t, layout.Prepare())

	addSample(t, layout, Train, "keep", "0 0.5 0.5 0.1 0.1\n")
	writeFile(t, layout.DataFilePath(), "names: [crack]\n")

	require.NoError(t, layout.Prepare())
	assert.FileExists(t, filepath.Join(layout.ImagesDir(Train), "keep.png"))
	assert.FileExists(t, filepath.Join(layout.LabelsDir(Train), "keep.txt"))

	enc, err := os.ReadFile(layout.DataFilePath())
	require.NoError(t, err)
	assert.Equal(t, "names: [crack]\n", string(enc))
}

func TestLoadDataConfigNameForms(t *testing.T) {
	dir := t.TempDir()

	seq := filepath.Join(dir, "seq.yaml")
	writeFile(t, seq, "nc: 2\nnames: [pothole, crack]\n")
	c, err := LoadDataConfig(seq)
	require.NoError(t, err)
	assert.Equal(t, ClassNames{"pothole", "crack"}, c.Names)

	mapping := filepath.Join(dir, "map.yaml")
	writeFile(t, mapping, "nc: 2\nnames:\n  1: crack\n  0: pothole\n")
	c, err = LoadDataConfig(mapping)
	require.NoError(t, err)
	assert.Equal(t, ClassNames{"pothole", "crack"}, c.Names)

	bad := filepath.Join(dir, "bad.yaml")
	writeFile(t, bad, "names:\n  5: crack\n")
	_, err = LoadDataConfig(bad)
	require.Error(t, err)
}
