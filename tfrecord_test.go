package yolods

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToTFRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.png")
	writePNG(t, path, 200, 100)

	f, err := toTFRecord(path, []Box{
		{ClassID: 0, XCenter: 0.5, YCenter: 0.5, Width: 0.2, Height: 0.1},
		{ClassID: 3, XCenter: 0.02, YCenter: 0.98, Width: 0.1, Height: 0.1},
	}, DefaultClassNames)
	require.NoError(t, err)

	assert.Equal(t, 200, f["image/width"])
	assert.Equal(t, 100, f["image/height"])
	assert.Equal(t, "png", f["image/format"])
	assert.Equal(t, "a.png", f["image/filename"])
	assert.Equal(t, []string{"pothole", "class_3"}, f["image/object/class/text"])
	assert.Equal(t, []int64{1, 4}, f["image/object/class/label"])

	xmins := f["image/object/bbox/xmin"].([]float32)
	ymaxs := f["image/object/bbox/ymax"].([]float32)
	assert.InDelta(t, 0.4, xmins[0], 1e-6)
	assert.Equal(t, float32(0), xmins[1])
	assert.Equal(t, float32(1), ymaxs[1])
}

func TestWriteSplitTFRecord(t *testing.T) {
	layout := Layout{BaseDir: t.TempDir()}
	require.NoError(t, layout.EnsureDirs())
	addSample(t, layout, Valid, "a", "0 0.5 0.5 0.2 0.1\n")
	addSample(t, layout, Valid, "b", "1 0.5 0.5 0.2 0.1\n")
	addSample(t, layout, Valid, "c", "0 0.5 0.5 0.2 0.1\n")

	out := t.TempDir()
	record := filepath.Join(out, "valid.tfrecord")
	labelMap := filepath.Join(out, "label_map.pbtxt")

	n, err := WriteSplitTFRecord(layout, Valid, record, labelMap, []string{"pothole"}, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	for _, shard := range []string{"-00000-of-00002", "-00001-of-00002"} {
		info, err := os.Stat(record + shard)
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0))
	}

	enc, err := os.ReadFile(labelMap)
	require.NoError(t, err)
	assert.Equal(t, "item {\n  id: 1\n  name: \"pothole\"\n}\nitem {\n  id: 2\n  name: \"class_1\"\n}\n", string(enc))
}

func TestWriteSplitTFRecordEmptySplit(t *testing.T) {
	layout := Layout{BaseDir: t.TempDir()}
	require.NoError(t, layout.EnsureDirs())

	_, err := WriteSplitTFRecord(layout, Test, filepath.Join(t.TempDir(), "x.tfrecord"),
		filepath.Join(t.TempDir(), "map.pbtxt"), DefaultClassNames, 1)
	require.Error(t, err)
}
