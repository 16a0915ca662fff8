package yolods

import (
	"image"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVisualizerRun(t *testing.T) {
	hook := test.NewGlobal()
	layout := Layout{BaseDir: t.TempDir()}
	require.NoError(t, layout.EnsureDirs())
	addSample(t, layout, Train, "a", "0 0.5 0.5 0.2 0.1\n")
	addSample(t, layout, Train, "b", "0 0.25 0.25 0.1 0.1\n0 0.75 0.75 0.1 0.1\n")
	writePNG(t, filepath.Join(layout.ImagesDir(Train), "c.png"), 200, 100)

	out := layout.Path(VisualizeDir)
	v := NewVisualizer(layout, out, 5)
	v.Rand = rand.New(rand.NewSource(1))

	samples, err := v.Run()
	require.NoError(t, err)
	require.Len(t, samples, 2)

	warned := false
	for _, e := range hook.AllEntries() {
		if e.Message == "Label not found for c.png" {
			warned = true
		}
	}
	assert.True(t, warned)

	for _, s := range samples {
		assert.Equal(t, 200, s.Width)
		assert.Equal(t, 100, s.Height)
		assert.Equal(t, filepath.Join(out, stem(s.Image)+".png"), s.Output)

		f, err := os.Open(s.Output)
		require.NoError(t, err)
		cfg, _, err := image.DecodeConfig(f)
		f.Close()
		require.NoError(t, err)
		assert.Equal(t, 200, cfg.Width)
	}
}

func TestVisualizerSampleCount(t *testing.T) {
	layout := Layout{BaseDir: t.TempDir()}
	require.NoError(t, layout.EnsureDirs())
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		addSample(t, layout, Train, name, "0 0.5 0.5 0.2 0.1\n")
	}

	v := NewVisualizer(layout, t.TempDir(), 3)
	v.MaxSide = 50
	samples, err := v.Run()
	require.NoError(t, err)
	require.Len(t, samples, 3)

	seen := map[string]bool{}
	for _, s := range samples {
		seen[s.Image] = true
		img, err := loadImage(s.Output)
		require.NoError(t, err)
		assert.Equal(t, 50, img.Bounds().Dx())
		assert.Equal(t, 25, img.Bounds().Dy())
	}
	assert.Len(t, seen, 3)
}

func TestVisualizerEmptyTrainSplit(t *testing.T) {
	layout := Layout{BaseDir: t.TempDir()}
	require.NoError(t, layout.EnsureDirs())

	samples, err := NewVisualizer(layout, t.TempDir(), 3).Run()
	require.NoError(t, err)
	assert.Empty(t, samples)
}

func TestDrawBoxes(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 200, 100))
	boxes := []Box{{ClassID: 0, XCenter: 0.5, YCenter: 0.5, Width: 0.2, Height: 0.1}}

	img := DrawBoxes(src, boxes, "", DefaultClassNames)
	require.Equal(t, src.Bounds(), img.Bounds())

	r, g, b, _ := img.At(80, 50).RGBA()
	assert.Greater(t, r, uint32(0xc000))
	assert.Less(t, g, uint32(0x4000))
	assert.Less(t, b, uint32(0x4000))

	r, g, b, _ = img.At(100, 50).RGBA()
	assert.Equal(t, []uint32{0, 0, 0}, []uint32{r, g, b})
}
