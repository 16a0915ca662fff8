package yolods

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveChartAndHTML(t *testing.T) {
	layout := Layout{BaseDir: t.TempDir()}
	require.NoError(t, layout.EnsureDirs())
	addSample(t, layout, Train, "t1", "0 0.5 0.5 0.1 0.1\n")
	addSample(t, layout, Test, "x1", "0 0.5 0.5 0.1 0.1\n0 0.1 0.1 0.1 0.1\n")

	stats, err := CollectStats(layout)
	require.NoError(t, err)

	out := t.TempDir()
	chart := filepath.Join(out, "stats.png")
	require.NoError(t, stats.SaveChart(chart))
	info, err := os.Stat(chart)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	html := filepath.Join(out, "stats.html")
	require.NoError(t, stats.SaveHTML(html))
	enc, err := os.ReadFile(html)
	require.NoError(t, err)
	assert.Contains(t, string(enc), "echarts")
}

func TestSaveHTMLNoData(t *testing.T) {
	stats, err := CollectStats(Layout{BaseDir: t.TempDir()})
	require.NoError(t, err)

	html := filepath.Join(t.TempDir(), "stats.html")
	require.NoError(t, stats.SaveHTML(html))
	assert.FileExists(t, html)
}
