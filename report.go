package yolods

// Chart renderings of the dataset statistics.

import (
	"bytes"
	"fmt"
	"image/color"
	"io"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// splitNames returns the split names in d's order.
func (d *DatasetStats) splitNames() []string {
	names := make([]string, len(d.Splits))
	for i, s := range d.Splits {
		names[i] = string(s.Split)
	}
	return names
}

// SaveChart writes a PNG (or any format gonum/plot infers from the extension) bar chart of images
// and annotations per split to path.
func (d *DatasetStats) SaveChart(path string) error {
	images := make(plotter.Values, len(d.Splits))
	annotations := make(plotter.Values, len(d.Splits))
	for i, s := range d.Splits {
		images[i] = float64(s.Images)
		annotations[i] = float64(s.Annotations)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Pothole dataset (%d images)", d.TotalImages())
	p.Y.Label.Text = "Count"

	width := vg.Points(20)
	imgBars, err := plotter.NewBarChart(images, width)
	if err != nil {
		return errors.Wrap(err, "failed to build image bars")
	}
	imgBars.Color = color.RGBA{R: 66, G: 133, B: 244, A: 255}
	imgBars.Offset = -width / 2

	annBars, err := plotter.NewBarChart(annotations, width)
	if err != nil {
		return errors.Wrap(err, "failed to build annotation bars")
	}
	annBars.Color = color.RGBA{R: 219, G: 68, B: 55, A: 255}
	annBars.Offset = width / 2

	p.Add(imgBars, annBars)
	p.Legend.Add("images", imgBars)
	p.Legend.Add("potholes", annBars)
	p.Legend.Top = true
	p.NominalX(d.splitNames()...)

	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "failed to save chart %q", path)
	}
	return nil
}

// SaveHTML writes an interactive HTML page with the per-split counts to path.
func (d *DatasetStats) SaveHTML(path string) error {
	images := make([]opts.BarData, len(d.Splits))
	annotations := make([]opts.BarData, len(d.Splits))
	for i, s := range d.Splits {
		images[i] = opts.BarData{Value: s.Images}
		annotations[i] = opts.BarData{Value: s.Annotations}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Pothole dataset", Width: "900px", Height: "500px"}),
		charts.WithTitleOpts(opts.Title{Title: "Pothole dataset", Subtitle: fmt.Sprintf("images=%d potholes=%d", d.TotalImages(), d.TotalAnnotations())}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(d.splitNames()).
		AddSeries("images", images, charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"})).
		AddSeries("potholes", annotations, charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}))

	page := components.NewPage()
	page.AddCharts(bar)

	if d.HasData() {
		ratios := make([]opts.PieData, 0, len(d.Splits))
		for _, s := range d.Splits {
			ratios = append(ratios, opts.PieData{Name: string(s.Split), Value: s.Images})
		}
		pie := charts.NewPie()
		pie.SetGlobalOptions(
			charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "500px"}),
			charts.WithTitleOpts(opts.Title{Title: "Split ratios"}),
		)
		pie.AddSeries("split", ratios, charts.WithLabelOpts(opts.Label{Show: opts.Bool(true)}))
		page.AddCharts(pie)
	}

	return renderToFile(path, page.Render)
}

func renderToFile(path string, render func(w io.Writer) error) error {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		return errors.Wrap(err, "render error")
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return errors.Wrapf(err, "cannot write file %q", path)
	}
	return nil
}
