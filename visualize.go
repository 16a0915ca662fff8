package yolods

// Rendering of annotated samples for manual inspection.

import (
	"fmt"
	"image"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/fogleman/gg"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Sample is one rendered training image.
type Sample struct {
	Image  string // Source image path.
	Width  int    // Source image width in pixels.
	Height int    // Source image height in pixels.
	Boxes  []Box
	Output string // Rendered overlay path.
}

// Visualizer draws the labelled boxes over randomly picked training images.
type Visualizer struct {
	Layout     Layout
	OutDir     string
	Samples    int        // Number of images to render.
	MaxSide    int        // Longest side of the rendered overlay, zero keeps the source size.
	ClassNames []string   // Tag per class id; "pothole" when unknown.
	Rand       *rand.Rand // Sample selection; seeded from the clock when nil.
}

// NewVisualizer returns a Visualizer writing up to samples overlays to outDir.
func NewVisualizer(layout Layout, outDir string, samples int) *Visualizer {
	return &Visualizer{
		Layout:     layout,
		OutDir:     outDir,
		Samples:    samples,
		ClassNames: DefaultClassNames,
		Rand:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// pick returns min(n, len(files)) distinct files in random order.
func (v *Visualizer) pick(files []string) []string {
	rng := v.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	n := v.Samples
	if n > len(files) {
		n = len(files)
	}
	if n < 0 {
		n = 0
	}
	picked := make([]string, 0, n)
	for _, i := range rng.Perm(len(files))[:n] {
		picked = append(picked, files[i])
	}
	return picked
}

// Run renders the sampled images. Images without a label file are logged and skipped.
func (v *Visualizer) Run() ([]Sample, error) {
	images, err := filesByExtInDir(v.Layout.ImagesDir(Train), "")
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(v.OutDir, 0755); err != nil {
		return nil, errors.Wrapf(err, "cannot create %q", v.OutDir)
	}

	var samples []Sample
	for _, imgPath := range v.pick(images) {
		name := filepath.Base(imgPath)
		labelPath := filepath.Join(v.Layout.LabelsDir(Train), stem(imgPath)+LabelFileExt)
		if !fileExists(labelPath) {
			log.Warnf("Label not found for %s", name)
			continue
		}

		s, err := v.render(imgPath, labelPath)
		if err != nil {
			log.WithError(err).Errorf("Failed to render %s", name)
			continue
		}
		log.Infof("%s: image size %dx%d, %d pothole(s), saved to %s",
			name, s.Width, s.Height, len(s.Boxes), s.Output)
		samples = append(samples, s)
	}

	return samples, nil
}

func (v *Visualizer) render(imgPath, labelPath string) (Sample, error) {
	img, err := loadImage(imgPath)
	if err != nil {
		return Sample{}, err
	}
	boxes, err := ReadLabelFile(labelPath)
	if err != nil {
		return Sample{}, err
	}

	b := img.Bounds()
	s := Sample{Image: imgPath, Width: b.Dx(), Height: b.Dy(), Boxes: boxes}

	img, _ = fitImage(img, v.MaxSide)
	title := fmt.Sprintf("%s - %d pothole(s)", filepath.Base(imgPath), len(boxes))
	overlay := DrawBoxes(img, boxes, title, v.ClassNames)

	s.Output = filepath.Join(v.OutDir, stem(imgPath)+".png")
	if err := saveImage(s.Output, overlay, 90); err != nil {
		return s, errors.Wrapf(err, "cannot save %q", s.Output)
	}
	return s, nil
}

// DrawBoxes returns a copy of img with every box outlined in red and tagged with its class name,
// and title drawn at the top.
func DrawBoxes(img image.Image, boxes []Box, title string, classNames []string) image.Image {
	b := img.Bounds()
	dc := gg.NewContextForImage(img)

	for _, box := range boxes {
		r := box.ToPixels(b.Dx(), b.Dy())

		dc.SetRGB(1, 0, 0)
		dc.SetLineWidth(2)
		dc.DrawRectangle(r.X1, r.Y1, r.W, r.H)
		dc.Stroke()

		tag := "pothole"
		if box.ClassID < len(classNames) {
			tag = classNames[box.ClassID]
		}
		drawTag(dc, tag, r.X1, r.Y1-5)
	}

	if title != "" {
		drawTag(dc, title, 4, 16)
	}

	return dc.Image()
}

// drawTag draws red text with its baseline at (x, y) on a translucent white background.
func drawTag(dc *gg.Context, text string, x, y float64) {
	w, h := dc.MeasureString(text)
	dc.SetRGBA(1, 1, 1, 0.7)
	dc.DrawRectangle(x-2, y-h-2, w+4, h+4)
	dc.Fill()
	dc.SetRGB(1, 0, 0)
	dc.DrawString(text, x, y)
}
