// Renders the labelled boxes of randomly picked training images for manual inspection.
package main

import (
	"fmt"
	"math/rand"
	"os"

	"github.com/akamensky/argparse"
	log "github.com/sirupsen/logrus"

	"github.com/pothole-detection/yolods"
)

func main() {
	parser := argparse.NewParser("visualize", "Visualize random training samples")
	baseDir := parser.String("b", "base", &argparse.Options{Help: "Base directory of the dataset and training files", Default: "."})
	outDir := parser.String("o", "out", &argparse.Options{Help: "Output directory for the overlays (default <base>/" + yolods.VisualizeDir + ")"})
	samples := parser.Int("n", "samples", &argparse.Options{Help: "Number of images to render", Default: 3})
	maxSide := parser.Int("s", "max-side", &argparse.Options{Help: "Downscale overlays to this longest side, 0 keeps the source size", Default: 0})
	seed := parser.Int("r", "seed", &argparse.Options{Help: "Seed for the sample selection, 0 seeds from the clock", Default: 0})
	verbose := parser.Flag("v", "verbose", &argparse.Options{Help: "Enable debug logging"})
	if err := parser.Parse(os.Args); err != nil {
		fmt.Print(parser.Usage(err))
		os.Exit(1)
	}
	yolods.ConfigureLogging(*verbose)

	layout := yolods.Layout{BaseDir: *baseDir}
	dir := *outDir
	if dir == "" {
		dir = layout.Path(yolods.VisualizeDir)
	}

	v := yolods.NewVisualizer(layout, dir, *samples)
	v.MaxSide = *maxSide
	if *seed != 0 {
		v.Rand = rand.New(rand.NewSource(int64(*seed)))
	}
	if cfg, err := yolods.LoadDataConfig(layout.DataFilePath()); err == nil && len(cfg.Names) > 0 {
		v.ClassNames = cfg.Names
	}

	log.Info("Visualizing random samples from training set...")
	rendered, err := v.Run()
	if err != nil {
		log.Fatal(err)
	}
	log.Infof("Rendered %d samples to %s", len(rendered), dir)
}
