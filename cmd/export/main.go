// Exports the trained pothole detector to a float16 TFLite model and verifies that the artifact
// loads and runs.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/akamensky/argparse"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/pothole-detection/yolods"
	"github.com/pothole-detection/yolods/tfliterun"
)

func main() {
	parser := argparse.NewParser("export", "Export and verify the pothole detector")
	baseDir := parser.String("b", "base", &argparse.Options{Help: "Base directory of the dataset and training files", Default: "."})
	bin := parser.String("y", "yolo", &argparse.Options{Help: "Path to the yolo executable", Default: yolods.YOLOBin})
	verifyOnly := parser.String("m", "model", &argparse.Options{Help: "Skip the export and only verify this .tflite file"})
	threads := parser.Int("t", "threads", &argparse.Options{Help: "Interpreter threads for the test inference", Default: 1})
	verbose := parser.Flag("v", "verbose", &argparse.Options{Help: "Enable debug logging"})
	if err := parser.Parse(os.Args); err != nil {
		fmt.Print(parser.Usage(err))
		os.Exit(1)
	}
	yolods.ConfigureLogging(*verbose)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	artifact := *verifyOnly
	if artifact == "" {
		layout := yolods.Layout{BaseDir: *baseDir}
		exporter := yolods.NewExporter(layout, yolods.ExecRunner{Echo: os.Stdout, Dir: *baseDir})
		exporter.Bin = *bin

		outputs, err := exporter.Export(ctx)
		if errors.Is(err, yolods.ErrWeightsMissing) {
			log.Error(err)
			os.Exit(1)
		} else if err != nil {
			log.Fatal(err)
		}

		var ok bool
		if artifact, ok = yolods.FindArtifact(outputs, yolods.TFLiteExt); !ok {
			log.Error("Could not locate TFLite file for verification.")
			return
		}
	}

	verifier := yolods.NewVerifier(tfliterun.Runtime{NumThreads: *threads})
	report := verifier.Verify(artifact)
	if _, err := report.WriteTo(os.Stdout); err != nil {
		log.Fatal(err)
	}
}
