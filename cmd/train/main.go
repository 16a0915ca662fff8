// Trains the pothole detector with the fixed hyperparameters through the yolo toolchain and
// prints the validation metrics.
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
)

func main() {
	parser := argparse.NewParser("train", "Train the pothole detector")
	baseDir := parser.String("b", "base", &argparse.Options{Help: "Base directory of the dataset and training files", Default: "."})
	bin := parser.String("y", "yolo", &argparse.Options{Help: "Path to the yolo executable", Default: yolods.YOLOBin})
	verbose := parser.Flag("v", "verbose", &argparse.Options{Help: "Enable debug logging"})
	if err := parser.Parse(os.Args); err != nil {
		fmt.Print(parser.Usage(err))
		os.Exit(1)
	}
	yolods.ConfigureLogging(*verbose)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	layout := yolods.Layout{BaseDir: *baseDir}
	trainer := yolods.NewTrainer(layout, yolods.ExecRunner{Echo: os.Stdout, Dir: *baseDir})
	trainer.Bin = *bin

	metrics, err := trainer.Train(ctx)
	if errors.Is(err, yolods.ErrDataFileMissing) {
		log.Error(err)
		os.Exit(1)
	} else if err != nil {
		log.Fatal(err)
	}
	fmt.Println(metrics)
}
