// Creates the empty train/valid/test directory structure of the pothole dataset.
package main

import (
	"fmt"
	"os"

	"github.com/akamensky/argparse"
	log "github.com/sirupsen/logrus"

	"github.com/pothole-detection/yolods"
)

func main() {
	parser := argparse.NewParser("prepare", "Create the dataset directory structure")
	baseDir := parser.String("b", "base", &argparse.Options{Help: "Base directory of the dataset and training files", Default: "."})
	verbose := parser.Flag("v", "verbose", &argparse.Options{Help: "Enable debug logging"})
	if err := parser.Parse(os.Args); err != nil {
		fmt.Print(parser.Usage(err))
		os.Exit(1)
	}
	yolods.ConfigureLogging(*verbose)

	layout := yolods.Layout{BaseDir: *baseDir}
	if err := layout.Prepare(); err != nil {
		log.Fatal("Failed to create the directory structure: ", err)
	}
}
