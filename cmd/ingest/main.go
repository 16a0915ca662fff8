// Imports zipped YOLO datasets from the downloads folder into the combined train/valid/test
// dataset, skipping images without a valid label file.
package main

import (
	"fmt"
	"os"

	"github.com/akamensky/argparse"
	log "github.com/sirupsen/logrus"

	"github.com/pothole-detection/yolods"
)

func main() {
	parser := argparse.NewParser("ingest", "Ingest zipped YOLO datasets")
	baseDir := parser.String("b", "base", &argparse.Options{Help: "Base directory of the dataset and training files", Default: "."})
	downloads := parser.String("d", "downloads", &argparse.Options{Help: "Folder with the dataset zip files (default <base>/" + yolods.DownloadsDir + ")"})
	seed := parser.Int("s", "seed", &argparse.Options{Help: "Seed for the split assignment, 0 seeds from the clock", Default: 0})
	allowEmpty := parser.Flag("e", "allow-empty", &argparse.Options{Help: "Accept empty label files as images without potholes"})
	verbose := parser.Flag("v", "verbose", &argparse.Options{Help: "Enable debug logging"})
	if err := parser.Parse(os.Args); err != nil {
		fmt.Print(parser.Usage(err))
		os.Exit(1)
	}
	yolods.ConfigureLogging(*verbose)

	layout := yolods.Layout{BaseDir: *baseDir}
	dir := *downloads
	if dir == "" {
		dir = layout.Path(yolods.DownloadsDir)
	}

	ingester := yolods.NewIngester(layout, int64(*seed))
	ingester.AllowEmptyLabels = *allowEmpty
	summary, err := ingester.IngestDir(dir)
	if err != nil {
		log.Fatal("Ingestion failed: ", err)
	}
	log.Infof("Imported %d pairs from %d archives", summary.Imported(), len(summary.Archives))
}
