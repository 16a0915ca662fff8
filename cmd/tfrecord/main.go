// Packs one split of the combined pothole dataset into TFRecord shards with a label map.
package main

import (
	"fmt"
	"os"

	"github.com/akamensky/argparse"
	log "github.com/sirupsen/logrus"

	"github.com/pothole-detection/yolods"
)

func main() {
	parser := argparse.NewParser("tfrecord", "Convert a dataset split to TFRecord")
	baseDir := parser.String("b", "base", &argparse.Options{Help: "Base directory of the dataset and training files", Default: "."})
	split := parser.Selector("s", "split", []string{string(yolods.Train), string(yolods.Valid), string(yolods.Test)},
		&argparse.Options{Help: "Split to convert", Default: string(yolods.Train)})
	out := parser.String("o", "out", &argparse.Options{Help: "TFRecord output path", Required: true})
	labelMap := parser.String("l", "label-map", &argparse.Options{Help: "Label map output path", Default: "label_map.pbtxt"})
	shards := parser.Int("n", "num-shards", &argparse.Options{Help: "Number of shard files to create", Default: 1})
	verbose := parser.Flag("v", "verbose", &argparse.Options{Help: "Enable debug logging"})
	if err := parser.Parse(os.Args); err != nil {
		fmt.Print(parser.Usage(err))
		os.Exit(1)
	}
	yolods.ConfigureLogging(*verbose)

	layout := yolods.Layout{BaseDir: *baseDir}
	names := yolods.DefaultClassNames
	if cfg, err := yolods.LoadDataConfig(layout.DataFilePath()); err == nil && len(cfg.Names) > 0 {
		names = cfg.Names
	} else if err != nil {
		log.Warnf("Using default class names: %v", err)
	}

	n, err := yolods.WriteSplitTFRecord(layout, yolods.Split(*split), *out, *labelMap, names, *shards)
	if err != nil {
		log.Fatal("Conversion failed: ", err)
	}
	log.Printf("Successfully wrote %d records to %s", n, *out)
}
