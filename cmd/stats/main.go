// Prints per-split and aggregate statistics of the combined pothole dataset.
package main

import (
	"fmt"
	"os"

	"github.com/akamensky/argparse"
	log "github.com/sirupsen/logrus"

	"github.com/pothole-detection/yolods"
)

func main() {
	parser := argparse.NewParser("stats", "Report dataset statistics")
	baseDir := parser.String("b", "base", &argparse.Options{Help: "Base directory of the dataset and training files", Default: "."})
	chart := parser.String("c", "chart", &argparse.Options{Help: "Also write a bar chart image to this path (.png, .svg, .pdf)"})
	html := parser.String("w", "html", &argparse.Options{Help: "Also write an interactive HTML report to this path"})
	verbose := parser.Flag("v", "verbose", &argparse.Options{Help: "Enable debug logging"})
	if err := parser.Parse(os.Args); err != nil {
		fmt.Print(parser.Usage(err))
		os.Exit(1)
	}
	yolods.ConfigureLogging(*verbose)

	stats, err := yolods.CollectStats(yolods.Layout{BaseDir: *baseDir})
	if err != nil {
		log.Fatal("Failed to collect statistics: ", err)
	}
	if err := stats.WriteReport(os.Stdout); err != nil {
		log.Fatal(err)
	}

	if *chart != "" {
		if err := stats.SaveChart(*chart); err != nil {
			log.Fatal(err)
		}
		log.Infof("Wrote chart to %s", *chart)
	}
	if *html != "" {
		if err := stats.SaveHTML(*html); err != nil {
			log.Fatal(err)
		}
		log.Infof("Wrote HTML report to %s", *html)
	}
}
