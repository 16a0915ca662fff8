package yolods

import (
	"os"

	log "github.com/sirupsen/logrus"
)

// ConfigureLogging sets up the standard logger for the command line tools.
func ConfigureLogging(verbose bool) {
	log.SetOutput(os.Stderr)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	if verbose {
		log.SetLevel(log.DebugLevel)
	}
}
