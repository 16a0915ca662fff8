package yolods

// Zip archive ingestion into the split layout.

import (
	"io/fs"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Cumulative split thresholds for a uniform draw in [0, 1).
const (
	TrainThreshold = 0.80
	ValidThreshold = 0.95
)

// imageExts are the image file extensions picked up from archives.
var imageExts = []string{".jpg", ".jpeg", ".png"}

// AssignSplit maps a uniform draw r in [0, 1) to a split: r < 0.80 is train, r < 0.95 is valid and
// everything else is test.
func AssignSplit(r float64) Split {
	switch {
	case r < TrainThreshold:
		return Train
	case r < ValidThreshold:
		return Valid
	default:
		return Test
	}
}

// ArchiveResult reports the outcome of ingesting one archive.
type ArchiveResult struct {
	Archive  string
	Images   int           // Candidate images found in the archive.
	Imported int           // Valid pairs copied into the dataset.
	BySplit  map[Split]int // Imported pairs per split.
}

// IngestSummary reports the outcome of ingesting a downloads folder.
type IngestSummary struct {
	Archives []ArchiveResult
}

// Imported is the total number of imported pairs.
func (s *IngestSummary) Imported() int {
	n := 0
	for _, a := range s.Archives {
		n += a.Imported
	}
	return n
}

// Ingester copies validated image/label pairs from zip archives into the dataset layout.
type Ingester struct {
	Layout           Layout
	Rand             *rand.Rand // Split draws; seeded from the clock when nil.
	AllowEmptyLabels bool       // Accept empty label files as images without objects.
}

// NewIngester returns an Ingester for layout. A zero seed seeds from the clock.
func NewIngester(layout Layout, seed int64) *Ingester {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Ingester{
		Layout: layout,
		Rand:   rand.New(rand.NewSource(seed)),
	}
}

func (in *Ingester) draw() float64 {
	if in.Rand == nil {
		in.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return in.Rand.Float64()
}

// IngestDir ingests every zip archive found directly in dir, in name order.
func (in *Ingester) IngestDir(dir string) (*IngestSummary, error) {
	if err := in.Layout.EnsureDirs(); err != nil {
		return nil, err
	}

	summary := &IngestSummary{}
	zips, err := filepath.Glob(filepath.Join(dir, "*.zip"))
	if err != nil {
		return nil, err
	}
	if len(zips) == 0 {
		log.Warnf("No zip files found in %s", dir)
		log.Warn("Please place your dataset zip files there.")
		return summary, nil
	}

	for _, z := range zips {
		res, err := in.IngestArchive(z)
		if err != nil {
			return summary, err
		}
		summary.Archives = append(summary.Archives, res)
	}

	log.Info("Ingestion complete.")
	for _, s := range Splits {
		files, err := filesByExtInDir(in.Layout.ImagesDir(s), "")
		if err != nil {
			return summary, err
		}
		log.Infof("%s: %d images", s, len(files))
	}

	return summary, nil
}

// IngestArchive extracts the archive at zipPath to the scratch directory, imports its valid
// image/label pairs and removes the scratch directory again, also on failure.
func (in *Ingester) IngestArchive(zipPath string) (res ArchiveResult, err error) {
	log.Infof("Processing %s...", zipPath)

	name := strings.TrimSuffix(filepath.Base(zipPath), ".zip")
	res = ArchiveResult{Archive: zipPath, BySplit: make(map[Split]int, len(Splits))}

	scratchRoot := in.Layout.Path(ScratchDir)
	defer func() {
		if err := os.RemoveAll(scratchRoot); err != nil {
			log.WithError(err).Warnf("Failed to remove %s", scratchRoot)
		}
	}()

	tempDir := filepath.Join(scratchRoot, name)
	if err := unzip(zipPath, tempDir); err != nil {
		return res, err
	}

	images, err := findImages(tempDir)
	if err != nil {
		return res, err
	}
	res.Images = len(images)
	log.Infof("Found %d images in %s", len(images), zipPath)

	prefix := name + "_"
	for _, imgPath := range images {
		labelPath, ok := findLabel(imgPath)
		if !ok {
			continue
		}
		if err := ValidateLabelFile(labelPath, in.AllowEmptyLabels); err != nil {
			log.Debugf("Skipping %q: %v", imgPath, err)
			continue
		}

		split := AssignSplit(in.draw())
		dstImg := filepath.Join(in.Layout.ImagesDir(split), prefix+filepath.Base(imgPath))
		dstLbl := filepath.Join(in.Layout.LabelsDir(split), prefix+stem(imgPath)+LabelFileExt)
		if err := copyFile(imgPath, dstImg); err != nil {
			return res, err
		}
		if err := copyFile(labelPath, dstLbl); err != nil {
			return res, err
		}

		res.Imported++
		res.BySplit[split]++
	}

	log.Infof("Imported %d valid image/label pairs from %s", res.Imported, zipPath)
	return res, nil
}

// findImages returns all image files below root.
func findImages(root string) ([]string, error) {
	var images []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isImageFile(path) {
			return nil
		}
		images = append(images, path)
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to scan %q", root)
	}
	return images, nil
}

// isImageFile reports whether path has one of the known image extensions.
func isImageFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range imageExts {
		if ext == e {
			return true
		}
	}
	return false
}

// findLabel looks for the label file of the image at imgPath: first next to the image, then in a
// sibling "labels" directory when the image lives in a directory named "images".
func findLabel(imgPath string) (string, bool) {
	dir := filepath.Dir(imgPath)
	name := stem(imgPath) + LabelFileExt

	if p := filepath.Join(dir, name); fileExists(p) {
		return p, true
	}
	if filepath.Base(dir) == imagesDir {
		if p := filepath.Join(filepath.Dir(dir), labelsDir, name); fileExists(p) {
			return p, true
		}
	}
	return "", false
}
