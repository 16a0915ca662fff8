package yolods

// Dataset statistics.

import (
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// SplitStats holds the counts for one split.
type SplitStats struct {
	Split       Split
	Images      int
	Labels      int
	Annotations int
}

// AvgPerImage returns the mean number of annotations per image. ok is false when the split has no
// images.
func (s SplitStats) AvgPerImage() (avg float64, ok bool) {
	if s.Images == 0 {
		return 0, false
	}
	return float64(s.Annotations) / float64(s.Images), true
}

// DatasetStats holds the counts for all splits.
type DatasetStats struct {
	Splits []SplitStats
}

// CollectStats counts images, label files and annotation lines in every split of layout. Missing
// split directories count as empty.
func CollectStats(layout Layout) (*DatasetStats, error) {
	stats := &DatasetStats{Splits: make([]SplitStats, 0, len(Splits))}
	for _, s := range Splits {
		ss, err := collectSplitStats(layout, s)
		if err != nil {
			return nil, err
		}
		stats.Splits = append(stats.Splits, ss)
	}
	return stats, nil
}

func collectSplitStats(layout Layout, s Split) (SplitStats, error) {
	ss := SplitStats{Split: s}

	images, err := filesByExtInDir(layout.ImagesDir(s), "")
	if err != nil && !isNotExist(err) {
		return ss, err
	}
	labels, err := filesByExtInDir(layout.LabelsDir(s), LabelFileExt)
	if err != nil && !isNotExist(err) {
		return ss, err
	}
	ss.Images = len(images)
	ss.Labels = len(labels)

	for _, path := range labels {
		n, err := CountLabelLines(path)
		if err != nil {
			log.WithError(err).Warnf("Not counting annotations in %s", path)
			continue
		}
		ss.Annotations += n
	}

	return ss, nil
}

// TotalImages is the number of images over all splits.
func (d *DatasetStats) TotalImages() int {
	n := 0
	for _, s := range d.Splits {
		n += s.Images
	}
	return n
}

// TotalAnnotations is the number of annotations over all splits.
func (d *DatasetStats) TotalAnnotations() int {
	n := 0
	for _, s := range d.Splits {
		n += s.Annotations
	}
	return n
}

// HasData reports whether the dataset holds any images.
func (d *DatasetStats) HasData() bool {
	return d.TotalImages() > 0
}

// Get returns the stats of split s.
func (d *DatasetStats) Get(s Split) SplitStats {
	for _, ss := range d.Splits {
		if ss.Split == s {
			return ss
		}
	}
	return SplitStats{Split: s}
}

// Ratio returns the share of all images held by split s, in percent. ok is false when the dataset
// holds no images.
func (d *DatasetStats) Ratio(s Split) (percent float64, ok bool) {
	total := d.TotalImages()
	if total == 0 {
		return 0, false
	}
	return float64(d.Get(s).Images) / float64(total) * 100, true
}

// WriteReport writes the human readable statistics report to w.
func (d *DatasetStats) WriteReport(w io.Writer) error {
	rule := strings.Repeat("=", 60)
	var b strings.Builder

	fmt.Fprintln(&b, rule)
	fmt.Fprintln(&b, "POTHOLE DATASET STATISTICS")
	fmt.Fprintln(&b, rule)

	for _, s := range d.Splits {
		fmt.Fprintf(&b, "\n%s SET:\n", strings.ToUpper(string(s.Split)))
		fmt.Fprintf(&b, "  Images: %d\n", s.Images)
		fmt.Fprintf(&b, "  Labels: %d\n", s.Labels)
		fmt.Fprintf(&b, "  Total potholes: %d\n", s.Annotations)
		if avg, ok := s.AvgPerImage(); ok {
			fmt.Fprintf(&b, "  Avg potholes/image: %.2f\n", avg)
		} else {
			fmt.Fprintln(&b, "  Avg potholes/image: n/a (no data)")
		}
	}

	fmt.Fprintln(&b, "\n"+rule)
	fmt.Fprintln(&b, "TOTAL DATASET:")
	fmt.Fprintf(&b, "  Total images: %d\n", d.TotalImages())
	fmt.Fprintf(&b, "  Total potholes: %d\n", d.TotalAnnotations())
	if d.HasData() {
		fmt.Fprintf(&b, "  Average potholes/image: %.2f\n",
			float64(d.TotalAnnotations())/float64(d.TotalImages()))
	}
	fmt.Fprintln(&b, rule)

	fmt.Fprintln(&b, "\nSPLIT RATIOS:")
	if !d.HasData() {
		fmt.Fprintln(&b, "  No data: the dataset contains no images.")
	} else {
		for _, s := range d.Splits {
			pct, _ := d.Ratio(s.Split)
			label := strings.ToUpper(string(s.Split[:1])) + string(s.Split[1:]) + ":"
			fmt.Fprintf(&b, "  %-6s %.1f%%\n", label, pct)
		}
	}
	fmt.Fprintln(&b, rule)

	_, err := io.WriteString(w, b.String())
	return errors.Wrap(err, "failed to write report")
}

// isNotExist unwraps err and reports whether it is a missing file error.
func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
