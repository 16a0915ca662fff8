package yolods

// Training driver around the external YOLO toolchain.

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// YOLOBin is the toolchain executable.
const YOLOBin = "yolo"

// ErrDataFileMissing is returned when the dataset description does not exist.
var ErrDataFileMissing = errors.New("dataset description not found")

// TrainConfig holds the training hyperparameters.
type TrainConfig struct {
	Model       string
	Epochs      int
	ImgSize     int
	Batch       int
	Patience    int
	Project     string
	Name        string
	Optimizer   string
	Lr0         float64
	Lrf         float64
	Momentum    float64
	WeightDecay float64
	Augment     bool
	HSVH        float64
	HSVS        float64
	HSVV        float64
	Degrees     float64
	Translate   float64
	Scale       float64
	FlipLR      float64
	Mosaic      float64
	Mixup       float64
}

// DefaultTrainConfig is the fixed training setup.
var DefaultTrainConfig = TrainConfig{
	Model:       "yolov8n.pt",
	Epochs:      100,
	ImgSize:     640,
	Batch:       16,
	Patience:    20,
	Project:     "pothole_training",
	Name:        "yolov8n_run1",
	Optimizer:   "AdamW",
	Lr0:         0.01,
	Lrf:         0.01,
	Momentum:    0.937,
	WeightDecay: 0.0005,
	Augment:     true,
	HSVH:        0.015,
	HSVS:        0.7,
	HSVV:        0.4,
	Degrees:     10.0,
	Translate:   0.1,
	Scale:       0.5,
	FlipLR:      0.5,
	Mosaic:      1.0,
	Mixup:       0.1,
}

// RunDir is the output directory of the training run, relative to the base directory.
func (c TrainConfig) RunDir() string {
	return filepath.Join(c.Project, c.Name)
}

// WeightsPath is the best checkpoint of the training run, relative to the base directory.
func (c TrainConfig) WeightsPath() string {
	return filepath.Join(c.RunDir(), "weights", "best.pt")
}

func formatArg(key string, v interface{}) string {
	switch v := v.(type) {
	case float64:
		return key + "=" + strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		if v {
			return key + "=True"
		}
		return key + "=False"
	default:
		return fmt.Sprintf("%s=%v", key, v)
	}
}

// trainArgs returns the toolchain arguments for a training run on the given data file.
func (c TrainConfig) trainArgs(dataPath string) []string {
	return []string{
		"detect", "train",
		formatArg("model", c.Model),
		formatArg("data", dataPath),
		formatArg("epochs", c.Epochs),
		formatArg("imgsz", c.ImgSize),
		formatArg("batch", c.Batch),
		formatArg("patience", c.Patience),
		formatArg("save", true),
		formatArg("project", c.Project),
		formatArg("name", c.Name),
		formatArg("optimizer", c.Optimizer),
		formatArg("lr0", c.Lr0),
		formatArg("lrf", c.Lrf),
		formatArg("momentum", c.Momentum),
		formatArg("weight_decay", c.WeightDecay),
		formatArg("augment", c.Augment),
		formatArg("hsv_h", c.HSVH),
		formatArg("hsv_s", c.HSVS),
		formatArg("hsv_v", c.HSVV),
		formatArg("degrees", c.Degrees),
		formatArg("translate", c.Translate),
		formatArg("scale", c.Scale),
		formatArg("fliplr", c.FlipLR),
		formatArg("mosaic", c.Mosaic),
		formatArg("mixup", c.Mixup),
	}
}

// Metrics are the box detection metrics of a validation pass.
type Metrics struct {
	MAP50     float64 // Mean average precision at IoU 0.50.
	MAP50To95 float64 // Mean average precision averaged over IoU 0.50 to 0.95.
}

func (m Metrics) String() string {
	return fmt.Sprintf("mAP@50: %v\nmAP@50-95: %v", m.MAP50, m.MAP50To95)
}

// Trainer runs training and validation through the toolchain. All paths are relative to the
// layout's base directory, which must also be the runner's working directory.
type Trainer struct {
	Layout Layout
	Runner CommandRunner
	Bin    string
	Config TrainConfig
}

// NewTrainer returns a Trainer with the default configuration.
func NewTrainer(layout Layout, runner CommandRunner) *Trainer {
	return &Trainer{
		Layout: layout,
		Runner: runner,
		Bin:    YOLOBin,
		Config: DefaultTrainConfig,
	}
}

// Train trains the model and then validates the best checkpoint. It fails with
// ErrDataFileMissing, without running anything, when the dataset description is absent.
func (t *Trainer) Train(ctx context.Context) (Metrics, error) {
	if !fileExists(t.Layout.DataFilePath()) {
		return Metrics{}, errors.Wrapf(ErrDataFileMissing, "%s not found, please ensure the dataset is prepared",
			t.Layout.DataFilePath())
	}

	log.Info("Starting training...")
	if _, err := t.Runner.Run(ctx, t.Bin, t.Config.trainArgs(DataFile)...); err != nil {
		return Metrics{}, errors.Wrap(err, "training failed")
	}

	log.Info("Evaluating model...")
	return t.Validate(ctx)
}

// Validate runs a validation pass on the best checkpoint and returns its metrics. The run's
// results.csv is used when the validation summary cannot be parsed.
func (t *Trainer) Validate(ctx context.Context) (Metrics, error) {
	out, err := t.Runner.Run(ctx, t.Bin, "detect", "val",
		formatArg("model", t.Config.WeightsPath()),
		formatArg("data", DataFile),
		formatArg("imgsz", t.Config.ImgSize),
		formatArg("batch", t.Config.Batch))
	if err != nil {
		return Metrics{}, errors.Wrap(err, "validation failed")
	}

	m, err := ParseValMetrics(out)
	if err == nil {
		return m, nil
	}
	log.WithError(err).Warn("Falling back to the training results")
	return ReadResultsCSV(t.Layout.Path(t.Config.RunDir(), "results.csv"))
}

// ParseValMetrics extracts the metrics from the "all" row of the toolchain's validation table:
//
//	Class  Images  Instances  Box(P  R  mAP50  mAP50-95)
//	  all      67        154  0.713  0.643  0.702  0.411
func ParseValMetrics(out string) (Metrics, error) {
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 7 || fields[0] != "all" {
			continue
		}
		m50, err1 := strconv.ParseFloat(fields[len(fields)-2], 64)
		m5095, err2 := strconv.ParseFloat(fields[len(fields)-1], 64)
		if err1 != nil || err2 != nil {
			continue
		}
		return Metrics{MAP50: m50, MAP50To95: m5095}, nil
	}
	return Metrics{}, errors.New("no validation summary in toolchain output")
}

// ReadResultsCSV returns the metrics of the last epoch recorded in a training results file.
func ReadResultsCSV(path string) (m Metrics, err error) {
	f, err := os.Open(path)
	if err != nil {
		return m, err
	}
	defer closeWithErrCheck(f, &err)

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	records, err := r.ReadAll()
	if err != nil {
		return m, errors.Wrapf(err, "failed to parse %q", path)
	}
	if len(records) < 2 {
		return m, errors.Errorf("no epochs recorded in %q", path)
	}

	col50, col5095 := -1, -1
	for i, name := range records[0] {
		switch strings.TrimSpace(name) {
		case "metrics/mAP50(B)":
			col50 = i
		case "metrics/mAP50-95(B)":
			col5095 = i
		}
	}
	if col50 < 0 || col5095 < 0 {
		return m, errors.Errorf("missing mAP columns in %q", path)
	}

	last := records[len(records)-1]
	if m.MAP50, err = strconv.ParseFloat(strings.TrimSpace(last[col50]), 64); err != nil {
		return m, errors.Wrapf(err, "bad mAP50 value in %q", path)
	}
	if m.MAP50To95, err = strconv.ParseFloat(strings.TrimSpace(last[col5095]), 64); err != nil {
		return m, errors.Wrapf(err, "bad mAP50-95 value in %q", path)
	}
	return m, nil
}
