package yolods

// Model export through the YOLO toolchain and verification of the exported artifact.

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"math/rand"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// ErrWeightsMissing is returned when the trained checkpoint does not exist.
var ErrWeightsMissing = errors.New("trained model not found")

// TFLiteExt is the file extension of the mobile inference artifact.
const TFLiteExt = ".tflite"

// MaxArtifactSize is the size above which an exported artifact is flagged.
const MaxArtifactSize = 10 * 1024 * 1024

// ExportConfig holds the exporter parameters.
type ExportConfig struct {
	Format   string
	ImgSize  int
	Half     bool
	Int8     bool
	Simplify bool
}

// DefaultExportConfig exports a float16 TFLite model at 640 px.
var DefaultExportConfig = ExportConfig{
	Format:   "tflite",
	ImgSize:  640,
	Half:     true,
	Int8:     false,
	Simplify: true,
}

func (c ExportConfig) args(weights string) []string {
	return []string{
		"export",
		formatArg("model", weights),
		formatArg("format", c.Format),
		formatArg("imgsz", c.ImgSize),
		formatArg("half", c.Half),
		formatArg("int8", c.Int8),
		formatArg("simplify", c.Simplify),
	}
}

// Exporter converts the trained checkpoint to the mobile inference format.
type Exporter struct {
	Layout  Layout
	Runner  CommandRunner
	Bin     string
	Weights string // Relative to the base directory.
	Config  ExportConfig
}

// NewExporter returns an Exporter for the default training run and export parameters.
func NewExporter(layout Layout, runner CommandRunner) *Exporter {
	return &Exporter{
		Layout:  layout,
		Runner:  runner,
		Bin:     YOLOBin,
		Weights: DefaultTrainConfig.WeightsPath(),
		Config:  DefaultExportConfig,
	}
}

// Export runs the exporter and returns the files it produced. It fails with ErrWeightsMissing,
// without running anything, when the checkpoint is absent.
func (e *Exporter) Export(ctx context.Context) ([]string, error) {
	weights := e.Layout.Path(e.Weights)
	if !fileExists(weights) {
		return nil, errors.Wrapf(ErrWeightsMissing, "%s not found, please run training first or check the path", weights)
	}

	log.Infof("Exporting %s to %s (half=%v, int8=%v)...", e.Weights, e.Config.Format, e.Config.Half, e.Config.Int8)
	out, err := e.Runner.Run(ctx, e.Bin, e.Config.args(e.Weights)...)
	if err != nil {
		return nil, errors.Wrap(err, "export failed")
	}

	outputs := parseExportOutputs(out, e.Layout.BaseDir)
	found, err := filesBelow(filepath.Dir(weights), TFLiteExt)
	if err != nil {
		return nil, err
	}
	for _, f := range found {
		if !contains(outputs, f) {
			outputs = append(outputs, f)
		}
	}

	log.Infof("Export complete. Files: %v", outputs)
	return outputs, nil
}

// savedAsRe matches the exporter's "saved as 'path'" result lines.
var savedAsRe = regexp.MustCompile(`saved as '([^']+)'`)

// parseExportOutputs returns the paths reported by the exporter. Relative paths are resolved
// against baseDir.
func parseExportOutputs(out, baseDir string) []string {
	var outputs []string
	for _, m := range savedAsRe.FindAllStringSubmatch(out, -1) {
		p := m[1]
		if !filepath.IsAbs(p) {
			p = filepath.Join(baseDir, p)
		}
		if !contains(outputs, p) {
			outputs = append(outputs, p)
		}
	}
	return outputs
}

// FindArtifact returns the first of outputs with the given extension.
func FindArtifact(outputs []string, ext string) (string, bool) {
	for _, f := range outputs {
		if strings.HasSuffix(f, ext) {
			return f, true
		}
	}
	return "", false
}

// filesBelow returns all files with extension ext below root.
func filesBelow(root, ext string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ext) {
			files = append(files, path)
		}
		return nil
	})
	return files, errors.Wrapf(err, "failed to scan %q", root)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// TensorInfo describes a model input or output.
type TensorInfo struct {
	Name  string
	Shape []int
	DType string
}

// NumElements is the product of the tensor dimensions.
func (t TensorInfo) NumElements() int {
	n := 1
	for _, d := range t.Shape {
		n *= d
	}
	return n
}

// InferenceSession is a loaded model, ready to run.
type InferenceSession interface {
	Inputs() []TensorInfo
	Outputs() []TensorInfo
	// Run feeds input to the first input tensor, invokes the model and returns the shape of the
	// first output.
	Run(input []float32) ([]int, error)
	Close()
}

// InferenceRuntime loads model artifacts.
type InferenceRuntime interface {
	Load(path string) (InferenceSession, error)
}

// VerifyReport is the outcome of an artifact verification.
type VerifyReport struct {
	Path        string
	SizeBytes   int64
	Oversize    bool
	Input       TensorInfo
	Output      TensorInfo
	OutputShape []int // Shape of the output of the test inference.
	Err         error // First failure, if any.
}

// SizeMB is the artifact size in MiB.
func (r *VerifyReport) SizeMB() float64 {
	return float64(r.SizeBytes) / (1024 * 1024)
}

// OK reports whether the artifact loaded and ran.
func (r *VerifyReport) OK() bool {
	return r.Err == nil
}

// WriteTo writes the human readable report to w.
func (r *VerifyReport) WriteTo(w io.Writer) (int64, error) {
	var b strings.Builder
	fmt.Fprintln(&b, "\n--- Verifying TFLite Model ---")
	if r.SizeBytes > 0 {
		fmt.Fprintf(&b, "File size: %.2f MB (%s)\n", r.SizeMB(), humanize.IBytes(uint64(r.SizeBytes)))
		if r.Oversize {
			fmt.Fprintf(&b, "WARNING: Model is larger than %s\n", humanize.IBytes(MaxArtifactSize))
		} else {
			fmt.Fprintf(&b, "Check: Size is within limits (<%s)\n", humanize.IBytes(MaxArtifactSize))
		}
	}
	if r.Input.Shape != nil {
		fmt.Fprintf(&b, "Input Shape: %v\n", r.Input.Shape)
		fmt.Fprintf(&b, "Input Dtype: %s\n", r.Input.DType)
	}
	if r.Output.Shape != nil {
		fmt.Fprintf(&b, "Output Shape: %v\n", r.Output.Shape)
		fmt.Fprintf(&b, "Output Dtype: %s\n", r.Output.DType)
	}
	if r.Err != nil {
		fmt.Fprintf(&b, "Verification failed: %v\n", r.Err)
	} else {
		fmt.Fprintln(&b, "Inference test successful.")
		fmt.Fprintf(&b, "Output result shape: %v\n", r.OutputShape)
	}
	n, err := io.WriteString(w, b.String())
	return int64(n), err
}

// Verifier checks that an exported artifact is small enough, loads and runs.
type Verifier struct {
	Runtime InferenceRuntime
	MaxSize int64
	Rand    *rand.Rand
}

// NewVerifier returns a Verifier using runtime and the default size limit.
func NewVerifier(runtime InferenceRuntime) *Verifier {
	return &Verifier{
		Runtime: runtime,
		MaxSize: MaxArtifactSize,
		Rand:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Verify inspects the artifact at path and runs one inference pass on uniform random input
// shaped like the declared input. Failures are recorded in the report, never returned.
func (v *Verifier) Verify(path string) *VerifyReport {
	r := &VerifyReport{Path: path}

	info, err := os.Stat(path)
	if err != nil {
		r.Err = err
		return r
	}
	r.SizeBytes = info.Size()
	r.Oversize = v.MaxSize > 0 && r.SizeBytes > v.MaxSize

	if v.Runtime == nil {
		r.Err = errors.New("no inference runtime")
		return r
	}
	r.Err = v.run(path, r)
	return r
}

func (v *Verifier) run(path string, r *VerifyReport) (err error) {
	defer func() {
		if e := recover(); e != nil {
			err = errors.Errorf("inference runtime panicked: %v", e)
		}
	}()

	session, err := v.Runtime.Load(path)
	if err != nil {
		return errors.Wrap(err, "failed to load model")
	}
	defer session.Close()

	inputs, outputs := session.Inputs(), session.Outputs()
	if len(inputs) == 0 || len(outputs) == 0 {
		return errors.Errorf("model declares %d inputs and %d outputs", len(inputs), len(outputs))
	}
	r.Input, r.Output = inputs[0], outputs[0]

	n := r.Input.NumElements()
	if n <= 0 {
		return errors.Errorf("invalid input shape %v", r.Input.Shape)
	}
	rng := v.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	data := make([]float32, n)
	for i := range data {
		data[i] = rng.Float32()
	}

	r.OutputShape, err = session.Run(data)
	return errors.Wrap(err, "inference failed")
}
