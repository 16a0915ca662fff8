package yolods

// Dataset directory layout and its initialization.

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Split names a dataset partition.
type Split string

// The dataset splits, in reporting order.
const (
	Train Split = "train"
	Valid Split = "valid"
	Test  Split = "test"
)

// Splits lists all dataset splits.
var Splits = []Split{Train, Valid, Test}

// Fixed paths, relative to the base directory.
const (
	DatasetRoot  = "datasets/pothole_combined"
	DownloadsDir = "downloads"
	ScratchDir   = "temp_extract"
	DataFile     = "data.yaml"
	VisualizeDir = "visualizations"

	imagesDir = "images"
	labelsDir = "labels"
)

// DefaultClassNames are the class names written to a fresh data file.
var DefaultClassNames = []string{"pothole"}

// Layout resolves the fixed file layout against a base directory.
type Layout struct {
	BaseDir string
}

// Path joins elem onto the base directory.
func (l Layout) Path(elem ...string) string {
	return filepath.Join(append([]string{l.BaseDir}, elem...)...)
}

// DatasetDir is the root of the combined dataset.
func (l Layout) DatasetDir() string {
	return l.Path(DatasetRoot)
}

// ImagesDir is the image directory of split s.
func (l Layout) ImagesDir(s Split) string {
	return l.Path(DatasetRoot, string(s), imagesDir)
}

// LabelsDir is the label directory of split s.
func (l Layout) LabelsDir(s Split) string {
	return l.Path(DatasetRoot, string(s), labelsDir)
}

// DataFilePath is the dataset description consumed by the trainer.
func (l Layout) DataFilePath() string {
	return l.Path(DataFile)
}

// leafDirs returns the six split directories.
func (l Layout) leafDirs() []string {
	dirs := make([]string, 0, 2*len(Splits))
	for _, s := range Splits {
		dirs = append(dirs, l.ImagesDir(s), l.LabelsDir(s))
	}
	return dirs
}

// EnsureDirs creates any missing split directories. Existing directories and their contents are
// left alone.
func (l Layout) EnsureDirs() error {
	for _, d := range l.leafDirs() {
		if err := os.MkdirAll(d, 0755); err != nil {
			return errors.Wrapf(err, "cannot create %q", d)
		}
	}
	return nil
}

// Prepare creates the split directory tree and, when none exists yet, a data file describing it.
func (l Layout) Prepare() error {
	for _, d := range l.leafDirs() {
		if err := os.MkdirAll(d, 0755); err != nil {
			return errors.Wrapf(err, "cannot create %q", d)
		}
		log.Infof("Created: %s", d)
	}

	if _, err := os.Stat(l.DataFilePath()); os.IsNotExist(err) {
		if err := WriteDataConfig(l.DataFilePath(), l.NewDataConfig(DefaultClassNames)); err != nil {
			return err
		}
		log.Infof("Wrote dataset description %s", l.DataFilePath())
	} else if err != nil {
		return err
	}

	log.Info("Directory structure created successfully.")
	log.Infof("Please place your images and labels into %s", l.DatasetDir())
	log.Info("Ensure you split them into train (80%), valid (15%), and test (5%)")
	return nil
}

// DataConfig is the dataset description file read by the training toolchain.
type DataConfig struct {
	Path  string     `yaml:"path"`
	Train string     `yaml:"train"`
	Val   string     `yaml:"val"`
	Test  string     `yaml:"test"`
	NC    int        `yaml:"nc"`
	Names ClassNames `yaml:"names"`
}

// ClassNames lists class names by class id. In YAML it is either a sequence or a mapping from
// class id to name.
type ClassNames []string

// UnmarshalYAML accepts both the sequence and the id-keyed mapping forms.
func (n *ClassNames) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.SequenceNode:
		var names []string
		if err := value.Decode(&names); err != nil {
			return err
		}
		*n = names
	case yaml.MappingNode:
		var byID map[int]string
		if err := value.Decode(&byID); err != nil {
			return err
		}
		names := make([]string, len(byID))
		for id, name := range byID {
			if id < 0 || id >= len(byID) {
				return errors.Errorf("class id %d out of range in names", id)
			}
			names[id] = name
		}
		*n = names
	default:
		return errors.Errorf("unexpected names node at line %d", value.Line)
	}
	return nil
}

// NewDataConfig describes the layout's dataset with the given class names.
func (l Layout) NewDataConfig(names []string) DataConfig {
	path, err := filepath.Abs(l.DatasetDir())
	if err != nil {
		path = l.DatasetDir()
	}
	return DataConfig{
		Path:  path,
		Train: filepath.Join(string(Train), imagesDir),
		Val:   filepath.Join(string(Valid), imagesDir),
		Test:  filepath.Join(string(Test), imagesDir),
		NC:    len(names),
		Names: names,
	}
}

// WriteDataConfig writes c as YAML to path.
func WriteDataConfig(path string, c DataConfig) error {
	enc, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, enc, 0644); err != nil {
		return errors.Wrapf(err, "cannot write file %q", path)
	}
	return nil
}

// LoadDataConfig reads the data file at path.
func LoadDataConfig(path string) (DataConfig, error) {
	var c DataConfig
	enc, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := yaml.Unmarshal(enc, &c); err != nil {
		return c, errors.Wrapf(err, "failed to parse %q", path)
	}
	return c, nil
}
