package yolods

// TFRecord object detection specific functionality.

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/protobuf/proto"
	"github.com/pkg/errors"
	"github.com/ryszard/tfutils/go/example"
	"github.com/ryszard/tfutils/go/tfrecord"
	"github.com/ryszard/tfutils/proto/tensorflow/core/example" // package tensorflow
	log "github.com/sirupsen/logrus"
)

// TFFeatureMap maps feature names to their values. Values must be convertible to
// tensorflow.Feature.
type TFFeatureMap map[string]interface{}

// labelMapID is the label map id of a YOLO class. Label map ids start at 1, 0 is the background.
func labelMapID(classID int) int64 {
	return int64(classID) + 1
}

// className returns the name of classID, or a generated one when names does not cover it.
func className(names []string, classID int) string {
	if classID >= 0 && classID < len(names) {
		return names[classID]
	}
	return fmt.Sprintf("class_%d", classID)
}

// toTFRecord converts one image and its boxes to the TF object detection feature map.
func toTFRecord(imagePath string, boxes []Box, names []string) (TFFeatureMap, error) {
	// Get the image width and height.
	img, format, err := decodeImageConfig(imagePath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode the image metadata")
	}

	// Read the image data.
	imgData, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read the image")
	}

	// Prepare the feature map for the per file data.
	f := make(TFFeatureMap, 16)
	f["image/height"] = img.Height
	f["image/width"] = img.Width
	f["image/filename"] = filepath.Base(imagePath)
	f["image/source_id"] = filepath.Base(imagePath)
	f["image/encoded"] = imgData
	f["image/format"] = format

	// Prepare the per label data. YOLO coordinates are already normalized.
	numLabels := len(boxes)
	xmins := make([]float32, numLabels)
	ymins := make([]float32, numLabels)
	xmaxs := make([]float32, numLabels)
	ymaxs := make([]float32, numLabels)
	classes := make([]string, numLabels)
	classIDs := make([]int64, numLabels)
	for i, b := range boxes {
		x1, y1, x2, y2 := b.Corners()
		xmins[i] = float32(math.Max(0, x1))
		ymins[i] = float32(math.Max(0, y1))
		xmaxs[i] = float32(math.Min(1, x2))
		ymaxs[i] = float32(math.Min(1, y2))
		classes[i] = className(names, b.ClassID)
		classIDs[i] = labelMapID(b.ClassID)
	}
	f["image/object/bbox/xmin"] = xmins
	f["image/object/bbox/ymin"] = ymins
	f["image/object/bbox/xmax"] = xmaxs
	f["image/object/bbox/ymax"] = ymaxs
	f["image/object/class/text"] = classes
	f["image/object/class/label"] = classIDs

	return f, nil
}

// WriteSplitTFRecord does a streaming conversion, serialisation and file write for the labelled
// images of split s to one or more TFRecord files stored under recordFilePath (with suffixes added
// when numShards>1).
//
// Class names come from names. A label map is written to labelMapPath.
//
// Returns the number of records written.
func WriteSplitTFRecord(layout Layout, s Split, recordFilePath, labelMapPath string,
	names []string, numShards int) (written int, err error) {
	defer func() {
		if e := recover(); e != nil {
			err = errors.Errorf("conversion to TensorFlow Example failed: %v", e)
		}
	}()

	if numShards <= 0 {
		numShards = 1
	}

	images, err := filesByExtInDir(layout.ImagesDir(s), "")
	if err != nil {
		return 0, err
	}
	if len(images) == 0 {
		return 0, errors.Errorf("no images in split %s", s)
	}
	log.Infof("Converting %d %s images to TFRecord", len(images), s)

	fmtShardSuffix := func(idx int) string {
		return fmt.Sprintf("-%05d-of-%05d", idx, numShards)
	}

	var shardFile *os.File
	defer func() {
		if shardFile != nil {
			closeWithErrCheck(shardFile, &err)
		}
	}()
	shardSize := int(math.Ceil(float64(len(images)) / float64(numShards)))
	shardIdx := -1
	maxClassID := len(names) - 1

	// Convert and serialise one image at a time.
	for i, imagePath := range images {
		// Check if a new shard file needs to be opened for writing.
		if i%shardSize == 0 {
			shardIdx++

			// Close the previous shard file.
			if shardFile != nil {
				if err := shardFile.Close(); err != nil {
					return written, err
				}
				shardFile = nil
			}

			// Create the new shard file.
			shardPath := recordFilePath
			if numShards > 1 {
				shardPath += fmtShardSuffix(shardIdx)
			}
			f, err := os.Create(shardPath)
			if err != nil {
				return written, errors.Wrapf(err, "failed to create shard at %q", shardPath)
			}
			shardFile = f
		}

		labelPath := filepath.Join(layout.LabelsDir(s), stem(imagePath)+LabelFileExt)
		boxes, err := ReadLabelFile(labelPath)
		if err != nil {
			log.Warnf("No labels for %q, skipping: %v", imagePath, err)
			continue
		}
		for _, b := range boxes {
			if b.ClassID > maxClassID {
				maxClassID = b.ClassID
			}
		}

		// Convert the file data to an example.
		features, err := toTFRecord(imagePath, boxes, names)
		if err != nil {
			log.Warnf("Failed to convert %q: %v", imagePath, err)
			continue
		}
		tfExample := example.New(features)

		// Write the example.
		if err := writeTFRecordExample(shardFile, tfExample); err != nil {
			return written, errors.Wrap(err, "failed to write example")
		}
		written++
	}

	return written, saveTFRecordLabelMap(labelMapPath, names, maxClassID)
}

// writeTFRecordExample serialises the example and writes it as a TFRecord to w.
func writeTFRecordExample(w io.Writer, e *tensorflow.Example) error {
	enc, err := proto.Marshal(e)
	if err != nil {
		return err
	}

	return tfrecord.Write(w, enc)
}

// saveTFRecordLabelMap writes the label map for class ids 0..maxClassID in prototxt format to path.
func saveTFRecordLabelMap(path string, names []string, maxClassID int) error {
	var b strings.Builder
	for id := 0; id <= maxClassID; id++ {
		fmt.Fprintf(&b, "item {\n  id: %d\n  name: %q\n}\n", labelMapID(id), className(names, id))
	}

	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return errors.Wrapf(err, "failed to write the label map %q", path)
	}
	return nil
}
