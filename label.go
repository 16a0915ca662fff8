package yolods

// YOLO label format specific functionality.

import (
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// LabelFileExt is the file extension of YOLO label files.
const LabelFileExt = ".txt"

// labelFields is the number of whitespace-separated tokens on every label line.
const labelFields = 5

// Box is a single YOLO annotation. All geometric values are normalized to [0, 1] relative to the
// image dimensions.
type Box struct {
	ClassID int
	XCenter float64
	YCenter float64
	Width   float64
	Height  float64
}

// PixelRect is a bounding box in pixel space, anchored at its top-left corner.
type PixelRect struct {
	X1, Y1 float64 // Top-left corner.
	W, H   float64 // Width and height.
}

// X2 is the right edge of r.
func (r PixelRect) X2() float64 {
	return r.X1 + r.W
}

// Y2 is the bottom edge of r.
func (r PixelRect) Y2() float64 {
	return r.Y1 + r.H
}

// ToPixels converts the normalized center/size box to pixel corner coordinates for an image of
// the given width and height.
func (b Box) ToPixels(imageWidth, imageHeight int) PixelRect {
	w := b.Width * float64(imageWidth)
	h := b.Height * float64(imageHeight)
	return PixelRect{
		X1: b.XCenter*float64(imageWidth) - w/2,
		Y1: b.YCenter*float64(imageHeight) - h/2,
		W:  w,
		H:  h,
	}
}

// Corners returns the normalized xmin, ymin, xmax, ymax of b.
func (b Box) Corners() (xmin, ymin, xmax, ymax float64) {
	return b.XCenter - b.Width/2, b.YCenter - b.Height/2,
		b.XCenter + b.Width/2, b.YCenter + b.Height/2
}

// parseDecimal parses a plain decimal or exponent number. Hex floats and digit separators, which
// strconv also accepts, are rejected.
func parseDecimal(token string) (float64, error) {
	if strings.ContainsAny(token, "xXpP_") {
		return 0, errors.Errorf("non-decimal number %q", token)
	}
	return strconv.ParseFloat(token, 64)
}

// checkLabelLine verifies that line has exactly five tokens and that the four coordinate tokens
// are numbers in [0, 1]. It returns the tokens on success.
func checkLabelLine(line string) ([]string, error) {
	tokens := strings.Fields(line)
	if len(tokens) != labelFields {
		return nil, errors.Errorf("expected %d tokens, got %d in %q", labelFields, len(tokens), line)
	}
	for _, t := range tokens[1:] {
		v, err := parseDecimal(t)
		if err != nil {
			return nil, errors.Errorf("non-numeric coordinate %q in %q", t, line)
		}
		// NaN fails both comparisons.
		if !(v >= 0 && v <= 1) {
			return nil, errors.Errorf("coordinate %v outside [0, 1] in %q", v, line)
		}
	}
	return tokens, nil
}

// ParseLabelLine parses a single label line into a Box. Coordinates must be in [0, 1].
func ParseLabelLine(line string) (Box, error) {
	tokens, err := checkLabelLine(line)
	if err != nil {
		return Box{}, err
	}
	return parseBox(tokens)
}

// parseBox converts five label tokens to a Box without range checks on the coordinates.
func parseBox(tokens []string) (Box, error) {
	class, err := parseDecimal(tokens[0])
	if err != nil || class < 0 || class != math.Trunc(class) {
		return Box{}, errors.Errorf("invalid class id %q", tokens[0])
	}

	b := Box{ClassID: int(class)}
	for i, dst := range []*float64{&b.XCenter, &b.YCenter, &b.Width, &b.Height} {
		if *dst, err = parseDecimal(tokens[i+1]); err != nil || math.IsNaN(*dst) {
			return Box{}, errors.Errorf("non-numeric coordinate %q", tokens[i+1])
		}
	}
	return b, nil
}

// ValidateLabelFile checks the file at path against the YOLO label grammar. Every line must have
// five tokens with the last four in [0, 1]; a single bad line rejects the whole file.
//
// An empty file has no objects. It is rejected unless allowEmpty is set.
func ValidateLabelFile(path string, allowEmpty bool) error {
	lines, err := readLines(path)
	if err != nil {
		return err
	}
	if len(lines) == 0 {
		if allowEmpty {
			return nil
		}
		return errors.Errorf("empty label file %q", path)
	}

	for i, line := range lines {
		if _, err := checkLabelLine(line); err != nil {
			return errors.Wrapf(err, "%s:%d", path, i+1)
		}
	}

	return nil
}

// ReadLabelFile reads the boxes from the label file at path. Every line with five numeric tokens
// becomes a box, including boxes reaching outside the image. Other lines are logged and skipped.
func ReadLabelFile(path string) ([]Box, error) {
	lines, err := readLines(path)
	if err != nil {
		return nil, err
	}

	boxes := make([]Box, 0, len(lines))
	for _, line := range lines {
		tokens := strings.Fields(line)
		if len(tokens) != labelFields {
			continue
		}
		b, err := parseBox(tokens)
		if err != nil {
			log.Debugf("Skipping line in %q: %v", path, err)
			continue
		}
		boxes = append(boxes, b)
	}

	return boxes, nil
}

// CountLabelLines returns the number of lines, and so annotations, in the label file at path.
func CountLabelLines(path string) (int, error) {
	lines, err := readLines(path)
	if err != nil {
		return 0, err
	}
	return len(lines), nil
}
