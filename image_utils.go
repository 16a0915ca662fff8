package yolods

import (
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

// fitImage scales img down so that neither side exceeds maxSide, keeping the aspect ratio. Images
// that already fit, or a maxSide <= 0, are returned unchanged.
//
// Returns the resulting image along with the scale factor applied to both axes.
func fitImage(img image.Image, maxSide int) (image.Image, float64) {
	b := img.Bounds()
	if maxSide <= 0 || (b.Dx() <= maxSide && b.Dy() <= maxSide) {
		return img, 1
	}

	fitted := imaging.Fit(img, maxSide, maxSide, imaging.Box)
	return fitted, float64(fitted.Bounds().Dx()) / float64(b.Dx())
}

// decodeImageConfig opens the file at path and returns the results of image.DecodeConfig.
func decodeImageConfig(path string) (config image.Config, format string, err error) {
	file, err := os.Open(path)
	if err != nil {
		return image.Config{}, "", err
	}
	defer file.Close()

	return image.DecodeConfig(file)
}

// loadImage reads and decodes the image at path, applying any EXIF orientation.
func loadImage(path string) (image.Image, error) {
	return imaging.Open(path, imaging.AutoOrientation(true))
}

// saveImage saves the image to path, encoding it as PNG or JPG, depending on the file extension of
// path.
func saveImage(path string, img image.Image, jpegQuality int) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return imaging.Save(img, path, imaging.JPEGQuality(jpegQuality))
	default:
		return imaging.Save(img, path)
	}
}
