package compare

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg"
	"image/png"
	"os"
)

// ErrSizeMismatch is returned when the two screenshots differ in size.
var ErrSizeMismatch = errors.New("compare: images have different dimensions")

var diffColor = color.RGBA{R: 255, A: 255}

// DiffImages compares a and b pixel by pixel. The returned image keeps a's
// pixels where both agree and is red where they differ. Pixels are compared
// after conversion to opaque RGB.
func DiffImages(a, b image.Image) (diff *image.RGBA, identical bool, err error) {
	ab, bb := a.Bounds(), b.Bounds()
	if ab.Dx() != bb.Dx() || ab.Dy() != bb.Dy() {
		return nil, false, fmt.Errorf("%w: %dx%d vs %dx%d", ErrSizeMismatch, ab.Dx(), ab.Dy(), bb.Dx(), bb.Dy())
	}

	ra, rb := toRGB(a), toRGB(b)
	diff = image.NewRGBA(ra.Bounds())
	identical = true
	for y := 0; y < ab.Dy(); y++ {
		for x := 0; x < ab.Dx(); x++ {
			i := ra.PixOffset(x, y)
			pa, pb := ra.Pix[i:i+3], rb.Pix[i:i+3]
			if pa[0] != pb[0] || pa[1] != pb[1] || pa[2] != pb[2] {
				identical = false
				diff.SetRGBA(x, y, diffColor)
				continue
			}
			diff.SetRGBA(x, y, color.RGBA{R: pa[0], G: pa[1], B: pa[2], A: 255})
		}
	}
	return diff, identical, nil
}

// toRGB draws img onto an opaque black-backed RGBA starting at (0,0).
func toRGB(img image.Image) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Over)
	return out
}

// LoadImage decodes a PNG or JPEG file.
func LoadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// SavePNG writes img to path.
func SavePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
