package preprocess

import (
	"math"

	"github.com/Brownie44l1/digit-api/internal/raster"
)

// Luminance weights applied to red, green and blue. Alpha is ignored.
const (
	WeightR = 0.30
	WeightG = 0.59
	WeightB = 0.11
)

// ToGrayscale collapses an RGBA raster to one luminance channel. A raster
// that is already single-channel is returned unchanged.
func ToGrayscale(im *raster.Image) (*raster.Image, error) {
	if err := im.Validate(); err != nil {
		return nil, err
	}
	if im.Channels == raster.Gray {
		return im, nil
	}

	out := raster.NewGray(im.Width, im.Height)
	for i := range out.Pix {
		p := im.Pix[i*raster.RGBA : i*raster.RGBA+3]
		out.Pix[i] = luminance(p[0], p[1], p[2])
	}
	return out, nil
}

func luminance(r, g, b byte) byte {
	y := math.Round(WeightR*float64(r) + WeightG*float64(g) + WeightB*float64(b))
	if y > 255 {
		return 255
	}
	return byte(y)
}
