package preprocess

import (
	"fmt"

	"github.com/Brownie44l1/digit-api/internal/raster"
)

// Polarity describes how the capture surface renders strokes. The classifier
// always sees strokes as high values on a low background; NormalizePolarity
// converts from the capture convention to that one.
type Polarity string

const (
	// StrokeHigh: light strokes on a dark background. No inversion.
	StrokeHigh Polarity = "stroke-high"
	// StrokeLow: dark strokes on a light background. Samples are inverted.
	StrokeLow Polarity = "stroke-low"
)

// ParsePolarity maps a configuration string onto a Polarity.
func ParsePolarity(s string) (Polarity, error) {
	switch Polarity(s) {
	case StrokeHigh, StrokeLow:
		return Polarity(s), nil
	}
	return "", fmt.Errorf("unknown stroke polarity %q", s)
}

// NormalizePolarity returns a single-channel raster in which strokes are
// high values.
func NormalizePolarity(im *raster.Image, p Polarity) (*raster.Image, error) {
	if err := im.RequireGray(); err != nil {
		return nil, err
	}
	switch p {
	case StrokeHigh:
		return im, nil
	case StrokeLow:
		out := raster.NewGray(im.Width, im.Height)
		for i, v := range im.Pix {
			out.Pix[i] = 255 - v
		}
		return out, nil
	}
	return nil, fmt.Errorf("unknown stroke polarity %q", p)
}
