package preprocess

import (
	"fmt"

	"github.com/Brownie44l1/digit-api/internal/raster"
)

// Grid dimensions expected by the digit classifier.
const (
	GridWidth     = 28
	GridHeight    = 28
	FeatureLength = GridWidth * GridHeight
)

// FeatureVector is a 28x28 grid flattened row-major, each value in [0, 1]
// with strokes high.
type FeatureVector []float32

// ToFeatureVector scales every sample of a normalized 28x28 grayscale raster
// into [0, 1].
func ToFeatureVector(im *raster.Image) (FeatureVector, error) {
	if err := im.RequireGray(); err != nil {
		return nil, err
	}
	if im.Width != GridWidth || im.Height != GridHeight {
		return nil, &raster.InvalidRasterError{
			Reason: fmt.Sprintf("feature grid must be %dx%d, got %dx%d", GridWidth, GridHeight, im.Width, im.Height),
		}
	}
	v := make(FeatureVector, FeatureLength)
	for i, p := range im.Pix {
		v[i] = float32(p) / 255.0
	}
	return v, nil
}
