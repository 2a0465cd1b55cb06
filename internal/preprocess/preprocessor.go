// Package preprocess turns a drawn raster into the feature vector a digit
// classifier was trained on.
//
// The pipeline is grayscale, resample to 28x28, polarity normalization, then
// scaling to [0, 1]. Luminance weights are fixed (0.30, 0.59, 0.11). Polarity
// and resampling filter are chosen once per deployment through Config; all
// stages are pure and safe for concurrent use.
package preprocess

import (
	"fmt"

	"github.com/Brownie44l1/digit-api/internal/raster"
)

type Config struct {
	Polarity Polarity
	Filter   Filter
}

// DefaultConfig expects light strokes on a dark canvas and area averaging.
func DefaultConfig() Config {
	return Config{Polarity: StrokeHigh, Filter: FilterArea}
}

type Preprocessor struct {
	cfg Config
}

func New(cfg Config) (*Preprocessor, error) {
	if _, err := ParsePolarity(string(cfg.Polarity)); err != nil {
		return nil, err
	}
	if _, err := ParseFilter(string(cfg.Filter)); err != nil {
		return nil, err
	}
	return &Preprocessor{cfg: cfg}, nil
}

func (p *Preprocessor) Config() Config {
	return p.cfg
}

// Process maps any well-formed raster to a FeatureVector of length
// FeatureLength. Malformed input yields *raster.InvalidRasterError.
func (p *Preprocessor) Process(im *raster.Image) (FeatureVector, error) {
	gray, err := ToGrayscale(im)
	if err != nil {
		return nil, err
	}
	small, err := Resample(gray, GridWidth, GridHeight, p.cfg.Filter)
	if err != nil {
		return nil, fmt.Errorf("resample: %w", err)
	}
	norm, err := NormalizePolarity(small, p.cfg.Polarity)
	if err != nil {
		return nil, fmt.Errorf("normalize polarity: %w", err)
	}
	return ToFeatureVector(norm)
}
