package preprocess

import (
	"fmt"
	"image"

	"github.com/nfnt/resize"
	"golang.org/x/image/draw"

	"github.com/Brownie44l1/digit-api/internal/raster"
)

// Filter names a resampling kernel. The choice affects prediction accuracy,
// so a deployment picks one and keeps it for every request.
type Filter string

const (
	// FilterArea averages every source pixel whose centre falls inside the
	// destination pixel's footprint. Upsampling degenerates to nearest.
	FilterArea       Filter = "area"
	FilterNearest    Filter = "nearest"
	FilterBilinear   Filter = "bilinear"
	FilterCatmullRom Filter = "catmullrom"
	FilterLanczos3   Filter = "lanczos3"
)

// Filters lists every supported filter.
var Filters = []Filter{FilterArea, FilterNearest, FilterBilinear, FilterCatmullRom, FilterLanczos3}

// ParseFilter maps a configuration string onto a Filter.
func ParseFilter(s string) (Filter, error) {
	for _, f := range Filters {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown resample filter %q", s)
}

// box weights every source pixel within half a destination pixel of the
// sample centre equally. The interval is closed, so a centre that falls
// exactly between two source pixels takes both instead of neither.
var box = &draw.Kernel{
	Support: 1,
	At: func(t float64) float64 {
		if t <= 0.5 {
			return 1
		}
		return 0
	},
}

// Resample scales a single-channel raster to exactly width x height.
// Input already at the target size comes back as an unmodified copy.
func Resample(im *raster.Image, width, height int, f Filter) (*raster.Image, error) {
	if err := im.RequireGray(); err != nil {
		return nil, err
	}
	if width <= 0 || height <= 0 {
		return nil, &raster.InvalidRasterError{Reason: fmt.Sprintf("target size must be positive, got %dx%d", width, height)}
	}
	if im.Width == width && im.Height == height {
		return im.Clone(), nil
	}

	src, err := im.Gray()
	if err != nil {
		return nil, err
	}

	if f == FilterLanczos3 {
		return raster.FromGray(resize.Resize(uint(width), uint(height), src, resize.Lanczos3)), nil
	}

	var interp draw.Interpolator
	switch f {
	case FilterArea, "":
		interp = box
	case FilterNearest:
		interp = draw.NearestNeighbor
	case FilterBilinear:
		interp = draw.BiLinear
	case FilterCatmullRom:
		interp = draw.CatmullRom
	default:
		return nil, fmt.Errorf("unknown resample filter %q", f)
	}

	dst := image.NewGray(image.Rect(0, 0, width, height))
	interp.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return raster.FromGray(dst), nil
}
