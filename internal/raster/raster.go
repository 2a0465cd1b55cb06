// Package raster holds the pixel buffer handed over by a drawing surface.
//
// An Image is a plain row-major byte buffer with either one (grayscale) or
// four (RGBA) channels per pixel. Values are never mutated after
// construction; every transform in this module returns a fresh Image.
package raster

import (
	"fmt"
	"image"
	"image/color"
	"math"
)

const (
	Gray = 1
	RGBA = 4
)

type Image struct {
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Channels int    `json:"channels"`
	Pix      []byte `json:"data"`
}

// New validates the dimensions and copies pix into a new Image.
func New(width, height, channels int, pix []byte) (*Image, error) {
	img := &Image{
		Width:    width,
		Height:   height,
		Channels: channels,
		Pix:      append([]byte(nil), pix...),
	}
	if err := img.Validate(); err != nil {
		return nil, err
	}
	return img, nil
}

// NewGray allocates a zeroed single-channel image.
func NewGray(width, height int) *Image {
	return &Image{Width: width, Height: height, Channels: Gray, Pix: make([]byte, width*height)}
}

func (im *Image) Validate() error {
	if im == nil {
		return invalid("nil raster")
	}
	if im.Width <= 0 || im.Height <= 0 {
		return invalid(fmt.Sprintf("dimensions must be positive, got %dx%d", im.Width, im.Height))
	}
	if im.Channels != Gray && im.Channels != RGBA {
		return invalid(fmt.Sprintf("channel count must be 1 or 4, got %d", im.Channels))
	}
	if im.Width > math.MaxInt/im.Height/im.Channels {
		return invalid(fmt.Sprintf("dimensions %dx%dx%d overflow", im.Width, im.Height, im.Channels))
	}
	if want := im.Width * im.Height * im.Channels; len(im.Pix) != want {
		return invalid(fmt.Sprintf("data length %d does not match %dx%dx%d = %d",
			len(im.Pix), im.Width, im.Height, im.Channels, want))
	}
	return nil
}

// RequireGray validates im and checks it has a single channel.
func (im *Image) RequireGray() error {
	if err := im.Validate(); err != nil {
		return err
	}
	if im.Channels != Gray {
		return invalid(fmt.Sprintf("expected single-channel raster, got %d channels", im.Channels))
	}
	return nil
}

// Clone returns a deep copy.
func (im *Image) Clone() *Image {
	c := *im
	c.Pix = append([]byte(nil), im.Pix...)
	return &c
}

// At returns the sample of channel c at (x, y).
func (im *Image) At(x, y, c int) byte {
	return im.Pix[(y*im.Width+x)*im.Channels+c]
}

// Gray exposes a single-channel raster as an *image.Gray sharing no memory
// with im.
func (im *Image) Gray() (*image.Gray, error) {
	if err := im.RequireGray(); err != nil {
		return nil, err
	}
	g := image.NewGray(image.Rect(0, 0, im.Width, im.Height))
	copy(g.Pix, im.Pix)
	return g, nil
}

// FromGray converts any image.Image to a single-channel raster using the
// standard library gray model. Used for the outputs of resampling filters.
func FromGray(img image.Image) *Image {
	b := img.Bounds()
	out := NewGray(b.Dx(), b.Dy())
	if g, ok := img.(*image.Gray); ok {
		for y := 0; y < out.Height; y++ {
			row := g.Pix[(y+b.Min.Y-g.Rect.Min.Y)*g.Stride+(b.Min.X-g.Rect.Min.X):]
			copy(out.Pix[y*out.Width:(y+1)*out.Width], row[:out.Width])
		}
		return out
	}
	for y := 0; y < out.Height; y++ {
		for x := 0; x < out.Width; x++ {
			out.Pix[y*out.Width+x] = color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray).Y
		}
	}
	return out
}

// FromImage converts a decoded image (canvas export, upload) into a
// four-channel raster with straight (non-premultiplied) alpha.
func FromImage(img image.Image) (*Image, error) {
	if img == nil {
		return nil, invalid("nil image")
	}
	b := img.Bounds()
	out := &Image{Width: b.Dx(), Height: b.Dy(), Channels: RGBA, Pix: make([]byte, b.Dx()*b.Dy()*RGBA)}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			out.Pix[i], out.Pix[i+1], out.Pix[i+2], out.Pix[i+3] = c.R, c.G, c.B, c.A
			i += RGBA
		}
	}
	return out, nil
}
