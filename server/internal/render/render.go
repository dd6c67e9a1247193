package render

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"

	"golang.org/x/image/draw"

	"github.com/pixelcanvas/pixelcanvas/pkg/types"
	"github.com/pixelcanvas/pixelcanvas/server/internal/store"
)

// MaxScale is the largest accepted magnification factor.
const MaxScale = 8

// MaxPixels bounds the pixel count of a rendered image. The largest allowed
// canvas still renders at scale 1.
const MaxPixels = 1 << 24

// ErrTooLarge is returned when width x height x scale^2 exceeds MaxPixels.
var ErrTooLarge = errors.New("render: image too large")

// Fits reports whether a width x height canvas drawn at scale stays within
// MaxPixels.
func Fits(width, height uint32, scale int) bool {
	if scale < 1 {
		return false
	}
	s := uint64(scale)
	return uint64(width)*uint64(height)*s*s <= MaxPixels
}

// Image returns snap as a paletted image, one image pixel per canvas cell.
func Image(snap store.Snapshot) *image.Paletted {
	img := image.NewPaletted(image.Rect(0, 0, int(snap.Width), int(snap.Height)), types.Palette())
	// Pix indexes the palette, which is ordered by color ordinal.
	for i, c := range snap.Pixels {
		img.Pix[i] = uint8(c)
	}
	return img
}

// PNG encodes snap to w, each cell drawn as a scale x scale square.
func PNG(w io.Writer, snap store.Snapshot, scale int) error {
	if scale < 1 || scale > MaxScale {
		return fmt.Errorf("render: scale %d out of range [1, %d]", scale, MaxScale)
	}
	if !Fits(snap.Width, snap.Height, scale) {
		return fmt.Errorf("%w: %dx%d at scale %d exceeds %d pixels",
			ErrTooLarge, snap.Width, snap.Height, scale, MaxPixels)
	}

	src := Image(snap)
	var out image.Image = src
	if scale > 1 {
		b := src.Bounds()
		dst := image.NewPaletted(image.Rect(0, 0, b.Dx()*scale, b.Dy()*scale), src.Palette)
		draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
		out = dst
	}

	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(w, out); err != nil {
		return fmt.Errorf("render: encode png: %w", err)
	}
	return nil
}
