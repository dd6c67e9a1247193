package store

import (
	"errors"
	"fmt"
	"sync"

	"github.com/pixelcanvas/pixelcanvas/pkg/types"
)

// ErrOutOfBounds is returned when a coordinate lies outside the grid.
var ErrOutOfBounds = errors.New("pixel out of bounds")

// cell is one independently locked pixel.
type cell struct {
	mu    sync.Mutex
	color types.Color
}

// Canvas is a fixed-size grid of colors, indexed row-major as y*width+x.
// All methods are safe for concurrent use.
type Canvas struct {
	width  uint32
	height uint32
	cells  []cell
}

// Snapshot is a point-in-time copy of a Canvas, serialized as the
// GET /canvas response body.
type Snapshot struct {
	Width  uint32        `json:"width"`
	Height uint32        `json:"height"`
	Pixels []types.Color `json:"pixels"`
}

// At returns the color at (x, y). The caller must stay in bounds.
func (s Snapshot) At(x, y uint32) types.Color {
	return s.Pixels[int(y)*int(s.Width)+int(x)]
}

// New creates a width x height canvas with every cell White.
func New(width, height uint32) *Canvas {
	return &Canvas{
		width:  width,
		height: height,
		cells:  make([]cell, int(width)*int(height)),
	}
}

// Width returns the grid width in pixels.
func (c *Canvas) Width() uint32 { return c.width }

// Height returns the grid height in pixels.
func (c *Canvas) Height() uint32 { return c.height }

// index returns the cell index for (x, y) or ErrOutOfBounds.
func (c *Canvas) index(x, y uint32) (int, error) {
	if x >= c.width || y >= c.height {
		return 0, fmt.Errorf("%w: (%d,%d) outside %dx%d", ErrOutOfBounds, x, y, c.width, c.height)
	}
	return int(y)*int(c.width) + int(x), nil
}

// Set replaces the color at (x, y). The grid is untouched on error.
func (c *Canvas) Set(x, y uint32, col types.Color) error {
	if !col.Valid() {
		return fmt.Errorf("store: color %d outside palette", uint8(col))
	}
	i, err := c.index(x, y)
	if err != nil {
		return err
	}
	p := &c.cells[i]
	p.mu.Lock()
	p.color = col
	p.mu.Unlock()
	return nil
}

// Apply writes ev to the grid.
func (c *Canvas) Apply(ev types.Event) error {
	return c.Set(uint32(ev.X), uint32(ev.Y), ev.Color)
}

// Get returns the current color at (x, y).
func (c *Canvas) Get(x, y uint32) (types.Color, error) {
	i, err := c.index(x, y)
	if err != nil {
		return types.White, err
	}
	p := &c.cells[i]
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.color, nil
}

// Snapshot copies every cell, locking one cell at a time.
func (c *Canvas) Snapshot() Snapshot {
	pixels := make([]types.Color, len(c.cells))
	for i := range c.cells {
		p := &c.cells[i]
		p.mu.Lock()
		pixels[i] = p.color
		p.mu.Unlock()
	}
	return Snapshot{Width: c.width, Height: c.height, Pixels: pixels}
}
