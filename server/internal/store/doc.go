// Package store owns the shared pixel grid of the canvas.
//
// A Canvas is built once at startup with fixed dimensions and handed by
// reference to every session and to the snapshot handler. Every cell carries
// its own mutex: writers to different cells never contend, writers to the
// same cell are serialized and the last lock holder wins.
//
// Snapshot reads each cell under that cell's lock. The result is a collage of
// independently-current values, not an atomic image of the whole grid.
package store
