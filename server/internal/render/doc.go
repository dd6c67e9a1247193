// Package render draws canvas snapshots as paletted PNG images.
package render
