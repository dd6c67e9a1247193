// Package types defines the wire types shared by the canvas server and its
// clients: the closed Color palette and the Event that sets one pixel.
//
// Color values are ordinally stable. The JSON form of a Color is its tag
// ("White", "LightGrey", ...); decoding also accepts the numeric ordinal and
// the kebab display name ("light-grey"). Adding a color is a breaking
// wire-format change.
//
// Event wire format:
//
//	{"x": 1, "y": 2, "color": "Red"}
//
// DecodeEvent rejects anything that is not a complete, well-typed Event with
// a *DecodeError. Bounds are not checked here; the canvas store owns that.
package types
