// Package ws runs one WebSocket session per connected painter.
//
// Each session is two halves joined by a supervisor:
//
//   - inbound reads text frames, decodes them as events, writes the pixel
//     into the canvas and publishes the event to the hub (the sender gets its
//     own echo like everyone else). Malformed frames, binary frames and
//     out-of-bounds pixels are dropped without ending the session.
//   - outbound forwards every hub event to the client as a JSON text frame
//     and pings the client every PingPeriod.
//
// A frame larger than the configured read limit is a transport error, not a
// malformed message: the connection is closed with status 1009 (message too
// big) and the session ends.
//
// The session subscribes to the hub before either half starts. Whichever
// half finishes first cancels the other; the subscription is released once
// both have returned. Closing the hub therefore ends every session.
//
// Message format, both directions:
//
//	{"x": 1, "y": 2, "color": "Red"}
//
// The upgrader accepts all origins. Apply origin restrictions at the reverse
// proxy level.
package ws
