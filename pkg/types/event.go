package types

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownColor is wrapped by DecodeError when a color tag is not part of
// the palette.
var ErrUnknownColor = errors.New("unknown color")

// DecodeError reports a client message that is not a well-formed Event or
// Color. Input is the offending text, truncated for logging.
type DecodeError struct {
	Input string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %q: %v", e.Input, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// maxInputEcho bounds how much of a bad message ends up in an error string.
const maxInputEcho = 64

func newDecodeError(data []byte, err error) *DecodeError {
	in := string(data)
	if len(in) > maxInputEcho {
		in = in[:maxInputEcho] + "..."
	}
	return &DecodeError{Input: in, Err: err}
}

// Event sets the pixel at (X, Y) to Color. It is both the client request and
// the broadcast notification.
type Event struct {
	X     uint16 `json:"x"`
	Y     uint16 `json:"y"`
	Color Color  `json:"color"`
}

func (e Event) String() string {
	return fmt.Sprintf("Event(x: %d, y: %d, color: %s)", e.X, e.Y, e.Color)
}

// Encode returns the JSON wire form of e.
func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// wireEvent uses pointers so missing fields can be told apart from zeros.
type wireEvent struct {
	X     *uint16 `json:"x"`
	Y     *uint16 `json:"y"`
	Color *Color  `json:"color"`
}

// DecodeEvent parses one client message. Every failure is a *DecodeError.
func DecodeEvent(data []byte) (Event, error) {
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return Event{}, newDecodeError(data, err)
	}
	switch {
	case w.X == nil:
		return Event{}, newDecodeError(data, errors.New("missing field x"))
	case w.Y == nil:
		return Event{}, newDecodeError(data, errors.New("missing field y"))
	case w.Color == nil:
		return Event{}, newDecodeError(data, errors.New("missing field color"))
	}
	return Event{X: *w.X, Y: *w.Y, Color: *w.Color}, nil
}
