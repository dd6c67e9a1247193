package types

import (
	"encoding/json"
	"fmt"
	"image/color"
	"strconv"
)

// Color is one entry of the fixed canvas palette.
// The zero value is White.
type Color uint8

// The palette, in wire order. Never reorder these.
const (
	White Color = iota
	LightGrey
	MediumGrey
	DeepGrey
	DarkGrey
	Black
	DarkChocolate
	Chocolate
	Brown
	Peach
	Beige
	Pink
	Magenta
	Mauve
	Purple
	DarkPurple
	Navy
	Blue
	Azure
	Aqua
	LightTeal
	DarkTeal
	Forest
	DarkGreen
	Green
	Lime
	PastelYellow
	Yellow
	Orange
	Rust
	Maroon
	Rose
	Red
	WaterMelon

	// NumColors is the size of the palette.
	NumColors = int(WaterMelon) + 1
)

type paletteEntry struct {
	tag  string
	name string
	rgb  uint32
}

var palette = [NumColors]paletteEntry{
	White:         {"White", "white", 0xFFFFFF},
	LightGrey:     {"LightGrey", "light-grey", 0xD4D7D9},
	MediumGrey:    {"MediumGrey", "medium-grey", 0x898D90},
	DeepGrey:      {"DeepGrey", "deep-grey", 0x6D6E70},
	DarkGrey:      {"DarkGrey", "dark-grey", 0x333434},
	Black:         {"Black", "black", 0x000000},
	DarkChocolate: {"DarkChocolate", "dark-chocolate", 0x3B2416},
	Chocolate:     {"Chocolate", "chocolate", 0x6D482F},
	Brown:         {"Brown", "brown", 0x9C6926},
	Peach:         {"Peach", "peach", 0xFFB470},
	Beige:         {"Beige", "beige", 0xFFE4A8},
	Pink:          {"Pink", "pink", 0xFF99AA},
	Magenta:       {"Magenta", "magenta", 0xDE107F},
	Mauve:         {"Mauve", "mauve", 0xE4ABFF},
	Purple:        {"Purple", "purple", 0xB44AC0},
	DarkPurple:    {"DarkPurple", "dark-purple", 0x811E9F},
	Navy:          {"Navy", "navy", 0x1F2A6B},
	Blue:          {"Blue", "blue", 0x2450A4},
	Azure:         {"Azure", "azure", 0x3690EA},
	Aqua:          {"Aqua", "aqua", 0x51E9F4},
	LightTeal:     {"LightTeal", "light-teal", 0x00CCC0},
	DarkTeal:      {"DarkTeal", "dark-teal", 0x00756F},
	Forest:        {"Forest", "forest", 0x1F4D2C},
	DarkGreen:     {"DarkGreen", "dark-green", 0x00A368},
	Green:         {"Green", "green", 0x00CC78},
	Lime:          {"Lime", "lime", 0x7EED56},
	PastelYellow:  {"PastelYellow", "pastel-yellow", 0xFFF8B8},
	Yellow:        {"Yellow", "yellow", 0xFFD635},
	Orange:        {"Orange", "orange", 0xFFA800},
	Rust:          {"Rust", "rust", 0xC74A1F},
	Maroon:        {"Maroon", "maroon", 0x6D001A},
	Rose:          {"Rose", "rose", 0xFF8989},
	Red:           {"Red", "red", 0xFF4500},
	WaterMelon:    {"WaterMelon", "watermelon", 0xFF6B6B},
}

// byName resolves both tags and display names.
var byName = func() map[string]Color {
	m := make(map[string]Color, NumColors*2)
	for i, e := range palette {
		m[e.tag] = Color(i)
		m[e.name] = Color(i)
	}
	return m
}()

// Valid reports whether c is inside the palette.
func (c Color) Valid() bool { return int(c) < NumColors }

// Tag returns the stable wire tag, e.g. "LightGrey".
func (c Color) Tag() string {
	if !c.Valid() {
		return "Color(" + strconv.Itoa(int(c)) + ")"
	}
	return palette[c].tag
}

// String returns the display name, e.g. "light-grey".
func (c Color) String() string {
	if !c.Valid() {
		return "color(" + strconv.Itoa(int(c)) + ")"
	}
	return palette[c].name
}

// Hex returns the sRGB value as "#rrggbb".
func (c Color) Hex() string {
	if !c.Valid() {
		return ""
	}
	return fmt.Sprintf("#%06x", palette[c].rgb)
}

// RGBA returns the opaque sRGB value used when rendering c.
// Out-of-palette values render as White.
func (c Color) RGBA() color.RGBA {
	if !c.Valid() {
		c = White
	}
	v := palette[c].rgb
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xFF}
}

// Colors returns every palette entry in wire order.
func Colors() []Color {
	out := make([]Color, NumColors)
	for i := range out {
		out[i] = Color(i)
	}
	return out
}

// Palette returns the palette as an image/color palette indexed by Color.
func Palette() color.Palette {
	p := make(color.Palette, NumColors)
	for i := range p {
		p[i] = Color(i).RGBA()
	}
	return p
}

// ParseColor resolves a wire tag or display name.
func ParseColor(s string) (Color, error) {
	if c, ok := byName[s]; ok {
		return c, nil
	}
	return White, &DecodeError{Input: s, Err: ErrUnknownColor}
}

// ColorFromIndex resolves a numeric ordinal.
func ColorFromIndex(i int64) (Color, error) {
	if i < 0 || i >= int64(NumColors) {
		return White, &DecodeError{Input: strconv.FormatInt(i, 10), Err: ErrUnknownColor}
	}
	return Color(i), nil
}

// MarshalText encodes c as its tag. Invalid values fail rather than leak an
// ordinal clients cannot decode.
func (c Color) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("types: color %d outside palette", uint8(c))
	}
	return []byte(palette[c].tag), nil
}

// UnmarshalText decodes a tag or display name.
func (c *Color) UnmarshalText(text []byte) error {
	v, err := ParseColor(string(text))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// UnmarshalJSON accepts a JSON string (tag or display name) or a JSON integer
// (ordinal).
func (c *Color) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return &DecodeError{Input: string(data), Err: err}
		}
		return c.UnmarshalText([]byte(s))
	}
	i, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return &DecodeError{Input: string(data), Err: ErrUnknownColor}
	}
	v, err := ColorFromIndex(i)
	if err != nil {
		return err
	}
	*c = v
	return nil
}
