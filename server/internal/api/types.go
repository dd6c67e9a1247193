package api

// PaletteEntry is one element of GET /api/v1/palette.
type PaletteEntry struct {
	Index int    `json:"index"`
	Tag   string `json:"tag"`
	Name  string `json:"name"`
	Hex   string `json:"hex"`
}

// errorResponse is a generic JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}
