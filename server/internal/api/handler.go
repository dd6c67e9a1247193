package api

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/pixelcanvas/pixelcanvas/pkg/types"
	"github.com/pixelcanvas/pixelcanvas/server/internal/render"
	"github.com/pixelcanvas/pixelcanvas/server/internal/store"
)

type handler struct {
	canvas *store.Canvas
}

// snapshot returns GET /canvas, the whole grid in row-major order.
func (h *handler) snapshot(w http.ResponseWriter, r *http.Request) {
	jsonResp(w, http.StatusOK, h.canvas.Snapshot())
}

// png returns GET /canvas.png?scale=N.
func (h *handler) png(w http.ResponseWriter, r *http.Request) {
	scale := 1
	if s := r.URL.Query().Get("scale"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > render.MaxScale {
			jsonErr(w, http.StatusBadRequest, "scale must be an integer in [1, "+strconv.Itoa(render.MaxScale)+"]")
			return
		}
		scale = n
	}
	if !render.Fits(h.canvas.Width(), h.canvas.Height(), scale) {
		jsonErr(w, http.StatusBadRequest, "scale too large for this canvas")
		return
	}

	var buf bytes.Buffer
	if err := render.PNG(&buf, h.canvas.Snapshot(), scale); err != nil {
		slog.Error("api: render png", "req_id", middleware.GetReqID(r.Context()), "err", err)
		jsonErr(w, http.StatusInternalServerError, "render failed")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w) //nolint:errcheck
}

// palette returns GET /api/v1/palette.
func (h *handler) palette(w http.ResponseWriter, r *http.Request) {
	colors := types.Colors()
	out := make([]PaletteEntry, 0, len(colors))
	for _, c := range colors {
		out = append(out, PaletteEntry{
			Index: int(c),
			Tag:   c.Tag(),
			Name:  c.String(),
			Hex:   c.Hex(),
		})
	}
	jsonResp(w, http.StatusOK, out)
}

// --- helpers ----------------------------------------------------------------

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}
