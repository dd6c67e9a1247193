package api_test

import (
	"bytes"
	"encoding/json"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gorilla/websocket"

	"github.com/pixelcanvas/pixelcanvas/pkg/types"
	"github.com/pixelcanvas/pixelcanvas/server/internal/api"
	"github.com/pixelcanvas/pixelcanvas/server/internal/store"
)

// --- test helpers -----------------------------------------------------------

func newRouter(t *testing.T, canvas *store.Canvas, staticDir string) http.Handler {
	t.Helper()
	return api.NewRouter(api.Deps{
		Canvas: canvas,
		Sessions: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}),
		Metrics: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, "# metrics\n") //nolint:errcheck
		}),
		StaticDir: staticDir,
	})
}

func do(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(method, path, nil))
	return rr
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	return do(t, h, http.MethodGet, path)
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decode JSON: %v (body: %s)", err, rr.Body.String())
	}
}

// --- /canvas ----------------------------------------------------------------

func TestCanvas_Snapshot(t *testing.T) {
	c := store.New(4, 4)
	c.Set(1, 2, types.Red) //nolint:errcheck
	rr := get(t, newRouter(t, c, ""), "/canvas")

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q", ct)
	}

	var raw struct {
		Width  int      `json:"width"`
		Height int      `json:"height"`
		Pixels []string `json:"pixels"`
	}
	decode(t, rr, &raw)
	if raw.Width != 4 || raw.Height != 4 || len(raw.Pixels) != 16 {
		t.Fatalf("got %dx%d with %d pixels", raw.Width, raw.Height, len(raw.Pixels))
	}
	for i, p := range raw.Pixels {
		want := "White"
		if i == 9 {
			want = "Red"
		}
		if p != want {
			t.Errorf("pixel %d: got %q, want %q", i, p, want)
		}
	}
}

func TestCanvas_MethodNotAllowed(t *testing.T) {
	rr := do(t, newRouter(t, store.New(2, 2), ""), http.MethodPost, "/canvas")
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status: got %d, want 405", rr.Code)
	}
	var resp map[string]string
	decode(t, rr, &resp)
	if resp["error"] == "" {
		t.Error("error body missing")
	}
}

// --- /canvas.png ------------------------------------------------------------

func TestCanvasPNG(t *testing.T) {
	c := store.New(5, 3)
	c.Set(4, 2, types.Blue) //nolint:errcheck
	h := newRouter(t, c, "")

	rr := get(t, h, "/canvas.png?scale=2")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type: got %q", ct)
	}
	img, err := png.Decode(rr.Body)
	if err != nil {
		t.Fatalf("png.Decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 10 || b.Dy() != 6 {
		t.Errorf("bounds: got %v, want 10x6", b)
	}
}

func TestCanvasPNG_BadScale(t *testing.T) {
	h := newRouter(t, store.New(2, 2), "")
	for _, q := range []string{"0", "9", "big"} {
		rr := get(t, h, "/canvas.png?scale="+q)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("scale=%s: got %d, want 400", q, rr.Code)
		}
	}
}

func TestCanvasPNG_OutputTooLarge(t *testing.T) {
	h := newRouter(t, store.New(1024, 1024), "")

	rr := get(t, h, "/canvas.png?scale=8")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rr.Code)
	}
	var resp map[string]string
	decode(t, rr, &resp)
	if !strings.Contains(resp["error"], "too large") {
		t.Errorf("error: got %q", resp["error"])
	}
}

// --- /api/v1/palette --------------------------------------------------------

func TestPalette(t *testing.T) {
	rr := get(t, newRouter(t, store.New(1, 1), ""), "/api/v1/palette")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	var entries []api.PaletteEntry
	decode(t, rr, &entries)
	if len(entries) != types.NumColors {
		t.Fatalf("entries: got %d, want %d", len(entries), types.NumColors)
	}
	first := entries[0]
	if first.Index != 0 || first.Tag != "White" || first.Name != "white" || first.Hex != "#ffffff" {
		t.Errorf("first entry: got %+v", first)
	}
	for i, e := range entries {
		if e.Index != i {
			t.Errorf("entry %d has index %d", i, e.Index)
		}
	}
}

// --- other routes -----------------------------------------------------------

func TestHealthz(t *testing.T) {
	rr := get(t, newRouter(t, store.New(1, 1), ""), "/healthz")
	if rr.Code != http.StatusOK {
		t.Errorf("status: got %d, want 200", rr.Code)
	}
}

func TestMetricsAndSessionsDelegate(t *testing.T) {
	h := newRouter(t, store.New(1, 1), "")

	if rr := get(t, h, "/metrics"); rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "# metrics") {
		t.Errorf("/metrics: got %d %q", rr.Code, rr.Body.String())
	}
	if rr := get(t, h, "/ws"); rr.Code != http.StatusTeapot {
		t.Errorf("/ws: got %d, want 418 from the stub", rr.Code)
	}
}

func TestMetrics_MethodNotAllowed(t *testing.T) {
	rr := do(t, newRouter(t, store.New(1, 1), ""), http.MethodPost, "/metrics")
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("status: got %d, want 405", rr.Code)
	}
}

func TestAccessLog_UsesForwardedAddress(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	req := httptest.NewRequest(http.MethodGet, "/canvas", nil)
	req.RemoteAddr = "10.0.0.1:4242"
	req.Header.Set("X-Forwarded-For", "203.0.113.7")
	newRouter(t, store.New(1, 1), "").ServeHTTP(httptest.NewRecorder(), req)

	var line struct {
		Msg    string `json:"msg"`
		Remote string `json:"remote"`
		Status int    `json:"status"`
	}
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode log line: %v (%s)", err, buf.String())
	}
	if line.Msg != "api: request" || line.Status != http.StatusOK {
		t.Errorf("log line: got %+v", line)
	}
	if line.Remote != "203.0.113.7" {
		t.Errorf("remote: got %q, want 203.0.113.7", line.Remote)
	}
}

func TestStaticFallback(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<canvas></canvas>"), 0o600); err != nil {
		t.Fatalf("write index: %v", err)
	}
	h := newRouter(t, store.New(1, 1), dir)

	rr := get(t, h, "/")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "<canvas>") {
		t.Errorf("/: got %d %q", rr.Code, rr.Body.String())
	}
	if rr := get(t, h, "/missing.js"); rr.Code != http.StatusNotFound {
		t.Errorf("/missing.js: got %d, want 404", rr.Code)
	}
}

func TestNotFound_NoStaticDir(t *testing.T) {
	rr := get(t, newRouter(t, store.New(1, 1), ""), "/index.html")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want 404", rr.Code)
	}
	var resp map[string]string
	decode(t, rr, &resp)
	if resp["error"] != "not found" {
		t.Errorf("error: got %q", resp["error"])
	}
}

// The access log wrapper must leave the connection hijackable.
func TestWebSocketUpgradeThroughMiddleware(t *testing.T) {
	upgrader := websocket.Upgrader{}
	h := api.NewRouter(api.Deps{
		Canvas: store.New(1, 1),
		Sessions: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			conn, err := upgrader.Upgrade(w, r, nil)
			if err != nil {
				return
			}
			defer conn.Close()
			conn.WriteMessage(websocket.TextMessage, []byte("hello")) //nolint:errcheck
		}),
	})
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if string(msg) != "hello" {
		t.Errorf("got %q, want hello", msg)
	}
}
