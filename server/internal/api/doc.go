// Package api implements the HTTP surface of the canvas server.
//
// NewRouter(deps) returns a chi router serving:
//
//	GET /ws              WebSocket upgrade, hands off to deps.Sessions
//	GET /canvas          full snapshot: {"width":W,"height":H,"pixels":["White",...]}
//	GET /canvas.png      PNG rendering; ?scale=1..8 (default 1)
//	GET /api/v1/palette  palette entries in ordinal order
//	GET /metrics         deps.Metrics (Prometheus exposition)
//	GET /healthz         liveness, plain "."
//	GET /*               files under deps.StaticDir
//
// JSON endpoints answer 405 with a JSON error body for other methods. Every
// request is logged through slog with its chi request id.
package api
