package ws

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/pixelcanvas/pixelcanvas/pkg/types"
	"github.com/pixelcanvas/pixelcanvas/server/internal/config"
	"github.com/pixelcanvas/pixelcanvas/server/internal/hub"
	"github.com/pixelcanvas/pixelcanvas/server/internal/store"
)

// Metrics counts what sessions do.
type Metrics struct {
	Accepted     prometheus.Counter
	OutOfBounds  prometheus.Counter
	Malformed    prometheus.Counter
	Lagged       prometheus.Counter
	SendFailures prometheus.Counter
	Sessions     prometheus.Counter
	Active       prometheus.Gauge
}

// NewMetrics creates the session metrics and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{Name: name, Help: help})
	}
	m := &Metrics{
		Accepted:     counter("canvas_events_accepted_total", "Pixel events applied to the canvas and broadcast."),
		OutOfBounds:  counter("canvas_events_out_of_bounds_total", "Pixel events dropped for coordinates outside the canvas."),
		Malformed:    counter("canvas_messages_malformed_total", "Inbound text frames that did not decode as an event."),
		Lagged:       counter("canvas_events_lagged_total", "Broadcast events discarded because a session fell behind."),
		SendFailures: counter("canvas_send_failures_total", "Sessions ended by a failed write to the client."),
		Sessions:     counter("canvas_sessions_total", "WebSocket sessions started."),
		Active: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "canvas_sessions_active",
			Help: "WebSocket sessions currently open.",
		}),
	}
	reg.MustRegister(m.Accepted, m.OutOfBounds, m.Malformed, m.Lagged, m.SendFailures, m.Sessions, m.Active)
	return m
}

// Handler upgrades requests to WebSocket and runs a session on each.
type Handler struct {
	canvas   *store.Canvas
	hub      *hub.Hub
	metrics  *Metrics
	cfg      config.SessionConfig
	upgrader websocket.Upgrader
}

// New returns a Handler that paints into canvas and fans out through h.
// A nil m registers metrics on a private registry.
func New(canvas *store.Canvas, h *hub.Hub, m *Metrics, cfg config.SessionConfig) *Handler {
	if m == nil {
		m = NewMetrics(prometheus.NewRegistry())
	}
	return &Handler{
		canvas:  canvas,
		hub:     h,
		metrics: m,
		cfg:     cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// ServeHTTP upgrades the connection and blocks until the session ends.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader has already written the error response.
		slog.Debug("ws: upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}

	s := &session{
		Handler: h,
		conn:    conn,
		log:     slog.With("session", uuid.NewString(), "remote", r.RemoteAddr),
	}
	s.run()
}

type session struct {
	*Handler
	conn *websocket.Conn
	log  *slog.Logger
}

type halfResult struct {
	half string
	err  error
}

// run is the supervisor: subscribe, start both halves, and tear everything
// down as soon as either returns.
func (s *session) run() {
	sub := s.hub.Subscribe()
	defer sub.Close()

	s.metrics.Sessions.Inc()
	s.metrics.Active.Inc()
	defer s.metrics.Active.Dec()

	s.log.Info("ws: session started")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan halfResult, 2)
	go func() { done <- halfResult{"inbound", s.readPump(ctx)} }()
	go func() { done <- halfResult{"outbound", s.writePump(ctx, sub)} }()

	first := <-done
	cancel()
	s.conn.Close()
	<-done

	if first.err != nil {
		s.log.Warn("ws: session failed", "half", first.half, "err", first.err)
		return
	}
	s.log.Info("ws: session ended", "half", first.half)
}

// readPump applies client events until the client closes, the transport
// fails, or ctx is cancelled. A nil return is a normal close.
func (s *session) readPump(ctx context.Context) error {
	s.conn.SetReadLimit(s.cfg.ReadLimit)
	s.conn.SetReadDeadline(time.Now().Add(s.cfg.PongWait)) //nolint:errcheck
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(s.cfg.PongWait))
	})

	for {
		typ, data, err := s.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived) {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}
		s.conn.SetReadDeadline(time.Now().Add(s.cfg.PongWait)) //nolint:errcheck

		if typ != websocket.TextMessage {
			continue
		}
		s.apply(data)
	}
}

// apply handles one inbound text frame. Nothing here ends the session.
func (s *session) apply(data []byte) {
	ev, err := types.DecodeEvent(data)
	if err != nil {
		s.metrics.Malformed.Inc()
		s.log.Debug("ws: ignoring malformed message", "err", err)
		return
	}

	if err := s.canvas.Apply(ev); err != nil {
		if errors.Is(err, store.ErrOutOfBounds) {
			s.metrics.OutOfBounds.Inc()
			s.log.Warn("ws: dropping out-of-bounds event", "event", ev.String(), "err", err)
			return
		}
		s.log.Error("ws: apply event", "event", ev.String(), "err", err)
		return
	}

	s.metrics.Accepted.Inc()
	s.hub.Publish(ev)
}

// writePump forwards hub events to the client. It returns nil when the
// subscription closes or ctx is cancelled.
func (s *session) writePump(ctx context.Context, sub *hub.Subscription) error {
	ticker := time.NewTicker(s.cfg.PingPeriod())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-sub.C():
			if n := sub.TakeDropped(); n > 0 {
				s.metrics.Lagged.Add(float64(n))
				s.log.Warn("ws: session lagging, updates dropped", "dropped", n)
			}

			s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout)) //nolint:errcheck
			if !ok {
				// Hub closed: the server is shutting down.
				msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
				s.conn.WriteMessage(websocket.CloseMessage, msg) //nolint:errcheck
				return nil
			}

			data, err := ev.Encode()
			if err != nil {
				s.log.Error("ws: encode event", "event", ev.String(), "err", err)
				continue
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				s.metrics.SendFailures.Inc()
				return fmt.Errorf("send: %w", err)
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout)) //nolint:errcheck
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("ping: %w", err)
			}
		}
	}
}
