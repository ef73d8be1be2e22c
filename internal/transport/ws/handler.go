package ws

import (
	stdhttp "net/http"
	"slices"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/coderelay/internal/utils"
)

// Options tunes accepted connections.
type Options struct {
	MaxMessageBytes int64
	SendBuffer      int
	AllowedOrigins  []string
}

// Handler upgrades HTTP connections and bridges them to the hub.
type Handler struct {
	hub     Submitter
	adapter *Adapter
	opts    Options
	log     *zerolog.Logger
	newID   func() string
}

// NewHandler builds a new WebSocket handler.
func NewHandler(hub Submitter, adapter *Adapter, opts Options, logger *zerolog.Logger) *Handler {
	return &Handler{
		hub:     hub,
		adapter: adapter,
		opts:    opts,
		log:     logger,
		newID:   utils.NewID,
	}
}

func (h *Handler) acceptOptions() *websocket.AcceptOptions {
	if len(h.opts.AllowedOrigins) == 0 || slices.Contains(h.opts.AllowedOrigins, "*") {
		return &websocket.AcceptOptions{InsecureSkipVerify: true}
	}
	return &websocket.AcceptOptions{OriginPatterns: h.opts.AllowedOrigins}
}

func (h *Handler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	conn, err := websocket.Accept(w, r, h.acceptOptions())
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	if h.opts.MaxMessageBytes > 0 {
		conn.SetReadLimit(h.opts.MaxMessageBytes)
	}

	c := newConn(h.newID(), conn, h.hub, h.adapter, h.opts.SendBuffer, h.log)
	c.log.Info().Str("remote", r.RemoteAddr).Msg("socket connected")
	c.serve(r.Context())
}
