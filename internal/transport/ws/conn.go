package ws

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/coderelay/internal/core"
	"github.com/vovakirdan/coderelay/internal/proto"
)

const (
	writeWait     = 10 * time.Second
	pingPeriod    = 30 * time.Second
	teardownWait  = 5 * time.Second
	defaultBuffer = 64
)

// Submitter accepts commands for the hub.
type Submitter interface {
	Submit(ctx context.Context, cmd core.Command) error
}

// Conn bridges one WebSocket to the hub.
type Conn struct {
	id      string
	ws      *websocket.Conn
	send    chan *core.Event
	hub     Submitter
	adapter *Adapter
	log     zerolog.Logger
}

func newConn(id string, ws *websocket.Conn, hub Submitter, adapter *Adapter, buffer int, logger *zerolog.Logger) *Conn {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Conn{
		id:      id,
		ws:      ws,
		send:    make(chan *core.Event, buffer),
		hub:     hub,
		adapter: adapter,
		log:     logger.With().Str("conn_id", id).Logger(),
	}
}

// ID returns the connection identifier.
func (c *Conn) ID() string { return c.id }

func (c *Conn) Enqueue(event *core.Event) bool {
	select {
	case c.send <- event:
		return true
	default:
		return false
	}
}

func (c *Conn) Close(reason string) {
	_ = c.ws.Close(websocket.StatusGoingAway, reason)
}

// serve runs the read and write loops until either ends, then tears the
// connection down through the hub whatever the cause of the exit.
func (c *Conn) serve(ctx context.Context) {
	c.adapter.Attach(c.id, c)
	defer c.teardown(ctx)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- c.readLoop(ctx)
	}()
	go func() {
		errCh <- c.writeLoop(ctx)
	}()

	err := <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != -1 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = "connection error"
			c.log.Warn().Err(err).Msg("ws connection closed with error")
		}
	}

	_ = c.ws.Close(status, reason)
}

func (c *Conn) teardown(parent context.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), teardownWait)
	defer cancel()

	if err := c.hub.Submit(ctx, core.Command{Kind: core.CommandDisconnect, ConnID: c.id}); err != nil {
		c.log.Warn().Err(err).Msg("failed to submit disconnect")
	}
	c.adapter.Detach(c.id)
	c.log.Info().Msg("socket disconnected")
}

func (c *Conn) readLoop(ctx context.Context) error {
	for {
		_, data, err := c.ws.Read(ctx)
		if err != nil {
			return err
		}

		var inbound proto.Inbound
		if err := json.Unmarshal(data, &inbound); err != nil {
			c.log.Debug().Err(err).Msg("invalid inbound frame")
			c.Enqueue(core.NewError(core.ErrCodeBadRequest, "invalid JSON"))
			continue
		}

		cmd, protoErr := inboundToCommand(c.id, inbound)
		if protoErr != nil {
			c.log.Debug().Str("event", inbound.Type).Str("code", protoErr.Code).Msg("rejected inbound")
			c.Enqueue(core.NewError(protoErr.Code, protoErr.Msg))
			continue
		}
		if err := c.hub.Submit(ctx, *cmd); err != nil {
			return err
		}
	}
}

func (c *Conn) writeLoop(ctx context.Context) error {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case event := <-c.send:
			if err := c.write(ctx, event); err != nil {
				c.log.Error().Err(err).Str("event", event.Kind.String()).Msg("write ws event")
				return err
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.ws.Ping(pingCtx)
			cancel()
			if err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c *Conn) write(ctx context.Context, event *core.Event) error {
	ctx, cancel := context.WithTimeout(ctx, writeWait)
	defer cancel()
	return wsjson.Write(ctx, c.ws, outboundFromEvent(event))
}
