package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/coderelay/internal/core"
	applog "github.com/vovakirdan/coderelay/internal/log"
	"github.com/vovakirdan/coderelay/internal/proto"
)

type wireFrame struct {
	Type  string          `json:"type"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error"`
}

type relay struct {
	url      string
	registry *core.Registry
	adapter  *Adapter
}

func startRelay(t *testing.T) *relay {
	t.Helper()

	logger := applog.Nop()
	adapter := NewAdapter(logger, nil)
	registry := core.NewRegistry()
	hub := core.NewHub(registry, adapter, logger)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	handler := NewHandler(hub, adapter, Options{MaxMessageBytes: 1 << 16, SendBuffer: 16}, logger)
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	return &relay{
		url:      strings.Replace(ts.URL, "http", "ws", 1),
		registry: registry,
		adapter:  adapter,
	}
}

func dial(ctx context.Context, t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.CloseNow() })
	return conn
}

func send(ctx context.Context, t *testing.T, conn *websocket.Conn, typ string, data any) {
	t.Helper()
	payload, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, wsjson.Write(ctx, conn, proto.Inbound{Type: typ, Data: payload}))
}

func readUntil(ctx context.Context, t *testing.T, conn *websocket.Conn, typ string, match func(json.RawMessage) bool) json.RawMessage {
	t.Helper()
	for {
		var frame wireFrame
		require.NoError(t, wsjson.Read(ctx, conn, &frame))
		if frame.Type != typ {
			continue
		}
		if match == nil || match(frame.Data) {
			return frame.Data
		}
	}
}

func rosterOf(t *testing.T, raw json.RawMessage) proto.JoinedData {
	t.Helper()
	var joined proto.JoinedData
	require.NoError(t, json.Unmarshal(raw, &joined))
	return joined
}

func TestRelayScenario(t *testing.T) {
	r := startRelay(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	connA := dial(ctx, t, r.url)
	connB := dial(ctx, t, r.url)

	send(ctx, t, connA, proto.EventJoin, proto.JoinData{RoomID: "abc123", Username: "Neo"})
	first := rosterOf(t, readUntil(ctx, t, connA, proto.EventJoined, nil))
	require.Len(t, first.Clients, 1)
	assert.Equal(t, "Neo", first.Clients[0].Username)
	idA := first.SocketID

	send(ctx, t, connB, proto.EventJoin, proto.JoinData{RoomID: "abc123", Username: "Trinity"})
	twoMembers := func(raw json.RawMessage) bool {
		var j proto.JoinedData
		return json.Unmarshal(raw, &j) == nil && len(j.Clients) == 2
	}
	seenByA := rosterOf(t, readUntil(ctx, t, connA, proto.EventJoined, twoMembers))
	seenByB := rosterOf(t, readUntil(ctx, t, connB, proto.EventJoined, twoMembers))
	idB := seenByB.SocketID

	want := []proto.Client{{SocketID: idA, Username: "Neo"}, {SocketID: idB, Username: "Trinity"}}
	assert.Equal(t, want, seenByA.Clients)
	assert.Equal(t, want, seenByB.Clients)
	assert.Equal(t, "Trinity", seenByA.Username)
	assert.Equal(t, idB, seenByA.SocketID)

	send(ctx, t, connA, proto.EventCodeChange, map[string]any{"roomId": "abc123", "code": "print(1)"})
	change := readUntil(ctx, t, connB, proto.EventCodeChange, nil)
	assert.JSONEq(t, `{"code":"print(1)"}`, string(change))

	// A must not see its own change: the next code-change it gets is B's sync.
	send(ctx, t, connB, proto.EventSyncCode, map[string]any{"socketId": idA, "code": "synced"})
	synced := readUntil(ctx, t, connA, proto.EventCodeChange, nil)
	assert.JSONEq(t, `{"code":"synced"}`, string(synced))

	require.NoError(t, connB.Close(websocket.StatusNormalClosure, "bye"))
	left := readUntil(ctx, t, connA, proto.EventDisconnected, nil)
	assert.JSONEq(t, `{"socketId":"`+idB+`","username":"Trinity"}`, string(left))

	require.Eventually(t, func() bool {
		_, ok := r.registry.Get(idB)
		return !ok
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRelayAbruptCloseStillNotifiesPeers(t *testing.T) {
	r := startRelay(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	connA := dial(ctx, t, r.url)
	connB := dial(ctx, t, r.url)

	send(ctx, t, connA, proto.EventJoin, proto.JoinData{RoomID: "r", Username: "alice"})
	readUntil(ctx, t, connA, proto.EventJoined, nil)
	send(ctx, t, connB, proto.EventJoin, proto.JoinData{RoomID: "r", Username: "bob"})
	idB := rosterOf(t, readUntil(ctx, t, connB, proto.EventJoined, nil)).SocketID

	require.NoError(t, connB.CloseNow())

	left := readUntil(ctx, t, connA, proto.EventDisconnected, nil)
	var data proto.DisconnectedData
	require.NoError(t, json.Unmarshal(left, &data))
	assert.Equal(t, idB, data.SocketID)
	assert.Equal(t, "bob", data.Username)

	require.Eventually(t, func() bool {
		return r.registry.Len() == 1 && len(r.adapter.Members("r")) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRelayRejectsMalformedFrames(t *testing.T) {
	r := startRelay(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dial(ctx, t, r.url)

	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte("not json")))
	var frame wireFrame
	require.NoError(t, wsjson.Read(ctx, conn, &frame))
	require.Equal(t, proto.TypeError, frame.Type)
	assert.Equal(t, core.ErrCodeBadRequest, frame.Error.Code)

	send(ctx, t, conn, "hello", map[string]string{})
	require.NoError(t, wsjson.Read(ctx, conn, &frame))
	assert.Equal(t, core.ErrCodeUnknownEvent, frame.Error.Code)

	// the connection survives protocol errors
	send(ctx, t, conn, proto.EventJoin, proto.JoinData{RoomID: "r", Username: "x"})
	joined := rosterOf(t, readUntil(ctx, t, conn, proto.EventJoined, nil))
	assert.Len(t, joined.Clients, 1)
}
