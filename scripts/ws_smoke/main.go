package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/coderelay/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

type frame struct {
	Type  string          `json:"type"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error"`
}

func run() error {
	addr := flag.String("addr", "ws://localhost:5000/ws", "WebSocket address")
	user := flag.String("user", "tester", "username to join with")
	room := flag.String("room", "smoke", "room id")
	code := flag.String("code", "print('hello from smoke test')", "code to relay")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	joiner, err := dial(ctx, *addr)
	if err != nil {
		return err
	}
	defer joiner.Close(websocket.StatusNormalClosure, "bye")

	peer, err := dial(ctx, *addr)
	if err != nil {
		return err
	}
	defer peer.CloseNow()

	if err := send(ctx, joiner, proto.EventJoin, proto.JoinData{RoomID: *room, Username: *user}); err != nil {
		return err
	}
	if err := send(ctx, peer, proto.EventJoin, proto.JoinData{RoomID: *room, Username: *user + "-peer"}); err != nil {
		return err
	}
	if err := send(ctx, peer, proto.EventCodeChange, proto.CodeChangeData{RoomID: *room, Code: mustJSON(*code)}); err != nil {
		return err
	}

	gotCode := false
	for {
		var f frame
		if err := wsjson.Read(ctx, joiner, &f); err != nil {
			return fmt.Errorf("read: %w", err)
		}

		switch f.Type {
		case proto.EventJoined:
			var evt proto.JoinedData
			if err := json.Unmarshal(f.Data, &evt); err == nil {
				fmt.Printf("Joined: socket=%s user=%s members=%d\n", evt.SocketID, evt.Username, len(evt.Clients))
			}
		case proto.EventCodeChange:
			fmt.Printf("Code: %s\n", string(f.Data))
			gotCode = true
			// dropping the peer should produce a departure notice
			peer.Close(websocket.StatusNormalClosure, "bye")
		case proto.EventDisconnected:
			var evt proto.DisconnectedData
			if err := json.Unmarshal(f.Data, &evt); err == nil {
				fmt.Printf("Disconnected: socket=%s user=%s\n", evt.SocketID, evt.Username)
			}
			if gotCode {
				return nil
			}
		case proto.TypeError:
			if f.Error != nil {
				return fmt.Errorf("server error %s: %s", f.Error.Code, f.Error.Msg)
			}
		}
	}
}

func dial(ctx context.Context, addr string) (*websocket.Conn, error) {
	conn, _, err := websocket.Dial(ctx, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	return conn, nil
}

func send(ctx context.Context, conn *websocket.Conn, typ string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", typ, err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: typ, Data: payload}); err != nil {
		return fmt.Errorf("send %s: %w", typ, err)
	}
	return nil
}

func mustJSON(v string) json.RawMessage {
	raw, _ := json.Marshal(v)
	return raw
}
