package ws

import (
	"encoding/json"

	"github.com/vovakirdan/coderelay/internal/core"
	"github.com/vovakirdan/coderelay/internal/proto"
)

func inboundToCommand(connID string, inbound proto.Inbound) (*core.Command, *proto.Error) {
	switch inbound.Type {
	case proto.EventJoin:
		var join proto.JoinData
		if err := json.Unmarshal(inbound.Data, &join); err != nil {
			return nil, badRequest("invalid join payload")
		}
		if join.RoomID == "" {
			return nil, badRequest("roomId is required")
		}
		return &core.Command{
			Kind:     core.CommandJoin,
			ConnID:   connID,
			Room:     join.RoomID,
			Username: join.Username,
		}, nil
	case proto.EventCodeChange:
		var change proto.CodeChangeData
		if err := json.Unmarshal(inbound.Data, &change); err != nil {
			return nil, badRequest("invalid code-change payload")
		}
		if change.RoomID == "" {
			return nil, badRequest("roomId is required")
		}
		return &core.Command{
			Kind:   core.CommandCodeChange,
			ConnID: connID,
			Room:   change.RoomID,
			Code:   change.Code,
		}, nil
	case proto.EventSyncCode:
		var sync proto.SyncCodeData
		if err := json.Unmarshal(inbound.Data, &sync); err != nil {
			return nil, badRequest("invalid sync-code payload")
		}
		return &core.Command{
			Kind:   core.CommandSyncCode,
			ConnID: connID,
			Target: sync.SocketID,
			Code:   sync.Code,
		}, nil
	default:
		return nil, &proto.Error{Code: core.ErrCodeUnknownEvent, Msg: "unknown event type"}
	}
}

func badRequest(msg string) *proto.Error {
	return &proto.Error{Code: core.ErrCodeBadRequest, Msg: msg}
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventJoined:
		clients := make([]proto.Client, 0, len(event.Clients))
		for _, m := range event.Clients {
			clients = append(clients, proto.Client{SocketID: m.ConnID, Username: m.Username})
		}
		return proto.Outbound{
			Type: proto.EventJoined,
			Data: proto.JoinedData{
				Clients:  clients,
				Username: event.Username,
				SocketID: event.ConnID,
			},
		}
	case core.EventCodeChange:
		return proto.Outbound{
			Type: proto.EventCodeChange,
			Data: proto.CodeData{Code: event.Code},
		}
	case core.EventDisconnected:
		return proto.Outbound{
			Type: proto.EventDisconnected,
			Data: proto.DisconnectedData{
				SocketID: event.ConnID,
				Username: event.Username,
			},
		}
	case core.EventError:
		if event.Error == nil {
			return proto.Outbound{Type: proto.TypeError, Error: &proto.Error{Code: "unknown", Msg: "unknown error"}}
		}
		return proto.Outbound{
			Type:  proto.TypeError,
			Error: &proto.Error{Code: event.Error.Code, Msg: event.Error.Message},
		}
	default:
		return proto.Outbound{Type: proto.TypeError, Error: &proto.Error{Code: "unknown", Msg: "unknown event"}}
	}
}
