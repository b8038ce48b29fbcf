package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/playperu/dsaquiz/internal/session"
)

// WSCommand is sent by the client: select (with index), submit or reset.
type WSCommand struct {
	Type  string `json:"type"`
	Index *int   `json:"index,omitempty"`
}

// WSMessage is sent by the server. State messages carry every snapshot the
// session publishes; ack messages answer one command.
type WSMessage struct {
	Type    string          `json:"type"`
	Applied *bool           `json:"applied,omitempty"`
	Session json.RawMessage `json:"session,omitempty"`
	Error   string          `json:"error,omitempty"`
}

func handleSessionWS(logger *slog.Logger, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctrl := sessionFrom(r)

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			logger.Error("websocket accept failed", "error", err)
			return
		}
		defer conn.CloseNow()

		ctx, cancel := context.WithTimeout(r.Context(), time.Hour)
		defer cancel()

		ch := broker.Subscribe(ctrl.ID())
		defer broker.Unsubscribe(ctrl.ID(), ch)

		if err := writeState(ctx, conn, ctrl.Snapshot()); err != nil {
			return
		}

		go func() {
			defer cancel()
			for {
				var cmd WSCommand
				if err := wsjson.Read(ctx, conn, &cmd); err != nil {
					logger.Debug("websocket read ended", "error", err)
					return
				}
				if err := wsjson.Write(ctx, conn, applyCommand(ctrl, cmd)); err != nil {
					logger.Debug("websocket write failed", "error", err)
					return
				}
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case data, ok := <-ch:
				if !ok {
					conn.Close(websocket.StatusNormalClosure, "session closed")
					return
				}
				if err := wsjson.Write(ctx, conn, WSMessage{Type: "state", Session: data}); err != nil {
					logger.Debug("websocket write failed", "error", err)
					return
				}
			}
		}
	}
}

func applyCommand(ctrl *session.Controller, cmd WSCommand) WSMessage {
	var applied bool
	switch cmd.Type {
	case "select":
		if cmd.Index == nil {
			return WSMessage{Type: "error", Error: "index is required"}
		}
		_, applied = ctrl.Select(*cmd.Index)
	case "submit":
		_, applied = ctrl.Submit()
	case "reset":
		applied = ctrl.Reset()
	default:
		return WSMessage{Type: "error", Error: "unknown command " + cmd.Type}
	}
	data, _ := json.Marshal(ctrl.Snapshot())
	return WSMessage{Type: "ack", Applied: &applied, Session: data}
}

func writeState(ctx context.Context, conn *websocket.Conn, snap session.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return wsjson.Write(ctx, conn, WSMessage{Type: "state", Session: data})
}
