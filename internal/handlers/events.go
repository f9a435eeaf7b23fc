package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/Carmen-Shannon/oxy-shot/internal/pipeline"
	"github.com/gorilla/websocket"
)

const writeTimeout = 5 * time.Second

// inputMessage is a camera interaction sent by the page over the websocket.
type inputMessage struct {
	Type  string  `json:"type"`
	DX    float32 `json:"dx"`
	DY    float32 `json:"dy"`
	Delta float32 `json:"delta"`
	Key   uint32  `json:"key"`
}

// HandleEvents upgrades to a websocket that streams pipeline events as JSON and applies
// camera input messages to the active session.
func (h *Handler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade error", "err", err)
		return
	}
	events, unsubscribe := h.controller.Subscribe()
	h.logger.Debug("WebSocket client connected", "remote", r.RemoteAddr)

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.writeEvents(conn, events)
	}()

	for {
		var msg inputMessage
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		if err := applyInput(h.controller.ActiveSession(), msg); err != nil {
			h.logger.Debug("Ignoring websocket message", "err", err)
		}
	}

	unsubscribe()
	<-done
	conn.Close()
	h.logger.Debug("WebSocket client disconnected", "remote", r.RemoteAddr)
}

// writeEvents forwards events until the stream ends or the client goes away.
func (h *Handler) writeEvents(conn *websocket.Conn, events <-chan pipeline.Event) {
	for ev := range events {
		if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
			return
		}
		if err := conn.WriteJSON(ev); err != nil {
			h.logger.Debug("WebSocket write error", "err", err)
			conn.Close()
			for range events {
			}
			return
		}
	}
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeTimeout))
	// unblock the reader if the client never answers the close frame
	_ = conn.SetReadDeadline(time.Now().Add(writeTimeout))
}

// applyInput drives the arc-rotate controller of the active session.
func applyInput(s *pipeline.RenderSession, msg inputMessage) error {
	if s == nil || s.Disposed() {
		return fmt.Errorf("no active session for %q input", msg.Type)
	}
	ctrl := s.Controller()
	if ctrl == nil {
		return fmt.Errorf("session %s has no camera controller", s.ModelID())
	}
	switch msg.Type {
	case "orbit":
		ctrl.Orbit(msg.DX, msg.DY)
	case "wheel":
		ctrl.Wheel(msg.Delta)
	case "pan":
		ctrl.Pan(msg.DX, msg.DY)
	case "key":
		ctrl.KeyDown(msg.Key)
	default:
		return fmt.Errorf("unknown input type %q", msg.Type)
	}
	return nil
}
