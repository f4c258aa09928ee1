package transport

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	app_service "crypto-bubble-map-explorer/internal/application/service"
	"crypto-bubble-map-explorer/internal/domain/entity"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Message types on the stream
const (
	MessageFrame   = "frame"
	MessageEvent   = "event"
	MessagePointer = "pointer"
	MessageCamera  = "camera"
	MessageHover   = "hover"
	MessageError   = "error"
)

type outboundMessage struct {
	Type  string            `json:"type"`
	Frame *entity.Frame     `json:"frame,omitempty"`
	Event *entity.NodeEvent `json:"event,omitempty"`
	Error string            `json:"error,omitempty"`
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// handleStream pushes every rendered frame and node event of a view to a
// websocket client and accepts pointer, camera and hover input from it.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	view, err := s.views.Get(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("Websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	log := s.logger.WithView(view.ID())
	log.Debug("Stream opened", zap.String("remote", r.RemoteAddr))

	frames, unsubscribe := view.Subscribe(0)
	defer unsubscribe()

	events := make(chan entity.NodeEvent, 16)
	stopEvents := view.OnNodeEvent(func(ev entity.NodeEvent) {
		select {
		case events <- ev:
		default:
		}
	})
	defer stopEvents()

	replies := make(chan outboundMessage, 4)
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			var msg inboundMessage
			if err := conn.ReadJSON(&msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Debug("Stream read failed", zap.Error(err))
				}
				return
			}
			if err := s.applyInbound(view, msg); err != nil {
				select {
				case replies <- outboundMessage{Type: MessageError, Error: err.Error()}:
				default:
				}
			}
		}
	}()

	ping := time.NewTicker(s.cfg.PingInterval)
	defer ping.Stop()

	for {
		var out outboundMessage
		select {
		case <-readerDone:
			return
		case <-r.Context().Done():
			return
		case frame, ok := <-frames:
			if !ok {
				s.closeStream(conn)
				return
			}
			out = outboundMessage{Type: MessageFrame, Frame: frame}
		case ev := <-events:
			out = outboundMessage{Type: MessageEvent, Event: &ev}
		case out = <-replies:
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(s.cfg.WriteTimeout)); err != nil {
				return
			}
			continue
		}

		_ = conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
		if err := conn.WriteJSON(out); err != nil {
			log.Debug("Stream write failed", zap.Error(err))
			return
		}
	}
}

func (s *Server) applyInbound(view *app_service.GraphView, msg inboundMessage) error {
	switch msg.Type {
	case MessagePointer:
		var req pointerRequest
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			return badRequest(err)
		}
		ev, err := req.event()
		if err != nil {
			return err
		}
		view.HandlePointer(ev)
	case MessageCamera:
		var req cameraRequest
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			return badRequest(err)
		}
		req.apply(view)
	case MessageHover:
		var req selectRequest
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			return badRequest(err)
		}
		nodeID := ""
		if req.NodeID != nil {
			nodeID = *req.NodeID
		}
		return view.Hover(nodeID)
	default:
		return badRequest(fmt.Errorf("unknown message type %q", msg.Type))
	}
	return nil
}

func (s *Server) closeStream(conn *websocket.Conn) {
	_ = conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "view closed"),
		time.Now().Add(s.cfg.WriteTimeout),
	)
}
