// Package ws carries the quiz line protocol over WebSocket text messages:
// one command or push message per frame, identical wire format to the TCP
// listener.
package ws

import (
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Michaszek224/sk2kahoot/internal/app"
	"github.com/Michaszek224/sk2kahoot/internal/transport"
)

const sendBuffer = 64

type Handler struct {
	svc      *app.Service
	bc       *app.Broadcaster
	log      *zap.Logger
	upgrader websocket.Upgrader
}

func NewHandler(svc *app.Service, bc *app.Broadcaster, log *zap.Logger) *Handler {
	return &Handler{
		svc: svc,
		bc:  bc,
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// ServeWS upgrades the request and runs the read loop until the client goes
// away. Each inbound text frame is one protocol line.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}

	connID := uuid.NewString()
	sender := newWSSender(conn, h.log.With(zap.String("conn_id", connID)))
	h.bc.Register(connID, sender)
	h.log.Info("ws client connected", zap.String("conn_id", connID))

	defer func() {
		h.svc.Disconnect(connID)
		h.bc.Unregister(connID)
		sender.close()
		_ = conn.Close()
		h.log.Info("ws client disconnected", zap.String("conn_id", connID))
	}()

	for {
		msgType, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if msgType != websocket.TextMessage || len(payload) == 0 {
			continue
		}
		if reply := transport.HandleLine(h.svc, connID, string(payload)); reply != "" {
			sender.Send(reply)
		}
	}
}

// wsSender mirrors the TCP connection sender: one writer goroutine per
// socket, non-blocking enqueue, safe to call after unregistration.
type wsSender struct {
	log  *zap.Logger
	ch   chan string
	done chan struct{}
	once sync.Once
}

func newWSSender(conn *websocket.Conn, log *zap.Logger) *wsSender {
	s := &wsSender{
		log:  log,
		ch:   make(chan string, sendBuffer),
		done: make(chan struct{}),
	}
	go func() {
		for {
			select {
			case line := <-s.ch:
				if err := conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
					s.log.Debug("ws write failed", zap.Error(err))
					return
				}
			case <-s.done:
				return
			}
		}
	}()
	return s
}

func (s *wsSender) Send(line string) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.ch <- line:
		return true
	default:
		return false
	}
}

func (s *wsSender) close() {
	s.once.Do(func() { close(s.done) })
}
