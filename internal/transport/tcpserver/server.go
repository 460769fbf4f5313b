// Package tcpserver carries the quiz line protocol over raw TCP: one
// newline-terminated command or push message per line.
package tcpserver

import (
	"bufio"
	"context"
	"errors"
	"net"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Michaszek224/sk2kahoot/internal/app"
	"github.com/Michaszek224/sk2kahoot/internal/transport"
)

// sendBuffer bounds per-connection outbound queueing; pushes beyond it drop.
const sendBuffer = 64

type Server struct {
	svc *app.Service
	bc  *app.Broadcaster
	log *zap.Logger
}

func New(svc *app.Service, bc *app.Broadcaster, log *zap.Logger) *Server {
	return &Server{svc: svc, bc: bc, log: log}
}

// Serve accepts connections until the listener closes. The caller closes the
// listener to stop; in-flight connections drain through their own handlers.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				return nil
			}
			return err
		}
		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	connID := uuid.NewString()
	sender := newConnSender(conn, s.log.With(zap.String("conn_id", connID)))
	s.bc.Register(connID, sender)
	s.log.Info("client connected",
		zap.String("conn_id", connID),
		zap.String("remote", conn.RemoteAddr().String()))

	defer func() {
		s.svc.Disconnect(connID)
		s.bc.Unregister(connID)
		sender.close()
		_ = conn.Close()
		s.log.Info("client disconnected", zap.String("conn_id", connID))
	}()

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		if reply := transport.HandleLine(s.svc, connID, line); reply != "" {
			sender.Send(reply)
		}
	}
}

// connSender serializes all writes to one connection through a single
// goroutine; direct replies and broadcasts share the same queue, so each
// client observes them in the order the session produced them. The queue
// channel is never closed: a broadcast may hold a reference to the sender
// past unregistration, and its Send must stay a safe no-op.
type connSender struct {
	log  *zap.Logger
	ch   chan string
	done chan struct{}
	once sync.Once
}

func newConnSender(conn net.Conn, log *zap.Logger) *connSender {
	s := &connSender{
		log:  log,
		ch:   make(chan string, sendBuffer),
		done: make(chan struct{}),
	}
	go func() {
		w := bufio.NewWriter(conn)
		for {
			select {
			case line := <-s.ch:
				if _, err := w.WriteString(line + "\n"); err != nil {
					s.log.Debug("write failed", zap.Error(err))
					return
				}
				if err := w.Flush(); err != nil {
					s.log.Debug("flush failed", zap.Error(err))
					return
				}
			case <-s.done:
				return
			}
		}
	}()
	return s
}

// Send enqueues one line without blocking. A full queue means the client
// stopped reading; the line is dropped and delivery stays best effort.
func (s *connSender) Send(line string) bool {
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

func (s *connSender) close() {
	s.once.Do(func() { close(s.done) })
}
