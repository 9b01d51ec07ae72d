// Package observer streams simulation snapshots and events to
// websocket subscribers. It is strictly fire-and-forget: a slow or
// dead subscriber drops frames, never the tick.
package observer

import (
	"bytes"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/klauspost/compress/gzip"
	"github.com/sirupsen/logrus"
)

const sendBuffer = 16

// Server fans simulation frames out to websocket subscribers.
type Server struct {
	log      *logrus.Entry
	upgrader websocket.Upgrader

	mu   sync.Mutex
	subs map[*subscriber]struct{}
}

type subscriber struct {
	conn *websocket.Conn
	send chan []byte
}

func NewServer(log *logrus.Logger) *Server {
	return &Server{
		log: log.WithField("component", "observer"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		subs: make(map[*subscriber]struct{}),
	}
}

// ServeHTTP upgrades the connection and registers a subscriber.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	sub := &subscriber{conn: conn, send: make(chan []byte, sendBuffer)}

	s.mu.Lock()
	s.subs[sub] = struct{}{}
	s.mu.Unlock()
	s.log.WithField("remote", conn.RemoteAddr().String()).Info("observer connected")

	go s.writeLoop(sub)
	go s.readLoop(sub)
}

func (s *Server) writeLoop(sub *subscriber) {
	defer s.drop(sub)
	for msg := range sub.send {
		if err := sub.conn.WriteMessage(websocket.BinaryMessage, msg); err != nil {
			return
		}
	}
}

// readLoop discards inbound frames and notices disconnects.
func (s *Server) readLoop(sub *subscriber) {
	defer s.drop(sub)
	for {
		if _, _, err := sub.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) drop(sub *subscriber) {
	s.mu.Lock()
	if _, ok := s.subs[sub]; ok {
		delete(s.subs, sub)
		close(sub.send)
	}
	s.mu.Unlock()
	_ = sub.conn.Close()
}

// SubscriberCount returns the live subscriber count.
func (s *Server) SubscriberCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// Broadcast gzips the JSON encoding of v and queues it to every
// subscriber. Full queues drop the frame; Broadcast never blocks.
func (s *Server) Broadcast(v any) {
	payload, err := encodeFrame(v)
	if err != nil {
		s.log.WithError(err).Warn("encode frame")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for sub := range s.subs {
		select {
		case sub.send <- payload:
		default:
			// Subscriber is behind; skip this frame for it.
		}
	}
}

func encodeFrame(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
