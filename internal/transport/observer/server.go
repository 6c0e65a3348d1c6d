// Package observer serves the read-only observer protocol over HTTP
// and websocket. The engine itself is single-threaded; the tick loop
// publishes snapshots here and the server fans them out to clients
// under its own lock, so observers never touch live world state.
package observer

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"voxelforge.dev/internal/observerproto"
)

type Server struct {
	logger   *log.Logger
	upgrader websocket.Upgrader

	mu        sync.Mutex
	bootstrap observerproto.BootstrapResponse
	lastStats []byte
	clients   map[string]chan []byte
}

func NewServer(boot observerproto.BootstrapResponse, logger *log.Logger) *Server {
	return &Server{
		logger:    logger,
		bootstrap: boot,
		clients:   make(map[string]chan []byte),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

// Publish stores the latest snapshot and fans it out. Slow clients
// drop messages rather than stalling the tick thread.
func (s *Server) Publish(msg observerproto.ChunkStatsMsg) {
	b, err := json.Marshal(msg)
	if err != nil {
		s.logger.Printf("observer: marshal stats: %v", err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastStats = b
	s.bootstrap.Tick = msg.Tick
	for id, ch := range s.clients {
		select {
		case ch <- b:
		default:
			s.logger.Printf("observer %s: slow consumer, dropping tick %d", id, msg.Tick)
		}
	}
}

func (s *Server) BootstrapHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		s.mu.Lock()
		boot := s.bootstrap
		s.mu.Unlock()
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(boot)
	}
}

func (s *Server) StreamHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			s.logger.Printf("observer: upgrade: %v", err)
			return
		}
		id := uuid.NewString()
		ch := make(chan []byte, 16)

		s.mu.Lock()
		if last := s.lastStats; last != nil {
			ch <- last
		}
		s.clients[id] = ch
		s.mu.Unlock()
		s.logger.Printf("observer %s: connected from %s", id, r.RemoteAddr)

		done := make(chan struct{})
		go func() {
			// Drain control frames; any read error means the peer is
			// gone.
			defer close(done)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case <-done:
				s.drop(id)
				_ = conn.Close()
				return
			case b := <-ch:
				if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
					s.drop(id)
					_ = conn.Close()
					return
				}
			}
		}
	}
}

func (s *Server) drop(id string) {
	s.mu.Lock()
	delete(s.clients, id)
	s.mu.Unlock()
	s.logger.Printf("observer %s: disconnected", id)
}
