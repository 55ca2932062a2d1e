// Package observer serves a read-only, loopback-only stream of chunk
// lifecycle events over websockets, for dashboards and debugging.
package observer

import (
	"encoding/json"
	"log"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"driftworld/internal/observerproto"
	"driftworld/internal/sim/chunk"
	"driftworld/internal/sim/world"
)

// Hub fans world events out to observer connections. It implements
// world.EventLogger, so it sits in the event path like any other sink;
// an optional next sink keeps the JSONL log running underneath.
type Hub struct {
	next world.EventLogger

	mu     sync.Mutex
	nextID uint64
	subs   map[uint64]*subscriber
}

type subscriber struct {
	out    chan []byte
	filter map[string]struct{} // empty means all events
}

func NewHub(next world.EventLogger) *Hub {
	return &Hub{
		next: next,
		subs: make(map[uint64]*subscriber),
	}
}

func (h *Hub) WriteEvent(ev world.Event) error {
	var err error
	if h.next != nil {
		err = h.next.WriteEvent(ev)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.subs) == 0 {
		return err
	}

	b, merr := json.Marshal(observerproto.EventMsg{
		Type:            "EVENT",
		ProtocolVersion: observerproto.Version,
		Tick:            ev.Tick,
		Event:           ev.Event,
		CX:              ev.CX,
		CY:              ev.CY,
		Detail:          ev.Detail,
	})
	if merr != nil {
		return merr
	}

	for _, sub := range h.subs {
		if len(sub.filter) > 0 {
			if _, ok := sub.filter[ev.Event]; !ok {
				continue
			}
		}
		select {
		case sub.out <- b:
		default:
			// Slow observer; it misses events rather than stalling the
			// world loop's event path.
		}
	}
	return err
}

func (h *Hub) subscribe(events []string) (uint64, chan []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	sub := &subscriber{
		out:    make(chan []byte, 1024),
		filter: filterSet(events),
	}
	h.subs[h.nextID] = sub
	return h.nextID, sub.out
}

func (h *Hub) setFilter(id uint64, events []string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if sub, ok := h.subs[id]; ok {
		sub.filter = filterSet(events)
	}
}

func (h *Hub) unsubscribe(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs, id)
}

func filterSet(events []string) map[string]struct{} {
	m := make(map[string]struct{}, len(events))
	for _, e := range events {
		m[e] = struct{}{}
	}
	return m
}

type Server struct {
	world *world.World
	hub   *Hub
	log   *log.Logger

	upgrader websocket.Upgrader
}

func NewServer(w *world.World, hub *Hub, logger *log.Logger) *Server {
	return &Server{
		world: w,
		hub:   hub,
		log:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // loopback only anyway
		},
	}
}

func (s *Server) BootstrapHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}

		cfg := s.world.Params()
		resp := observerproto.BootstrapResponse{
			ProtocolVersion: observerproto.Version,
			Tick:            s.world.CurrentTick(),
			WorldParams: observerproto.WorldParams{
				Seed:         cfg.Seed,
				ChunkSize:    chunk.Size,
				ViewDistance: cfg.ViewDistance,
				MemoryBudget: cfg.MemoryBudget,
				LoadBudget:   cfg.LoadBudget,
				TickRateHz:   cfg.TickRateHz,
			},
		}

		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(resp)
	}
}

func (s *Server) WSHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}

		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		// Handshake: must send SUBSCRIBE first.
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var sub observerproto.SubscribeMsg
		if err := json.Unmarshal(msg, &sub); err != nil ||
			sub.Type != "SUBSCRIBE" || sub.ProtocolVersion != observerproto.Version {
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected SUBSCRIBE"),
				time.Now().Add(time.Second))
			return
		}

		id, out := s.hub.subscribe(sub.Events)
		defer s.hub.unsubscribe(id)

		done := make(chan struct{})
		defer close(done)

		go func() {
			for {
				select {
				case <-done:
					return
				case b := <-out:
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						return
					}
				}
			}
		}()

		// Reader loop: allow SUBSCRIBE updates.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var update observerproto.SubscribeMsg
			if err := json.Unmarshal(msg, &update); err != nil {
				continue
			}
			if update.Type != "SUBSCRIBE" || update.ProtocolVersion != observerproto.Version {
				continue
			}
			s.hub.setFilter(id, update.Events)
		}
	}
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
