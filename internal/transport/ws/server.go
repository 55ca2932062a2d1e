// Package ws serves the query protocol over websockets. Each connection
// performs a HELLO/WELCOME handshake, then sends viewpoint updates and
// queries; replies come back on a per-connection outbound queue.
package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"driftworld/internal/protocol"
	"driftworld/internal/sim/catalogs"
	"driftworld/internal/sim/chunk"
	"driftworld/internal/sim/encoding"
	"driftworld/internal/sim/world"
)

const (
	handshakeTimeout = 5 * time.Second
	readTimeout      = 60 * time.Second
	writeTimeout     = 5 * time.Second
	outQueueSize     = 64
)

type Server struct {
	world *world.World
	log   *log.Logger

	catalog  catalogs.Catalog
	upgrader websocket.Upgrader
}

func NewServer(w *world.World, logger *log.Logger) *Server {
	return &Server{
		world:   w,
		log:     logger,
		catalog: catalogs.Build(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		if !s.handshake(conn) {
			return
		}

		out := make(chan []byte, outQueueSize)
		done := make(chan struct{})
		defer close(done)

		// Writer goroutine. Replies are marshalled on the world loop and
		// queued here; a stalled client only loses its own replies.
		go func() {
			for {
				select {
				case <-done:
					return
				case b := <-out:
					_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						return
					}
				}
			}
		}()

		for {
			_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			s.dispatch(msg, out)
		}
	}
}

func (s *Server) handshake(conn *websocket.Conn) bool {
	_ = conn.SetReadDeadline(time.Now().Add(handshakeTimeout))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return false
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		closePolicy(conn, "expected HELLO")
		return false
	}
	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return false
	}
	if hello.ProtocolVersion != protocol.Version {
		closePolicy(conn, "bad protocol_version")
		return false
	}

	cfg := s.world.Params()
	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		WorldParams: protocol.WorldParams{
			Seed:         cfg.Seed,
			ChunkSize:    chunk.Size,
			ViewDistance: cfg.ViewDistance,
			MemoryBudget: cfg.MemoryBudget,
			LoadBudget:   cfg.LoadBudget,
		},
	}
	if err := writeJSON(conn, welcome); err != nil {
		return false
	}
	return writeJSON(conn, protocol.CatalogMsg{
		Type:    protocol.TypeCatalog,
		Catalog: s.catalog,
	}) == nil
}

// dispatch routes one inbound message. World state is only touched inside
// Do closures, which run on the world loop.
func (s *Server) dispatch(msg []byte, out chan<- []byte) {
	base, err := protocol.DecodeBase(msg)
	if err != nil {
		s.reply(out, protocol.ErrorMsg{
			Type: protocol.TypeError, Code: protocol.ErrProtoBadRequest, Message: "malformed json",
		})
		return
	}

	switch base.Type {
	case protocol.TypeViewpoint:
		var m protocol.ViewpointMsg
		if err := json.Unmarshal(msg, &m); err != nil {
			s.replyBadRequest(out, "")
			return
		}
		s.world.Do(func(w *world.World) { w.UpdateViewpoint(m.X, m.Y) })

	case protocol.TypeSetSeason:
		var m protocol.SetSeasonMsg
		if err := json.Unmarshal(msg, &m); err != nil {
			s.replyBadRequest(out, "")
			return
		}
		season, ok := catalogs.ParseSeason(m.Season)
		if !ok {
			s.reply(out, protocol.ErrorMsg{
				Type: protocol.TypeError, Code: protocol.ErrProtoBadRequest, Message: "unknown season",
			})
			return
		}
		s.world.Do(func(w *world.World) { w.SetSeason(season) })

	case protocol.TypeQueryEnv:
		var m protocol.QueryEnvMsg
		if err := json.Unmarshal(msg, &m); err != nil {
			s.replyBadRequest(out, "")
			return
		}
		s.world.Do(func(w *world.World) {
			env := w.Environment(m.X, m.Y)
			s.reply(out, protocol.EnvMsg{
				Type:        protocol.TypeEnv,
				ID:          m.ID,
				X:           m.X,
				Y:           m.Y,
				Height:      env.Height,
				Temperature: env.Temperature,
				Moisture:    env.Moisture,
				Zone:        env.Zone.String(),
				Band:        env.Band.String(),
				Tile:        env.Tile.String(),
			})
		})

	case protocol.TypeQueryScene:
		var m protocol.QuerySceneMsg
		if err := json.Unmarshal(msg, &m); err != nil {
			s.replyBadRequest(out, "")
			return
		}
		s.world.Do(func(w *world.World) {
			resp := protocol.SceneMsg{Type: protocol.TypeScene, ID: m.ID, X: m.X, Y: m.Y}
			if t, ok := w.SceneAt(m.X, m.Y); ok {
				resp.Present = true
				resp.Scene = t.String()
			}
			s.reply(out, resp)
		})

	case protocol.TypeQueryChunk:
		var m protocol.QueryChunkStateMsg
		if err := json.Unmarshal(msg, &m); err != nil {
			s.replyBadRequest(out, "")
			return
		}
		s.world.Do(func(w *world.World) {
			st := w.ChunkState(chunk.Coord{X: m.CX, Y: m.CY})
			s.reply(out, protocol.ChunkStateMsg{
				Type: protocol.TypeChunkState, ID: m.ID, CX: m.CX, CY: m.CY, State: st.String(),
			})
		})

	case protocol.TypeQueryChunkData:
		var m protocol.QueryChunkDataMsg
		if err := json.Unmarshal(msg, &m); err != nil {
			s.replyBadRequest(out, "")
			return
		}
		s.world.Do(func(w *world.World) {
			d := w.ChunkData(chunk.Coord{X: m.CX, Y: m.CY})
			if d == nil {
				s.reply(out, protocol.ErrorMsg{
					Type: protocol.TypeError, ID: m.ID,
					Code: protocol.ErrChunkNotLoaded, Message: "chunk is not resident",
				})
				return
			}
			s.reply(out, encodeChunkData(m, d))
		})

	default:
		s.replyBadRequest(out, "unknown type "+base.Type)
	}
}

func encodeChunkData(m protocol.QueryChunkDataMsg, d *chunk.Data) protocol.ChunkDataMsg {
	heights := make([]float32, len(d.Heights))
	copy(heights, d.Heights)

	return protocol.ChunkDataMsg{
		Type:        protocol.TypeChunkData,
		ID:          m.ID,
		CX:          m.CX,
		CY:          m.CY,
		Tiles:       encoding.EncodeLayer(d.Tiles),
		Decorations: encoding.EncodeLayer(d.Decorations),
		Heights:     heights,
	}
}

// reply marshals and queues a message, dropping it if the connection's
// queue is full.
func (s *Server) reply(out chan<- []byte, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		s.log.Printf("ws: marshal reply: %v", err)
		return
	}
	select {
	case out <- b:
	default:
		s.log.Printf("ws: slow client, reply dropped")
	}
}

func (s *Server) replyBadRequest(out chan<- []byte, detail string) {
	s.reply(out, protocol.ErrorMsg{
		Type: protocol.TypeError, Code: protocol.ErrProtoBadRequest, Message: detail,
	})
}

func closePolicy(conn *websocket.Conn, reason string) {
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason),
		time.Now().Add(time.Second))
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteMessage(websocket.TextMessage, b)
}
