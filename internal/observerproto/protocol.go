// Package observerproto defines the loopback observer protocol: a
// read-only stream of chunk lifecycle events for dashboards and debug
// tooling, separate from the client query protocol.
package observerproto

// Version is the observer protocol version (separate from the query WS protocol).
const Version = "0.1"

// Client -> Server. First message on the observer WS connection, and can
// be re-sent to update the filter.
type SubscribeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`

	// Events limits the stream to the named event kinds. Empty means all.
	Events []string `json:"events,omitempty"`
}

// HTTP response for GET /observer/v1/bootstrap.
type BootstrapResponse struct {
	ProtocolVersion string      `json:"protocol_version"`
	Tick            uint64      `json:"tick"`
	WorldParams     WorldParams `json:"world_params"`
}

type WorldParams struct {
	Seed         int64 `json:"seed"`
	ChunkSize    int   `json:"chunk_size"`
	ViewDistance int   `json:"view_distance"`
	MemoryBudget int   `json:"memory_budget"`
	LoadBudget   int   `json:"load_budget"`
	TickRateHz   int   `json:"tick_rate_hz"`
}

// Server -> Client. One chunk lifecycle event.
type EventMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`

	Tick   uint64 `json:"tick"`
	Event  string `json:"event"`
	CX     int    `json:"cx"`
	CY     int    `json:"cy"`
	Detail string `json:"detail,omitempty"`
}
