package protocol

import "driftworld/internal/sim/catalogs"

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ClientName      string `json:"client_name,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	WorldParams     WorldParams `json:"world_params"`
}

type WorldParams struct {
	Seed         int64 `json:"seed"`
	ChunkSize    int   `json:"chunk_size"`
	ViewDistance int   `json:"view_distance"`
	MemoryBudget int   `json:"memory_budget"`
	LoadBudget   int   `json:"load_budget"`
}

// VIEWPOINT (client -> server), world cell coordinates.
type ViewpointMsg struct {
	Type string  `json:"type"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// SET_SEASON (client -> server)
type SetSeasonMsg struct {
	Type   string `json:"type"`
	Season string `json:"season"`
}

// QUERY_ENV (client -> server)
type QueryEnvMsg struct {
	Type string `json:"type"`
	ID   string `json:"id,omitempty"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
}

// ENV (server -> client)
type EnvMsg struct {
	Type        string  `json:"type"`
	ID          string  `json:"id,omitempty"`
	X           int     `json:"x"`
	Y           int     `json:"y"`
	Height      float64 `json:"height"`
	Temperature float64 `json:"temperature"`
	Moisture    float64 `json:"moisture"`
	Zone        string  `json:"zone"`
	Band        string  `json:"band"`
	Tile        string  `json:"tile"`
}

// QUERY_SCENE (client -> server)
type QuerySceneMsg struct {
	Type string `json:"type"`
	ID   string `json:"id,omitempty"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
}

// SCENE (server -> client)
type SceneMsg struct {
	Type    string `json:"type"`
	ID      string `json:"id,omitempty"`
	X       int    `json:"x"`
	Y       int    `json:"y"`
	Present bool   `json:"present"`
	Scene   string `json:"scene,omitempty"`
}

// QUERY_CHUNK_STATE (client -> server), chunk coordinates.
type QueryChunkStateMsg struct {
	Type string `json:"type"`
	ID   string `json:"id,omitempty"`
	CX   int    `json:"cx"`
	CY   int    `json:"cy"`
}

// CHUNK_STATE (server -> client)
type ChunkStateMsg struct {
	Type  string `json:"type"`
	ID    string `json:"id,omitempty"`
	CX    int    `json:"cx"`
	CY    int    `json:"cy"`
	State string `json:"state"`
}

// CATALOG (server -> client), sent once after WELCOME.
type CatalogMsg struct {
	Type    string           `json:"type"`
	Catalog catalogs.Catalog `json:"catalog"`
}

// QUERY_CHUNK_DATA (client -> server), chunk coordinates. Only resident
// Loaded chunks can be fetched; anything else answers E_CHUNK_NOT_LOADED.
type QueryChunkDataMsg struct {
	Type string `json:"type"`
	ID   string `json:"id,omitempty"`
	CX   int    `json:"cx"`
	CY   int    `json:"cy"`
}

// CHUNK_DATA (server -> client). Tiles and Decorations are row-major
// RLE runs in base64(varint pairs); Heights are row-major raw values.
type ChunkDataMsg struct {
	Type        string    `json:"type"`
	ID          string    `json:"id,omitempty"`
	CX          int       `json:"cx"`
	CY          int       `json:"cy"`
	Tiles       string    `json:"tiles"`
	Decorations string    `json:"decorations"`
	Heights     []float32 `json:"heights"`
}

// ERROR (server -> client)
type ErrorMsg struct {
	Type    string `json:"type"`
	ID      string `json:"id,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}
