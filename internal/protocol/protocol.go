package protocol

import "encoding/json"

const Version = "1.0"

// Message types.
const (
	TypeHello          = "HELLO"
	TypeWelcome        = "WELCOME"
	TypeCatalog        = "CATALOG"
	TypeViewpoint      = "VIEWPOINT"
	TypeSetSeason      = "SET_SEASON"
	TypeQueryEnv       = "QUERY_ENV"
	TypeQueryScene     = "QUERY_SCENE"
	TypeQueryChunk     = "QUERY_CHUNK_STATE"
	TypeQueryChunkData = "QUERY_CHUNK_DATA"
	TypeEnv            = "ENV"
	TypeScene          = "SCENE"
	TypeChunkState     = "CHUNK_STATE"
	TypeChunkData      = "CHUNK_DATA"
	TypeError          = "ERROR"
)

// BaseMessage lets us route unknown JSON messages by type.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}
