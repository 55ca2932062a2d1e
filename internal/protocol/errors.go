package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// Persistence.
	ErrSerialization = "E_SERIALIZATION"
	ErrIO            = "E_IO"

	// World queries.
	ErrInvalidCoord   = "E_INVALID_COORD"
	ErrChunkNotLoaded = "E_CHUNK_NOT_LOADED"

	// Configuration, surfaced synchronously at load time.
	ErrConfig = "E_CONFIG"

	ErrInternal = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrSerialization:   {},
	ErrIO:              {},
	ErrInvalidCoord:    {},
	ErrChunkNotLoaded:  {},
	ErrConfig:          {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
