package protocol

import "encoding/json"

const Version = "1.0"

// Message and record types.
const (
	// Observer wire messages.
	TypeHello     = "HELLO"
	TypeSubscribe = "SUBSCRIBE"
	TypeError     = "ERROR"

	// Run event records (logged and streamed).
	TypeRunStart  = "RUN_START"
	TypeDestroyed = "DESTROYED"
	TypeTick      = "TICK"
	TypeRunEnd    = "RUN_END"
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
