package protocol

// SUBSCRIBE (client -> server): must be the first message on an
// observer connection. FromSeq selects where backlog replay starts;
// Follow keeps the connection open for live records afterwards.
type SubscribeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	FromSeq         uint64 `json:"from_seq"`
	Follow          bool   `json:"follow"`
}

// HELLO (server -> client): sent once after a valid SUBSCRIBE,
// before any records.
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	RunID           string `json:"run_id"`
	LastSeq         uint64 `json:"last_seq"`
}

// ERROR (server -> client): sent before closing a misbehaving or
// lagging connection.
type ErrorMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Code            string `json:"code"`
	Message         string `json:"message,omitempty"`
}
