package world

import "antmania.dev/internal/protocol"

// EventSink receives every record of a run in seq order, on the
// simulation goroutine. Implementations must not block; anything slow
// hands off to its own goroutine.
type EventSink interface {
	Append(rec protocol.Record)
}

// RecordingSink buffers records in memory, for tests and replay
// verification.
type RecordingSink struct {
	Records []protocol.Record
}

func (s *RecordingSink) Append(rec protocol.Record) {
	s.Records = append(s.Records, rec)
}

// Destructions filters the recorded DESTROYED records, in order.
func (s *RecordingSink) Destructions() []*protocol.Destroyed {
	var out []*protocol.Destroyed
	for _, r := range s.Records {
		if d, ok := r.(*protocol.Destroyed); ok {
			out = append(out, d)
		}
	}
	return out
}

func (w *World) emit(rec protocol.Record) {
	for _, s := range w.sinks {
		s.Append(rec)
	}
}

func (w *World) nextSeq() uint64 {
	s := w.seq
	w.seq++
	return s
}
