package indexdb

import "antmania.dev/internal/protocol"

// Sink adapts a SQLiteIndex to the engine's event sink interface. It
// learns the run id from RUN_START; TICK records are not indexed.
type Sink struct {
	idx   *SQLiteIndex
	runID string
}

func (s *SQLiteIndex) Sink() *Sink { return &Sink{idx: s} }

func (s *Sink) Append(rec protocol.Record) {
	switch r := rec.(type) {
	case *protocol.RunStart:
		s.runID = r.RunID
		s.idx.BeginRun(*r)
	case *protocol.Destroyed:
		s.idx.RecordDestruction(s.runID, *r)
	case *protocol.RunEnd:
		s.idx.FinishRun(s.runID, *r)
	}
}
