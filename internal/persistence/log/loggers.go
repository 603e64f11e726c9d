// Package log persists run event streams as zstd-compressed JSONL,
// one file per run, one record per line. The log is the durable form
// of a run: replay rebuilds and verifies a simulation from it alone.
package log

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"

	"antmania.dev/internal/protocol"
)

type JSONLZstdWriter struct {
	mu  sync.Mutex
	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer
}

func NewJSONLZstdWriter(path string) (*JSONLZstdWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &JSONLZstdWriter{
		f:   f,
		enc: enc,
		w:   bufio.NewWriterSize(enc, 128*1024),
	}, nil
}

func (w *JSONLZstdWriter) Write(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	return w.w.Flush()
}

func (w *JSONLZstdWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var err1 error
	if w.w != nil {
		_ = w.w.Flush()
	}
	if w.enc != nil {
		err1 = w.enc.Close()
		w.enc = nil
	}
	if w.f != nil {
		_ = w.f.Close()
		w.f = nil
	}
	w.w = nil
	return err1
}

// EventFile is the log path for a run id under a base directory.
func EventFile(dir, runID string) string {
	return filepath.Join(dir, "events-"+runID+".jsonl.zst")
}

// EventLog adapts the writer to the engine's sink interface. Records
// arrive on the simulation goroutine; the first write error is kept
// and surfaced at Close so the tick loop never has to care.
type EventLog struct {
	w *JSONLZstdWriter

	mu  sync.Mutex
	err error
}

func NewEventLog(dir, runID string) (*EventLog, error) {
	w, err := NewJSONLZstdWriter(EventFile(dir, runID))
	if err != nil {
		return nil, err
	}
	return &EventLog{w: w}, nil
}

func (l *EventLog) Append(rec protocol.Record) {
	if err := l.w.Write(rec); err != nil {
		l.mu.Lock()
		if l.err == nil {
			l.err = err
		}
		l.mu.Unlock()
	}
}

func (l *EventLog) Close() error {
	cerr := l.w.Close()
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return l.err
	}
	return cerr
}
