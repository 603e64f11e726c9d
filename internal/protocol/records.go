package protocol

import (
	"encoding/json"
	"fmt"
)

// Record is one entry in a run's event stream. The engine assigns
// sequence numbers: RUN_START is seq 0, every later record increments
// by one, and RUN_END is always last. The same records go to the
// JSONL log, the run index, and live observers, so replay can verify
// a run from its log alone.
type Record interface {
	RecordType() string
	RecordSeq() uint64
}

// RUN_START: run identity plus everything needed to re-run it.
type RunStart struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Seq             uint64 `json:"seq"`
	RunID           string `json:"run_id"`
	StartedAt       string `json:"started_at"` // RFC 3339 UTC
	MapName         string `json:"map_name"`
	MapText         string `json:"map_text"`
	Sites           int    `json:"sites"`
	Agents          int    `json:"agents"`
	Seed            uint64 `json:"seed"`
	MaxMoves        int    `json:"max_moves"`
}

func (*RunStart) RecordType() string  { return TypeRunStart }
func (r *RunStart) RecordSeq() uint64 { return r.Seq }

// DESTROYED: one site destruction, in detection order.
type Destroyed struct {
	Type     string `json:"type"`
	Seq      uint64 `json:"seq"`
	Tick     uint64 `json:"tick"`
	Site     uint32 `json:"site"`
	SiteName string `json:"site_name"`
	AntA     uint32 `json:"ant_a"`
	AntB     uint32 `json:"ant_b"`
}

func (*Destroyed) RecordType() string  { return TypeDestroyed }
func (r *Destroyed) RecordSeq() uint64 { return r.Seq }

// TICK: periodic progress marker with a state digest.
type TickMark struct {
	Type       string `json:"type"`
	Seq        uint64 `json:"seq"`
	Tick       uint64 `json:"tick"`
	Active     int    `json:"active"`
	AliveSites int    `json:"alive_sites"`
	Digest     string `json:"digest"`
}

func (*TickMark) RecordType() string  { return TypeTick }
func (r *TickMark) RecordSeq() uint64 { return r.Seq }

// RUN_END: final outcome. Survivors counts alive agents, whether
// still moving at the cap or parked.
type RunEnd struct {
	Type           string  `json:"type"`
	Seq            uint64  `json:"seq"`
	Ticks          uint64  `json:"ticks"`
	Survivors      int     `json:"survivors"`
	Stationary     int     `json:"stationary"`
	DestroyedSites int     `json:"destroyed_sites"`
	AliveSites     int     `json:"alive_sites"`
	Digest         string  `json:"digest"`
	ElapsedMS      float64 `json:"elapsed_ms"`
}

func (*RunEnd) RecordType() string  { return TypeRunEnd }
func (r *RunEnd) RecordSeq() uint64 { return r.Seq }

// DecodeRecord parses one logged record, routing on its type field.
func DecodeRecord(b []byte) (Record, error) {
	base, err := DecodeBase(b)
	if err != nil {
		return nil, err
	}
	var rec Record
	switch base.Type {
	case TypeRunStart:
		rec = &RunStart{}
	case TypeDestroyed:
		rec = &Destroyed{}
	case TypeTick:
		rec = &TickMark{}
	case TypeRunEnd:
		rec = &RunEnd{}
	default:
		return nil, fmt.Errorf("unknown record type %q", base.Type)
	}
	if err := json.Unmarshal(b, rec); err != nil {
		return nil, err
	}
	return rec, nil
}
