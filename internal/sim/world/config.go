package world

import (
	"fmt"
	"time"
)

// Config parameterizes one run. Zero values mean: no run id (one is
// derived from the seed), no sinks, no pacing, no TICK records.
type Config struct {
	Agents   int
	Seed     uint64
	MaxMoves int // move cap per agent; 0 keeps every agent frozen at spawn

	RunID   string
	MapName string
	MapText string

	// Sinks receive every record on the simulation goroutine, in seq
	// order. They must not block.
	Sinks []EventSink

	// Pace sleeps between ticks so observers can follow along.
	Pace time.Duration

	// DigestEvery emits a TICK record every N ticks. 0 disables.
	DigestEvery int
}

func (c *Config) validate(aliveSites int) error {
	if c.Agents <= 0 {
		return fmt.Errorf("world: agents must be positive (got %d)", c.Agents)
	}
	if c.MaxMoves < 0 {
		return fmt.Errorf("world: max moves must not be negative (got %d)", c.MaxMoves)
	}
	if c.DigestEvery < 0 {
		return fmt.Errorf("world: digest cadence must not be negative (got %d)", c.DigestEvery)
	}
	if aliveSites == 0 {
		return fmt.Errorf("world: map has no alive sites to spawn on")
	}
	return nil
}
