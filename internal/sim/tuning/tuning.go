// Package tuning holds the runtime knobs that are data rather than
// code. Every field has a working default; a tuning.yaml overrides
// only the keys it names.
package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	MaxMoves    int `yaml:"max_moves"`
	TickPaceMS  int `yaml:"tick_pace_ms"`
	DigestEvery int `yaml:"digest_every"`

	Observer Observer `yaml:"observer"`
	Index    Index    `yaml:"index"`
}

type Observer struct {
	Backlog    int `yaml:"backlog"`
	MaxClients int `yaml:"max_clients"`
}

type Index struct {
	Queue int `yaml:"queue"`
}

func Defaults() Tuning {
	return Tuning{
		MaxMoves:    10000,
		TickPaceMS:  0,
		DigestEvery: 0,
		Observer: Observer{
			Backlog:    4096,
			MaxClients: 8,
		},
		Index: Index{
			Queue: 65536,
		},
	}
}

// Load reads a tuning file on top of the defaults.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}
