// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package relevance

import (
	"encoding/gob"
	"fmt"
	"os"
)

// Save serializes the fitted model to path as one opaque blob. The
// format is an implementation detail; only round-tripping matters.
func (m *Model) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating sentence model artifact: %w", err)
	}
	defer f.Close()
	if err := gob.NewEncoder(f).Encode(m); err != nil {
		return fmt.Errorf("encoding sentence model: %w", err)
	}
	return nil
}

// Load reads a model previously written by Save.
func Load(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening sentence model artifact: %w", err)
	}
	defer f.Close()
	var m Model
	if err := gob.NewDecoder(f).Decode(&m); err != nil {
		return nil, fmt.Errorf("decoding sentence model: %w", err)
	}
	return &m, nil
}
