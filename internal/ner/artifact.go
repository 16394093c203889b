// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ner

import (
	"encoding/gob"
	"fmt"
	"os"
)

// Save serializes the recognizer (trained or not) to path as one opaque
// blob.
func (r *Recognizer) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating recognizer artifact: %w", err)
	}
	defer f.Close()
	if err := gob.NewEncoder(f).Encode(r); err != nil {
		return fmt.Errorf("encoding recognizer: %w", err)
	}
	return nil
}

// Load reads a recognizer previously written by Save.
func Load(path string) (*Recognizer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening recognizer artifact: %w", err)
	}
	defer f.Close()
	var r Recognizer
	if err := gob.NewDecoder(f).Decode(&r); err != nil {
		return nil, fmt.Errorf("decoding recognizer: %w", err)
	}
	return &r, nil
}
