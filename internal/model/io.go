package model

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Load decodes and validates a forest.
func Load(r io.Reader) (*Forest, error) {
	var forest Forest
	if err := json.NewDecoder(r).Decode(&forest); err != nil {
		return nil, fmt.Errorf("failed to decode model: %w", err)
	}
	if err := forest.Validate(); err != nil {
		return nil, fmt.Errorf("invalid model: %w", err)
	}
	return &forest, nil
}

// LoadFile loads a forest from disk and checks it is of the expected kind.
func LoadFile(path string, kind Kind) (*Forest, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open model file: %w", err)
	}
	defer file.Close()

	forest, err := Load(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if forest.Kind != kind {
		return nil, fmt.Errorf("%s: expected %s model, found %s", path, kind, forest.Kind)
	}
	return forest, nil
}
