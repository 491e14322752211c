package corpus

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

const CurrentTableVersion = 1

var ErrTableVersion = errors.New("corpus: frequency table version mismatch")

type tableFile struct {
	Version int     `json:"version"`
	Entries []Entry `json:"entries"`
}

// Encode serializes the table as JSON with entries in Sorted order.
func Encode(t FrequencyTable) ([]byte, error) {
	return json.MarshalIndent(tableFile{Version: CurrentTableVersion, Entries: t.Sorted()}, "", "  ")
}

// Decode parses a table produced by Encode.
func Decode(data []byte) (FrequencyTable, error) {
	var file tableFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("corpus: decode table: %w", err)
	}
	if file.Version != CurrentTableVersion {
		return nil, fmt.Errorf("%w: got %d", ErrTableVersion, file.Version)
	}
	table := make(FrequencyTable, len(file.Entries))
	for _, e := range file.Entries {
		table[e.Ngram] += e.Freq
	}
	return table, nil
}

// Save writes the table to path.
func Save(path string, t FrequencyTable) error {
	data, err := Encode(t)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("corpus: write %s: %w", path, err)
	}
	return nil
}

// Load reads a table written by Save.
func Load(path string) (FrequencyTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("corpus: read %s: %w", path, err)
	}
	return Decode(data)
}
