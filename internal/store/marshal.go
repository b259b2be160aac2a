package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/roach88/tracematrix/internal/matrix"
)

// AxisValue is one selected axis value of a stored configuration.
type AxisValue struct {
	Axis  string `json:"axis"`
	Value string `json:"value"`
}

// marshalConfig converts a configuration to JSON TEXT, preserving axis order.
func marshalConfig(cfg matrix.Configuration) (string, error) {
	names := cfg.Matrix().AxisNames()
	literals := cfg.Literals()
	pairs := make([]AxisValue, len(names))
	for i, name := range names {
		pairs[i] = AxisValue{Axis: name, Value: literals[i]}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false) // compiler names contain '+'
	if err := enc.Encode(pairs); err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}
	// Encoder adds a trailing newline, remove it
	return strings.TrimSpace(buf.String()), nil
}

// unmarshalConfig parses JSON TEXT back to ordered axis values.
func unmarshalConfig(data string) ([]AxisValue, error) {
	if data == "" || data == "[]" {
		return []AxisValue{}, nil
	}
	var pairs []AxisValue
	if err := json.Unmarshal([]byte(data), &pairs); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return pairs, nil
}
