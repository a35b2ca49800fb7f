package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/roach88/ruleflow/internal/ruleflow"
)

// timeLayout stores timestamps with nanoseconds so they round-trip exactly.
const timeLayout = time.RFC3339Nano

// marshalDocument converts a configuration to canonical JSON TEXT for storage.
func marshalDocument(cfg *ruleflow.Configuration) (string, error) {
	data, err := ruleflow.MarshalCanonical(cfg)
	if err != nil {
		return "", fmt.Errorf("marshal document: %w", err)
	}
	return string(data), nil
}

// unmarshalDocument parses a stored document, rejecting unknown fields.
func unmarshalDocument(data string) (*ruleflow.Configuration, error) {
	cfg, err := ruleflow.ParseConfiguration([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("unmarshal document: %w", err)
	}
	return cfg, nil
}

// marshalAction converts an action to its canonical wire form.
func marshalAction(a ruleflow.Action) (string, error) {
	wire, err := ruleflow.MarshalAction(a)
	if err != nil {
		return "", err
	}
	data, err := ruleflow.MarshalCanonical(json.RawMessage(wire))
	if err != nil {
		return "", fmt.Errorf("marshal action: %w", err)
	}
	return string(data), nil
}

func unmarshalAction(data string) (ruleflow.Action, error) {
	a, err := ruleflow.DecodeAction([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("unmarshal action: %w", err)
	}
	return a, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}
