package ruleflow

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ParseConfiguration decodes a persisted document. Unknown fields are
// rejected so that typos do not silently drop data.
func ParseConfiguration(data []byte) (*Configuration, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var c Configuration
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("parse configuration: %w", err)
	}
	if c.Version != FormatVersion {
		return nil, fmt.Errorf("parse configuration: unsupported version %q (want %q)", c.Version, FormatVersion)
	}
	return &c, nil
}

// MarshalConfiguration encodes a document in its persisted, indented form.
func MarshalConfiguration(c *Configuration) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(c); err != nil {
		return nil, fmt.Errorf("marshal configuration: %w", err)
	}
	return buf.Bytes(), nil
}
