package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/ruleflow/internal/ruleflow"
	"github.com/roach88/ruleflow/internal/schema"
)

// Input kinds accepted by validate.
const (
	KindAuto     = "auto"
	KindDocument = "document"
	KindActions  = "actions"
)

// readInput reads a JSON or YAML file and returns it as JSON. YAML is
// recognised by its .yaml or .yml extension.
func readInput(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var v any
		if err := yaml.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("%s: parse YAML: %w", path, err)
		}
		out, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return out, nil
	}
	return data, nil
}

// detectKind guesses whether data holds actions or a document: arrays and
// objects carrying a "type" tag are actions.
func detectKind(data []byte) string {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return KindActions
	}
	var fields map[string]json.RawMessage
	if json.Unmarshal(trimmed, &fields) == nil {
		if _, ok := fields["type"]; ok {
			return KindActions
		}
	}
	return KindDocument
}

// asActionList wraps a single action object into a one-element array.
func asActionList(data []byte) []byte {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		return append(append([]byte{'['}, trimmed...), ']')
	}
	return trimmed
}

// parseDocument checks a document against the schema and the structural
// invariants and decodes it.
func parseDocument(v *schema.Validator, data []byte) (*ruleflow.Configuration, error) {
	if err := v.ValidateDocument(data); err != nil {
		return nil, err
	}
	cfg, err := ruleflow.ParseConfiguration(data)
	if err != nil {
		return nil, err
	}
	if err := ruleflow.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parseActions checks an action file against the schema and decodes it.
func parseActions(v *schema.Validator, data []byte) ([]ruleflow.Action, error) {
	list := asActionList(data)
	if err := v.ValidateActions(list); err != nil {
		return nil, err
	}
	return ruleflow.DecodeActions(list)
}

// errorList flattens joined errors into their messages.
func errorList(err error) []string {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []string
		for _, e := range joined.Unwrap() {
			out = append(out, errorList(e)...)
		}
		return out
	}
	return []string{err.Error()}
}
