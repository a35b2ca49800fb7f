package ruleflow

import "time"

// ActionRecord is one entry of a document's action log.
type ActionRecord struct {
	Seq         int64     // logical clock, strictly increasing per document
	Action      Action    // as applied, with any fresh ids stamped
	Description string    // history description
	ResultHash  string    // Hash of the document after the action
	RecordedAt  time.Time // informational only; ordering uses Seq
}

// Artifact is source code compiled from a configuration.
type Artifact struct {
	Filename   string `json:"filename"`
	Language   string `json:"language"`
	Source     string `json:"source"`
	ConfigHash string `json:"config_hash"`
}
