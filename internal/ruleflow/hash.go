package ruleflow

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Domain prefixes for content hashes. The version suffix allows algorithm migration.
const (
	DomainConfiguration = "ruleflow/configuration/v1"
	DomainAction        = "ruleflow/action/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Hash returns the content hash of a configuration. Two snapshots hash equal
// exactly when their canonical JSON is identical apart from
// metadata.modified_at, which saving stamps without changing content.
func Hash(c *Configuration) (string, error) {
	if c != nil {
		stripped := *c
		stripped.Metadata.ModifiedAt = ""
		c = &stripped
	}
	canonical, err := MarshalCanonical(c)
	if err != nil {
		return "", fmt.Errorf("hash configuration: %w", err)
	}
	return hashWithDomain(DomainConfiguration, canonical), nil
}

// MustHash is like Hash but panics on error.
// Configurations only contain strings, integers and booleans, so Hash cannot
// fail for a well-typed document.
func MustHash(c *Configuration) string {
	h, err := Hash(c)
	if err != nil {
		panic(err)
	}
	return h
}

// ActionHash returns the content hash of an action's wire form.
func ActionHash(a Action) (string, error) {
	data, err := MarshalAction(a)
	if err != nil {
		return "", fmt.Errorf("hash action: %w", err)
	}
	canonical, err := MarshalCanonical(json.RawMessage(data))
	if err != nil {
		return "", fmt.Errorf("hash action: %w", err)
	}
	return hashWithDomain(DomainAction, canonical), nil
}
