// Package core holds small shared types used across the engine.
package core

import (
	"fmt"

	"github.com/segmentio/ksuid"
)

// NodeID uniquely identifies a node within a workflow tree. It is stable
// across builder mutations and is what parent-to-child links reference.
type NodeID string

// String returns the string representation of the id.
func (id NodeID) String() string {
	return string(id)
}

// IsZero reports whether id is the zero value ("").
func (id NodeID) IsZero() bool {
	return id == ""
}

// NewNodeID generates a fresh, sortable, universally-unique node id.
func NewNodeID() (NodeID, error) {
	id, err := ksuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate new node id: %w", err)
	}
	return NodeID(id.String()), nil
}

// MustNewNodeID generates a node id and panics on failure. Intended for
// construction paths that cannot meaningfully recover from an entropy
// source failure (e.g. literal node construction in tests and SDK helpers).
func MustNewNodeID() NodeID {
	id, err := NewNodeID()
	if err != nil {
		panic(err)
	}
	return id
}

// ParseNodeID validates that s is a well-formed node id.
func ParseNodeID(s string) (NodeID, error) {
	if s == "" {
		return "", fmt.Errorf("empty node id")
	}
	if _, err := ksuid.Parse(s); err != nil {
		return "", fmt.Errorf("invalid node id format: %w", err)
	}
	return NodeID(s), nil
}
