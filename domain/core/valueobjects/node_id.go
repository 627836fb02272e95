package valueobjects

import (
	"errors"
	"strconv"
	"strings"
)

// NodeID is a value object representing a unique node identifier.
// Identifiers are opaque strings; locally allocated ones carry an
// embedded ordinal ("input-7") for human debugging, while identifiers
// minted by the backend may be arbitrary (UUIDs).
type NodeID struct {
	value string
}

// NewNodeIDFromString creates a NodeID from an existing string
func NewNodeIDFromString(id string) (NodeID, error) {
	if id == "" {
		return NodeID{}, errors.New("node ID cannot be empty")
	}
	return NodeID{value: id}, nil
}

// String returns the string representation of the NodeID
func (id NodeID) String() string {
	return id.value
}

// Equals checks if two NodeIDs are equal
func (id NodeID) Equals(other NodeID) bool {
	return id.value == other.value
}

// IsZero checks if the NodeID is the zero value
func (id NodeID) IsZero() bool {
	return id.value == ""
}

// Ordinal returns the numeric suffix embedded in the identifier.
// Identifiers without a parseable suffix read as zero, so a load that
// contains backend-minted UUIDs never breaks allocator resync.
func (id NodeID) Ordinal() int {
	idx := strings.LastIndex(id.value, "-")
	if idx < 0 || idx == len(id.value)-1 {
		return 0
	}
	n, err := strconv.Atoi(id.value[idx+1:])
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// MarshalJSON implements json.Marshaler
func (id NodeID) MarshalJSON() ([]byte, error) {
	return []byte(`"` + id.value + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (id *NodeID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return errors.New("NodeID must be a string")
	}
	id.value = string(data[1 : len(data)-1])
	return nil
}
