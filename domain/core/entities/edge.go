package entities

import (
	"time"

	"rootie/domain/core/valueobjects"
	pkgerrors "rootie/pkg/errors"
)

// Edge is a directed connection meaning "target was spawned from source".
// Edges carry no content; they exist for ancestry and re-layout.
type Edge struct {
	ID        string
	SourceID  valueobjects.NodeID
	TargetID  valueobjects.NodeID
	CreatedAt time.Time
}

// DeriveEdgeID builds the deterministic identifier for a (source, target) pair
func DeriveEdgeID(source, target valueobjects.NodeID) string {
	return source.String() + "-" + target.String()
}

// NewEdge creates a directed edge between two nodes
func NewEdge(source, target valueobjects.NodeID) (*Edge, error) {
	if source.IsZero() || target.IsZero() {
		return nil, pkgerrors.NewValidationError("edge endpoints cannot be empty")
	}
	if source.Equals(target) {
		return nil, pkgerrors.NewValidationError("cannot connect node to itself")
	}

	return &Edge{
		ID:        DeriveEdgeID(source, target),
		SourceID:  source,
		TargetID:  target,
		CreatedAt: time.Now(),
	}, nil
}

// Touches checks whether the edge is incident to the given node
func (e *Edge) Touches(id valueobjects.NodeID) bool {
	return e.SourceID.Equals(id) || e.TargetID.Equals(id)
}
