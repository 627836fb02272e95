package events

import (
	"time"

	"rootie/domain/core/valueobjects"
)

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }

// NodeAdded is raised when a node joins the canvas graph
type NodeAdded struct {
	BaseEvent
	NodeID valueobjects.NodeID `json:"node_id"`
	Kind   string              `json:"kind"`
}

// NewNodeAdded creates a NodeAdded event
func NewNodeAdded(nodeID valueobjects.NodeID, kind string, timestamp time.Time) NodeAdded {
	return NodeAdded{
		BaseEvent: BaseEvent{
			AggregateID: nodeID.String(),
			EventType:   "canvas.node_added",
			Timestamp:   timestamp,
		},
		NodeID: nodeID,
		Kind:   kind,
	}
}

// NodeReplaced is raised when a node record is swapped for a new value,
// either the input-to-conversation conversion or an answer update
type NodeReplaced struct {
	BaseEvent
	NodeID valueobjects.NodeID `json:"node_id"`
	Kind   string              `json:"kind"`
}

// NewNodeReplaced creates a NodeReplaced event
func NewNodeReplaced(nodeID valueobjects.NodeID, kind string, timestamp time.Time) NodeReplaced {
	return NodeReplaced{
		BaseEvent: BaseEvent{
			AggregateID: nodeID.String(),
			EventType:   "canvas.node_replaced",
			Timestamp:   timestamp,
		},
		NodeID: nodeID,
		Kind:   kind,
	}
}

// NodesRemoved is raised when a selection of nodes and their incident
// edges leaves the graph in one transform
type NodesRemoved struct {
	BaseEvent
	NodeIDs      []valueobjects.NodeID `json:"node_ids"`
	EdgesRemoved int                   `json:"edges_removed"`
}

// NewNodesRemoved creates a NodesRemoved event
func NewNodesRemoved(nodeIDs []valueobjects.NodeID, edgesRemoved int, timestamp time.Time) NodesRemoved {
	aggregate := ""
	if len(nodeIDs) > 0 {
		aggregate = nodeIDs[0].String()
	}
	return NodesRemoved{
		BaseEvent: BaseEvent{
			AggregateID: aggregate,
			EventType:   "canvas.nodes_removed",
			Timestamp:   timestamp,
		},
		NodeIDs:      nodeIDs,
		EdgesRemoved: edgesRemoved,
	}
}

// EdgeAdded is raised when a directed connection is created
type EdgeAdded struct {
	BaseEvent
	EdgeID   string              `json:"edge_id"`
	SourceID valueobjects.NodeID `json:"source_id"`
	TargetID valueobjects.NodeID `json:"target_id"`
}

// NewEdgeAdded creates an EdgeAdded event
func NewEdgeAdded(edgeID string, source, target valueobjects.NodeID, timestamp time.Time) EdgeAdded {
	return EdgeAdded{
		BaseEvent: BaseEvent{
			AggregateID: edgeID,
			EventType:   "canvas.edge_added",
			Timestamp:   timestamp,
		},
		EdgeID:   edgeID,
		SourceID: source,
		TargetID: target,
	}
}
