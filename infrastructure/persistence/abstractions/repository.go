// Package abstractions defines the storage contract for persisted
// dialogue graphs, independent of the backing engine.
package abstractions

import (
	"context"
	"time"
)

// GraphRecord is stored graph metadata
type GraphRecord struct {
	ID          string
	Title       string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NodeRecord is one stored dialogue node. GraphID is empty for nodes
// captured by the streaming endpoint outside any persisted graph.
type NodeRecord struct {
	ID           string
	GraphID      string
	ParentNodeID string
	UserPrompt   string
	AIResponse   string
	CreatedAt    time.Time
	PositionX    float64
	PositionY    float64
	ModelName    string
}

// EdgeRecord is one stored directed edge
type EdgeRecord struct {
	ID       string
	GraphID  string
	SourceID string
	TargetID string
}

// Repository persists dialogue graphs and their nodes
type Repository interface {
	ListGraphs(ctx context.Context) ([]GraphRecord, error)
	CreateGraph(ctx context.Context, record GraphRecord) error
	GetGraph(ctx context.Context, id string) (GraphRecord, error)
	RenameGraph(ctx context.Context, id, title string) (GraphRecord, error)
	DeleteGraph(ctx context.Context, id string) error

	// ReplaceSnapshot swaps a graph's full node and edge sets atomically
	ReplaceSnapshot(ctx context.Context, graphID string, nodes []NodeRecord, edges []EdgeRecord) error
	GetNodes(ctx context.Context, graphID string) ([]NodeRecord, error)
	GetEdges(ctx context.Context, graphID string) ([]EdgeRecord, error)

	// UpsertNode writes one node outside a snapshot replace, used by the
	// chat endpoints to capture the answered node on completion.
	UpsertNode(ctx context.Context, record NodeRecord) error
	GetNode(ctx context.Context, id string) (NodeRecord, bool, error)
	GetAllNodes(ctx context.Context) ([]NodeRecord, error)

	Close() error
}
