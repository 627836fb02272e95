// Package ports declares the interfaces the engine needs from the outside
// world: the backend's graph CRUD and streamed-chat endpoints, and the
// canvas observer that mirrors graph state into a renderer.
package ports

import (
	"context"
	"io"
	"time"

	"rootie/domain/core/entities"
)

// SnapshotNode is the backend's flat record for one canvas node. Input
// nodes persist with an empty AIResponse.
type SnapshotNode struct {
	ID           string  `json:"id"`
	UserPrompt   string  `json:"user_prompt"`
	AIResponse   string  `json:"ai_response"`
	ParentNodeID string  `json:"parent_node_id,omitempty"`
	PositionX    float64 `json:"position_x"`
	PositionY    float64 `json:"position_y"`
}

// SnapshotEdge is the backend's record for one directed edge
type SnapshotEdge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
}

// GraphSummary is the backend's graph metadata record
type GraphSummary struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// GraphSnapshot is a fully loaded persisted graph
type GraphSnapshot struct {
	Graph GraphSummary   `json:"graph"`
	Nodes []SnapshotNode `json:"nodes"`
	Edges []SnapshotEdge `json:"edges"`
}

// SnapshotStore persists and rehydrates graphs at the backend
type SnapshotStore interface {
	ListGraphs(ctx context.Context) ([]GraphSummary, error)
	CreateGraph(ctx context.Context, title, description string) (GraphSummary, error)
	RenameGraph(ctx context.Context, id, title string) (GraphSummary, error)
	DeleteGraph(ctx context.Context, id string) error
	LoadGraph(ctx context.Context, id string) (GraphSnapshot, error)
	SaveGraph(ctx context.Context, id string, nodes []SnapshotNode, edges []SnapshotEdge) error
}

// ChatStreamRequest carries one prompt submission to the backend's
// streaming endpoint. Nodes and GraphID are only set when a persisted
// graph is active.
type ChatStreamRequest struct {
	Prompt       string         `json:"prompt"`
	ParentNodeID string         `json:"parent_node_id,omitempty"`
	NodeID       string         `json:"node_id"`
	Nodes        []SnapshotNode `json:"nodes,omitempty"`
	GraphID      string         `json:"graph_id,omitempty"`
}

// ChatStreamer opens the backend's chunked response stream. The returned
// body is a sequence of newline-delimited "data: <json>" records; the
// caller owns closing it. A non-2xx response surfaces as an error here.
type ChatStreamer interface {
	StreamChat(ctx context.Context, req ChatStreamRequest) (io.ReadCloser, error)
}

// CanvasObserver receives wholesale node/edge snapshots after every graph
// mutation. Implementations must treat the slices as read-only.
type CanvasObserver interface {
	CanvasUpdated(nodes []*entities.Node, edges []*entities.Edge)
}

// CanvasObserverFunc adapts a function to the CanvasObserver interface
type CanvasObserverFunc func(nodes []*entities.Node, edges []*entities.Edge)

// CanvasUpdated implements CanvasObserver
func (f CanvasObserverFunc) CanvasUpdated(nodes []*entities.Node, edges []*entities.Edge) {
	f(nodes, edges)
}
