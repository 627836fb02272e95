// Package queries defines the read-only views over the canvas and the
// persisted topic list.
package queries

import (
	"context"
	"fmt"

	"rootie/application/ports"
	"rootie/application/queries/bus"
	"rootie/application/services"
)

// GetCanvasStateQuery fetches the full current node and edge sets
type GetCanvasStateQuery struct{}

// Validate validates the query
func (q GetCanvasStateQuery) Validate() error { return nil }

// CanvasStateResult is the wholesale canvas view handed to a renderer
type CanvasStateResult struct {
	Nodes []ports.SnapshotNode `json:"nodes"`
	Edges []ports.SnapshotEdge `json:"edges"`
	Topic *ports.GraphSummary  `json:"topic,omitempty"`
}

// GetCanvasStateHandler answers GetCanvasStateQuery
type GetCanvasStateHandler struct {
	canvas  *services.CanvasStore
	topics  *services.TopicService
	gateway *services.SnapshotGateway
}

// NewGetCanvasStateHandler creates a new handler instance
func NewGetCanvasStateHandler(
	canvas *services.CanvasStore,
	topics *services.TopicService,
	gateway *services.SnapshotGateway,
) *GetCanvasStateHandler {
	return &GetCanvasStateHandler{canvas: canvas, topics: topics, gateway: gateway}
}

// Handle executes the query
func (h *GetCanvasStateHandler) Handle(ctx context.Context, query bus.Query) (interface{}, error) {
	if _, ok := query.(GetCanvasStateQuery); !ok {
		return nil, fmt.Errorf("unexpected query type %T", query)
	}

	nodes, edges := h.gateway.Flatten(h.canvas.Graph())
	result := &CanvasStateResult{Nodes: nodes, Edges: edges}
	if summary, active := h.topics.Active(); active {
		result.Topic = &summary
	}
	return result, nil
}

// ListTopicsQuery fetches all persisted graph summaries
type ListTopicsQuery struct{}

// Validate validates the query
func (q ListTopicsQuery) Validate() error { return nil }

// ListTopicsHandler answers ListTopicsQuery
type ListTopicsHandler struct {
	topics *services.TopicService
}

// NewListTopicsHandler creates a new handler instance
func NewListTopicsHandler(topics *services.TopicService) *ListTopicsHandler {
	return &ListTopicsHandler{topics: topics}
}

// Handle executes the query
func (h *ListTopicsHandler) Handle(ctx context.Context, query bus.Query) (interface{}, error) {
	if _, ok := query.(ListTopicsQuery); !ok {
		return nil, fmt.Errorf("unexpected query type %T", query)
	}
	return h.topics.ListTopics(ctx)
}
