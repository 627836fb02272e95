// Package memory implements the dialogue-graph repository in process
// memory, for tests and development.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"rootie/infrastructure/persistence/abstractions"
	pkgerrors "rootie/pkg/errors"
)

// Repository is the in-memory store
type Repository struct {
	mu     sync.RWMutex
	graphs map[string]abstractions.GraphRecord
	nodes  map[string]abstractions.NodeRecord
	edges  map[string][]abstractions.EdgeRecord
}

// NewRepository creates an empty in-memory repository
func NewRepository() *Repository {
	return &Repository{
		graphs: make(map[string]abstractions.GraphRecord),
		nodes:  make(map[string]abstractions.NodeRecord),
		edges:  make(map[string][]abstractions.EdgeRecord),
	}
}

// Close is a no-op
func (r *Repository) Close() error { return nil }

// ListGraphs returns all graphs newest-first
func (r *Repository) ListGraphs(ctx context.Context) ([]abstractions.GraphRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	records := make([]abstractions.GraphRecord, 0, len(r.graphs))
	for _, record := range r.graphs {
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].UpdatedAt.After(records[j].UpdatedAt)
	})
	return records, nil
}

// CreateGraph inserts graph metadata
func (r *Repository) CreateGraph(ctx context.Context, record abstractions.GraphRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.graphs[record.ID]; exists {
		return pkgerrors.NewConflictError("graph already exists")
	}
	r.graphs[record.ID] = record
	return nil
}

// GetGraph fetches graph metadata by ID
func (r *Repository) GetGraph(ctx context.Context, id string) (abstractions.GraphRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, exists := r.graphs[id]
	if !exists {
		return abstractions.GraphRecord{}, pkgerrors.NewNotFoundError("graph " + id)
	}
	return record, nil
}

// RenameGraph updates a graph's title
func (r *Repository) RenameGraph(ctx context.Context, id, title string) (abstractions.GraphRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, exists := r.graphs[id]
	if !exists {
		return abstractions.GraphRecord{}, pkgerrors.NewNotFoundError("graph " + id)
	}
	record.Title = title
	record.UpdatedAt = time.Now().UTC()
	r.graphs[id] = record
	return record, nil
}

// DeleteGraph removes a graph and everything under it
func (r *Repository) DeleteGraph(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.graphs[id]; !exists {
		return pkgerrors.NewNotFoundError("graph " + id)
	}
	delete(r.graphs, id)
	delete(r.edges, id)
	for nodeID, node := range r.nodes {
		if node.GraphID == id {
			delete(r.nodes, nodeID)
		}
	}
	return nil
}

// ReplaceSnapshot swaps a graph's full node and edge sets
func (r *Repository) ReplaceSnapshot(ctx context.Context, graphID string, nodes []abstractions.NodeRecord, edges []abstractions.EdgeRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	graph, exists := r.graphs[graphID]
	if !exists {
		return pkgerrors.NewNotFoundError("graph " + graphID)
	}

	now := time.Now().UTC()
	for nodeID, node := range r.nodes {
		if node.GraphID == graphID {
			delete(r.nodes, nodeID)
		}
	}
	for _, node := range nodes {
		node.GraphID = graphID
		if node.CreatedAt.IsZero() {
			node.CreatedAt = now
		}
		r.nodes[node.ID] = node
	}

	stored := make([]abstractions.EdgeRecord, len(edges))
	copy(stored, edges)
	for i := range stored {
		stored[i].GraphID = graphID
	}
	r.edges[graphID] = stored

	graph.UpdatedAt = now
	r.graphs[graphID] = graph
	return nil
}

// GetNodes returns a graph's nodes ordered by creation time
func (r *Repository) GetNodes(ctx context.Context, graphID string) ([]abstractions.NodeRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var records []abstractions.NodeRecord
	for _, node := range r.nodes {
		if node.GraphID == graphID {
			records = append(records, node)
		}
	}
	sortNodes(records)
	return records, nil
}

// GetEdges returns a graph's edges
func (r *Repository) GetEdges(ctx context.Context, graphID string) ([]abstractions.EdgeRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := r.edges[graphID]
	records := make([]abstractions.EdgeRecord, len(stored))
	copy(records, stored)
	return records, nil
}

// UpsertNode writes one node, inserting or overwriting by ID
func (r *Repository) UpsertNode(ctx context.Context, record abstractions.NodeRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, exists := r.nodes[record.ID]; exists && !existing.CreatedAt.IsZero() {
		record.CreatedAt = existing.CreatedAt
	} else if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	r.nodes[record.ID] = record
	return nil
}

// GetNode fetches one node by ID
func (r *Repository) GetNode(ctx context.Context, id string) (abstractions.NodeRecord, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, exists := r.nodes[id]
	return record, exists, nil
}

// GetAllNodes returns every stored node
func (r *Repository) GetAllNodes(ctx context.Context) ([]abstractions.NodeRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	records := make([]abstractions.NodeRecord, 0, len(r.nodes))
	for _, node := range r.nodes {
		records = append(records, node)
	}
	sortNodes(records)
	return records, nil
}

func sortNodes(records []abstractions.NodeRecord) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].ID < records[j].ID
		}
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})
}

var _ abstractions.Repository = (*Repository)(nil)
