package aggregates

import (
	"time"

	"rootie/domain/config"
	"rootie/domain/core/entities"
	"rootie/domain/core/valueobjects"
	"rootie/domain/events"
	pkgerrors "rootie/pkg/errors"
)

// Graph is the aggregate root for the conversation canvas. A Graph value
// is immutable: every mutation returns a fresh value sharing the
// unchanged node records, so an observer always sees a node set together
// with its matching edge set and never a half-applied transform.
type Graph struct {
	nodes     map[valueobjects.NodeID]*entities.Node
	nodeOrder []valueobjects.NodeID
	edges     []*entities.Edge
	// parents indexes child id to parent id so parent lookups do not
	// scan the edge list on every submission.
	parents   map[valueobjects.NodeID]valueobjects.NodeID
	cfg       *config.DomainConfig
	updatedAt time.Time
	events    []events.DomainEvent
}

// NewGraph creates an empty graph
func NewGraph(cfg *config.DomainConfig) *Graph {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &Graph{
		nodes:     make(map[valueobjects.NodeID]*entities.Node),
		nodeOrder: []valueobjects.NodeID{},
		edges:     []*entities.Edge{},
		parents:   make(map[valueobjects.NodeID]valueobjects.NodeID),
		cfg:       cfg,
		updatedAt: time.Now(),
		events:    []events.DomainEvent{},
	}
}

// clone produces a structural copy sharing node records. Node records are
// themselves never mutated in place, so sharing is safe.
func (g *Graph) clone() *Graph {
	nodes := make(map[valueobjects.NodeID]*entities.Node, len(g.nodes))
	for k, v := range g.nodes {
		nodes[k] = v
	}
	order := make([]valueobjects.NodeID, len(g.nodeOrder))
	copy(order, g.nodeOrder)
	edges := make([]*entities.Edge, len(g.edges))
	copy(edges, g.edges)
	parents := make(map[valueobjects.NodeID]valueobjects.NodeID, len(g.parents))
	for k, v := range g.parents {
		parents[k] = v
	}
	evts := make([]events.DomainEvent, len(g.events))
	copy(evts, g.events)

	return &Graph{
		nodes:     nodes,
		nodeOrder: order,
		edges:     edges,
		parents:   parents,
		cfg:       g.cfg,
		updatedAt: time.Now(),
		events:    evts,
	}
}

// AddNode returns a graph with the node appended
func (g *Graph) AddNode(node *entities.Node) (*Graph, error) {
	if node == nil {
		return nil, pkgerrors.NewValidationError("node cannot be nil")
	}
	if _, exists := g.nodes[node.ID()]; exists {
		return nil, pkgerrors.NewConflictError("node already exists in graph")
	}
	if len(g.nodes) >= g.cfg.MaxNodesPerGraph {
		return nil, pkgerrors.NewInvariantError("maximum nodes reached")
	}

	out := g.clone()
	out.nodes[node.ID()] = node
	out.nodeOrder = append(out.nodeOrder, node.ID())
	out.addEvent(events.NewNodeAdded(node.ID(), string(node.Kind()), out.updatedAt))
	return out, nil
}

// ReplaceNode returns a graph with the record for node's id swapped.
// This covers both the input-to-conversation conversion and in-place
// answer updates during streaming.
func (g *Graph) ReplaceNode(node *entities.Node) (*Graph, error) {
	if node == nil {
		return nil, pkgerrors.NewValidationError("node cannot be nil")
	}
	if _, exists := g.nodes[node.ID()]; !exists {
		return nil, pkgerrors.NewNotFoundError("node")
	}

	out := g.clone()
	out.nodes[node.ID()] = node
	out.addEvent(events.NewNodeReplaced(node.ID(), string(node.Kind()), out.updatedAt))
	return out, nil
}

// AddEdge returns a graph with a directed edge from source to target.
// Every non-root node has exactly one incoming edge, so a target that
// already has a parent is rejected.
func (g *Graph) AddEdge(source, target valueobjects.NodeID) (*Graph, *entities.Edge, error) {
	if _, exists := g.nodes[source]; !exists {
		return nil, nil, pkgerrors.NewNotFoundError("source node")
	}
	if _, exists := g.nodes[target]; !exists {
		return nil, nil, pkgerrors.NewNotFoundError("target node")
	}
	if _, hasParent := g.parents[target]; hasParent {
		return nil, nil, pkgerrors.NewConflictError("target already has a parent edge")
	}
	if len(g.edges) >= g.cfg.MaxEdgesPerGraph {
		return nil, nil, pkgerrors.NewInvariantError("maximum edges reached")
	}

	edge, err := entities.NewEdge(source, target)
	if err != nil {
		return nil, nil, err
	}
	for _, existing := range g.edges {
		if existing.ID == edge.ID {
			return nil, nil, pkgerrors.NewConflictError("edge already exists")
		}
	}

	out := g.clone()
	out.edges = append(out.edges, edge)
	out.parents[target] = source
	out.addEvent(events.NewEdgeAdded(edge.ID, source, target, out.updatedAt))
	return out, edge, nil
}

// RemoveNodes returns a graph without the given nodes and without every
// edge incident to them, applied as one transform. A removal that would
// empty the graph is rejected so at least one node always remains.
func (g *Graph) RemoveNodes(ids []valueobjects.NodeID) (*Graph, error) {
	if len(ids) == 0 {
		return g, nil
	}

	removing := make(map[valueobjects.NodeID]bool, len(ids))
	present := 0
	for _, id := range ids {
		if _, exists := g.nodes[id]; exists && !removing[id] {
			removing[id] = true
			present++
		}
	}
	if present == 0 {
		return g, nil
	}
	if len(g.nodes)-present < 1 {
		return nil, pkgerrors.NewInvariantError("deletion would empty the graph")
	}

	out := g.clone()
	for id := range removing {
		delete(out.nodes, id)
		delete(out.parents, id)
	}

	order := out.nodeOrder[:0]
	for _, id := range out.nodeOrder {
		if !removing[id] {
			order = append(order, id)
		}
	}
	out.nodeOrder = order

	kept := out.edges[:0]
	edgesRemoved := 0
	for _, edge := range out.edges {
		if removing[edge.SourceID] || removing[edge.TargetID] {
			edgesRemoved++
			delete(out.parents, edge.TargetID)
			continue
		}
		kept = append(kept, edge)
	}
	out.edges = kept

	removedIDs := make([]valueobjects.NodeID, 0, present)
	for _, id := range ids {
		if removing[id] {
			removedIDs = append(removedIDs, id)
			removing[id] = false
		}
	}
	out.addEvent(events.NewNodesRemoved(removedIDs, edgesRemoved, out.updatedAt))
	return out, nil
}

// Node retrieves a node by ID
func (g *Graph) Node(id valueobjects.NodeID) (*entities.Node, bool) {
	node, exists := g.nodes[id]
	return node, exists
}

// HasNode checks if a node exists in the graph
func (g *Graph) HasNode(id valueobjects.NodeID) bool {
	_, exists := g.nodes[id]
	return exists
}

// Nodes returns all nodes in insertion order
func (g *Graph) Nodes() []*entities.Node {
	nodes := make([]*entities.Node, 0, len(g.nodeOrder))
	for _, id := range g.nodeOrder {
		if node, ok := g.nodes[id]; ok {
			nodes = append(nodes, node)
		}
	}
	return nodes
}

// Edges returns all edges in insertion order
func (g *Graph) Edges() []*entities.Edge {
	edges := make([]*entities.Edge, len(g.edges))
	copy(edges, g.edges)
	return edges
}

// ParentOf returns the conversational parent of a node, if any
func (g *Graph) ParentOf(id valueobjects.NodeID) (valueobjects.NodeID, bool) {
	parent, ok := g.parents[id]
	return parent, ok
}

// InputChildren returns the input-node children of a node, in edge order
func (g *Graph) InputChildren(id valueobjects.NodeID) []*entities.Node {
	children := []*entities.Node{}
	for _, edge := range g.edges {
		if !edge.SourceID.Equals(id) {
			continue
		}
		if child, ok := g.nodes[edge.TargetID]; ok && child.IsInput() {
			children = append(children, child)
		}
	}
	return children
}

// NodeCount returns the number of nodes
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of edges
func (g *Graph) EdgeCount() int {
	return len(g.edges)
}

// UpdatedAt returns when this graph value was produced
func (g *Graph) UpdatedAt() time.Time {
	return g.updatedAt
}

// Validate ensures graph invariants hold
func (g *Graph) Validate() error {
	for _, edge := range g.edges {
		if _, ok := g.nodes[edge.SourceID]; !ok {
			return pkgerrors.NewInvariantError("edge references non-existent source node")
		}
		if _, ok := g.nodes[edge.TargetID]; !ok {
			return pkgerrors.NewInvariantError("edge references non-existent target node")
		}
		if parent, ok := g.parents[edge.TargetID]; !ok || !parent.Equals(edge.SourceID) {
			return pkgerrors.NewInvariantError("parent index out of sync with edge list")
		}
	}
	return nil
}

// GetUncommittedEvents returns all uncommitted domain events
func (g *Graph) GetUncommittedEvents() []events.DomainEvent {
	out := make([]events.DomainEvent, len(g.events))
	copy(out, g.events)
	return out
}

// MarkEventsAsCommitted returns a graph value with the event log cleared
func (g *Graph) MarkEventsAsCommitted() *Graph {
	out := *g
	out.events = []events.DomainEvent{}
	return &out
}

func (g *Graph) addEvent(event events.DomainEvent) {
	g.events = append(g.events, event)
}
