package services

import (
	"context"

	"go.uber.org/zap"

	"rootie/application/ports"
	"rootie/domain/config"
	"rootie/domain/core/aggregates"
	"rootie/domain/core/entities"
	"rootie/domain/core/valueobjects"
	pkgerrors "rootie/pkg/errors"
)

// SnapshotGateway translates between the in-memory graph and the
// backend's flat persisted records. Saves are fire-and-forget relative to
// the mutation that triggered them: a failure is logged and the in-memory
// change stands.
type SnapshotGateway struct {
	store  ports.SnapshotStore
	cfg    *config.DomainConfig
	logger *zap.Logger
}

// NewSnapshotGateway creates a gateway. store may be nil, in which case
// every save is skipped and loads fail.
func NewSnapshotGateway(store ports.SnapshotStore, cfg *config.DomainConfig, logger *zap.Logger) *SnapshotGateway {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SnapshotGateway{store: store, cfg: cfg, logger: logger}
}

// Enabled reports whether a backend store is attached
func (g *SnapshotGateway) Enabled() bool {
	return g.store != nil
}

// Flatten maps a graph to the backend's record shape. The parent of each
// node comes from the graph's child-to-parent index.
func (g *SnapshotGateway) Flatten(graph *aggregates.Graph) ([]ports.SnapshotNode, []ports.SnapshotEdge) {
	nodes := graph.Nodes()
	outNodes := make([]ports.SnapshotNode, 0, len(nodes))
	for _, node := range nodes {
		record := ports.SnapshotNode{
			ID:        node.ID().String(),
			PositionX: node.Position().X(),
			PositionY: node.Position().Y(),
		}
		if node.IsConversation() {
			record.UserPrompt = node.Dialogue().Question()
			record.AIResponse = node.Dialogue().Answer()
		}
		if parent, ok := graph.ParentOf(node.ID()); ok {
			record.ParentNodeID = parent.String()
		}
		outNodes = append(outNodes, record)
	}

	edges := graph.Edges()
	outEdges := make([]ports.SnapshotEdge, 0, len(edges))
	for _, edge := range edges {
		outEdges = append(outEdges, ports.SnapshotEdge{
			ID:     edge.ID,
			Source: edge.SourceID.String(),
			Target: edge.TargetID.String(),
		})
	}
	return outNodes, outEdges
}

// Save snapshots the graph to the backend. Errors are logged, not
// returned; the in-memory graph is never rolled back.
func (g *SnapshotGateway) Save(ctx context.Context, graphID string, graph *aggregates.Graph) {
	if g.store == nil || graphID == "" {
		return
	}

	nodes, edges := g.Flatten(graph)
	if err := g.store.SaveGraph(ctx, graphID, nodes, edges); err != nil {
		g.logger.Warn("graph save failed",
			zap.String("graphID", graphID),
			zap.Error(err),
		)
	}
}

// Load fetches a snapshot and rehydrates it into a graph value. Nodes
// with a stored response become conversation nodes; the rest are input
// nodes. Edges come from the stored edge list, falling back to the
// redundant parent_node_id encoding for snapshots saved without one.
func (g *SnapshotGateway) Load(ctx context.Context, graphID string) (*aggregates.Graph, ports.GraphSummary, error) {
	if g.store == nil {
		return nil, ports.GraphSummary{}, pkgerrors.NewUnavailableError("snapshot store")
	}

	snapshot, err := g.store.LoadGraph(ctx, graphID)
	if err != nil {
		return nil, ports.GraphSummary{}, pkgerrors.Wrap(err, "load graph")
	}

	graph, err := g.Rehydrate(snapshot)
	if err != nil {
		return nil, ports.GraphSummary{}, err
	}
	return graph, snapshot.Graph, nil
}

// Rehydrate rebuilds a graph value from a loaded snapshot
func (g *SnapshotGateway) Rehydrate(snapshot ports.GraphSnapshot) (*aggregates.Graph, error) {
	graph := aggregates.NewGraph(g.cfg)

	for _, record := range snapshot.Nodes {
		id, err := valueobjects.NewNodeIDFromString(record.ID)
		if err != nil {
			return nil, pkgerrors.Wrap(err, "rehydrate node")
		}
		pos, err := valueobjects.NewPosition(record.PositionX, record.PositionY)
		if err != nil {
			return nil, pkgerrors.Wrap(err, "rehydrate node position")
		}

		var node *entities.Node
		if record.AIResponse != "" || record.UserPrompt != "" {
			dialogue, derr := valueobjects.NewDialogue(record.UserPrompt, record.AIResponse)
			if derr != nil {
				return nil, pkgerrors.Wrap(derr, "rehydrate dialogue")
			}
			node, err = entities.ReconstructConversationNode(id, pos, dialogue, snapshot.Graph.CreatedAt)
		} else {
			node, err = entities.NewInputNode(id, pos)
		}
		if err != nil {
			return nil, pkgerrors.Wrap(err, "rehydrate node")
		}

		graph, err = graph.AddNode(node)
		if err != nil {
			return nil, pkgerrors.Wrap(err, "rehydrate node")
		}
	}

	edges := snapshot.Edges
	if len(edges) == 0 {
		edges = deriveEdgesFromParents(snapshot.Nodes)
	}
	for _, record := range edges {
		source, err := valueobjects.NewNodeIDFromString(record.Source)
		if err != nil {
			return nil, pkgerrors.Wrap(err, "rehydrate edge")
		}
		target, err := valueobjects.NewNodeIDFromString(record.Target)
		if err != nil {
			return nil, pkgerrors.Wrap(err, "rehydrate edge")
		}
		graph, _, err = graph.AddEdge(source, target)
		if err != nil {
			return nil, pkgerrors.Wrap(err, "rehydrate edge")
		}
	}

	return graph.MarkEventsAsCommitted(), nil
}

func deriveEdgesFromParents(nodes []ports.SnapshotNode) []ports.SnapshotEdge {
	edges := []ports.SnapshotEdge{}
	for _, node := range nodes {
		if node.ParentNodeID == "" {
			continue
		}
		edges = append(edges, ports.SnapshotEdge{
			ID:     node.ParentNodeID + "-" + node.ID,
			Source: node.ParentNodeID,
			Target: node.ID,
		})
	}
	return edges
}
