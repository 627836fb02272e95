package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"rootie/application/ports"
	"rootie/domain/config"
	"rootie/domain/core/aggregates"
	"rootie/domain/core/entities"
	"rootie/domain/core/valueobjects"
)

func buildCanvasFixture(t *testing.T) (*CanvasStore, *SnapshotGateway) {
	t.Helper()
	cfg := config.DefaultDomainConfig()
	canvas := NewCanvasStore(cfg, zap.NewNop())
	gateway := NewSnapshotGateway(nil, cfg, zap.NewNop())
	return canvas, gateway
}

// answerSeed converts the seed input node into an answered conversation
// node and hangs a fresh input node off it.
func answerSeed(t *testing.T, canvas *CanvasStore, question, answer string) {
	t.Helper()
	seedID, err := valueobjects.NewNodeIDFromString("input-1")
	require.NoError(t, err)

	require.NoError(t, canvas.Apply(func(g *aggregates.Graph) (*aggregates.Graph, error) {
		seed, ok := g.Node(seedID)
		require.True(t, ok)

		converted, err := seed.ToConversation(question, answer)
		if err != nil {
			return nil, err
		}
		g, err = g.ReplaceNode(converted)
		if err != nil {
			return nil, err
		}

		pos, _ := valueobjects.NewPosition(400, 750)
		followUp, err := entities.NewInputNode(canvas.Allocator().Next(), pos)
		if err != nil {
			return nil, err
		}
		g, err = g.AddNode(followUp)
		if err != nil {
			return nil, err
		}
		g, _, err = g.AddEdge(seedID, followUp.ID())
		return g, err
	}))
}

func TestSnapshotGateway_Flatten(t *testing.T) {
	canvas, gateway := buildCanvasFixture(t)
	answerSeed(t, canvas, "why is the sky blue", "Rayleigh scattering.")

	nodes, edges := gateway.Flatten(canvas.Graph())
	require.Len(t, nodes, 2)
	require.Len(t, edges, 1)

	assert.Equal(t, "input-1", nodes[0].ID)
	assert.Equal(t, "why is the sky blue", nodes[0].UserPrompt)
	assert.Equal(t, "Rayleigh scattering.", nodes[0].AIResponse)
	assert.Empty(t, nodes[0].ParentNodeID)
	assert.InDelta(t, 400, nodes[0].PositionX, 1e-9)
	assert.InDelta(t, 300, nodes[0].PositionY, 1e-9)

	assert.Equal(t, "input-2", nodes[1].ID)
	assert.Empty(t, nodes[1].UserPrompt, "input nodes persist without dialogue")
	assert.Equal(t, "input-1", nodes[1].ParentNodeID)

	assert.Equal(t, "input-1-input-2", edges[0].ID)
	assert.Equal(t, "input-1", edges[0].Source)
	assert.Equal(t, "input-2", edges[0].Target)
}

func TestSnapshotGateway_RehydrateRoundTrip(t *testing.T) {
	canvas, gateway := buildCanvasFixture(t)
	answerSeed(t, canvas, "q", "a")

	nodes, edges := gateway.Flatten(canvas.Graph())
	snapshot := ports.GraphSnapshot{
		Graph: ports.GraphSummary{ID: "g1", Title: "t", CreatedAt: time.Now()},
		Nodes: nodes,
		Edges: edges,
	}

	graph, err := gateway.Rehydrate(snapshot)
	require.NoError(t, err)

	assert.Equal(t, 2, graph.NodeCount())
	assert.Equal(t, 1, graph.EdgeCount())
	assert.NoError(t, graph.Validate())
	assert.Empty(t, graph.GetUncommittedEvents())

	id1, _ := valueobjects.NewNodeIDFromString("input-1")
	id2, _ := valueobjects.NewNodeIDFromString("input-2")

	answered, ok := graph.Node(id1)
	require.True(t, ok)
	assert.True(t, answered.IsConversation())
	assert.Equal(t, "q", answered.Dialogue().Question())
	assert.Equal(t, "a", answered.Dialogue().Answer())

	blank, ok := graph.Node(id2)
	require.True(t, ok)
	assert.True(t, blank.IsInput(), "nodes without a stored response rehydrate as input")
	assert.InDelta(t, 750, blank.Position().Y(), 1e-9)

	parent, ok := graph.ParentOf(id2)
	require.True(t, ok)
	assert.Equal(t, "input-1", parent.String())
}

func TestSnapshotGateway_RehydrateDerivesEdgesFromParents(t *testing.T) {
	_, gateway := buildCanvasFixture(t)

	snapshot := ports.GraphSnapshot{
		Nodes: []ports.SnapshotNode{
			{ID: "input-1", UserPrompt: "q", AIResponse: "a", PositionX: 1, PositionY: 2},
			{ID: "input-2", ParentNodeID: "input-1", PositionX: 3, PositionY: 4},
		},
	}

	graph, err := gateway.Rehydrate(snapshot)
	require.NoError(t, err)
	require.Equal(t, 1, graph.EdgeCount())
	assert.Equal(t, "input-1-input-2", graph.Edges()[0].ID)
}

func TestSnapshotGateway_RehydrateRejectsDanglingEdge(t *testing.T) {
	_, gateway := buildCanvasFixture(t)

	snapshot := ports.GraphSnapshot{
		Nodes: []ports.SnapshotNode{{ID: "input-1", UserPrompt: "q", AIResponse: "a"}},
		Edges: []ports.SnapshotEdge{{ID: "input-1-input-9", Source: "input-1", Target: "input-9"}},
	}

	_, err := gateway.Rehydrate(snapshot)
	assert.Error(t, err)
}

func TestCanvasStore_ReplaceResyncsAllocator(t *testing.T) {
	canvas, gateway := buildCanvasFixture(t)

	graph, err := gateway.Rehydrate(ports.GraphSnapshot{
		Nodes: []ports.SnapshotNode{
			{ID: "input-3", UserPrompt: "q", AIResponse: "a"},
			{ID: "input-7", ParentNodeID: "input-3"},
		},
	})
	require.NoError(t, err)

	canvas.Replace(graph)
	assert.Equal(t, 8, canvas.Allocator().Peek())
	assert.Equal(t, "input-8", canvas.Allocator().Next().String())
}

func TestCanvasStore_SeedAndReset(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	canvas := NewCanvasStore(cfg, zap.NewNop())

	nodes, edges := canvas.Snapshot()
	require.Len(t, nodes, 1)
	assert.Empty(t, edges)
	assert.Equal(t, "input-1", nodes[0].ID().String())
	assert.True(t, nodes[0].IsInput())
	assert.InDelta(t, cfg.SeedPositionX, nodes[0].Position().X(), 1e-9)
	assert.InDelta(t, cfg.SeedPositionY, nodes[0].Position().Y(), 1e-9)

	answerSeed(t, canvas, "q", "a")
	canvas.Reset()

	nodes, _ = canvas.Snapshot()
	require.Len(t, nodes, 1)
	assert.Equal(t, "input-1", nodes[0].ID().String(), "reset restarts the id sequence")
}

func TestCanvasStore_ObserverReceivesWholesaleSnapshots(t *testing.T) {
	canvas, _ := buildCanvasFixture(t)

	var updates int
	var lastNodes int
	canvas.SetObserver(ports.CanvasObserverFunc(func(nodes []*entities.Node, edges []*entities.Edge) {
		updates++
		lastNodes = len(nodes)
	}))

	require.Equal(t, 1, updates, "observer sees the current state on install")
	answerSeed(t, canvas, "q", "a")
	assert.Equal(t, 2, updates)
	assert.Equal(t, 2, lastNodes)
}
