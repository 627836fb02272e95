package integration

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"rootie/application"
	"rootie/application/queries"
	"rootie/infrastructure/backend"
	"rootie/infrastructure/llm"
	"rootie/infrastructure/persistence/memory"
	"rootie/interfaces/http/rest"
)

// startBackend runs the full REST API over an in-memory repository and
// a scripted model, and returns a client pointed at it.
func startBackend(t *testing.T, replies ...string) *backend.Client {
	t.Helper()
	repo := memory.NewRepository()
	provider := llm.NewScriptedProvider(replies...)
	server := httptest.NewServer(rest.NewRouter(repo, provider, zap.NewNop(), false).Setup())
	t.Cleanup(server.Close)
	return backend.NewClient(server.URL, zap.NewNop())
}

func newEngine(t *testing.T, client *backend.Client) *application.Engine {
	t.Helper()
	engine, err := application.NewEngine(application.Options{
		Streamer: client,
		Store:    client,
	})
	require.NoError(t, err)
	return engine
}

func canvasState(t *testing.T, engine *application.Engine) *queries.CanvasStateResult {
	t.Helper()
	state, err := engine.CanvasState(context.Background())
	require.NoError(t, err)
	return state
}

func findByID(state *queries.CanvasStateResult, id string) (int, bool) {
	for i, node := range state.Nodes {
		if node.ID == id {
			return i, true
		}
	}
	return 0, false
}

func TestEngine_SubmitRoundTrip(t *testing.T) {
	client := startBackend(t, "Rayleigh scattering.")
	engine := newEngine(t, client)
	ctx := context.Background()

	require.NoError(t, engine.Submit(ctx, "input-1", "why is the sky blue"))

	state := canvasState(t, engine)
	require.Len(t, state.Nodes, 2)
	require.Len(t, state.Edges, 1)

	i, ok := findByID(state, "input-1")
	require.True(t, ok)
	assert.Equal(t, "why is the sky blue", state.Nodes[i].UserPrompt)
	assert.Equal(t, "Rayleigh scattering.", state.Nodes[i].AIResponse)

	j, ok := findByID(state, "input-2")
	require.True(t, ok)
	assert.Empty(t, state.Nodes[j].AIResponse)
	assert.Equal(t, "input-1", state.Nodes[j].ParentNodeID)
	assert.Equal(t, "input-1-input-2", state.Edges[0].ID)

	// a topic was created lazily and titled from the prompt
	require.NotNil(t, state.Topic)
	assert.Equal(t, "why is the", state.Topic.Title)

	// the exchange was persisted at the backend
	snapshot, err := client.LoadGraph(ctx, state.Topic.ID)
	require.NoError(t, err)
	assert.Len(t, snapshot.Nodes, 2)
	assert.Len(t, snapshot.Edges, 1)
}

func TestEngine_BranchFanOut(t *testing.T) {
	client := startBackend(t, "answer one")
	engine := newEngine(t, client)
	ctx := context.Background()

	require.NoError(t, engine.Submit(ctx, "input-1", "first question"))
	require.NoError(t, engine.Branch(ctx, "input-1"))
	require.NoError(t, engine.Branch(ctx, "input-1"))

	state := canvasState(t, engine)
	require.Len(t, state.Nodes, 4)

	var children []string
	for _, edge := range state.Edges {
		if edge.Source == "input-1" {
			children = append(children, edge.Target)
		}
	}
	assert.Len(t, children, 3, "follow-up plus two branches hang off the answered node")

	// branching off an input node is silently refused
	require.NoError(t, engine.Branch(ctx, "input-2"))
	assert.Len(t, canvasState(t, engine).Nodes, 4)
}

func TestEngine_DeleteSelectionKeepsLastNode(t *testing.T) {
	client := startBackend(t, "answer")
	engine := newEngine(t, client)
	ctx := context.Background()

	require.NoError(t, engine.Submit(ctx, "input-1", "question"))

	// deleting everything would empty the canvas, so nothing happens
	require.NoError(t, engine.DeleteSelection(ctx, []string{"input-1", "input-2"}))
	assert.Len(t, canvasState(t, engine).Nodes, 2)

	// a partial delete goes through and takes the edge with it
	require.NoError(t, engine.DeleteSelection(ctx, []string{"input-2"}))
	state := canvasState(t, engine)
	assert.Len(t, state.Nodes, 1)
	assert.Empty(t, state.Edges)
}

func TestEngine_SwitchTopicResumesWhereLeftOff(t *testing.T) {
	client := startBackend(t, "first answer", "second answer")
	engine := newEngine(t, client)
	ctx := context.Background()

	require.NoError(t, engine.Submit(ctx, "input-1", "first question"))
	topic, ok := engine.ActiveTopic()
	require.True(t, ok)

	// a second engine instance against the same backend picks up the graph
	resumed := newEngine(t, client)
	require.NoError(t, resumed.SwitchTopic(ctx, topic.ID))

	state := canvasState(t, resumed)
	require.Len(t, state.Nodes, 2)
	i, ok := findByID(state, "input-1")
	require.True(t, ok)
	assert.Equal(t, "first answer", state.Nodes[i].AIResponse)

	// the id sequence resumes past the loaded nodes
	require.NoError(t, resumed.Submit(ctx, "input-2", "second question"))
	state = canvasState(t, resumed)
	_, ok = findByID(state, "input-3")
	assert.True(t, ok)
}

func TestEngine_NewTopicStartsFresh(t *testing.T) {
	client := startBackend(t, "answer")
	engine := newEngine(t, client)
	ctx := context.Background()

	require.NoError(t, engine.Submit(ctx, "input-1", "question"))

	summary, err := engine.NewTopic(ctx, "clean slate")
	require.NoError(t, err)
	assert.Equal(t, "clean slate", summary.Title)

	state := canvasState(t, engine)
	require.Len(t, state.Nodes, 1)
	assert.Equal(t, "input-1", state.Nodes[0].ID)
	assert.Empty(t, state.Nodes[0].AIResponse)

	topics, err := engine.ListTopics(ctx)
	require.NoError(t, err)
	assert.Len(t, topics, 2)
}

func TestEngine_MoveNodePersists(t *testing.T) {
	client := startBackend(t, "answer")
	engine := newEngine(t, client)
	ctx := context.Background()

	require.NoError(t, engine.Submit(ctx, "input-1", "question"))
	require.NoError(t, engine.MoveNode(ctx, "input-2", 900, 120))

	state := canvasState(t, engine)
	i, ok := findByID(state, "input-2")
	require.True(t, ok)
	assert.InDelta(t, 900, state.Nodes[i].PositionX, 1e-9)
	assert.InDelta(t, 120, state.Nodes[i].PositionY, 1e-9)

	snapshot, err := client.LoadGraph(ctx, state.Topic.ID)
	require.NoError(t, err)
	for _, node := range snapshot.Nodes {
		if node.ID == "input-2" {
			assert.InDelta(t, 900, node.PositionX, 1e-9)
		}
	}
}
