package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"rootie/domain/config"

	"rootie/application/ports"
)

// fakeStore is an in-memory ports.SnapshotStore that records calls.
type fakeStore struct {
	graphs    map[string]ports.GraphSummary
	snapshots map[string]ports.GraphSnapshot
	nextID    int

	createCalls int
	renameCalls int
	saveCalls   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		graphs:    make(map[string]ports.GraphSummary),
		snapshots: make(map[string]ports.GraphSnapshot),
	}
}

func (f *fakeStore) ListGraphs(ctx context.Context) ([]ports.GraphSummary, error) {
	var out []ports.GraphSummary
	for _, g := range f.graphs {
		out = append(out, g)
	}
	return out, nil
}

func (f *fakeStore) CreateGraph(ctx context.Context, title, description string) (ports.GraphSummary, error) {
	f.createCalls++
	f.nextID++
	summary := ports.GraphSummary{
		ID:        fmt.Sprintf("graph-%d", f.nextID),
		Title:     title,
		CreatedAt: time.Now(),
	}
	f.graphs[summary.ID] = summary
	return summary, nil
}

func (f *fakeStore) RenameGraph(ctx context.Context, id, title string) (ports.GraphSummary, error) {
	f.renameCalls++
	summary, ok := f.graphs[id]
	if !ok {
		return ports.GraphSummary{}, fmt.Errorf("graph %s not found", id)
	}
	summary.Title = title
	f.graphs[id] = summary
	return summary, nil
}

func (f *fakeStore) DeleteGraph(ctx context.Context, id string) error {
	if _, ok := f.graphs[id]; !ok {
		return fmt.Errorf("graph %s not found", id)
	}
	delete(f.graphs, id)
	delete(f.snapshots, id)
	return nil
}

func (f *fakeStore) LoadGraph(ctx context.Context, id string) (ports.GraphSnapshot, error) {
	summary, ok := f.graphs[id]
	if !ok {
		return ports.GraphSnapshot{}, fmt.Errorf("graph %s not found", id)
	}
	snapshot := f.snapshots[id]
	snapshot.Graph = summary
	return snapshot, nil
}

func (f *fakeStore) SaveGraph(ctx context.Context, id string, nodes []ports.SnapshotNode, edges []ports.SnapshotEdge) error {
	f.saveCalls++
	if _, ok := f.graphs[id]; !ok {
		return fmt.Errorf("graph %s not found", id)
	}
	f.snapshots[id] = ports.GraphSnapshot{Nodes: nodes, Edges: edges}
	return nil
}

func newTopicFixture(t *testing.T) (*fakeStore, *CanvasStore, *TopicService) {
	t.Helper()
	cfg := config.DefaultDomainConfig()
	store := newFakeStore()
	canvas := NewCanvasStore(cfg, zap.NewNop())
	gateway := NewSnapshotGateway(store, cfg, zap.NewNop())
	topics := NewTopicService(store, canvas, gateway, cfg, zap.NewNop())
	return store, canvas, topics
}

func TestTopicService_EnsureActiveTopicCreatesLazily(t *testing.T) {
	tests := []struct {
		name      string
		prompt    string
		wantTitle string
	}{
		{"short prompt kept whole", "hi there", "hi there"},
		{"long prompt truncated", "what is the meaning of life", "what is th"},
		{"multibyte truncates on runes", "你好世界你好世界你好世界", "你好世界你好世界你好"},
		{"blank prompt falls back", "   ", "New Topic"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, _, topics := newTopicFixture(t)

			id := topics.EnsureActiveTopic(context.Background(), tt.prompt)
			require.NotEmpty(t, id)
			assert.Equal(t, 1, store.createCalls)
			assert.Equal(t, tt.wantTitle, store.graphs[id].Title)

			// a second call reuses the active graph
			again := topics.EnsureActiveTopic(context.Background(), tt.prompt)
			assert.Equal(t, id, again)
			assert.Equal(t, 1, store.createCalls)
		})
	}
}

func TestTopicService_EnsureActiveTopicRetitlesUntitledGraphs(t *testing.T) {
	store, canvas, topics := newTopicFixture(t)

	summary, err := topics.NewTopic(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "New Topic", summary.Title)

	id := topics.EnsureActiveTopic(context.Background(), "quantum entanglement")
	assert.Equal(t, summary.ID, id)
	assert.Equal(t, "quantum en", store.graphs[id].Title)

	// once an exchange has landed the title is locked in
	answerSeed(t, canvas, "q", "a")
	topics.EnsureActiveTopic(context.Background(), "something else entirely")
	assert.Equal(t, "quantum en", store.graphs[id].Title)
}

func TestTopicService_EnsureActiveTopicKeepsUserTitles(t *testing.T) {
	store, _, topics := newTopicFixture(t)

	summary, err := topics.NewTopic(context.Background(), "reading list")
	require.NoError(t, err)

	topics.EnsureActiveTopic(context.Background(), "first prompt")
	assert.Equal(t, "reading list", store.graphs[summary.ID].Title)
	assert.Zero(t, store.renameCalls)
}

func TestTopicService_NoStoreDegradesGracefully(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	canvas := NewCanvasStore(cfg, zap.NewNop())
	gateway := NewSnapshotGateway(nil, cfg, zap.NewNop())
	topics := NewTopicService(nil, canvas, gateway, cfg, zap.NewNop())

	assert.Empty(t, topics.EnsureActiveTopic(context.Background(), "hello"))
	assert.Empty(t, topics.ActiveID())

	_, err := topics.NewTopic(context.Background(), "t")
	assert.Error(t, err)
	assert.Error(t, topics.SwitchTopic(context.Background(), "graph-1"))
	assert.Error(t, topics.DeleteTopic(context.Background(), "graph-1"))
	_, err = topics.ListTopics(context.Background())
	assert.Error(t, err)
}

func TestTopicService_SwitchTopicReplacesCanvas(t *testing.T) {
	store, canvas, topics := newTopicFixture(t)

	summary, err := topics.NewTopic(context.Background(), "saved")
	require.NoError(t, err)
	store.snapshots[summary.ID] = ports.GraphSnapshot{
		Nodes: []ports.SnapshotNode{
			{ID: "input-1", UserPrompt: "q", AIResponse: "a", PositionX: 400, PositionY: 300},
			{ID: "input-2", ParentNodeID: "input-1", PositionX: 400, PositionY: 750},
		},
	}

	other, err := topics.NewTopic(context.Background(), "other")
	require.NoError(t, err)
	assert.Equal(t, other.ID, topics.ActiveID())

	require.NoError(t, topics.SwitchTopic(context.Background(), summary.ID))
	assert.Equal(t, summary.ID, topics.ActiveID())
	assert.Equal(t, 2, canvas.Graph().NodeCount())
	assert.Equal(t, 1, canvas.Graph().EdgeCount())
	assert.Equal(t, "input-3", canvas.Allocator().Next().String())
}

func TestTopicService_SwitchToEmptyTopicSeedsCanvas(t *testing.T) {
	_, canvas, topics := newTopicFixture(t)

	answerSeed(t, canvas, "q", "a")
	summary, err := topics.NewTopic(context.Background(), "blank")
	require.NoError(t, err)

	require.NoError(t, topics.SwitchTopic(context.Background(), summary.ID))
	nodes, _ := canvas.Snapshot()
	require.Len(t, nodes, 1)
	assert.Equal(t, "input-1", nodes[0].ID().String())
	assert.True(t, nodes[0].IsInput())
}

func TestTopicService_DeleteTopic(t *testing.T) {
	store, canvas, topics := newTopicFixture(t)

	active, err := topics.NewTopic(context.Background(), "active")
	require.NoError(t, err)
	answerSeed(t, canvas, "q", "a")

	require.NoError(t, topics.DeleteTopic(context.Background(), active.ID))
	_, ok := store.graphs[active.ID]
	assert.False(t, ok)
	assert.Empty(t, topics.ActiveID(), "deleting the displayed topic detaches it")

	nodes, _ := canvas.Snapshot()
	require.Len(t, nodes, 1)
	assert.True(t, nodes[0].IsInput(), "canvas resets when its topic disappears")

	// deleting a background topic leaves the canvas alone
	keep, err := topics.NewTopic(context.Background(), "keep")
	require.NoError(t, err)
	answerSeed(t, canvas, "q2", "a2")
	background, err := store.CreateGraph(context.Background(), "background", "")
	require.NoError(t, err)

	require.NoError(t, topics.DeleteTopic(context.Background(), background.ID))
	assert.Equal(t, keep.ID, topics.ActiveID())
	assert.Equal(t, 2, canvas.Graph().NodeCount())
}
