package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"rootie/application/ports"
	"rootie/domain/config"
	"rootie/domain/core/entities"
	"rootie/domain/core/valueobjects"
	"rootie/domain/layout"
	pkgerrors "rootie/pkg/errors"
)

type fakeStreamer struct {
	mu      sync.Mutex
	calls   int
	lastReq ports.ChatStreamRequest
	body    string
	err     error
}

func (f *fakeStreamer) StreamChat(ctx context.Context, req ports.ChatStreamRequest) (io.ReadCloser, error) {
	f.mu.Lock()
	f.calls++
	f.lastReq = req
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return io.NopCloser(strings.NewReader(f.body)), nil
}

func (f *fakeStreamer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func streamBody(records ...string) string {
	var b strings.Builder
	for _, record := range records {
		b.WriteString("data: ")
		b.WriteString(record)
		b.WriteString("\n\n")
	}
	return b.String()
}

func newExchangeFixture(t *testing.T, streamer ports.ChatStreamer) (*ExchangeService, *CanvasStore) {
	t.Helper()
	cfg := config.DefaultDomainConfig()
	logger := zap.NewNop()
	canvas := NewCanvasStore(cfg, logger)
	gateway := NewSnapshotGateway(nil, cfg, logger)
	topics := NewTopicService(nil, canvas, gateway, cfg, logger)
	engine := layout.NewEngine(nil, cfg)
	return NewExchangeService(canvas, topics, gateway, engine, streamer, cfg, logger), canvas
}

func findNode(t *testing.T, canvas *CanvasStore, id string) *entities.Node {
	t.Helper()
	nodeID, err := valueobjects.NewNodeIDFromString(id)
	require.NoError(t, err)
	node, ok := canvas.Graph().Node(nodeID)
	require.True(t, ok, "node %s not found", id)
	return node
}

func TestExchangeService_Submit_CompleteIsAuthoritative(t *testing.T) {
	streamer := &fakeStreamer{body: streamBody(
		`{"type":"init","node_id":"input-1"}`,
		`{"type":"chunk","content":"Hel"}`,
		`{"type":"chunk","content":"lo"}`,
		`{"type":"complete","full_response":"Hello!"}`,
	)}
	service, canvas := newExchangeFixture(t, streamer)

	err := service.Submit(context.Background(), "input-1", "hi there")
	require.NoError(t, err)

	answered := findNode(t, canvas, "input-1")
	assert.True(t, answered.IsConversation())
	assert.Equal(t, "hi there", answered.Dialogue().Question())
	assert.Equal(t, "Hello!", answered.Dialogue().Answer(), "full_response wins over concatenation")

	followUp := findNode(t, canvas, "input-2")
	assert.True(t, followUp.IsInput())
	assert.Equal(t, 2, canvas.Graph().NodeCount())
	require.Equal(t, 1, canvas.Graph().EdgeCount())
	assert.Equal(t, "input-1-input-2", canvas.Graph().Edges()[0].ID)

	// Follow-up sits left-aligned one row below its parent.
	cfg := canvas.Config()
	assert.InDelta(t, answered.Position().X(), followUp.Position().X(), 1e-9)
	assert.InDelta(t,
		answered.Position().Y()+cfg.FallbackNodeHeight+cfg.FollowUpVerticalGap,
		followUp.Position().Y(), 1e-9)
}

func TestExchangeService_Submit_EOFWithoutCompleteFinalizes(t *testing.T) {
	streamer := &fakeStreamer{body: streamBody(
		`{"type":"chunk","content":"partial "}`,
		`{"type":"chunk","content":"answer"}`,
	)}
	service, canvas := newExchangeFixture(t, streamer)

	require.NoError(t, service.Submit(context.Background(), "input-1", "q"))

	answered := findNode(t, canvas, "input-1")
	assert.Equal(t, "partial answer", answered.Dialogue().Answer())
	assert.Equal(t, 2, canvas.Graph().NodeCount(), "follow-up still created at stream end")
}

func TestExchangeService_Submit_CompleteThenEOFCreatesOneFollowUp(t *testing.T) {
	streamer := &fakeStreamer{body: streamBody(
		`{"type":"chunk","content":"Hi"}`,
		`{"type":"complete","full_response":"Hi"}`,
	)}
	service, canvas := newExchangeFixture(t, streamer)

	require.NoError(t, service.Submit(context.Background(), "input-1", "q"))

	assert.Equal(t, 2, canvas.Graph().NodeCount())
	assert.Equal(t, 1, canvas.Graph().EdgeCount())
}

func TestExchangeService_Submit_MalformedRecordsDropped(t *testing.T) {
	body := "data: {not json}\n\n" +
		"noise without prefix\n\n" +
		streamBody(`{"type":"chunk","content":"ok"}`, `{"type":"complete","full_response":"ok"}`) +
		"data: {\"type\":\"chunk\",\"content\":\"unterminated tail"
	streamer := &fakeStreamer{body: body}
	service, canvas := newExchangeFixture(t, streamer)

	require.NoError(t, service.Submit(context.Background(), "input-1", "q"))

	answered := findNode(t, canvas, "input-1")
	assert.Equal(t, "ok", answered.Dialogue().Answer())
}

func TestExchangeService_Submit_ErrorRecordWritesDiagnostic(t *testing.T) {
	streamer := &fakeStreamer{body: streamBody(
		`{"type":"chunk","content":"partial"}`,
		`{"type":"error","error":"model exploded"}`,
	)}
	service, canvas := newExchangeFixture(t, streamer)

	require.NoError(t, service.Submit(context.Background(), "input-1", "q"))

	answered := findNode(t, canvas, "input-1")
	assert.True(t, answered.IsConversation(), "node keeps its conversation state for retry branching")
	assert.Contains(t, answered.Dialogue().Answer(), "model exploded")
	assert.Equal(t, 1, canvas.Graph().NodeCount(), "no follow-up on failure")
}

func TestExchangeService_Submit_TransportErrorWritesDiagnostic(t *testing.T) {
	streamer := &fakeStreamer{err: errors.New("connection refused")}
	service, canvas := newExchangeFixture(t, streamer)

	require.NoError(t, service.Submit(context.Background(), "input-1", "q"))

	answered := findNode(t, canvas, "input-1")
	assert.Contains(t, answered.Dialogue().Answer(), "connection refused")
	assert.Equal(t, 1, canvas.Graph().NodeCount())
}

func TestExchangeService_Submit_EmptyPromptIsNoOp(t *testing.T) {
	streamer := &fakeStreamer{}
	service, canvas := newExchangeFixture(t, streamer)

	require.NoError(t, service.Submit(context.Background(), "input-1", "   \n\t"))

	assert.Equal(t, 0, streamer.callCount())
	assert.True(t, findNode(t, canvas, "input-1").IsInput())
}

func TestExchangeService_Submit_RejectsAnsweredNode(t *testing.T) {
	streamer := &fakeStreamer{body: streamBody(`{"type":"complete","full_response":"a"}`)}
	service, _ := newExchangeFixture(t, streamer)

	require.NoError(t, service.Submit(context.Background(), "input-1", "first"))

	err := service.Submit(context.Background(), "input-1", "again")
	assert.True(t, pkgerrors.IsConflict(err))
}

// blockingStreamer parks the stream until released so a second
// submission can race the first.
type blockingStreamer struct {
	fakeStreamer
	started chan struct{}
	release chan struct{}
}

type blockingBody struct {
	release <-chan struct{}
	done    bool
}

func (b *blockingBody) Read(p []byte) (int, error) {
	if b.done {
		return 0, io.EOF
	}
	<-b.release
	b.done = true
	record := fmt.Sprintf("data: %s\n\n", `{"type":"complete","full_response":"done"}`)
	return copy(p, record), nil
}

func (b *blockingBody) Close() error { return nil }

func (s *blockingStreamer) StreamChat(ctx context.Context, req ports.ChatStreamRequest) (io.ReadCloser, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	close(s.started)
	return &blockingBody{release: s.release}, nil
}

func TestExchangeService_Submit_BusyIsSilentNoOp(t *testing.T) {
	streamer := &blockingStreamer{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	service, canvas := newExchangeFixture(t, streamer)

	done := make(chan error, 1)
	go func() {
		done <- service.Submit(context.Background(), "input-1", "first")
	}()

	select {
	case <-streamer.started:
	case <-time.After(2 * time.Second):
		t.Fatal("first submission never reached the streamer")
	}

	assert.True(t, service.Busy())
	require.NoError(t, service.Submit(context.Background(), "input-1", "second"))
	assert.Equal(t, 1, streamer.callCount(), "concurrent submission must not open a second stream")

	close(streamer.release)
	require.NoError(t, <-done)

	assert.False(t, service.Busy())
	answered := findNode(t, canvas, "input-1")
	assert.Equal(t, "done", answered.Dialogue().Answer())
	assert.Equal(t, "first", answered.Dialogue().Question())
}

func TestExchangeService_Submit_RequestCarriesParent(t *testing.T) {
	streamer := &fakeStreamer{body: streamBody(`{"type":"complete","full_response":"a"}`)}
	service, canvas := newExchangeFixture(t, streamer)

	require.NoError(t, service.Submit(context.Background(), "input-1", "root question"))
	require.NoError(t, service.Submit(context.Background(), "input-2", "follow up"))

	assert.Equal(t, "follow up", streamer.lastReq.Prompt)
	assert.Equal(t, "input-1", streamer.lastReq.ParentNodeID)
	assert.Equal(t, "input-2", streamer.lastReq.NodeID)
	assert.Equal(t, 3, canvas.Graph().NodeCount())
}
