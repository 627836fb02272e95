// Package application assembles the conversation-canvas engine: the
// command and query buses, the services behind them, and a stable facade
// surface for callers such as the CLI or an embedding UI.
package application

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"rootie/application/commands"
	cmdbus "rootie/application/commands/bus"
	"rootie/application/commands/handlers"
	"rootie/application/ports"
	"rootie/application/queries"
	querybus "rootie/application/queries/bus"
	"rootie/application/services"
	"rootie/domain/config"
	"rootie/domain/layout"
)

// Engine is the canvas engine facade. Its method set is the stable
// surface callers program against; internals may be rearranged freely
// behind it.
type Engine struct {
	canvas   *services.CanvasStore
	topics   *services.TopicService
	gateway  *services.SnapshotGateway
	exchange *services.ExchangeService
	commands *cmdbus.CommandBus
	queries  *querybus.QueryBus
	logger   *zap.Logger
}

// Options configures engine construction. Store may be nil for an
// unpersisted canvas; Measurer may be nil to always use fallback node
// sizes.
type Options struct {
	Streamer ports.ChatStreamer
	Store    ports.SnapshotStore
	Measurer layout.Measurer
	Config   *config.DomainConfig
	Logger   *zap.Logger
}

// NewEngine wires up a complete engine
func NewEngine(opts Options) (*Engine, error) {
	if opts.Streamer == nil {
		return nil, fmt.Errorf("engine requires a chat streamer")
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	canvas := services.NewCanvasStore(cfg, logger)
	gateway := services.NewSnapshotGateway(opts.Store, cfg, logger)
	topics := services.NewTopicService(opts.Store, canvas, gateway, cfg, logger)
	layoutEngine := layout.NewEngine(opts.Measurer, cfg)
	exchange := services.NewExchangeService(canvas, topics, gateway, layoutEngine, opts.Streamer, cfg, logger)

	commandBus := cmdbus.NewCommandBus()
	commandBus.Use(cmdbus.LoggingMiddleware(logger))
	registrations := []struct {
		cmd     cmdbus.Command
		handler cmdbus.CommandHandler
	}{
		{commands.SubmitPromptCommand{}, handlers.NewSubmitPromptHandler(exchange)},
		{commands.CreateBranchCommand{}, handlers.NewCreateBranchHandler(canvas, topics, gateway, layoutEngine, logger)},
		{commands.DeleteSelectionCommand{}, handlers.NewDeleteSelectionHandler(canvas, topics, gateway, logger)},
		{commands.MoveNodeCommand{}, handlers.NewMoveNodeHandler(canvas, topics, gateway)},
	}
	for _, r := range registrations {
		if err := commandBus.Register(r.cmd, r.handler); err != nil {
			return nil, err
		}
	}

	queryBus := querybus.NewQueryBus()
	if err := queryBus.Register(queries.GetCanvasStateQuery{}, queries.NewGetCanvasStateHandler(canvas, topics, gateway)); err != nil {
		return nil, err
	}
	if err := queryBus.Register(queries.ListTopicsQuery{}, queries.NewListTopicsHandler(topics)); err != nil {
		return nil, err
	}

	return &Engine{
		canvas:   canvas,
		topics:   topics,
		gateway:  gateway,
		exchange: exchange,
		commands: commandBus,
		queries:  queryBus,
		logger:   logger,
	}, nil
}

// SetObserver installs the renderer callback; it receives the current
// snapshot immediately and again after every mutation.
func (e *Engine) SetObserver(observer ports.CanvasObserver) {
	e.canvas.SetObserver(observer)
}

// Submit runs a full prompt exchange on an input node, blocking until
// the stream finishes. A second call while one is in flight returns
// immediately without effect.
func (e *Engine) Submit(ctx context.Context, nodeID, text string) error {
	return e.commands.Send(ctx, commands.SubmitPromptCommand{NodeID: nodeID, Text: text})
}

// Branch spawns a sibling input node under a conversation node
func (e *Engine) Branch(ctx context.Context, sourceID string) error {
	return e.commands.Send(ctx, commands.CreateBranchCommand{SourceID: sourceID})
}

// BranchDetached spawns a branch placed at the drag-to-empty-canvas
// offset instead of the sibling row.
func (e *Engine) BranchDetached(ctx context.Context, sourceID string) error {
	return e.commands.Send(ctx, commands.CreateBranchCommand{SourceID: sourceID, Detached: true})
}

// DeleteSelection removes nodes with their incident edges. Deleting
// every remaining node is refused.
func (e *Engine) DeleteSelection(ctx context.Context, nodeIDs []string) error {
	return e.commands.Send(ctx, commands.DeleteSelectionCommand{NodeIDs: nodeIDs})
}

// MoveNode records a node position after a drag
func (e *Engine) MoveNode(ctx context.Context, nodeID string, x, y float64) error {
	return e.commands.Send(ctx, commands.MoveNodeCommand{NodeID: nodeID, X: x, Y: y})
}

// CanvasState returns the current flattened canvas view
func (e *Engine) CanvasState(ctx context.Context) (*queries.CanvasStateResult, error) {
	result, err := e.queries.Ask(ctx, queries.GetCanvasStateQuery{})
	if err != nil {
		return nil, err
	}
	state, ok := result.(*queries.CanvasStateResult)
	if !ok {
		return nil, fmt.Errorf("unexpected query result type %T", result)
	}
	return state, nil
}

// ListTopics returns all persisted graphs
func (e *Engine) ListTopics(ctx context.Context) ([]ports.GraphSummary, error) {
	result, err := e.queries.Ask(ctx, queries.ListTopicsQuery{})
	if err != nil {
		return nil, err
	}
	summaries, ok := result.([]ports.GraphSummary)
	if !ok {
		return nil, fmt.Errorf("unexpected query result type %T", result)
	}
	return summaries, nil
}

// NewTopic creates an empty persisted graph and resets the canvas
func (e *Engine) NewTopic(ctx context.Context, title string) (ports.GraphSummary, error) {
	return e.topics.NewTopic(ctx, title)
}

// SwitchTopic loads a persisted graph onto the canvas
func (e *Engine) SwitchTopic(ctx context.Context, graphID string) error {
	return e.topics.SwitchTopic(ctx, graphID)
}

// DeleteTopic removes a persisted graph, resetting the canvas if that
// graph was displayed.
func (e *Engine) DeleteTopic(ctx context.Context, graphID string) error {
	return e.topics.DeleteTopic(ctx, graphID)
}

// ActiveTopic returns the persisted graph backing the canvas, if any
func (e *Engine) ActiveTopic() (ports.GraphSummary, bool) {
	return e.topics.Active()
}

// Busy reports whether an exchange is in flight
func (e *Engine) Busy() bool {
	return e.exchange.Busy()
}
