// Package handlers wires canvas commands to the services that execute
// them.
package handlers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"rootie/application/commands"
	"rootie/application/commands/bus"
	"rootie/application/services"
	"rootie/domain/core/aggregates"
	"rootie/domain/core/entities"
	"rootie/domain/core/valueobjects"
	"rootie/domain/layout"
	pkgerrors "rootie/pkg/errors"
)

// SubmitPromptHandler runs a prompt submission through the exchange
// service
type SubmitPromptHandler struct {
	exchange *services.ExchangeService
}

// NewSubmitPromptHandler creates a new handler instance
func NewSubmitPromptHandler(exchange *services.ExchangeService) *SubmitPromptHandler {
	return &SubmitPromptHandler{exchange: exchange}
}

// Handle executes the submit command
func (h *SubmitPromptHandler) Handle(ctx context.Context, cmd bus.Command) error {
	submit, ok := cmd.(commands.SubmitPromptCommand)
	if !ok {
		return fmt.Errorf("unexpected command type %T", cmd)
	}
	return h.exchange.Submit(ctx, submit.NodeID, submit.Text)
}

// CreateBranchHandler spawns a new input node under a conversation node
type CreateBranchHandler struct {
	canvas  *services.CanvasStore
	topics  *services.TopicService
	gateway *services.SnapshotGateway
	layout  *layout.Engine
	logger  *zap.Logger
}

// NewCreateBranchHandler creates a new handler instance
func NewCreateBranchHandler(
	canvas *services.CanvasStore,
	topics *services.TopicService,
	gateway *services.SnapshotGateway,
	layoutEngine *layout.Engine,
	logger *zap.Logger,
) *CreateBranchHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CreateBranchHandler{
		canvas:  canvas,
		topics:  topics,
		gateway: gateway,
		layout:  layoutEngine,
		logger:  logger,
	}
}

// Handle executes the branch command. Branching from an input node or an
// unknown node is a silent no-op.
func (h *CreateBranchHandler) Handle(ctx context.Context, cmd bus.Command) error {
	branch, ok := cmd.(commands.CreateBranchCommand)
	if !ok {
		return fmt.Errorf("unexpected command type %T", cmd)
	}

	sourceID, err := valueobjects.NewNodeIDFromString(branch.SourceID)
	if err != nil {
		return err
	}

	err = h.canvas.Apply(func(g *aggregates.Graph) (*aggregates.Graph, error) {
		source, found := g.Node(sourceID)
		if !found || !source.IsConversation() {
			return nil, pkgerrors.NewInvariantError("branch source must be a conversation node")
		}

		var position valueobjects.Position
		if branch.Detached {
			position = h.layout.PlaceDetached(source)
		} else {
			position = h.layout.PlaceBranch(source, g.InputChildren(sourceID))
		}

		child, cerr := entities.NewInputNode(h.canvas.Allocator().Next(), position)
		if cerr != nil {
			return nil, cerr
		}
		g, cerr = g.AddNode(child)
		if cerr != nil {
			return nil, cerr
		}
		g, _, cerr = g.AddEdge(sourceID, child.ID())
		return g, cerr
	})
	if err != nil {
		if pkgerrors.IsInvariant(err) {
			h.logger.Debug("branch ignored", zap.String("sourceID", branch.SourceID), zap.Error(err))
			return nil
		}
		return err
	}

	h.gateway.Save(ctx, h.topics.ActiveID(), h.canvas.Graph())
	return nil
}

// DeleteSelectionHandler removes selected nodes with their incident edges
type DeleteSelectionHandler struct {
	canvas  *services.CanvasStore
	topics  *services.TopicService
	gateway *services.SnapshotGateway
	logger  *zap.Logger
}

// NewDeleteSelectionHandler creates a new handler instance
func NewDeleteSelectionHandler(
	canvas *services.CanvasStore,
	topics *services.TopicService,
	gateway *services.SnapshotGateway,
	logger *zap.Logger,
) *DeleteSelectionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DeleteSelectionHandler{
		canvas:  canvas,
		topics:  topics,
		gateway: gateway,
		logger:  logger,
	}
}

// Handle executes the delete command. A deletion that would empty the
// canvas is refused and reported as a no-op.
func (h *DeleteSelectionHandler) Handle(ctx context.Context, cmd bus.Command) error {
	del, ok := cmd.(commands.DeleteSelectionCommand)
	if !ok {
		return fmt.Errorf("unexpected command type %T", cmd)
	}

	ids := make([]valueobjects.NodeID, 0, len(del.NodeIDs))
	for _, raw := range del.NodeIDs {
		id, err := valueobjects.NewNodeIDFromString(raw)
		if err != nil {
			return err
		}
		ids = append(ids, id)
	}

	err := h.canvas.Apply(func(g *aggregates.Graph) (*aggregates.Graph, error) {
		return g.RemoveNodes(ids)
	})
	if err != nil {
		if pkgerrors.IsInvariant(err) {
			h.logger.Debug("deletion refused", zap.Strings("nodeIDs", del.NodeIDs), zap.Error(err))
			return nil
		}
		return err
	}

	h.gateway.Save(ctx, h.topics.ActiveID(), h.canvas.Graph())
	return nil
}

// MoveNodeHandler records a node's new position
type MoveNodeHandler struct {
	canvas  *services.CanvasStore
	topics  *services.TopicService
	gateway *services.SnapshotGateway
}

// NewMoveNodeHandler creates a new handler instance
func NewMoveNodeHandler(
	canvas *services.CanvasStore,
	topics *services.TopicService,
	gateway *services.SnapshotGateway,
) *MoveNodeHandler {
	return &MoveNodeHandler{canvas: canvas, topics: topics, gateway: gateway}
}

// Handle executes the move command
func (h *MoveNodeHandler) Handle(ctx context.Context, cmd bus.Command) error {
	move, ok := cmd.(commands.MoveNodeCommand)
	if !ok {
		return fmt.Errorf("unexpected command type %T", cmd)
	}

	id, err := valueobjects.NewNodeIDFromString(move.NodeID)
	if err != nil {
		return err
	}
	position, err := valueobjects.NewPosition(move.X, move.Y)
	if err != nil {
		return err
	}

	err = h.canvas.Apply(func(g *aggregates.Graph) (*aggregates.Graph, error) {
		node, found := g.Node(id)
		if !found {
			return nil, pkgerrors.NewNotFoundError("node " + move.NodeID)
		}
		return g.ReplaceNode(node.MoveTo(position))
	})
	if err != nil {
		return err
	}

	h.gateway.Save(ctx, h.topics.ActiveID(), h.canvas.Graph())
	return nil
}
