package services

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"rootie/application/ports"
	"rootie/domain/config"
	"rootie/domain/core/aggregates"
	"rootie/domain/core/entities"
	"rootie/domain/core/valueobjects"
	"rootie/domain/layout"
	pkgerrors "rootie/pkg/errors"
)

const streamDataPrefix = "data: "

// streamRecord is one decoded line of the backend's chat stream
type streamRecord struct {
	Type         string `json:"type"`
	Content      string `json:"content,omitempty"`
	FullResponse string `json:"full_response,omitempty"`
	Error        string `json:"error,omitempty"`
	NodeID       string `json:"node_id,omitempty"`
}

// ExchangeService runs prompt submissions: it converts the input node,
// streams the model's answer into it chunk by chunk, and spawns the
// follow-up input node on completion. At most one exchange is in flight
// per service instance; a submission while one is outstanding is a
// silent no-op.
type ExchangeService struct {
	canvas   *CanvasStore
	topics   *TopicService
	gateway  *SnapshotGateway
	layout   *layout.Engine
	streamer ports.ChatStreamer
	cfg      *config.DomainConfig
	logger   *zap.Logger

	slot chan struct{}
}

// NewExchangeService creates an exchange service
func NewExchangeService(
	canvas *CanvasStore,
	topics *TopicService,
	gateway *SnapshotGateway,
	layoutEngine *layout.Engine,
	streamer ports.ChatStreamer,
	cfg *config.DomainConfig,
	logger *zap.Logger,
) *ExchangeService {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExchangeService{
		canvas:   canvas,
		topics:   topics,
		gateway:  gateway,
		layout:   layoutEngine,
		streamer: streamer,
		cfg:      cfg,
		logger:   logger,
		slot:     make(chan struct{}, 1),
	}
}

// Busy reports whether an exchange is currently in flight
func (s *ExchangeService) Busy() bool {
	return len(s.slot) > 0
}

// Submit runs one full exchange on the given input node. It blocks until
// the stream finishes. Empty prompts and submissions while another
// exchange is in flight return nil without touching the graph.
func (s *ExchangeService) Submit(ctx context.Context, nodeID string, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	select {
	case s.slot <- struct{}{}:
	default:
		s.logger.Debug("submission ignored, exchange in flight", zap.String("nodeID", nodeID))
		return nil
	}
	defer func() { <-s.slot }()

	id, err := valueobjects.NewNodeIDFromString(nodeID)
	if err != nil {
		return err
	}

	node, ok := s.canvas.Graph().Node(id)
	if !ok {
		return pkgerrors.NewNotFoundError("node "+nodeID)
	}
	if !node.IsInput() {
		return pkgerrors.NewConflictError("node has already been submitted")
	}

	graphID := s.topics.EnsureActiveTopic(ctx, text)
	parentID := ""
	if parent, hasParent := s.canvas.Graph().ParentOf(id); hasParent {
		parentID = parent.String()
	}

	// Show the question with a placeholder answer before the first
	// chunk arrives.
	err = s.canvas.Apply(func(g *aggregates.Graph) (*aggregates.Graph, error) {
		current, found := g.Node(id)
		if !found {
			return nil, pkgerrors.NewNotFoundError("node "+nodeID)
		}
		converted, cerr := current.ToConversation(text, s.cfg.ThinkingPlaceholder)
		if cerr != nil {
			return nil, cerr
		}
		return g.ReplaceNode(converted)
	})
	if err != nil {
		return err
	}

	req := ports.ChatStreamRequest{
		Prompt:       text,
		ParentNodeID: parentID,
		NodeID:       nodeID,
	}
	if graphID != "" {
		req.GraphID = graphID
		req.Nodes, _ = s.gateway.Flatten(s.canvas.Graph())
	}

	body, err := s.streamer.StreamChat(ctx, req)
	if err != nil {
		s.fail(id, err)
		return nil
	}
	defer body.Close()

	s.consume(ctx, id, graphID, body)
	return nil
}

// consume drains the stream, growing the node's answer per chunk and
// finalizing the exchange exactly once.
func (s *ExchangeService) consume(ctx context.Context, id valueobjects.NodeID, graphID string, body io.Reader) {
	reader := bufio.NewReader(body)
	accumulated := ""
	finalized := false

	for {
		line, readErr := reader.ReadString('\n')
		if readErr != nil {
			// An unterminated trailing line is an incomplete record
			// and is discarded.
			if readErr == io.EOF {
				if !finalized {
					s.finalize(ctx, id, graphID, accumulated)
				}
			} else if !finalized {
				s.fail(id, readErr)
			}
			return
		}

		line = strings.TrimRight(line, "\r\n")
		if line == "" || !strings.HasPrefix(line, streamDataPrefix) {
			continue
		}

		var record streamRecord
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, streamDataPrefix)), &record); err != nil {
			s.logger.Warn("dropping malformed stream record",
				zap.String("line", line),
				zap.Error(err),
			)
			continue
		}

		switch record.Type {
		case "init":
			s.logger.Debug("stream opened",
				zap.String("nodeID", id.String()),
				zap.String("streamNodeID", record.NodeID),
			)
		case "chunk":
			if finalized {
				continue
			}
			accumulated += record.Content
			s.setAnswer(id, accumulated)
		case "complete":
			if finalized {
				continue
			}
			if record.FullResponse != "" {
				accumulated = record.FullResponse
			}
			s.finalize(ctx, id, graphID, accumulated)
			finalized = true
		case "error":
			if finalized {
				continue
			}
			s.fail(id, fmt.Errorf("%s", record.Error))
			finalized = true
		default:
			s.logger.Warn("unknown stream record type", zap.String("type", record.Type))
		}
	}
}

// finalize writes the final answer and spawns the follow-up input node
// directly below, linked by an edge.
func (s *ExchangeService) finalize(ctx context.Context, id valueobjects.NodeID, graphID string, answer string) {
	err := s.canvas.Apply(func(g *aggregates.Graph) (*aggregates.Graph, error) {
		node, ok := g.Node(id)
		if !ok {
			return nil, pkgerrors.NewNotFoundError("node "+id.String())
		}
		answered, aerr := node.WithAnswer(answer)
		if aerr != nil {
			return nil, aerr
		}
		g, aerr = g.ReplaceNode(answered)
		if aerr != nil {
			return nil, aerr
		}

		followUp, aerr := entities.NewInputNode(
			s.canvas.Allocator().Next(),
			s.layout.PlaceFollowUp(answered),
		)
		if aerr != nil {
			return nil, aerr
		}
		g, aerr = g.AddNode(followUp)
		if aerr != nil {
			return nil, aerr
		}
		g, _, aerr = g.AddEdge(id, followUp.ID())
		return g, aerr
	})
	if err != nil {
		s.logger.Error("failed to finalize exchange",
			zap.String("nodeID", id.String()),
			zap.Error(err),
		)
		return
	}

	s.gateway.Save(ctx, graphID, s.canvas.Graph())
}

// fail overwrites the answer with a user-visible diagnostic. The node
// keeps its branch capability and no follow-up node is created.
func (s *ExchangeService) fail(id valueobjects.NodeID, cause error) {
	s.logger.Warn("exchange failed",
		zap.String("nodeID", id.String()),
		zap.Error(cause),
	)
	message := fmt.Sprintf(
		"Sorry, an error occurred: %v. Please check that the backend service is running.",
		cause,
	)
	s.setAnswer(id, message)
}

func (s *ExchangeService) setAnswer(id valueobjects.NodeID, answer string) {
	err := s.canvas.Apply(func(g *aggregates.Graph) (*aggregates.Graph, error) {
		node, ok := g.Node(id)
		if !ok {
			return nil, pkgerrors.NewNotFoundError("node "+id.String())
		}
		updated, uerr := node.WithAnswer(answer)
		if uerr != nil {
			return nil, uerr
		}
		return g.ReplaceNode(updated)
	})
	if err != nil {
		s.logger.Error("failed to update answer",
			zap.String("nodeID", id.String()),
			zap.Error(err),
		)
	}
}
