package services

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"rootie/application/ports"
	"rootie/domain/config"
	pkgerrors "rootie/pkg/errors"
)

// TopicService tracks which persisted graph backs the canvas and creates
// one lazily on the first submission. With no store attached the canvas
// runs unpersisted and every method degrades to a no-op or error.
type TopicService struct {
	store   ports.SnapshotStore
	canvas  *CanvasStore
	gateway *SnapshotGateway
	cfg     *config.DomainConfig
	logger  *zap.Logger

	mu     sync.Mutex
	active *ports.GraphSummary
}

// NewTopicService creates a topic service. store may be nil.
func NewTopicService(
	store ports.SnapshotStore,
	canvas *CanvasStore,
	gateway *SnapshotGateway,
	cfg *config.DomainConfig,
	logger *zap.Logger,
) *TopicService {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TopicService{
		store:   store,
		canvas:  canvas,
		gateway: gateway,
		cfg:     cfg,
		logger:  logger,
	}
}

// Active returns the currently displayed persisted graph, if any
func (s *TopicService) Active() (ports.GraphSummary, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return ports.GraphSummary{}, false
	}
	return *s.active, true
}

// ActiveID returns the active graph's ID, or "" when unpersisted
func (s *TopicService) ActiveID() string {
	summary, ok := s.Active()
	if !ok {
		return ""
	}
	return summary.ID
}

// EnsureActiveTopic guarantees a persisted graph backs the canvas before
// a submission streams. Without one it creates a graph titled with the
// prompt's leading runes; with a still-untitled one it renames it the
// same way as long as no exchange has completed yet.
func (s *TopicService) EnsureActiveTopic(ctx context.Context, prompt string) string {
	if s.store == nil {
		return ""
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	title := s.titleFor(prompt)
	if s.active == nil {
		summary, err := s.store.CreateGraph(ctx, title, "")
		if err != nil {
			s.logger.Warn("topic creation failed", zap.Error(err))
			return ""
		}
		s.active = &summary
		s.logger.Info("topic created",
			zap.String("graphID", summary.ID),
			zap.String("title", summary.Title),
		)
		return summary.ID
	}

	if strings.HasPrefix(s.active.Title, s.cfg.DefaultTopicPrefix) && !s.hasConversationNode() {
		summary, err := s.store.RenameGraph(ctx, s.active.ID, title)
		if err != nil {
			s.logger.Warn("topic rename failed",
				zap.String("graphID", s.active.ID),
				zap.Error(err),
			)
		} else {
			s.active = &summary
		}
	}
	return s.active.ID
}

// NewTopic creates an empty persisted graph and points the canvas at a
// fresh seed node.
func (s *TopicService) NewTopic(ctx context.Context, title string) (ports.GraphSummary, error) {
	if s.store == nil {
		return ports.GraphSummary{}, pkgerrors.NewUnavailableError("snapshot store")
	}
	if strings.TrimSpace(title) == "" {
		title = s.cfg.DefaultTopicPrefix
	}

	summary, err := s.store.CreateGraph(ctx, title, "")
	if err != nil {
		return ports.GraphSummary{}, pkgerrors.Wrap(err, "create topic")
	}

	s.mu.Lock()
	s.active = &summary
	s.mu.Unlock()

	s.canvas.Reset()
	return summary, nil
}

// SwitchTopic loads a persisted graph and makes it the displayed canvas
func (s *TopicService) SwitchTopic(ctx context.Context, graphID string) error {
	if s.store == nil {
		return pkgerrors.NewUnavailableError("snapshot store")
	}

	graph, summary, err := s.gateway.Load(ctx, graphID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.active = &summary
	s.mu.Unlock()

	if graph.NodeCount() == 0 {
		s.canvas.Reset()
		return nil
	}
	s.canvas.Replace(graph)
	return nil
}

// DeleteTopic removes a persisted graph. Deleting the displayed topic
// also resets the canvas to a fresh seed node.
func (s *TopicService) DeleteTopic(ctx context.Context, graphID string) error {
	if s.store == nil {
		return pkgerrors.NewUnavailableError("snapshot store")
	}

	if err := s.store.DeleteGraph(ctx, graphID); err != nil {
		return pkgerrors.Wrap(err, "delete topic")
	}

	s.mu.Lock()
	wasActive := s.active != nil && s.active.ID == graphID
	if wasActive {
		s.active = nil
	}
	s.mu.Unlock()

	if wasActive {
		s.canvas.Reset()
	}
	return nil
}

// ListTopics returns all persisted graphs
func (s *TopicService) ListTopics(ctx context.Context) ([]ports.GraphSummary, error) {
	if s.store == nil {
		return nil, pkgerrors.NewUnavailableError("snapshot store")
	}
	summaries, err := s.store.ListGraphs(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "list topics")
	}
	return summaries, nil
}

// MarkSaved records the freshest metadata after a snapshot save
func (s *TopicService) MarkSaved(summary ports.GraphSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != nil && s.active.ID == summary.ID {
		s.active = &summary
	}
}

func (s *TopicService) titleFor(prompt string) string {
	runes := []rune(strings.TrimSpace(prompt))
	if len(runes) > s.cfg.TopicTitleRunes {
		runes = runes[:s.cfg.TopicTitleRunes]
	}
	title := string(runes)
	if title == "" {
		title = s.cfg.DefaultTopicPrefix
	}
	return title
}

func (s *TopicService) hasConversationNode() bool {
	for _, node := range s.canvas.Graph().Nodes() {
		if node.IsConversation() {
			return true
		}
	}
	return false
}
