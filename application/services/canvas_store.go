package services

import (
	"sync"

	"go.uber.org/zap"

	"rootie/application/ports"
	"rootie/domain/config"
	"rootie/domain/core/aggregates"
	"rootie/domain/core/entities"
	"rootie/domain/core/valueobjects"
)

// CanvasStore owns the live graph value and the identifier allocator. It
// is the single source of truth for the canvas: every mutation swaps the
// graph pointer wholesale and republishes the full node/edge snapshot to
// the observer, so the renderer never sees a partial update.
type CanvasStore struct {
	mu        sync.RWMutex
	graph     *aggregates.Graph
	allocator *valueobjects.Allocator
	observer  ports.CanvasObserver
	cfg       *config.DomainConfig
	logger    *zap.Logger
}

// NewCanvasStore creates a store seeded with a single empty input node
func NewCanvasStore(cfg *config.DomainConfig, logger *zap.Logger) *CanvasStore {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &CanvasStore{
		allocator: valueobjects.NewAllocator(1),
		cfg:       cfg,
		logger:    logger,
	}
	s.graph = s.seedGraph()
	return s
}

// SetObserver registers the canvas observer. Passing nil detaches it.
func (s *CanvasStore) SetObserver(observer ports.CanvasObserver) {
	s.mu.Lock()
	s.observer = observer
	s.mu.Unlock()
	s.publish()
}

// Graph returns the current graph value
func (s *CanvasStore) Graph() *aggregates.Graph {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.graph
}

// Allocator returns the store's identifier allocator
func (s *CanvasStore) Allocator() *valueobjects.Allocator {
	return s.allocator
}

// Config returns the store's domain configuration
func (s *CanvasStore) Config() *config.DomainConfig {
	return s.cfg
}

// Apply runs a transform against the current graph and, on success,
// swaps in the produced value and republishes the snapshot. The transform
// must not retain the graph it is given.
func (s *CanvasStore) Apply(transform func(g *aggregates.Graph) (*aggregates.Graph, error)) error {
	s.mu.Lock()
	next, err := transform(s.graph)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.commitLocked(next)
	s.mu.Unlock()

	s.publish()
	return nil
}

// Reset clears the canvas back to a single fresh input node and restarts
// the allocator, used when the active topic is deleted or a new topic
// starts from scratch.
func (s *CanvasStore) Reset() {
	s.mu.Lock()
	s.allocator.Reset(1)
	s.graph = s.seedGraph()
	s.mu.Unlock()

	s.publish()
}

// Replace swaps in a rehydrated graph and resumes the allocator one past
// the highest ordinal present in it.
func (s *CanvasStore) Replace(graph *aggregates.Graph) {
	maxOrdinal := 0
	for _, node := range graph.Nodes() {
		if ord := node.ID().Ordinal(); ord > maxOrdinal {
			maxOrdinal = ord
		}
	}

	s.mu.Lock()
	s.allocator.ResumeFrom(maxOrdinal)
	s.commitLocked(graph)
	s.mu.Unlock()

	s.publish()
}

// Snapshot returns the current node and edge sets
func (s *CanvasStore) Snapshot() ([]*entities.Node, []*entities.Edge) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.graph.Nodes(), s.graph.Edges()
}

func (s *CanvasStore) commitLocked(next *aggregates.Graph) {
	for _, event := range next.GetUncommittedEvents() {
		s.logger.Debug("canvas event",
			zap.String("type", event.GetEventType()),
			zap.String("aggregate", event.GetAggregateID()),
		)
	}
	s.graph = next.MarkEventsAsCommitted()
}

func (s *CanvasStore) publish() {
	s.mu.RLock()
	observer := s.observer
	graph := s.graph
	s.mu.RUnlock()

	if observer != nil {
		observer.CanvasUpdated(graph.Nodes(), graph.Edges())
	}
}

func (s *CanvasStore) seedGraph() *aggregates.Graph {
	graph := aggregates.NewGraph(s.cfg)
	pos, _ := valueobjects.NewPosition(s.cfg.SeedPositionX, s.cfg.SeedPositionY)
	seed, err := entities.NewInputNode(s.allocator.Next(), pos)
	if err != nil {
		// Allocator ids are never empty; this cannot happen.
		s.logger.Error("failed to seed canvas", zap.Error(err))
		return graph
	}
	seeded, err := graph.AddNode(seed)
	if err != nil {
		s.logger.Error("failed to seed canvas", zap.Error(err))
		return graph
	}
	return seeded
}
