// Package layout computes canvas positions for newly created nodes. It is
// a pure placement service: it reads the current positions of the parent
// and its siblings at creation time and never relayouts existing nodes.
package layout

import (
	"rootie/domain/config"
	"rootie/domain/core/entities"
	"rootie/domain/core/valueobjects"
)

// Size is a rendered bounding box in canvas units
type Size struct {
	Width  float64
	Height float64
}

// Measurer reports the live rendered size of a node. The canvas renderer
// provides the real implementation; when a node cannot be measured the
// engine falls back to the configured nominal sizes, which keeps layout
// fully testable without a renderer.
type Measurer interface {
	Measure(id valueobjects.NodeID) (Size, bool)
}

// MeasurerFunc adapts a function to the Measurer interface
type MeasurerFunc func(id valueobjects.NodeID) (Size, bool)

// Measure implements Measurer
func (f MeasurerFunc) Measure(id valueobjects.NodeID) (Size, bool) {
	return f(id)
}

// Engine places new nodes relative to their parent
type Engine struct {
	measurer Measurer
	cfg      *config.DomainConfig
}

// NewEngine creates a layout engine. measurer may be nil.
func NewEngine(measurer Measurer, cfg *config.DomainConfig) *Engine {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &Engine{measurer: measurer, cfg: cfg}
}

// PlaceBranch positions a new input node below its parent. The first
// child is horizontally centered under the parent; later children fan out
// to the right of the current right-most input sibling. Only the
// siblings' positions at creation time are read.
func (e *Engine) PlaceBranch(parent *entities.Node, siblings []*entities.Node) valueobjects.Position {
	parentSize := e.sizeOf(parent.ID(), e.cfg.FallbackNodeWidth, e.cfg.FallbackNodeHeight)
	y := parent.Position().Y() + parentSize.Height + e.cfg.BranchVerticalGap

	if len(siblings) == 0 {
		x := parent.Position().X() + parentSize.Width/2 - e.cfg.InputNodeWidth/2
		return mustPosition(x, y)
	}

	rightmost := siblings[0]
	for _, sibling := range siblings[1:] {
		if sibling.Position().X() > rightmost.Position().X() {
			rightmost = sibling
		}
	}
	rightSize := e.sizeOf(rightmost.ID(), e.cfg.InputNodeWidth, e.cfg.FallbackNodeHeight)
	x := rightmost.Position().X() + rightSize.Width + e.cfg.HorizontalGap
	return mustPosition(x, y)
}

// PlaceFollowUp positions the input node auto-created under a node whose
// answer just completed: left-aligned with the parent, one row below.
func (e *Engine) PlaceFollowUp(parent *entities.Node) valueobjects.Position {
	parentSize := e.sizeOf(parent.ID(), e.cfg.FallbackNodeWidth, e.cfg.FallbackNodeHeight)
	x := parent.Position().X()
	y := parent.Position().Y() + parentSize.Height + e.cfg.FollowUpVerticalGap
	return mustPosition(x, y)
}

// PlaceDetached positions a branch spawned by dragging a connection from
// an answered node into empty canvas space.
func (e *Engine) PlaceDetached(parent *entities.Node) valueobjects.Position {
	x := parent.Position().X() + e.cfg.DetachedOffsetX
	y := parent.Position().Y() + e.cfg.DetachedOffsetY
	return mustPosition(x, y)
}

func (e *Engine) sizeOf(id valueobjects.NodeID, fallbackWidth, fallbackHeight float64) Size {
	if e.measurer != nil {
		if size, ok := e.measurer.Measure(id); ok && size.Width > 0 && size.Height > 0 {
			return size
		}
	}
	return Size{Width: fallbackWidth, Height: fallbackHeight}
}

// mustPosition builds a position from already-finite layout inputs
func mustPosition(x, y float64) valueobjects.Position {
	pos, err := valueobjects.NewPosition(x, y)
	if err != nil {
		pos, _ = valueobjects.NewPosition(0, 0)
	}
	return pos
}
