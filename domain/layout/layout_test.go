package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rootie/domain/config"
	"rootie/domain/core/entities"
	"rootie/domain/core/valueobjects"
)

func placedNode(t *testing.T, id string, x, y float64) *entities.Node {
	t.Helper()
	nodeID, err := valueobjects.NewNodeIDFromString(id)
	require.NoError(t, err)
	pos, err := valueobjects.NewPosition(x, y)
	require.NoError(t, err)
	node, err := entities.NewInputNode(nodeID, pos)
	require.NoError(t, err)
	return node
}

func TestEngine_PlaceBranch_FirstChildCentered(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	engine := NewEngine(nil, cfg)
	parent := placedNode(t, "input-1", 400, 300)

	pos := engine.PlaceBranch(parent, nil)

	// Centered under the fallback parent width against the new input
	// node width.
	wantX := 400 + cfg.FallbackNodeWidth/2 - cfg.InputNodeWidth/2
	wantY := 300 + cfg.FallbackNodeHeight + cfg.BranchVerticalGap
	assert.InDelta(t, wantX, pos.X(), 1e-9)
	assert.InDelta(t, wantY, pos.Y(), 1e-9)
}

func TestEngine_PlaceBranch_FansOutRight(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	engine := NewEngine(nil, cfg)
	parent := placedNode(t, "input-1", 400, 300)

	first := engine.PlaceBranch(parent, nil)
	siblings := []*entities.Node{placedNode(t, "input-2", first.X(), first.Y())}

	second := engine.PlaceBranch(parent, siblings)
	assert.GreaterOrEqual(t, second.X()-first.X(), cfg.HorizontalGap)
	assert.InDelta(t, first.Y(), second.Y(), 1e-9)

	siblings = append(siblings, placedNode(t, "input-3", second.X(), second.Y()))
	third := engine.PlaceBranch(parent, siblings)
	assert.Greater(t, third.X(), second.X())
}

func TestEngine_PlaceBranch_UsesRightmostSibling(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	engine := NewEngine(nil, cfg)
	parent := placedNode(t, "input-1", 0, 0)

	siblings := []*entities.Node{
		placedNode(t, "input-4", 900, 400),
		placedNode(t, "input-2", 100, 400),
		placedNode(t, "input-3", 500, 400),
	}

	pos := engine.PlaceBranch(parent, siblings)
	assert.InDelta(t, 900+cfg.InputNodeWidth+cfg.HorizontalGap, pos.X(), 1e-9)
}

func TestEngine_PlaceFollowUp_AlignedWithParent(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	engine := NewEngine(nil, cfg)
	parent := placedNode(t, "input-1", 250, 100)

	pos := engine.PlaceFollowUp(parent)
	assert.InDelta(t, 250, pos.X(), 1e-9)
	assert.InDelta(t, 100+cfg.FallbackNodeHeight+cfg.FollowUpVerticalGap, pos.Y(), 1e-9)
}

func TestEngine_PlaceDetached_FixedOffset(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	engine := NewEngine(nil, cfg)
	parent := placedNode(t, "input-1", 40, 60)

	pos := engine.PlaceDetached(parent)
	assert.InDelta(t, 40+cfg.DetachedOffsetX, pos.X(), 1e-9)
	assert.InDelta(t, 60+cfg.DetachedOffsetY, pos.Y(), 1e-9)
}

func TestEngine_MeasurerOverridesFallback(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	measured := MeasurerFunc(func(id valueobjects.NodeID) (Size, bool) {
		if id.String() == "input-1" {
			return Size{Width: 600, Height: 500}, true
		}
		return Size{}, false
	})
	engine := NewEngine(measured, cfg)
	parent := placedNode(t, "input-1", 0, 0)

	pos := engine.PlaceFollowUp(parent)
	assert.InDelta(t, 500+cfg.FollowUpVerticalGap, pos.Y(), 1e-9)

	t.Run("unmeasured node falls back", func(t *testing.T) {
		other := placedNode(t, "input-2", 0, 0)
		pos := engine.PlaceFollowUp(other)
		assert.InDelta(t, cfg.FallbackNodeHeight+cfg.FollowUpVerticalGap, pos.Y(), 1e-9)
	})
}

func TestEngine_MeasurerRejectsDegenerateSizes(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	measured := MeasurerFunc(func(id valueobjects.NodeID) (Size, bool) {
		return Size{Width: 0, Height: -10}, true
	})
	engine := NewEngine(measured, cfg)
	parent := placedNode(t, "input-1", 0, 0)

	pos := engine.PlaceFollowUp(parent)
	assert.InDelta(t, cfg.FallbackNodeHeight+cfg.FollowUpVerticalGap, pos.Y(), 1e-9)
}
