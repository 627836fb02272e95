// Package commands defines the state-changing operations of the canvas
// and their validation rules.
package commands

import (
	"errors"
	"math"
	"strings"
)

// SubmitPromptCommand submits the text typed into an input node
type SubmitPromptCommand struct {
	NodeID string `json:"node_id"`
	Text   string `json:"text"`
}

// Validate validates the command. Empty text is legal here: submission of
// an empty prompt is a silent no-op further in.
func (cmd SubmitPromptCommand) Validate() error {
	if cmd.NodeID == "" {
		return errors.New("node ID is required")
	}
	if len(cmd.Text) > MaxPromptLength {
		return errors.New("prompt exceeds maximum length")
	}
	return nil
}

// CreateBranchCommand spawns a sibling input node under a conversation
// node. Detached marks a branch created by dragging onto empty canvas,
// which uses offset placement instead of sibling fan-out.
type CreateBranchCommand struct {
	SourceID string `json:"source_id"`
	Detached bool   `json:"detached"`
}

// Validate validates the command
func (cmd CreateBranchCommand) Validate() error {
	if cmd.SourceID == "" {
		return errors.New("source node ID is required")
	}
	return nil
}

// DeleteSelectionCommand removes a set of nodes and their incident edges
type DeleteSelectionCommand struct {
	NodeIDs []string `json:"node_ids"`
}

// Validate validates the command
func (cmd DeleteSelectionCommand) Validate() error {
	if len(cmd.NodeIDs) == 0 {
		return errors.New("at least one node ID is required")
	}
	for _, id := range cmd.NodeIDs {
		if strings.TrimSpace(id) == "" {
			return errors.New("node IDs cannot be empty")
		}
	}
	return nil
}

// MoveNodeCommand records a node's new position after a drag
type MoveNodeCommand struct {
	NodeID string  `json:"node_id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

// Validate validates the command
func (cmd MoveNodeCommand) Validate() error {
	if cmd.NodeID == "" {
		return errors.New("node ID is required")
	}
	if math.IsNaN(cmd.X) || math.IsInf(cmd.X, 0) || math.IsNaN(cmd.Y) || math.IsInf(cmd.Y, 0) {
		return errors.New("position must be finite")
	}
	return nil
}

const MaxPromptLength = 50000
