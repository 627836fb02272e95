package entities

import (
	"time"

	"rootie/domain/core/valueobjects"
	pkgerrors "rootie/pkg/errors"
)

// NodeKind represents the variant of a canvas node
type NodeKind string

const (
	// KindInput is an empty prompt box awaiting submission
	KindInput NodeKind = "input"
	// KindConversation holds a submitted prompt and its (possibly partial) response
	KindConversation NodeKind = "conversation"
)

// Node is a node on the conversation canvas. Nodes are never mutated in
// place: every state change returns a fresh copy so a graph value built
// from them can be replaced wholesale and diffed cheaply by a renderer.
type Node struct {
	id        valueobjects.NodeID
	kind      NodeKind
	position  valueobjects.Position
	dialogue  valueobjects.Dialogue
	createdAt time.Time
	updatedAt time.Time
}

// NewInputNode creates an empty prompt node at the given position
func NewInputNode(id valueobjects.NodeID, position valueobjects.Position) (*Node, error) {
	if id.IsZero() {
		return nil, pkgerrors.NewValidationError("node ID cannot be empty")
	}

	now := time.Now()
	return &Node{
		id:        id,
		kind:      KindInput,
		position:  position,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// ReconstructConversationNode rebuilds an answered node from stored data
func ReconstructConversationNode(
	id valueobjects.NodeID,
	position valueobjects.Position,
	dialogue valueobjects.Dialogue,
	createdAt time.Time,
) (*Node, error) {
	if id.IsZero() {
		return nil, pkgerrors.NewValidationError("node ID cannot be empty")
	}
	if dialogue.Question() == "" {
		return nil, pkgerrors.NewValidationError("conversation node requires a question")
	}

	return &Node{
		id:        id,
		kind:      KindConversation,
		position:  position,
		dialogue:  dialogue,
		createdAt: createdAt,
		updatedAt: createdAt,
	}, nil
}

// ID returns the node's unique identifier
func (n *Node) ID() valueobjects.NodeID {
	return n.id
}

// Kind returns the node variant
func (n *Node) Kind() NodeKind {
	return n.kind
}

// IsInput checks whether the node is an unanswered prompt placeholder
func (n *Node) IsInput() bool {
	return n.kind == KindInput
}

// IsConversation checks whether the node holds a submitted prompt
func (n *Node) IsConversation() bool {
	return n.kind == KindConversation
}

// Position returns the node's canvas position
func (n *Node) Position() valueobjects.Position {
	return n.position
}

// Dialogue returns the node's prompt/response content. Input nodes hold
// an empty dialogue.
func (n *Node) Dialogue() valueobjects.Dialogue {
	return n.dialogue
}

// CreatedAt returns when the node was created
func (n *Node) CreatedAt() time.Time {
	return n.createdAt
}

// UpdatedAt returns when the node was last updated
func (n *Node) UpdatedAt() time.Time {
	return n.updatedAt
}

// ToConversation converts an input node into a conversation node holding
// the submitted question. The transition happens exactly once; converting
// a conversation node is rejected.
func (n *Node) ToConversation(question, placeholderAnswer string) (*Node, error) {
	if n.kind != KindInput {
		return nil, pkgerrors.NewConflictError("node has already been submitted")
	}

	dialogue, err := valueobjects.NewDialogue(question, placeholderAnswer)
	if err != nil {
		return nil, err
	}

	out := *n
	out.kind = KindConversation
	out.dialogue = dialogue
	out.updatedAt = time.Now()
	return &out, nil
}

// WithAnswer returns a copy with the answer text replaced. Only
// conversation nodes carry an answer.
func (n *Node) WithAnswer(answer string) (*Node, error) {
	if n.kind != KindConversation {
		return nil, pkgerrors.NewValidationError("input node has no answer")
	}

	out := *n
	out.dialogue = n.dialogue.WithAnswer(answer)
	out.updatedAt = time.Now()
	return &out, nil
}

// MoveTo returns a copy at the new position
func (n *Node) MoveTo(position valueobjects.Position) *Node {
	out := *n
	out.position = position
	out.updatedAt = time.Now()
	return &out
}
