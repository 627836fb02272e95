package valueobjects

import (
	"strings"

	pkgerrors "rootie/pkg/errors"
)

// Dialogue is a value object holding one prompt/response pair. The
// question is immutable once set; the answer is replaced wholesale while
// a response streams in, which keeps the value itself immutable.
type Dialogue struct {
	question string
	answer   string
}

// NewDialogue creates a dialogue with a validated, trimmed question
func NewDialogue(question, answer string) (Dialogue, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Dialogue{}, pkgerrors.NewValidationError("question cannot be empty")
	}
	return Dialogue{question: question, answer: answer}, nil
}

// Question returns the submitted prompt text
func (d Dialogue) Question() string {
	return d.question
}

// Answer returns the response text, possibly partial while streaming
func (d Dialogue) Answer() string {
	return d.answer
}

// WithAnswer returns a copy of the dialogue with the answer replaced
func (d Dialogue) WithAnswer(answer string) Dialogue {
	return Dialogue{question: d.question, answer: answer}
}

// IsEmpty checks if the dialogue holds no content
func (d Dialogue) IsEmpty() bool {
	return d.question == "" && d.answer == ""
}

// Equals checks if two dialogues are equal
func (d Dialogue) Equals(other Dialogue) bool {
	return d.question == other.question && d.answer == other.answer
}
