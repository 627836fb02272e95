package llm

import (
	"context"
	"strings"
	"sync"
)

const scriptedChunkRunes = 8

// ScriptedProvider replays canned replies, chunked a few runes at a
// time, for development and tests. Replies are consumed in order and
// the last one repeats once the script runs out; with no script it
// echoes the final user message.
type ScriptedProvider struct {
	mu      sync.Mutex
	replies []string
	next    int
}

// NewScriptedProvider creates a provider replaying the given replies
func NewScriptedProvider(replies ...string) *ScriptedProvider {
	return &ScriptedProvider{replies: replies}
}

// ModelName identifies the provider in stored node metadata
func (p *ScriptedProvider) ModelName() string {
	return "scripted"
}

// StreamCompletion replays the next scripted reply in rune chunks
func (p *ScriptedProvider) StreamCompletion(ctx context.Context, messages []Message, onChunk func(content string) error) (string, error) {
	reply := p.nextReply(messages)

	remaining := reply
	for len(remaining) > 0 {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		chunk := takeRunes(remaining, scriptedChunkRunes)
		remaining = remaining[len(chunk):]
		if onChunk != nil {
			if err := onChunk(chunk); err != nil {
				return "", err
			}
		}
	}
	return reply, nil
}

// Completion returns the next scripted reply whole
func (p *ScriptedProvider) Completion(ctx context.Context, messages []Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return p.nextReply(messages), nil
}

func (p *ScriptedProvider) nextReply(messages []Message) string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.replies) == 0 {
		return "You said: " + lastUserContent(messages)
	}
	reply := p.replies[p.next]
	if p.next < len(p.replies)-1 {
		p.next++
	}
	return reply
}

func lastUserContent(messages []Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == RoleUser {
			return strings.TrimSpace(messages[i].Content)
		}
	}
	return ""
}

func takeRunes(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

var _ Provider = (*ScriptedProvider)(nil)
