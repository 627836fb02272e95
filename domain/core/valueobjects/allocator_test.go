package valueobjects

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocator_Next_Monotonic(t *testing.T) {
	allocator := NewAllocator(1)

	assert.Equal(t, "input-1", allocator.Next().String())
	assert.Equal(t, "input-2", allocator.Next().String())
	assert.Equal(t, "input-3", allocator.Next().String())
}

func TestAllocator_Next_Concurrent(t *testing.T) {
	allocator := NewAllocator(1)

	const workers = 16
	var wg sync.WaitGroup
	ids := make(chan string, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids <- allocator.Next().String()
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool)
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	assert.Len(t, seen, workers)
}

func TestAllocator_ResumeFrom(t *testing.T) {
	tests := []struct {
		name    string
		start   int
		maxSeen int
		want    string
	}{
		{name: "advances past loaded ids", start: 1, maxSeen: 7, want: "input-8"},
		{name: "never moves backwards", start: 10, maxSeen: 3, want: "input-10"},
		{name: "zero max keeps counter", start: 2, maxSeen: 0, want: "input-2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			allocator := NewAllocator(tt.start)
			allocator.ResumeFrom(tt.maxSeen)
			assert.Equal(t, tt.want, allocator.Next().String())
		})
	}
}

func TestAllocator_Reset_FloorsAtOne(t *testing.T) {
	allocator := NewAllocator(5)
	allocator.Reset(0)
	assert.Equal(t, "input-1", allocator.Next().String())

	allocator.Reset(-3)
	assert.Equal(t, "input-1", allocator.Next().String())
}

func TestNodeID_Ordinal(t *testing.T) {
	tests := []struct {
		id   string
		want int
	}{
		{"input-1", 1},
		{"input-42", 42},
		{"input-123abc", 0},
		{"input-", 0},
		{"input--5", 5},
		{"abc", 0},
		{"2b1f0c4e-uuid", 0},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			id, err := NewNodeIDFromString(tt.id)
			require.NoError(t, err)
			assert.Equal(t, tt.want, id.Ordinal())
		})
	}
}

func TestNodeID_JSONRoundTrip(t *testing.T) {
	id, err := NewNodeIDFromString("input-9")
	require.NoError(t, err)

	raw, err := id.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"input-9"`, string(raw))

	var decoded NodeID
	require.NoError(t, decoded.UnmarshalJSON(raw))
	assert.True(t, id.Equals(decoded))
}

func TestAllocator_ResumeMatchesHighestOrdinal(t *testing.T) {
	allocator := NewAllocator(1)
	loaded := []string{"input-2", "input-7", "input-junk", "input-3"}

	maxOrdinal := 0
	for _, raw := range loaded {
		id, err := NewNodeIDFromString(raw)
		require.NoError(t, err)
		if ord := id.Ordinal(); ord > maxOrdinal {
			maxOrdinal = ord
		}
	}
	allocator.ResumeFrom(maxOrdinal)

	next := allocator.Next().String()
	assert.Equal(t, fmt.Sprintf("input-%d", 8), next)
}
