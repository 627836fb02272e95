// Package bus dispatches read-side queries to registered handlers.
package bus

import (
	"context"
	"fmt"
	"reflect"
	"sync"
)

// Query is a read-only request against engine state
type Query interface {
	Validate() error
}

// QueryHandler answers one query type
type QueryHandler interface {
	Handle(ctx context.Context, query Query) (interface{}, error)
}

// QueryHandlerFunc adapts a function to the QueryHandler interface
type QueryHandlerFunc func(ctx context.Context, query Query) (interface{}, error)

// Handle implements QueryHandler
func (f QueryHandlerFunc) Handle(ctx context.Context, query Query) (interface{}, error) {
	return f(ctx, query)
}

// QueryBus routes queries to their handlers by concrete type
type QueryBus struct {
	mu       sync.RWMutex
	handlers map[reflect.Type]QueryHandler
}

// NewQueryBus creates an empty query bus
func NewQueryBus() *QueryBus {
	return &QueryBus{handlers: make(map[reflect.Type]QueryHandler)}
}

// Register binds a handler to the concrete type of the given query
// value. Registering the same type twice is an error.
func (b *QueryBus) Register(query Query, handler QueryHandler) error {
	if handler == nil {
		return fmt.Errorf("nil handler for query type %T", query)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	key := reflect.TypeOf(query)
	if _, taken := b.handlers[key]; taken {
		return fmt.Errorf("query type %s already registered", key.Name())
	}
	b.handlers[key] = handler
	return nil
}

// Ask validates the query and hands it to its registered handler
func (b *QueryBus) Ask(ctx context.Context, query Query) (interface{}, error) {
	if err := query.Validate(); err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}

	b.mu.RLock()
	handler, found := b.handlers[reflect.TypeOf(query)]
	b.mu.RUnlock()
	if !found {
		return nil, fmt.Errorf("no handler for query type %T", query)
	}
	return handler.Handle(ctx, query)
}
