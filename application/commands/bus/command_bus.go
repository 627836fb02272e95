// Package bus dispatches state-changing commands to registered
// handlers, with middleware wrapped around every dispatch.
package bus

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"go.uber.org/zap"
)

// Command is a validated state-changing request
type Command interface {
	Validate() error
}

// CommandHandler executes one command type
type CommandHandler interface {
	Handle(ctx context.Context, cmd Command) error
}

// CommandHandlerFunc adapts a function to the CommandHandler interface
type CommandHandlerFunc func(ctx context.Context, cmd Command) error

// Handle implements CommandHandler
func (f CommandHandlerFunc) Handle(ctx context.Context, cmd Command) error {
	return f(ctx, cmd)
}

// Middleware wraps a handler at dispatch time
type Middleware func(next CommandHandler) CommandHandler

// CommandBus routes commands to their handlers by concrete type
type CommandBus struct {
	mu         sync.RWMutex
	handlers   map[reflect.Type]CommandHandler
	middleware []Middleware
}

// NewCommandBus creates an empty command bus
func NewCommandBus() *CommandBus {
	return &CommandBus{handlers: make(map[reflect.Type]CommandHandler)}
}

// Use appends middleware applied to every handler on Send
func (b *CommandBus) Use(mw Middleware) {
	b.mu.Lock()
	b.middleware = append(b.middleware, mw)
	b.mu.Unlock()
}

// Register binds a handler to the concrete type of the given command
// value. Registering the same type twice is an error.
func (b *CommandBus) Register(cmd Command, handler CommandHandler) error {
	if handler == nil {
		return fmt.Errorf("nil handler for command type %T", cmd)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	key := reflect.TypeOf(cmd)
	if _, taken := b.handlers[key]; taken {
		return fmt.Errorf("command type %s already registered", key.Name())
	}
	b.handlers[key] = handler
	return nil
}

// Send validates the command and runs it through the middleware chain
// into its registered handler.
func (b *CommandBus) Send(ctx context.Context, cmd Command) error {
	if err := cmd.Validate(); err != nil {
		return fmt.Errorf("invalid command: %w", err)
	}

	b.mu.RLock()
	handler, found := b.handlers[reflect.TypeOf(cmd)]
	middleware := b.middleware
	b.mu.RUnlock()
	if !found {
		return fmt.Errorf("no handler for command type %T", cmd)
	}

	for i := len(middleware) - 1; i >= 0; i-- {
		handler = middleware[i](handler)
	}
	return handler.Handle(ctx, cmd)
}

// LoggingMiddleware logs each dispatched command and any failure
func LoggingMiddleware(logger *zap.Logger) Middleware {
	return func(next CommandHandler) CommandHandler {
		return CommandHandlerFunc(func(ctx context.Context, cmd Command) error {
			name := reflect.TypeOf(cmd).Name()
			logger.Debug("executing command", zap.String("command", name))

			err := next.Handle(ctx, cmd)
			if err != nil {
				logger.Warn("command failed",
					zap.String("command", name),
					zap.Error(err),
				)
			}
			return err
		})
	}
}
