package wizard

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// HandlerKind names the two per-step async actions a step component can
// register: the capture step's extraction and the entry step's save.
type HandlerKind int

const (
	HandlerExtract HandlerKind = iota
	HandlerSave
)

func (k HandlerKind) String() string {
	switch k {
	case HandlerExtract:
		return "extract"
	case HandlerSave:
		return "save"
	default:
		return "unknown"
	}
}

// ErrNoHandler signals that the expected step component has not registered
// its action yet; callers retry by re-entering the step.
var ErrNoHandler = errors.New("no handler registered")

// Handler is a step's async primary or commit action. A false result means
// the action declined (for example, validation failed) without error.
type Handler func(ctx context.Context) (bool, error)

// Registry holds one handler per kind. Registering overwrites any previous
// registration for that kind. The registry does not serialize invocations;
// the caller's busy flag prevents concurrent invokes of the same kind.
type Registry struct {
	mu       sync.Mutex
	handlers map[HandlerKind]Handler
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[HandlerKind]Handler)}
}

// Register installs the handler for a kind, replacing any previous one.
func (r *Registry) Register(kind HandlerKind, fn Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[kind] = fn
}

// Invoke runs the registered handler for a kind and propagates its result.
// The handler itself runs outside the registry lock.
func (r *Registry) Invoke(ctx context.Context, kind HandlerKind) (bool, error) {
	r.mu.Lock()
	fn, ok := r.handlers[kind]
	r.mu.Unlock()
	if !ok {
		return false, fmt.Errorf("%s: %w", kind, ErrNoHandler)
	}
	return fn(ctx)
}

// Clear drops all registrations.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers = make(map[HandlerKind]Handler)
}
