package wizard

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrBusy reports an advance attempted while a prior step action is still in
// flight. The advance control stays disabled until the pending action
// resolves; a pending action cannot be aborted.
var ErrBusy = errors.New("step action already in flight")

// Controller owns the wizard state and the handler registry. It is the
// single writer: every mutation goes through Dispatch, and Advance invokes
// the active step's registered action before transitioning forward.
type Controller struct {
	mu       sync.Mutex
	state    State
	registry *Registry
	busy     bool
}

// NewController creates a controller at the initial state with an empty
// registry.
func NewController() *Controller {
	return &Controller{
		state:    NewState(),
		registry: NewRegistry(),
	}
}

// State returns a snapshot of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Dispatch applies an action atomically and returns the resulting state.
// A Reset also clears both handler registrations.
func (c *Controller) Dispatch(action Action) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = Apply(c.state, action)
	if _, ok := action.(Reset); ok {
		c.registry.Clear()
	}
	return c.state
}

// Register installs a step's async action, overwriting any previous one.
func (c *Controller) Register(kind HandlerKind, fn Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.registry.Register(kind, fn)
}

// Advance is the generic forward control. At the capture step it invokes the
// registered extraction action, at the entry step the registered save action;
// only a successful action moves the wizard forward. Steps without an action
// advance directly, subject to their guards, which block silently. A second
// advance while one is pending fails with ErrBusy.
func (c *Controller) Advance(ctx context.Context) (State, error) {
	c.mu.Lock()
	if c.busy {
		state := c.state
		c.mu.Unlock()
		return state, ErrBusy
	}
	c.busy = true
	step := c.state.Step
	reg := c.registry
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.busy = false
		c.mu.Unlock()
	}()

	var kind HandlerKind
	switch step {
	case StepCapture:
		kind = HandlerExtract
	case StepEntry:
		kind = HandlerSave
	default:
		return c.Dispatch(Advance{}), nil
	}

	ok, err := reg.Invoke(ctx, kind)
	if err != nil {
		return c.State(), fmt.Errorf("%s step: %w", step, err)
	}
	if !ok {
		// Action declined (for example, validation failed); stay put.
		return c.State(), nil
	}
	return c.Dispatch(Advance{}), nil
}

// Reset clears the state and both handler registrations.
func (c *Controller) Reset() State {
	return c.Dispatch(Reset{})
}
