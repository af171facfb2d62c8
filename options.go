package snapship

import (
	"time"

	"github.com/bft-labs/snapship/internal/ports"
	"github.com/bft-labs/snapship/pkg/lifecycle"
	"github.com/bft-labs/snapship/pkg/log"
)

// StateChangeEvent is emitted on every lifecycle transition.
type StateChangeEvent struct {
	Previous State
	Current  State
	Reason   string
}

// AttemptEvent is emitted after every finished replication attempt.
type AttemptEvent struct {
	Outcome     string
	Confirmed   bool
	ExitedEarly bool
	StartedAt   time.Time
	FinishedAt  time.Time
}

// EventHandler receives agent events. Implementations must be fast and must
// not block; events are delivered synchronously from the agent goroutine.
type EventHandler interface {
	OnStateChange(ev StateChangeEvent)
	OnAttempt(ev AttemptEvent)
}

type options struct {
	logger          log.Logger
	eventHandler    EventHandler
	watchConfigPath string
	runner          ports.Runner
}

// Option configures an Agent.
type Option func(*options)

func defaultOptions() options {
	return options{logger: log.NewNoopLogger()}
}

// WithLogger sets the logger used by the agent and its lifecycle manager.
// Defaults to a no-op logger.
func WithLogger(l log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithEventHandler registers a handler for state changes and finished
// attempts.
func WithEventHandler(h EventHandler) Option {
	return func(o *options) { o.eventHandler = h }
}

// WithConfigWatcher watches the given TOML config file while the agent runs
// and applies replicate_timeout and interval changes live.
func WithConfigWatcher(path string) Option {
	return func(o *options) { o.watchConfigPath = path }
}

// withRunner overrides the process runner. Used by tests inside the module.
func withRunner(r ports.Runner) Option {
	return func(o *options) { o.runner = r }
}

// eventEmitterWrapper adapts EventHandler to the lifecycle emitter interface.
type eventEmitterWrapper struct {
	handler EventHandler
}

func (e *eventEmitterWrapper) OnStateChange(previous, current lifecycle.State, reason string) {
	if e.handler == nil {
		return
	}
	e.handler.OnStateChange(StateChangeEvent{Previous: previous, Current: current, Reason: reason})
}

// logErr builds the error field for facade-level logging.
func logErr(err error) log.Field {
	return log.Err(err)
}
