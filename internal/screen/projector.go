package screen

import (
	"context"
	"sync"

	"github.com/artpar/coinfav/internal/observable"
	"go.uber.org/zap"
)

// Option configures a projector.
type Option func(*options)

type options struct {
	logger *zap.Logger
}

// WithLogger sets the logger fetch failures are reported to.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// projector is the state slot and lifetime shared by every screen.
// The slot is last-write-wins: whichever update lands last is shown.
type projector struct {
	logger *zap.Logger
	state  *observable.Value[State]

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
}

func newProjector(name string, o options) *projector {
	ctx, cancel := context.WithCancel(context.Background())
	return &projector{
		logger: o.logger.With(zap.String("screen", name)),
		state:  observable.New[State](Loading{}),
		ctx:    ctx,
		cancel: cancel,
	}
}

// State returns the current screen state.
func (p *projector) State() State {
	return p.state.Get()
}

// Subscribe returns a subscription holding the current state, then every
// later one.
func (p *projector) Subscribe() *observable.Subscription[State] {
	return p.state.Subscribe()
}

// setState publishes s unless the projector is closed.
func (p *projector) setState(s State) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.setStateLocked(s)
}

func (p *projector) setStateLocked(s State) bool {
	if p.closed {
		return false
	}
	p.state.Set(s)
	return true
}

// shutdown cancels in-flight fetches and stops all further updates.
// release runs under the lock so it cannot race a concurrent restart.
func (p *projector) shutdown(release func()) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.cancel()
	if release != nil {
		release()
	}
	p.mu.Unlock()

	p.state.Close()
}
