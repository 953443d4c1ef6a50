package payment

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/mmynk/splitchain/internal/models"
)

// BreakerState is the state of a Breaker.
type BreakerState int

const (
	StateClosed BreakerState = iota
	StateOpen
	StateHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

type BreakerConfig struct {
	MaxFailures     int
	ResetTimeout    time.Duration
	HalfOpenMaxSucc int
}

func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxFailures:     5,
		ResetTimeout:    30 * time.Second,
		HalfOpenMaxSucc: 3,
	}
}

// Breaker stops calling a failing executor. After MaxFailures consecutive
// transport errors it opens and rejects calls with ErrBreakerOpen until
// ResetTimeout has passed, then goes half-open and lets at most
// HalfOpenMaxSucc calls through at a time until they decide its state.
//
// A *Failure from the wrapped executor is a business rejection and does not
// count against the breaker.
type Breaker struct {
	next Executor

	mu                sync.Mutex
	config            BreakerConfig
	state             BreakerState
	failures          int
	halfOpenSuccesses int
	halfOpenTrials    int
	generation        uint64
	lastFailureTime   time.Time
	now               func() time.Time
	onStateChange     func(BreakerState)
}

func NewBreaker(next Executor, config BreakerConfig) *Breaker {
	if config.MaxFailures < 1 {
		config.MaxFailures = 1
	}
	if config.HalfOpenMaxSucc < 1 {
		config.HalfOpenMaxSucc = 1
	}
	return &Breaker{
		next:   next,
		config: config,
		state:  StateClosed,
		now:    time.Now,
	}
}

// OnStateChange registers fn to be called after every state transition.
func (b *Breaker) OnStateChange(fn func(BreakerState)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onStateChange = fn
}

func (b *Breaker) Execute(ctx context.Context, transfer models.Transfer) (Receipt, error) {
	gen, trial, ok := b.admit()
	if !ok {
		return Receipt{}, ErrBreakerOpen
	}

	receipt, err := b.next.Execute(ctx, transfer)

	var failure *Failure
	switch {
	case err == nil, errors.As(err, &failure):
		b.recordSuccess(gen, trial)
	case ctx.Err() != nil:
		// The caller gave up; that says nothing about the transport.
		b.release(gen, trial)
	default:
		b.recordFailure(gen, trial)
	}
	return receipt, err
}

// State returns the current state.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// admit decides whether a call may go through. trial is set for calls
// admitted while half-open; gen identifies the state they were admitted in.
func (b *Breaker) admit() (gen uint64, trial, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateOpen {
		if b.now().Sub(b.lastFailureTime) <= b.config.ResetTimeout {
			return 0, false, false
		}
		b.halfOpenSuccesses = 0
		b.setState(StateHalfOpen)
	}
	if b.state == StateHalfOpen {
		if b.halfOpenTrials >= b.config.HalfOpenMaxSucc {
			return 0, false, false
		}
		b.halfOpenTrials++
		return b.generation, true, true
	}
	return b.generation, false, true
}

func (b *Breaker) release(gen uint64, trial bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.endTrial(gen, trial)
}

// endTrial frees the slot of a finished trial call. Trials from an earlier
// half-open period were already dropped by setState. b.mu must be held.
func (b *Breaker) endTrial(gen uint64, trial bool) {
	if trial && gen == b.generation && b.halfOpenTrials > 0 {
		b.halfOpenTrials--
	}
}

func (b *Breaker) recordSuccess(gen uint64, trial bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.endTrial(gen, trial)

	switch b.state {
	case StateHalfOpen:
		b.halfOpenSuccesses++
		if b.halfOpenSuccesses >= b.config.HalfOpenMaxSucc {
			b.failures = 0
			b.halfOpenSuccesses = 0
			b.setState(StateClosed)
		}
	case StateClosed:
		b.failures = 0
	}
}

func (b *Breaker) recordFailure(gen uint64, trial bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.endTrial(gen, trial)

	b.lastFailureTime = b.now()

	switch b.state {
	case StateHalfOpen:
		b.halfOpenSuccesses = 0
		b.setState(StateOpen)
	case StateClosed:
		b.failures++
		if b.failures >= b.config.MaxFailures {
			b.setState(StateOpen)
		}
	}
}

// setState must be called with b.mu held.
func (b *Breaker) setState(state BreakerState) {
	if b.state == state {
		return
	}
	slog.Warn("Payment breaker state changed", "from", b.state.String(), "to", state.String())
	b.state = state
	b.generation++
	b.halfOpenTrials = 0
	if b.onStateChange != nil {
		b.onStateChange(state)
	}
}
