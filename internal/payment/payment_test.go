package payment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitchain/internal/models"
)

var transfer = models.Transfer{From: "Bob", To: "Alice", Amount: 1000}

func TestSimulated(t *testing.T) {
	ctx := context.Background()
	sim := NewSimulated()

	receipt, err := sim.Execute(ctx, transfer)
	require.NoError(t, err)
	assert.NotEmpty(t, receipt.Reference)

	sim.Reject("Bob", "insufficient funds")
	_, err = sim.Execute(ctx, transfer)
	var failure *Failure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, "insufficient funds", failure.Reason)

	sim.Accept("Bob")
	_, err = sim.Execute(ctx, transfer)
	require.NoError(t, err)
	assert.Len(t, sim.Executed(), 2)

	_, err = sim.Execute(ctx, models.Transfer{From: "Bob", To: "Alice"})
	assert.ErrorAs(t, err, &failure)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = sim.Execute(cancelled, transfer)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRateLimited(t *testing.T) {
	sim := NewSimulated()
	limited := NewRateLimited(sim, 0.001, 1)

	_, err := limited.Execute(context.Background(), transfer)
	require.NoError(t, err, "first call uses the burst token")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = limited.Execute(ctx, transfer)
	require.Error(t, err, "second call cannot get a token before the deadline")
	assert.Len(t, sim.Executed(), 1)
}

// flaky fails with a transport error while down is set.
type flaky struct {
	down  bool
	calls int
}

func (f *flaky) Execute(context.Context, models.Transfer) (Receipt, error) {
	f.calls++
	if f.down {
		return Receipt{}, errors.New("connection refused")
	}
	return Receipt{Reference: "ok"}, nil
}

func TestBreaker(t *testing.T) {
	ctx := context.Background()
	next := &flaky{down: true}
	clock := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)

	b := NewBreaker(next, BreakerConfig{MaxFailures: 2, ResetTimeout: time.Minute, HalfOpenMaxSucc: 1})
	b.now = func() time.Time { return clock }

	var transitions []BreakerState
	b.OnStateChange(func(s BreakerState) { transitions = append(transitions, s) })

	for range 2 {
		_, err := b.Execute(ctx, transfer)
		require.Error(t, err)
	}
	assert.Equal(t, StateOpen, b.State())

	_, err := b.Execute(ctx, transfer)
	require.ErrorIs(t, err, ErrBreakerOpen)
	assert.Equal(t, 2, next.calls, "open breaker must not call through")

	clock = clock.Add(2 * time.Minute)
	next.down = false
	receipt, err := b.Execute(ctx, transfer)
	require.NoError(t, err)
	assert.Equal(t, "ok", receipt.Reference)
	assert.Equal(t, StateClosed, b.State())

	assert.Equal(t, []BreakerState{StateOpen, StateHalfOpen, StateClosed}, transitions)
}

func TestBreaker_FailureDoesNotTrip(t *testing.T) {
	sim := NewSimulated()
	sim.Reject("Bob", "declined")
	b := NewBreaker(sim, BreakerConfig{MaxFailures: 1, ResetTimeout: time.Minute})

	for range 3 {
		_, err := b.Execute(context.Background(), transfer)
		var failure *Failure
		require.ErrorAs(t, err, &failure)
	}
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	next := &flaky{down: true}
	clock := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	b := NewBreaker(next, BreakerConfig{MaxFailures: 1, ResetTimeout: time.Second, HalfOpenMaxSucc: 2})
	b.now = func() time.Time { return clock }

	_, _ = b.Execute(context.Background(), transfer)
	require.Equal(t, StateOpen, b.State())

	clock = clock.Add(2 * time.Second)
	_, err := b.Execute(context.Background(), transfer)
	require.Error(t, err)
	assert.Equal(t, StateOpen, b.State())

	_, err = b.Execute(context.Background(), transfer)
	assert.ErrorIs(t, err, ErrBreakerOpen)
}

// blocking fails its first call with a transport error and holds every
// later call until release is closed.
type blocking struct {
	failed  bool
	started chan struct{}
	release chan struct{}
}

func (b *blocking) Execute(context.Context, models.Transfer) (Receipt, error) {
	if !b.failed {
		b.failed = true
		return Receipt{}, errors.New("connection refused")
	}
	b.started <- struct{}{}
	<-b.release
	return Receipt{Reference: "ok"}, nil
}

func TestBreaker_HalfOpenLimitsTrialCalls(t *testing.T) {
	ctx := context.Background()
	next := &blocking{started: make(chan struct{}), release: make(chan struct{})}
	clock := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	b := NewBreaker(next, BreakerConfig{MaxFailures: 1, ResetTimeout: time.Second, HalfOpenMaxSucc: 1})
	b.now = func() time.Time { return clock }

	_, _ = b.Execute(ctx, transfer)
	require.Equal(t, StateOpen, b.State())
	clock = clock.Add(2 * time.Second)

	done := make(chan error, 1)
	go func() {
		_, err := b.Execute(ctx, transfer)
		done <- err
	}()
	<-next.started
	assert.Equal(t, StateHalfOpen, b.State())

	_, err := b.Execute(ctx, transfer)
	assert.ErrorIs(t, err, ErrBreakerOpen, "a second trial call is turned away while the first is in flight")

	close(next.release)
	require.NoError(t, <-done)
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_CancelledTrialFreesSlot(t *testing.T) {
	ctx := context.Background()
	next := &flaky{down: true}
	clock := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	b := NewBreaker(next, BreakerConfig{MaxFailures: 1, ResetTimeout: time.Second, HalfOpenMaxSucc: 1})
	b.now = func() time.Time { return clock }

	_, _ = b.Execute(ctx, transfer)
	require.Equal(t, StateOpen, b.State())
	clock = clock.Add(2 * time.Second)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err := b.Execute(cancelled, transfer)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrBreakerOpen)
	assert.Equal(t, StateHalfOpen, b.State())

	next.down = false
	_, err = b.Execute(ctx, transfer)
	require.NoError(t, err, "the cancelled trial no longer holds the only slot")
	assert.Equal(t, StateClosed, b.State())
}
