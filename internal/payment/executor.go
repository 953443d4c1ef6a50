// Package payment moves money between members to settle a group.
//
// The ledger only hands out transfer instructions; an Executor carries them
// out and reports success or a failure reason. Executors compose: a Breaker
// can wrap a RateLimited which wraps the real transport.
package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/mmynk/splitchain/internal/models"
)

// ErrBreakerOpen is returned without calling the wrapped executor while the
// breaker is open.
var ErrBreakerOpen = errors.New("payment circuit breaker is open")

// Executor carries out a single transfer.
type Executor interface {
	Execute(ctx context.Context, transfer models.Transfer) (Receipt, error)
}

// Receipt identifies an executed transfer in the payment transport.
type Receipt struct {
	Reference string
}

// Failure is a definitive rejection by the payment transport, as opposed to
// a transport or context error.
type Failure struct {
	Reason string
}

func (f *Failure) Error() string {
	return fmt.Sprintf("payment rejected: %s", f.Reason)
}
