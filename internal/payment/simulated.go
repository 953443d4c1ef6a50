package payment

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/mmynk/splitchain/internal/models"
)

// Simulated is an in-process executor that accepts every transfer except
// those from members it was told to reject.
type Simulated struct {
	mu       sync.Mutex
	rejected map[string]string
	executed []models.Transfer
}

// NewSimulated creates a Simulated executor that accepts everything.
func NewSimulated() *Simulated {
	return &Simulated{rejected: make(map[string]string)}
}

// Reject makes every later transfer from member fail with reason.
func (s *Simulated) Reject(member, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejected[member] = reason
}

// Accept clears a previous Reject.
func (s *Simulated) Accept(member string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rejected, member)
}

// Executed returns the transfers accepted so far.
func (s *Simulated) Executed() []models.Transfer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Transfer(nil), s.executed...)
}

func (s *Simulated) Execute(ctx context.Context, transfer models.Transfer) (Receipt, error) {
	if err := ctx.Err(); err != nil {
		return Receipt{}, err
	}
	if transfer.Amount <= 0 {
		return Receipt{}, &Failure{Reason: fmt.Sprintf("invalid amount %s", transfer.Amount)}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if reason, ok := s.rejected[transfer.From]; ok {
		slog.Debug("Simulated payment rejected", "from", transfer.From, "to", transfer.To, "reason", reason)
		return Receipt{}, &Failure{Reason: reason}
	}

	ref := uuid.NewString()
	s.executed = append(s.executed, transfer)
	slog.Debug("Simulated payment executed",
		"from", transfer.From,
		"to", transfer.To,
		"amount", transfer.Amount.String(),
		"reference", ref,
	)
	return Receipt{Reference: ref}, nil
}
