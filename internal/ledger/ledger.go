// Package ledger holds the state transitions of a group.
//
// Every function takes a group snapshot by value and returns a new snapshot.
// The input is never modified, and on error the caller keeps using the
// snapshot it already has, so a failed operation leaves nothing half-applied.
package ledger

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/mmynk/splitchain/internal/calculator"
	"github.com/mmynk/splitchain/internal/models"
	"github.com/mmynk/splitchain/internal/money"
)

var (
	ErrDuplicateMember = errors.New("duplicate member")
	ErrNonZeroBalance  = errors.New("member has non-zero balance")
	ErrInvalidMember   = errors.New("invalid member name")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidGroup    = errors.New("invalid group")
)

// NewGroup creates a group with the given members added in order.
func NewGroup(id, name string, createdAt time.Time, members ...string) (models.Group, error) {
	if strings.TrimSpace(name) == "" {
		return models.Group{}, fmt.Errorf("%w: name is required", ErrInvalidGroup)
	}

	group := models.Group{ID: id, Name: name, CreatedAt: createdAt}
	for _, m := range members {
		var err error
		if group, err = AddMember(group, m); err != nil {
			return models.Group{}, err
		}
	}
	return group, nil
}

// Rename returns the group with a new display name.
func Rename(group models.Group, name string) (models.Group, error) {
	if strings.TrimSpace(name) == "" {
		return group, fmt.Errorf("%w: name is required", ErrInvalidGroup)
	}
	next := group.Clone()
	next.Name = name
	return next, nil
}

// AddMember appends a member. Names match exactly and case-sensitively.
// A former member is restored and picks up their history again.
func AddMember(group models.Group, name string) (models.Group, error) {
	if strings.TrimSpace(name) == "" {
		return group, fmt.Errorf("%w: name is blank", ErrInvalidMember)
	}
	if group.HasMember(name) {
		return group, fmt.Errorf("%w: %q", ErrDuplicateMember, name)
	}

	next := group.Clone()
	next.FormerMembers = slices.DeleteFunc(next.FormerMembers, func(m string) bool { return m == name })
	next.Members = append(next.Members, name)
	return next, nil
}

// RemoveMember drops a member whose balance is exactly zero. If historical
// expenses still name the member they move to FormerMembers.
func RemoveMember(group models.Group, name string) (models.Group, error) {
	balance, err := calculator.BalanceOf(group, name)
	if err != nil {
		return group, err
	}
	if balance != 0 {
		return group, fmt.Errorf("%w: %q has %s", ErrNonZeroBalance, name, balance)
	}

	next := group.Clone()
	next.Members = slices.DeleteFunc(next.Members, func(m string) bool { return m == name })
	if next.References(name) {
		next.FormerMembers = append(next.FormerMembers, name)
	}
	return next, nil
}

// AddExpense validates an expense against the current members and appends it.
// An equal split without participants is resolved to all current members
// before it is stored, so later membership changes never reshape it.
func AddExpense(group models.Group, expense models.Expense) (models.Group, error) {
	if expense.Amount <= 0 {
		return group, fmt.Errorf("%w: must be positive, got %s", ErrInvalidAmount, expense.Amount)
	}
	if expense.Amount > money.MaxAmount {
		return group, fmt.Errorf("%w: %s exceeds the maximum of %s", ErrInvalidAmount, expense.Amount, money.MaxAmount)
	}
	if expense.Split == nil {
		return group, fmt.Errorf("%w: split is required", calculator.ErrInvalidSplit)
	}
	if !group.HasMember(expense.Payer) {
		return group, fmt.Errorf("%w: payer %q", calculator.ErrUnknownMember, expense.Payer)
	}

	expense = expense.Clone()
	if eq, ok := expense.Split.(models.EqualSplit); ok && len(eq.Members) == 0 {
		expense.Split = models.EqualSplit{Members: slices.Clone(group.Members)}
	}
	for _, p := range expense.Split.Participants() {
		if !group.HasMember(p) {
			return group, fmt.Errorf("%w: participant %q", calculator.ErrUnknownMember, p)
		}
	}
	if _, err := calculator.CalculateShares(expense.Amount, expense.Split); err != nil {
		return group, err
	}
	if expense.Description == "" {
		expense.Description = generateDescription(expense.Split.Participants())
	}

	next := group.Clone()
	next.Expenses = append(next.Expenses, expense)
	return next, nil
}

// ApplyTransfer records an executed settlement transfer as a payment
// expense: From pays Amount entirely on behalf of To.
func ApplyTransfer(group models.Group, id string, transfer models.Transfer, at time.Time) (models.Group, error) {
	if transfer.From == transfer.To {
		return group, fmt.Errorf("%w: %q cannot pay themselves", ErrInvalidMember, transfer.From)
	}
	return AddExpense(group, models.Expense{
		ID:          id,
		Description: fmt.Sprintf("%s paid %s", transfer.From, transfer.To),
		Amount:      transfer.Amount,
		Payer:       transfer.From,
		Timestamp:   at,
		Split:       models.CustomSplit{Shares: []models.AmountShare{{Member: transfer.To, Amount: transfer.Amount}}},
		Payment:     true,
	})
}

// generateDescription names an expense that was added without one.
func generateDescription(participants []string) string {
	if len(participants) <= 3 {
		return fmt.Sprintf("Split with %s", strings.Join(participants, ", "))
	}
	return fmt.Sprintf("Split with %s and %d others",
		strings.Join(participants[:2], ", "),
		len(participants)-2,
	)
}
