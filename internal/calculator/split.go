package calculator

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitchain/internal/models"
	"github.com/mmynk/splitchain/internal/money"
)

var (
	ErrInvalidSplit  = errors.New("invalid split")
	ErrUnknownMember = errors.New("unknown member")
)

var hundred = decimal.NewFromInt(100)

// Share is one participant's part of an expense.
type Share struct {
	Member string
	Amount money.Amount
}

// CalculateShares divides an expense amount according to its split.
// Shares always sum exactly to amount. Participants must be unique.
//
// Rounding: equal and percentage splits floor each share to a minor unit
// and hand the leftover units, one each, to the first participants in
// split order.
func CalculateShares(amount money.Amount, split models.Split) ([]Share, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive, got %s", ErrInvalidSplit, amount)
	}
	if split == nil {
		return nil, fmt.Errorf("%w: missing split", ErrInvalidSplit)
	}
	if err := checkUnique(split.Participants()); err != nil {
		return nil, err
	}

	switch s := split.(type) {
	case models.EqualSplit:
		return equalShares(amount, s.Members)
	case models.PercentageSplit:
		return percentageShares(amount, s.Shares)
	case models.CustomSplit:
		return customShares(amount, s.Shares)
	default:
		return nil, fmt.Errorf("%w: unsupported policy %q", ErrInvalidSplit, split.Policy())
	}
}

func equalShares(amount money.Amount, members []string) ([]Share, error) {
	if len(members) == 0 {
		return nil, fmt.Errorf("%w: equal split has no participants", ErrInvalidSplit)
	}

	n := money.Amount(len(members))
	base, remainder := amount/n, amount%n

	shares := make([]Share, len(members))
	for i, m := range members {
		shares[i] = Share{Member: m, Amount: base}
		if money.Amount(i) < remainder {
			shares[i].Amount++
		}
	}
	return shares, nil
}

func percentageShares(amount money.Amount, percents []models.PercentShare) ([]Share, error) {
	if len(percents) == 0 {
		return nil, fmt.Errorf("%w: percentage split has no participants", ErrInvalidSplit)
	}

	total := decimal.Zero
	for _, p := range percents {
		if p.Percent.IsNegative() {
			return nil, fmt.Errorf("%w: negative percentage %s for %q", ErrInvalidSplit, p.Percent, p.Member)
		}
		total = total.Add(p.Percent)
	}
	if !total.Equal(hundred) {
		return nil, fmt.Errorf("%w: percentages sum to %s, want 100", ErrInvalidSplit, total)
	}

	whole := decimal.NewFromInt(int64(amount))
	shares := make([]Share, len(percents))
	var assigned money.Amount
	for i, p := range percents {
		part := money.Amount(whole.Mul(p.Percent).Div(hundred).Floor().IntPart())
		shares[i] = Share{Member: p.Member, Amount: part}
		assigned += part
	}

	// Flooring loses strictly less than one unit per participant.
	for i := 0; assigned < amount; i = (i + 1) % len(shares) {
		if percents[i].Percent.IsZero() {
			continue
		}
		shares[i].Amount++
		assigned++
	}
	return shares, nil
}

func customShares(amount money.Amount, explicit []models.AmountShare) ([]Share, error) {
	if len(explicit) == 0 {
		return nil, fmt.Errorf("%w: custom split has no participants", ErrInvalidSplit)
	}

	shares := make([]Share, len(explicit))
	var total money.Amount
	for i, s := range explicit {
		if s.Amount < 0 {
			return nil, fmt.Errorf("%w: negative share %s for %q", ErrInvalidSplit, s.Amount, s.Member)
		}
		if s.Amount > amount-total {
			return nil, fmt.Errorf("%w: shares exceed %s at %q", ErrInvalidSplit, amount, s.Member)
		}
		shares[i] = Share{Member: s.Member, Amount: s.Amount}
		total += s.Amount
	}
	if total != amount {
		return nil, fmt.Errorf("%w: shares sum to %s, want %s", ErrInvalidSplit, total, amount)
	}
	return shares, nil
}

func checkUnique(members []string) error {
	seen := make(map[string]bool, len(members))
	for _, m := range members {
		if seen[m] {
			return fmt.Errorf("%w: %q appears more than once", ErrInvalidSplit, m)
		}
		seen[m] = true
	}
	return nil
}
