package models

import (
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitchain/internal/money"
)

// SplitPolicy names the rule used to divide an expense.
type SplitPolicy string

const (
	PolicyEqual        SplitPolicy = "equal"
	PolicyByPercentage SplitPolicy = "byPercentage"
	PolicyCustom       SplitPolicy = "custom"
)

// ParseSplitPolicy accepts the wire names of the three policies.
func ParseSplitPolicy(s string) (SplitPolicy, error) {
	switch p := SplitPolicy(s); p {
	case PolicyEqual, PolicyByPercentage, PolicyCustom:
		return p, nil
	default:
		return "", fmt.Errorf("unknown split policy %q", s)
	}
}

// Expense is a single payment event in a group.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// Description is what the money was spent on (e.g., "Groceries").
	Description string

	// Amount is the total paid. Always positive.
	Amount money.Amount

	// Payer is the member who paid the full amount.
	Payer string

	// Timestamp is when the expense happened.
	Timestamp time.Time

	// Split divides Amount among participants.
	Split Split

	// Payment marks an expense recorded by applying a settlement transfer.
	Payment bool
}

// Clone returns a deep copy of the expense.
func (e Expense) Clone() Expense {
	out := e
	if e.Split != nil {
		out.Split = e.Split.clone()
	}
	return out
}

// Split is a tagged union over EqualSplit, PercentageSplit and CustomSplit.
type Split interface {
	// Policy returns the variant tag.
	Policy() SplitPolicy

	// Participants lists the members named by the split, in split order.
	Participants() []string

	clone() Split
}

// EqualSplit divides the amount evenly. An empty participant list means
// every current member at the time the expense is added.
type EqualSplit struct {
	Members []string
}

// PercentShare is one member's percentage of an expense.
type PercentShare struct {
	Member  string
	Percent decimal.Decimal
}

// PercentageSplit divides the amount by percentages summing to 100.
type PercentageSplit struct {
	Shares []PercentShare
}

// AmountShare is one member's explicit share of an expense.
type AmountShare struct {
	Member string
	Amount money.Amount
}

// CustomSplit assigns explicit amounts summing to the expense amount.
type CustomSplit struct {
	Shares []AmountShare
}

func (EqualSplit) Policy() SplitPolicy      { return PolicyEqual }
func (PercentageSplit) Policy() SplitPolicy { return PolicyByPercentage }
func (CustomSplit) Policy() SplitPolicy     { return PolicyCustom }

func (s EqualSplit) Participants() []string { return slices.Clone(s.Members) }

func (s PercentageSplit) Participants() []string {
	out := make([]string, len(s.Shares))
	for i, sh := range s.Shares {
		out[i] = sh.Member
	}
	return out
}

func (s CustomSplit) Participants() []string {
	out := make([]string, len(s.Shares))
	for i, sh := range s.Shares {
		out[i] = sh.Member
	}
	return out
}

func (s EqualSplit) clone() Split      { return EqualSplit{Members: slices.Clone(s.Members)} }
func (s PercentageSplit) clone() Split { return PercentageSplit{Shares: slices.Clone(s.Shares)} }
func (s CustomSplit) clone() Split     { return CustomSplit{Shares: slices.Clone(s.Shares)} }
