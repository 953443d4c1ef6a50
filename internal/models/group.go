package models

import (
	"slices"
	"time"
)

// Group is a snapshot of a set of members and their shared expenses.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name of the group (e.g., "Roommates", "Ski Trip").
	Name string

	// Members is the ordered list of current member names. Order is the
	// insertion order and drives every deterministic tie-break.
	Members []string

	// FormerMembers are members removed at zero balance who are still
	// referenced by historical expenses.
	FormerMembers []string

	// Expenses is the append-only expense log, oldest first.
	Expenses []Expense

	// CreatedAt is when the group was created.
	CreatedAt time.Time
}

// HasMember reports whether name is a current member.
func (g Group) HasMember(name string) bool {
	return slices.Contains(g.Members, name)
}

// HasFormerMember reports whether name left the group but is still referenced.
func (g Group) HasFormerMember(name string) bool {
	return slices.Contains(g.FormerMembers, name)
}

// Knows reports whether name can be resolved when replaying the expense log.
func (g Group) Knows(name string) bool {
	return g.HasMember(name) || g.HasFormerMember(name)
}

// References reports whether any expense names the member as payer or participant.
func (g Group) References(name string) bool {
	for _, e := range g.Expenses {
		if e.Payer == name || slices.Contains(e.Split.Participants(), name) {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers can derive a new snapshot safely.
func (g Group) Clone() Group {
	out := g
	out.Members = slices.Clone(g.Members)
	out.FormerMembers = slices.Clone(g.FormerMembers)
	if g.Expenses != nil {
		out.Expenses = make([]Expense, len(g.Expenses))
		for i, e := range g.Expenses {
			out.Expenses[i] = e.Clone()
		}
	}
	return out
}
