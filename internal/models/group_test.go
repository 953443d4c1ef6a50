package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestGroupCloneIsDeep(t *testing.T) {
	g := Group{
		ID:      "g1",
		Members: []string{"Alice", "Bob"},
		Expenses: []Expense{{
			ID:     "e1",
			Amount: 1000,
			Payer:  "Alice",
			Split:  CustomSplit{Shares: []AmountShare{{Member: "Bob", Amount: 1000}}},
		}},
	}

	c := g.Clone()
	c.Members[0] = "Mallory"
	c.Expenses[0].Split.(CustomSplit).Shares[0].Member = "Mallory"
	c.Expenses = append(c.Expenses, Expense{ID: "e2"})

	assert.Equal(t, []string{"Alice", "Bob"}, g.Members)
	assert.Equal(t, "Bob", g.Expenses[0].Split.(CustomSplit).Shares[0].Member)
	assert.Len(t, g.Expenses, 1)
}

func TestGroupMembership(t *testing.T) {
	g := Group{
		Members:       []string{"Alice", "Bob"},
		FormerMembers: []string{"Carol"},
		Expenses: []Expense{{
			Payer: "Alice",
			Split: PercentageSplit{Shares: []PercentShare{
				{Member: "Alice", Percent: decimal.NewFromInt(50)},
				{Member: "Carol", Percent: decimal.NewFromInt(50)},
			}},
		}},
	}

	assert.True(t, g.HasMember("Alice"))
	assert.False(t, g.HasMember("alice"))
	assert.True(t, g.HasFormerMember("Carol"))
	assert.True(t, g.Knows("Carol"))
	assert.False(t, g.Knows("Dave"))
	assert.True(t, g.References("Carol"))
	assert.False(t, g.References("Bob"))
}

func TestParseSplitPolicy(t *testing.T) {
	for _, s := range []string{"equal", "byPercentage", "custom"} {
		p, err := ParseSplitPolicy(s)
		assert.NoError(t, err)
		assert.Equal(t, SplitPolicy(s), p)
	}
	_, err := ParseSplitPolicy("shares")
	assert.Error(t, err)
}
