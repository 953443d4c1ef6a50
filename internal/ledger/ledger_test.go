package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitchain/internal/calculator"
	"github.com/mmynk/splitchain/internal/models"
	"github.com/mmynk/splitchain/internal/money"
)

var now = time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

func newTestGroup(t *testing.T, members ...string) models.Group {
	t.Helper()
	g, err := NewGroup("g1", "Roommates", now, members...)
	require.NoError(t, err)
	return g
}

func TestNewGroup(t *testing.T) {
	g := newTestGroup(t, "Alice", "Bob")
	assert.Equal(t, "Roommates", g.Name)
	assert.Equal(t, []string{"Alice", "Bob"}, g.Members)
	assert.Empty(t, g.Expenses)

	_, err := NewGroup("g2", "Dupes", now, "Alice", "Alice")
	assert.ErrorIs(t, err, ErrDuplicateMember)

	_, err = NewGroup("g3", "  ", now)
	assert.ErrorIs(t, err, ErrInvalidGroup)
}

func TestAddMember(t *testing.T) {
	g := newTestGroup(t, "Alice")

	next, err := AddMember(g, "Bob")
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice", "Bob"}, next.Members)
	assert.Equal(t, []string{"Alice"}, g.Members, "input snapshot must not change")

	// Case-sensitive: "alice" is a different member.
	next, err = AddMember(next, "alice")
	require.NoError(t, err)
	assert.Len(t, next.Members, 3)

	_, err = AddMember(g, "   ")
	assert.ErrorIs(t, err, ErrInvalidMember)
}

func TestAddMember_Duplicate(t *testing.T) {
	g := newTestGroup(t, "Alice", "Bob")

	same, err := AddMember(g, "Alice")
	require.ErrorIs(t, err, ErrDuplicateMember)
	assert.Equal(t, []string{"Alice", "Bob"}, same.Members)
}

func TestAddExpense(t *testing.T) {
	g := newTestGroup(t, "Alice", "Bob", "Charlie")

	next, err := AddExpense(g, models.Expense{
		ID:          "e1",
		Description: "Groceries",
		Amount:      money.MustParse("10.00"),
		Payer:       "Alice",
		Timestamp:   now,
		Split:       models.EqualSplit{},
	})
	require.NoError(t, err)
	require.Len(t, next.Expenses, 1)
	assert.Empty(t, g.Expenses)

	// Equal split without participants is pinned to the members at append time.
	assert.Equal(t, models.EqualSplit{Members: []string{"Alice", "Bob", "Charlie"}}, next.Expenses[0].Split)

	balances, err := calculator.ComputeBalances(next)
	require.NoError(t, err)
	assert.Equal(t, []models.Balance{
		{Member: "Alice", Amount: money.MustParse("6.66")},
		{Member: "Bob", Amount: money.MustParse("-3.33")},
		{Member: "Charlie", Amount: money.MustParse("-3.33")},
	}, balances)
}

func TestAddExpense_Rejected(t *testing.T) {
	g := newTestGroup(t, "Alice", "Bob", "Charlie")

	tests := []struct {
		name    string
		expense models.Expense
		wantErr error
	}{
		{
			name: "custom split one cent short",
			expense: models.Expense{
				ID: "e1", Amount: money.MustParse("10.00"), Payer: "Alice",
				Split: models.CustomSplit{Shares: []models.AmountShare{
					{Member: "Alice", Amount: money.MustParse("5.00")},
					{Member: "Bob", Amount: money.MustParse("4.99")},
				}},
			},
			wantErr: calculator.ErrInvalidSplit,
		},
		{
			name: "percentages sum to 101",
			expense: models.Expense{
				ID: "e2", Amount: money.MustParse("10.00"), Payer: "Alice",
				Split: models.PercentageSplit{Shares: []models.PercentShare{
					{Member: "Alice", Percent: decimal.NewFromInt(50)},
					{Member: "Bob", Percent: decimal.NewFromInt(30)},
					{Member: "Charlie", Percent: decimal.NewFromInt(21)},
				}},
			},
			wantErr: calculator.ErrInvalidSplit,
		},
		{
			name: "unknown payer",
			expense: models.Expense{
				ID: "e3", Amount: 100, Payer: "Mallory",
				Split: models.EqualSplit{},
			},
			wantErr: calculator.ErrUnknownMember,
		},
		{
			name: "unknown participant",
			expense: models.Expense{
				ID: "e4", Amount: 100, Payer: "Alice",
				Split: models.EqualSplit{Members: []string{"Alice", "Mallory"}},
			},
			wantErr: calculator.ErrUnknownMember,
		},
		{
			name: "zero amount",
			expense: models.Expense{
				ID: "e5", Amount: 0, Payer: "Alice",
				Split: models.EqualSplit{},
			},
			wantErr: ErrInvalidAmount,
		},
		{
			name:    "missing split",
			expense: models.Expense{ID: "e6", Amount: 100, Payer: "Alice"},
			wantErr: calculator.ErrInvalidSplit,
		},
		{
			name: "amount above the maximum",
			expense: models.Expense{
				ID: "e7", Amount: money.MaxAmount + 1, Payer: "Alice",
				Split: models.EqualSplit{},
			},
			wantErr: ErrInvalidAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			same, err := AddExpense(g, tt.expense)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Len(t, same.Expenses, 0, "group must be unchanged")
		})
	}
}

func TestRemoveMember(t *testing.T) {
	g := newTestGroup(t, "Alice", "Bob", "Charlie")
	g, err := AddExpense(g, models.Expense{
		ID: "e1", Amount: money.MustParse("20.00"), Payer: "Alice",
		Split: models.EqualSplit{Members: []string{"Alice", "Bob"}},
	})
	require.NoError(t, err)

	t.Run("non-zero balance is blocked", func(t *testing.T) {
		same, err := RemoveMember(g, "Bob")
		require.ErrorIs(t, err, ErrNonZeroBalance)
		assert.Equal(t, []string{"Alice", "Bob", "Charlie"}, same.Members)
	})

	t.Run("zero balance member is removed", func(t *testing.T) {
		next, err := RemoveMember(g, "Charlie")
		require.NoError(t, err)
		assert.Equal(t, []string{"Alice", "Bob"}, next.Members)
		assert.Empty(t, next.FormerMembers)

		balances, err := calculator.ComputeBalances(next)
		require.NoError(t, err)
		assert.Len(t, balances, 2)
	})

	t.Run("unknown member", func(t *testing.T) {
		_, err := RemoveMember(g, "Mallory")
		assert.ErrorIs(t, err, calculator.ErrUnknownMember)
	})
}

func TestRemoveMember_SettledParticipantBecomesFormer(t *testing.T) {
	g := newTestGroup(t, "A", "B", "C")
	g, err := AddExpense(g, models.Expense{
		ID: "e1", Amount: money.MustParse("30"), Payer: "A",
		Split: models.CustomSplit{Shares: []models.AmountShare{
			{Member: "B", Amount: money.MustParse("10")},
			{Member: "C", Amount: money.MustParse("20")},
		}},
	})
	require.NoError(t, err)

	_, transfers, err := calculator.SettleGroup(g)
	require.NoError(t, err)
	require.Equal(t, []models.Transfer{
		{From: "C", To: "A", Amount: money.MustParse("20")},
		{From: "B", To: "A", Amount: money.MustParse("10")},
	}, transfers)

	for i, tr := range transfers {
		g, err = ApplyTransfer(g, string(rune('x'+i)), tr, now)
		require.NoError(t, err)
	}

	balances, err := calculator.ComputeBalances(g)
	require.NoError(t, err)
	for _, b := range balances {
		assert.Equal(t, money.Zero, b.Amount, b.Member)
	}

	g, err = RemoveMember(g, "C")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, g.Members)
	assert.Equal(t, []string{"C"}, g.FormerMembers)

	balances, err = calculator.ComputeBalances(g)
	require.NoError(t, err)
	assert.Equal(t, []models.Balance{{Member: "A"}, {Member: "B"}}, balances)

	// Former members cannot take part in new expenses until re-added.
	_, err = AddExpense(g, models.Expense{ID: "e2", Amount: 100, Payer: "C", Split: models.EqualSplit{}})
	assert.ErrorIs(t, err, calculator.ErrUnknownMember)

	g, err = AddMember(g, "C")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, g.Members)
	assert.Empty(t, g.FormerMembers)
}

func TestApplyTransfer(t *testing.T) {
	g := newTestGroup(t, "Alice", "Bob")

	next, err := ApplyTransfer(g, "t1", models.Transfer{From: "Bob", To: "Alice", Amount: 250}, now)
	require.NoError(t, err)
	require.Len(t, next.Expenses, 1)
	assert.True(t, next.Expenses[0].Payment)
	assert.Equal(t, "Bob", next.Expenses[0].Payer)

	_, err = ApplyTransfer(g, "t2", models.Transfer{From: "Bob", To: "Bob", Amount: 250}, now)
	assert.ErrorIs(t, err, ErrInvalidMember)

	_, err = ApplyTransfer(g, "t3", models.Transfer{From: "Bob", To: "Alice", Amount: 0}, now)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = ApplyTransfer(g, "t4", models.Transfer{From: "Bob", To: "Zed", Amount: 100}, now)
	assert.ErrorIs(t, err, calculator.ErrUnknownMember)
}

func TestRename(t *testing.T) {
	g := newTestGroup(t, "Alice")

	next, err := Rename(g, "Flatmates")
	require.NoError(t, err)
	assert.Equal(t, "Flatmates", next.Name)
	assert.Equal(t, "Roommates", g.Name)

	_, err = Rename(g, "")
	assert.ErrorIs(t, err, ErrInvalidGroup)
}

func TestGenerateDescription(t *testing.T) {
	tests := []struct {
		participants []string
		want         string
	}{
		{[]string{"Alice"}, "Split with Alice"},
		{[]string{"Alice", "Bob", "Charlie"}, "Split with Alice, Bob, Charlie"},
		{[]string{"Alice", "Bob", "Charlie", "Diana"}, "Split with Alice, Bob and 2 others"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, generateDescription(tt.participants))
		})
	}

	g := newTestGroup(t, "Alice", "Bob")
	g, err := AddExpense(g, models.Expense{ID: "e1", Amount: 100, Payer: "Alice", Split: models.EqualSplit{}})
	require.NoError(t, err)
	assert.Equal(t, "Split with Alice, Bob", g.Expenses[0].Description)
}
