package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitchain/internal/models"
	"github.com/mmynk/splitchain/internal/money"
	"github.com/mmynk/splitchain/internal/storage"
)

func TestSQLiteStore(t *testing.T) {
	// Create temp directory for test database
	tempDir, err := os.MkdirTemp("", "splitchain-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	dbPath := filepath.Join(tempDir, "nested", "test.db")
	store, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	created := time.Date(2026, 10, 1, 9, 30, 0, 0, time.UTC)

	group := models.Group{
		ID:            "g1",
		Name:          "Roommates",
		Members:       []string{"Alice", "Bob", "Charlie"},
		FormerMembers: []string{"Dave"},
		CreatedAt:     created,
		Expenses: []models.Expense{
			{
				ID: "e1", Description: "Groceries", Amount: money.MustParse("10.00"), Payer: "Alice",
				Timestamp: created.Add(time.Hour),
				Split:     models.EqualSplit{Members: []string{"Alice", "Bob", "Charlie"}},
			},
			{
				ID: "e2", Description: "Rent", Amount: money.MustParse("1200.00"), Payer: "Bob",
				Timestamp: created.Add(2 * time.Hour),
				Split: models.PercentageSplit{Shares: []models.PercentShare{
					{Member: "Alice", Percent: decimal.RequireFromString("33.5")},
					{Member: "Bob", Percent: decimal.RequireFromString("33.5")},
					{Member: "Charlie", Percent: decimal.RequireFromString("33")},
				}},
			},
			{
				ID: "e3", Description: "Dave paid Alice", Amount: money.MustParse("5.00"), Payer: "Dave",
				Split:   models.CustomSplit{Shares: []models.AmountShare{{Member: "Alice", Amount: money.MustParse("5.00")}}},
				Payment: true,
			},
		},
	}

	t.Run("SaveGroup and LoadGroup round trip", func(t *testing.T) {
		if err := store.SaveGroup(ctx, group); err != nil {
			t.Fatalf("SaveGroup failed: %v", err)
		}

		loaded, err := store.LoadGroup(ctx, "g1")
		if err != nil {
			t.Fatalf("LoadGroup failed: %v", err)
		}

		if loaded.Name != "Roommates" {
			t.Errorf("Expected name 'Roommates', got %q", loaded.Name)
		}
		if !loaded.CreatedAt.Equal(created) {
			t.Errorf("Expected CreatedAt %v, got %v", created, loaded.CreatedAt)
		}
		if len(loaded.Members) != 3 || loaded.Members[2] != "Charlie" {
			t.Errorf("Unexpected members: %v", loaded.Members)
		}
		if len(loaded.FormerMembers) != 1 || loaded.FormerMembers[0] != "Dave" {
			t.Errorf("Unexpected former members: %v", loaded.FormerMembers)
		}
		if len(loaded.Expenses) != 3 {
			t.Fatalf("Expected 3 expenses, got %d", len(loaded.Expenses))
		}

		eq, ok := loaded.Expenses[0].Split.(models.EqualSplit)
		if !ok || len(eq.Members) != 3 {
			t.Errorf("Expected equal split over 3 members, got %#v", loaded.Expenses[0].Split)
		}

		pct, ok := loaded.Expenses[1].Split.(models.PercentageSplit)
		if !ok {
			t.Fatalf("Expected percentage split, got %#v", loaded.Expenses[1].Split)
		}
		if !pct.Shares[0].Percent.Equal(decimal.RequireFromString("33.5")) {
			t.Errorf("Expected 33.5%%, got %s", pct.Shares[0].Percent)
		}
		if loaded.Expenses[1].Amount != money.MustParse("1200.00") {
			t.Errorf("Expected 1200.00, got %s", loaded.Expenses[1].Amount)
		}

		payment := loaded.Expenses[2]
		if !payment.Payment {
			t.Error("Expected payment flag to survive")
		}
		if !payment.Timestamp.IsZero() {
			t.Errorf("Expected zero timestamp, got %v", payment.Timestamp)
		}
		custom, ok := payment.Split.(models.CustomSplit)
		if !ok || custom.Shares[0].Amount != money.MustParse("5.00") {
			t.Errorf("Unexpected custom split: %#v", payment.Split)
		}
	})

	t.Run("SaveGroup appends new expenses and updates members", func(t *testing.T) {
		next := group.Clone()
		next.Name = "Flatmates"
		next.Members = []string{"Alice", "Bob"}
		next.FormerMembers = append(next.FormerMembers, "Charlie")
		next.Expenses = append(next.Expenses, models.Expense{
			ID: "e4", Description: "Pizza", Amount: 300, Payer: "Alice",
			Split: models.EqualSplit{Members: []string{"Alice", "Bob"}},
		})

		if err := store.SaveGroup(ctx, next); err != nil {
			t.Fatalf("SaveGroup failed: %v", err)
		}

		loaded, err := store.LoadGroup(ctx, "g1")
		if err != nil {
			t.Fatalf("LoadGroup failed: %v", err)
		}
		if loaded.Name != "Flatmates" {
			t.Errorf("Expected renamed group, got %q", loaded.Name)
		}
		if len(loaded.Members) != 2 || len(loaded.FormerMembers) != 2 {
			t.Errorf("Unexpected membership: %v / %v", loaded.Members, loaded.FormerMembers)
		}
		if len(loaded.Expenses) != 4 || loaded.Expenses[3].ID != "e4" {
			t.Errorf("Expected e4 appended last, got %d expenses", len(loaded.Expenses))
		}
	})

	t.Run("ListGroups", func(t *testing.T) {
		other := models.Group{ID: "g2", Name: "Trip", Members: []string{"Eve"}, CreatedAt: created.Add(time.Minute)}
		if err := store.SaveGroup(ctx, other); err != nil {
			t.Fatalf("SaveGroup failed: %v", err)
		}

		groups, err := store.ListGroups(ctx)
		if err != nil {
			t.Fatalf("ListGroups failed: %v", err)
		}
		if len(groups) != 2 {
			t.Fatalf("Expected 2 groups, got %d", len(groups))
		}
		if groups[0].ID != "g1" || groups[1].ID != "g2" {
			t.Errorf("Unexpected order: %s, %s", groups[0].ID, groups[1].ID)
		}
	})

	t.Run("DeleteGroup cascades", func(t *testing.T) {
		if err := store.DeleteGroup(ctx, "g1"); err != nil {
			t.Fatalf("DeleteGroup failed: %v", err)
		}

		_, err := store.LoadGroup(ctx, "g1")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}

		var shares int
		if err := store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM expense_shares").Scan(&shares); err != nil {
			t.Fatalf("count shares: %v", err)
		}
		if shares != 0 {
			t.Errorf("Expected shares to be deleted, %d left", shares)
		}

		if err := store.DeleteGroup(ctx, "g1"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound on second delete, got %v", err)
		}
	})
}
