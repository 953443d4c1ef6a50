// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/mmynk/splitchain/internal/models"
	"github.com/mmynk/splitchain/internal/money"
	"github.com/mmynk/splitchain/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer at a time; SQLite serialises writes anyway.
	db.SetMaxOpenConns(1)

	if err := runMigrations(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveGroup upserts the group row, rewrites the member list and appends
// any expenses not stored yet, all in one transaction.
func (s *SQLiteStore) SaveGroup(ctx context.Context, group models.Group) error {
	if group.ID == "" {
		return fmt.Errorf("group id is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO groups (id, name, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name`,
		group.ID, group.Name, toUnix(group.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert group: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM group_members WHERE group_id = ?", group.ID); err != nil {
		return fmt.Errorf("failed to clear members: %w", err)
	}
	position := 0
	for _, names := range []struct {
		list   []string
		former bool
	}{{group.Members, false}, {group.FormerMembers, true}} {
		for _, name := range names.list {
			_, err = tx.ExecContext(ctx,
				"INSERT INTO group_members (group_id, name, position, former) VALUES (?, ?, ?, ?)",
				group.ID, name, position, names.former,
			)
			if err != nil {
				return fmt.Errorf("failed to insert member: %w", err)
			}
			position++
		}
	}

	for i, e := range group.Expenses {
		if err := insertExpense(ctx, tx, group.ID, i, e); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// insertExpense stores an expense and its shares unless it already exists.
func insertExpense(ctx context.Context, tx *sql.Tx, groupID string, position int, e models.Expense) error {
	if e.Split == nil {
		return fmt.Errorf("expense %s has no split", e.ID)
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO expenses (id, group_id, position, description, amount, payer, policy, payment, occurred_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO NOTHING`,
		e.ID, groupID, position, e.Description, int64(e.Amount), e.Payer,
		string(e.Split.Policy()), e.Payment, toUnix(e.Timestamp),
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	} else if n == 0 {
		return nil
	}

	insertShare := func(i int, member string, percent, amount any) error {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO expense_shares (expense_id, position, member, percent, amount) VALUES (?, ?, ?, ?, ?)",
			e.ID, i, member, percent, amount,
		)
		if err != nil {
			return fmt.Errorf("failed to insert expense share: %w", err)
		}
		return nil
	}

	switch split := e.Split.(type) {
	case models.EqualSplit:
		for i, m := range split.Members {
			if err := insertShare(i, m, nil, nil); err != nil {
				return err
			}
		}
	case models.PercentageSplit:
		for i, sh := range split.Shares {
			if err := insertShare(i, sh.Member, sh.Percent.String(), nil); err != nil {
				return err
			}
		}
	case models.CustomSplit:
		for i, sh := range split.Shares {
			if err := insertShare(i, sh.Member, nil, int64(sh.Amount)); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("expense %s: unsupported split policy %q", e.ID, e.Split.Policy())
	}
	return nil
}

// LoadGroup rebuilds a group snapshot with members and expenses in order.
func (s *SQLiteStore) LoadGroup(ctx context.Context, groupID string) (models.Group, error) {
	group := models.Group{}
	var createdAt int64
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, created_at FROM groups WHERE id = ?",
		groupID,
	).Scan(&group.ID, &group.Name, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Group{}, fmt.Errorf("%w: %s", storage.ErrNotFound, groupID)
	}
	if err != nil {
		return models.Group{}, fmt.Errorf("failed to get group: %w", err)
	}
	group.CreatedAt = fromUnix(createdAt)

	if err := s.loadMembers(ctx, &group); err != nil {
		return models.Group{}, err
	}
	if err := s.loadExpenses(ctx, &group); err != nil {
		return models.Group{}, err
	}
	return group, nil
}

func (s *SQLiteStore) loadMembers(ctx context.Context, group *models.Group) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT name, former FROM group_members WHERE group_id = ? ORDER BY position",
		group.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get members: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		var former bool
		if err := rows.Scan(&name, &former); err != nil {
			return fmt.Errorf("failed to scan member: %w", err)
		}
		if former {
			group.FormerMembers = append(group.FormerMembers, name)
		} else {
			group.Members = append(group.Members, name)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate members: %w", err)
	}
	return nil
}

type shareRow struct {
	member  string
	percent sql.NullString
	amount  sql.NullInt64
}

func (s *SQLiteStore) loadExpenses(ctx context.Context, group *models.Group) error {
	shares, err := s.loadShares(ctx, group.ID)
	if err != nil {
		return err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, description, amount, payer, policy, payment, occurred_at
		 FROM expenses WHERE group_id = ? ORDER BY position`,
		group.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get expenses: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var e models.Expense
		var amount, occurredAt int64
		var policy string
		if err := rows.Scan(&e.ID, &e.Description, &amount, &e.Payer, &policy, &e.Payment, &occurredAt); err != nil {
			return fmt.Errorf("failed to scan expense: %w", err)
		}
		e.Amount = money.Amount(amount)
		e.Timestamp = fromUnix(occurredAt)

		split, err := buildSplit(policy, shares[e.ID])
		if err != nil {
			return fmt.Errorf("expense %s: %w", e.ID, err)
		}
		e.Split = split
		group.Expenses = append(group.Expenses, e)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate expenses: %w", err)
	}
	return nil
}

func (s *SQLiteStore) loadShares(ctx context.Context, groupID string) (map[string][]shareRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT s.expense_id, s.member, s.percent, s.amount
		 FROM expense_shares s JOIN expenses e ON e.id = s.expense_id
		 WHERE e.group_id = ? ORDER BY e.position, s.position`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get expense shares: %w", err)
	}
	defer rows.Close()

	shares := make(map[string][]shareRow)
	for rows.Next() {
		var expenseID string
		var r shareRow
		if err := rows.Scan(&expenseID, &r.member, &r.percent, &r.amount); err != nil {
			return nil, fmt.Errorf("failed to scan expense share: %w", err)
		}
		shares[expenseID] = append(shares[expenseID], r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expense shares: %w", err)
	}
	return shares, nil
}

func buildSplit(policy string, rows []shareRow) (models.Split, error) {
	p, err := models.ParseSplitPolicy(policy)
	if err != nil {
		return nil, err
	}

	switch p {
	case models.PolicyEqual:
		split := models.EqualSplit{}
		for _, r := range rows {
			split.Members = append(split.Members, r.member)
		}
		return split, nil
	case models.PolicyByPercentage:
		split := models.PercentageSplit{}
		for _, r := range rows {
			pct, err := decimal.NewFromString(r.percent.String)
			if err != nil {
				return nil, fmt.Errorf("bad percentage for %q: %w", r.member, err)
			}
			split.Shares = append(split.Shares, models.PercentShare{Member: r.member, Percent: pct})
		}
		return split, nil
	default:
		split := models.CustomSplit{}
		for _, r := range rows {
			split.Shares = append(split.Shares, models.AmountShare{Member: r.member, Amount: money.Amount(r.amount.Int64)})
		}
		return split, nil
	}
}

// ListGroups returns every group, oldest first.
func (s *SQLiteStore) ListGroups(ctx context.Context) ([]models.Group, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id FROM groups ORDER BY created_at, rowid")
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate groups: %w", err)
	}

	groups := make([]models.Group, 0, len(ids))
	for _, id := range ids {
		g, err := s.LoadGroup(ctx, id)
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, nil
}

// DeleteGroup removes a group by ID along with its members and expenses.
func (s *SQLiteStore) DeleteGroup(ctx context.Context, groupID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM groups WHERE id = ?", groupID)
	if err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", storage.ErrNotFound, groupID)
	}
	return nil
}

func toUnix(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromUnix(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}
