package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"connectrpc.com/connect"
	"github.com/google/uuid"

	"github.com/mmynk/splitchain/internal/calculator"
	"github.com/mmynk/splitchain/internal/events"
	"github.com/mmynk/splitchain/internal/ledger"
	"github.com/mmynk/splitchain/internal/models"
	"github.com/mmynk/splitchain/internal/money"
	"github.com/mmynk/splitchain/internal/payment"
	"github.com/mmynk/splitchain/internal/storage"
	"github.com/mmynk/splitchain/pkg/api"
	"github.com/mmynk/splitchain/pkg/api/apiconnect"
)

// Recorder receives ledger activity for metrics.
type Recorder interface {
	RecordExpense(policy string)
	RecordTransfer(status string, amount float64)
}

type nopRecorder struct{}

func (nopRecorder) RecordExpense(string)           {}
func (nopRecorder) RecordTransfer(string, float64) {}

// LedgerService implements the Connect LedgerService.
//
// Each mutating RPC loads the group, applies a pure ledger transition and
// saves the result while holding that group's lock, so concurrent requests
// against one group are applied one at a time.
type LedgerService struct {
	apiconnect.UnimplementedLedgerServiceHandler

	store          storage.Store
	executor       payment.Executor
	publisher      events.Publisher
	recorder       Recorder
	now            func() time.Time
	paymentTimeout time.Duration

	mapMu sync.Mutex
	locks map[string]*groupLock
}

// groupLock serializes work on one group. refs counts the holder and the
// waiters; the entry leaves the map when the last of them is done.
type groupLock struct {
	mu   sync.Mutex
	refs int
}

var _ apiconnect.LedgerServiceHandler = (*LedgerService)(nil)

type Option func(*LedgerService)

// WithExecutor sets the executor SettleUp pays through.
func WithExecutor(e payment.Executor) Option {
	return func(s *LedgerService) { s.executor = e }
}

func WithPublisher(p events.Publisher) Option {
	return func(s *LedgerService) { s.publisher = p }
}

func WithRecorder(r Recorder) Option {
	return func(s *LedgerService) { s.recorder = r }
}

// WithClock overrides time.Now for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *LedgerService) { s.now = now }
}

// WithPaymentTimeout bounds each executor call. Zero means no extra bound.
func WithPaymentTimeout(d time.Duration) Option {
	return func(s *LedgerService) { s.paymentTimeout = d }
}

// NewLedgerService creates a LedgerService on the given storage backend.
// Without options it settles through a payment.Simulated executor and
// publishes nothing.
func NewLedgerService(store storage.Store, opts ...Option) *LedgerService {
	s := &LedgerService{
		store:     store,
		executor:  payment.NewSimulated(),
		publisher: events.Nop{},
		recorder:  nopRecorder{},
		now:       time.Now,
		locks:     make(map[string]*groupLock),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// lockGroup blocks until the caller holds groupID's lock and returns the
// function that releases it.
func (s *LedgerService) lockGroup(groupID string) (unlock func()) {
	s.mapMu.Lock()
	l, exists := s.locks[groupID]
	if !exists {
		l = &groupLock{}
		s.locks[groupID] = l
	}
	l.refs++
	s.mapMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		s.mapMu.Lock()
		defer s.mapMu.Unlock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, groupID)
		}
	}
}

// mutate runs fn on the stored group and saves what it returns. The stored
// group is untouched when fn fails.
func (s *LedgerService) mutate(ctx context.Context, groupID string, fn func(models.Group) (models.Group, error)) (models.Group, error) {
	unlock := s.lockGroup(groupID)
	defer unlock()

	group, err := s.store.LoadGroup(ctx, groupID)
	if err != nil {
		return models.Group{}, err
	}
	next, err := fn(group)
	if err != nil {
		return models.Group{}, err
	}
	if err := s.store.SaveGroup(ctx, next); err != nil {
		return models.Group{}, fmt.Errorf("save group %s: %w", groupID, err)
	}
	return next, nil
}

// CreateGroup creates a new group with an optional initial member list.
func (s *LedgerService) CreateGroup(ctx context.Context, req *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error) {
	slog.Info("CreateGroup request received",
		"name", req.Msg.Name,
		"members_count", len(req.Msg.Members),
	)
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}

	group, err := ledger.NewGroup(uuid.NewString(), req.Msg.Name, s.now().UTC(), req.Msg.Members...)
	if err != nil {
		return nil, toConnectError(err)
	}
	if err := s.store.SaveGroup(ctx, group); err != nil {
		slog.Error("CreateGroup failed", "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Group created", "group_id", group.ID)

	return connect.NewResponse(&api.CreateGroupResponse{Group: toAPIGroup(group, true)}), nil
}

// GetGroup retrieves a group with its full expense history.
func (s *LedgerService) GetGroup(ctx context.Context, req *connect.Request[api.GetGroupRequest]) (*connect.Response[api.GetGroupResponse], error) {
	slog.Info("GetGroup request received", "group_id", req.Msg.GroupID)
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}

	group, err := s.store.LoadGroup(ctx, req.Msg.GroupID)
	if err != nil {
		slog.Error("GetGroup failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&api.GetGroupResponse{Group: toAPIGroup(group, true)}), nil
}

// ListGroups retrieves all groups without their expenses.
func (s *LedgerService) ListGroups(ctx context.Context, req *connect.Request[api.ListGroupsRequest]) (*connect.Response[api.ListGroupsResponse], error) {
	slog.Info("ListGroups request received")

	groups, err := s.store.ListGroups(ctx)
	if err != nil {
		slog.Error("ListGroups failed", "error", err)
		return nil, toConnectError(err)
	}

	out := make([]api.Group, len(groups))
	for i, g := range groups {
		out[i] = toAPIGroup(g, false)
	}

	slog.Info("ListGroups successful", "count", len(groups))

	return connect.NewResponse(&api.ListGroupsResponse{Groups: out}), nil
}

// RenameGroup changes a group's display name.
func (s *LedgerService) RenameGroup(ctx context.Context, req *connect.Request[api.RenameGroupRequest]) (*connect.Response[api.RenameGroupResponse], error) {
	slog.Info("RenameGroup request received", "group_id", req.Msg.GroupID, "name", req.Msg.Name)
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}

	group, err := s.mutate(ctx, req.Msg.GroupID, func(g models.Group) (models.Group, error) {
		return ledger.Rename(g, req.Msg.Name)
	})
	if err != nil {
		slog.Error("RenameGroup failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&api.RenameGroupResponse{Group: toAPIGroup(group, false)}), nil
}

// DeleteGroup removes a group and its history.
func (s *LedgerService) DeleteGroup(ctx context.Context, req *connect.Request[api.DeleteGroupRequest]) (*connect.Response[api.DeleteGroupResponse], error) {
	slog.Info("DeleteGroup request received", "group_id", req.Msg.GroupID)
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}

	unlock := s.lockGroup(req.Msg.GroupID)
	err := s.store.DeleteGroup(ctx, req.Msg.GroupID)
	unlock()
	if err != nil {
		slog.Error("DeleteGroup failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Group deleted", "group_id", req.Msg.GroupID)

	return connect.NewResponse(&api.DeleteGroupResponse{}), nil
}

// AddMember adds a member, or restores a former one.
func (s *LedgerService) AddMember(ctx context.Context, req *connect.Request[api.AddMemberRequest]) (*connect.Response[api.AddMemberResponse], error) {
	slog.Info("AddMember request received", "group_id", req.Msg.GroupID, "member", req.Msg.Name)
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}

	group, err := s.mutate(ctx, req.Msg.GroupID, func(g models.Group) (models.Group, error) {
		return ledger.AddMember(g, req.Msg.Name)
	})
	if err != nil {
		slog.Warn("AddMember rejected", "group_id", req.Msg.GroupID, "member", req.Msg.Name, "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&api.AddMemberResponse{Group: toAPIGroup(group, false)}), nil
}

// RemoveMember removes a member whose balance is zero.
func (s *LedgerService) RemoveMember(ctx context.Context, req *connect.Request[api.RemoveMemberRequest]) (*connect.Response[api.RemoveMemberResponse], error) {
	slog.Info("RemoveMember request received", "group_id", req.Msg.GroupID, "member", req.Msg.Name)
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}

	group, err := s.mutate(ctx, req.Msg.GroupID, func(g models.Group) (models.Group, error) {
		return ledger.RemoveMember(g, req.Msg.Name)
	})
	if err != nil {
		slog.Warn("RemoveMember rejected", "group_id", req.Msg.GroupID, "member", req.Msg.Name, "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&api.RemoveMemberResponse{Group: toAPIGroup(group, false)}), nil
}

// AddExpense appends an expense and returns the updated balances.
func (s *LedgerService) AddExpense(ctx context.Context, req *connect.Request[api.AddExpenseRequest]) (*connect.Response[api.AddExpenseResponse], error) {
	slog.Info("AddExpense request received",
		"group_id", req.Msg.GroupID,
		"payer", req.Msg.Payer,
		"amount", req.Msg.Amount,
		"policy", req.Msg.Split.Policy,
	)
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}

	amount, err := money.Parse(req.Msg.Amount)
	if err != nil {
		return nil, toConnectError(err)
	}
	split, err := fromAPISplit(req.Msg.Split)
	if err != nil {
		return nil, toConnectError(err)
	}
	ts := s.now().UTC()
	if req.Msg.Timestamp != 0 {
		ts = time.Unix(req.Msg.Timestamp, 0).UTC()
	}

	expense := models.Expense{
		ID:          uuid.NewString(),
		Description: req.Msg.Description,
		Amount:      amount,
		Payer:       req.Msg.Payer,
		Timestamp:   ts,
		Split:       split,
	}

	var balances []models.Balance
	group, err := s.mutate(ctx, req.Msg.GroupID, func(g models.Group) (models.Group, error) {
		next, err := ledger.AddExpense(g, expense)
		if err != nil {
			return next, err
		}
		balances, err = calculator.ComputeBalances(next)
		return next, err
	})
	if err != nil {
		slog.Warn("AddExpense rejected", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}

	stored := group.Expenses[len(group.Expenses)-1]
	s.recorder.RecordExpense(string(stored.Split.Policy()))
	s.publish(ctx, events.Event{
		Type:       events.TypeExpenseAdded,
		GroupID:    group.ID,
		OccurredAt: stored.Timestamp,
		Payload: events.ExpenseAdded{
			ExpenseID:   stored.ID,
			Description: stored.Description,
			Payer:       stored.Payer,
			Amount:      stored.Amount,
			Policy:      string(stored.Split.Policy()),
		},
	})

	slog.Info("Expense added", "group_id", group.ID, "expense_id", stored.ID)

	return connect.NewResponse(&api.AddExpenseResponse{
		Expense:  toAPIExpense(stored),
		Balances: toAPIBalances(balances),
	}), nil
}

// publish sends an event, logging instead of failing the RPC: the change it
// describes is already saved.
func (s *LedgerService) publish(ctx context.Context, event events.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		slog.Error("Failed to publish event", "type", event.Type, "group_id", event.GroupID, "error", err)
	}
}
