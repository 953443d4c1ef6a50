// Package api defines the messages of the splitchain.v1.LedgerService.
//
// Messages are plain structs sent as JSON over the Connect protocol. Money
// travels as decimal strings with two fraction digits ("10.00") and
// percentages as decimal strings ("33.5"). Timestamps are Unix seconds.
package api

// Split policies accepted in Split.Policy.
const (
	PolicyEqual        = "equal"
	PolicyByPercentage = "byPercentage"
	PolicyCustom       = "custom"
)

// Group is a named set of members sharing expenses.
type Group struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Members       []string  `json:"members"`
	FormerMembers []string  `json:"formerMembers,omitempty"`
	Expenses      []Expense `json:"expenses,omitempty"`
	CreatedAt     int64     `json:"createdAt"`
}

// Expense is a single payment event with a payer and a split.
type Expense struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Payer       string `json:"payer"`
	Timestamp   int64  `json:"timestamp"`
	Split       Split  `json:"split"`
	Payment     bool   `json:"payment,omitempty"`
}

// Split describes how an expense is divided.
//
// For equal splits Members lists the participants; empty means every current
// member. Percentage and custom splits use Shares.
type Split struct {
	Policy  string   `json:"policy" validate:"required,oneof=equal byPercentage custom"`
	Members []string `json:"members,omitempty" validate:"dive,required"`
	Shares  []Share  `json:"shares,omitempty" validate:"dive"`
}

// Share is one member's part of a percentage or custom split.
// Exactly one of Percent or Amount is set.
type Share struct {
	Member  string `json:"member" validate:"required"`
	Percent string `json:"percent,omitempty" validate:"omitempty,numeric"`
	Amount  string `json:"amount,omitempty" validate:"omitempty,numeric"`
}

// Balance is a member's signed net position. Positive means the member is owed.
type Balance struct {
	Member string `json:"member"`
	Amount string `json:"amount"`
}

// Transfer is a payment that moves From's debt to To.
type Transfer struct {
	From   string `json:"from" validate:"required"`
	To     string `json:"to" validate:"required,nefield=From"`
	Amount string `json:"amount" validate:"required,numeric"`
}

// Transfer outcomes reported by SettleUp.
const (
	TransferSettled = "settled"
	TransferFailed  = "failed"
	TransferSkipped = "skipped"
)

// TransferResult is the outcome of executing one transfer.
type TransferResult struct {
	Transfer  Transfer `json:"transfer"`
	Status    string   `json:"status"`
	Reference string   `json:"reference,omitempty"`
	Error     string   `json:"error,omitempty"`
}

type CreateGroupRequest struct {
	Name    string   `json:"name" validate:"required,max=100"`
	Members []string `json:"members" validate:"dive,required,max=100"`
}

type CreateGroupResponse struct {
	Group Group `json:"group"`
}

type GetGroupRequest struct {
	GroupID string `json:"groupId" validate:"required"`
}

type GetGroupResponse struct {
	Group Group `json:"group"`
}

type ListGroupsRequest struct{}

type ListGroupsResponse struct {
	Groups []Group `json:"groups"`
}

type RenameGroupRequest struct {
	GroupID string `json:"groupId" validate:"required"`
	Name    string `json:"name" validate:"required,max=100"`
}

type RenameGroupResponse struct {
	Group Group `json:"group"`
}

type DeleteGroupRequest struct {
	GroupID string `json:"groupId" validate:"required"`
}

type DeleteGroupResponse struct{}

type AddMemberRequest struct {
	GroupID string `json:"groupId" validate:"required"`
	Name    string `json:"name" validate:"required,max=100"`
}

type AddMemberResponse struct {
	Group Group `json:"group"`
}

type RemoveMemberRequest struct {
	GroupID string `json:"groupId" validate:"required"`
	Name    string `json:"name" validate:"required"`
}

type RemoveMemberResponse struct {
	Group Group `json:"group"`
}

type AddExpenseRequest struct {
	GroupID     string `json:"groupId" validate:"required"`
	Description string `json:"description" validate:"max=200"`
	Amount      string `json:"amount" validate:"required,numeric"`
	Payer       string `json:"payer" validate:"required"`
	// Timestamp defaults to the time the server receives the request.
	Timestamp int64 `json:"timestamp,omitempty"`
	Split     Split `json:"split"`
}

type AddExpenseResponse struct {
	Expense  Expense   `json:"expense"`
	Balances []Balance `json:"balances"`
}

type GetBalancesRequest struct {
	GroupID string `json:"groupId" validate:"required"`
}

type GetBalancesResponse struct {
	Balances []Balance `json:"balances"`
}

type PlanSettlementRequest struct {
	GroupID string `json:"groupId" validate:"required"`
}

type PlanSettlementResponse struct {
	Balances  []Balance  `json:"balances"`
	Transfers []Transfer `json:"transfers"`
}

type SettleUpRequest struct {
	GroupID string `json:"groupId" validate:"required"`
	// Transfers to execute in order. Empty means the current settlement plan.
	Transfers []Transfer `json:"transfers,omitempty" validate:"dive"`
}

type SettleUpResponse struct {
	Results  []TransferResult `json:"results"`
	Balances []Balance        `json:"balances"`
}
