package apiconnect

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/splitchain/pkg/api"
)

// LedgerServiceName is the fully-qualified name of the LedgerService service.
const LedgerServiceName = "splitchain.v1.LedgerService"

// These constants are the fully-qualified names of the RPCs defined in this package. They're
// exposed at runtime as Spec.Procedure and as the final two segments of the HTTP route.
const (
	LedgerServiceCreateGroupProcedure    = "/splitchain.v1.LedgerService/CreateGroup"
	LedgerServiceGetGroupProcedure       = "/splitchain.v1.LedgerService/GetGroup"
	LedgerServiceListGroupsProcedure     = "/splitchain.v1.LedgerService/ListGroups"
	LedgerServiceRenameGroupProcedure    = "/splitchain.v1.LedgerService/RenameGroup"
	LedgerServiceDeleteGroupProcedure    = "/splitchain.v1.LedgerService/DeleteGroup"
	LedgerServiceAddMemberProcedure      = "/splitchain.v1.LedgerService/AddMember"
	LedgerServiceRemoveMemberProcedure   = "/splitchain.v1.LedgerService/RemoveMember"
	LedgerServiceAddExpenseProcedure     = "/splitchain.v1.LedgerService/AddExpense"
	LedgerServiceGetBalancesProcedure    = "/splitchain.v1.LedgerService/GetBalances"
	LedgerServicePlanSettlementProcedure = "/splitchain.v1.LedgerService/PlanSettlement"
	LedgerServiceSettleUpProcedure       = "/splitchain.v1.LedgerService/SettleUp"
)

// LedgerServiceClient is a client for the splitchain.v1.LedgerService service.
type LedgerServiceClient interface {
	CreateGroup(context.Context, *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error)
	GetGroup(context.Context, *connect.Request[api.GetGroupRequest]) (*connect.Response[api.GetGroupResponse], error)
	ListGroups(context.Context, *connect.Request[api.ListGroupsRequest]) (*connect.Response[api.ListGroupsResponse], error)
	RenameGroup(context.Context, *connect.Request[api.RenameGroupRequest]) (*connect.Response[api.RenameGroupResponse], error)
	DeleteGroup(context.Context, *connect.Request[api.DeleteGroupRequest]) (*connect.Response[api.DeleteGroupResponse], error)
	AddMember(context.Context, *connect.Request[api.AddMemberRequest]) (*connect.Response[api.AddMemberResponse], error)
	RemoveMember(context.Context, *connect.Request[api.RemoveMemberRequest]) (*connect.Response[api.RemoveMemberResponse], error)
	AddExpense(context.Context, *connect.Request[api.AddExpenseRequest]) (*connect.Response[api.AddExpenseResponse], error)
	GetBalances(context.Context, *connect.Request[api.GetBalancesRequest]) (*connect.Response[api.GetBalancesResponse], error)
	PlanSettlement(context.Context, *connect.Request[api.PlanSettlementRequest]) (*connect.Response[api.PlanSettlementResponse], error)
	SettleUp(context.Context, *connect.Request[api.SettleUpRequest]) (*connect.Response[api.SettleUpResponse], error)
}

// NewLedgerServiceClient constructs a client for the splitchain.v1.LedgerService service. By
// default it uses the Connect protocol with the JSON codec.
//
// The URL supplied here should be the base URL for the Connect server (for example,
// http://api.acme.com or https://acme.com/grpc).
func NewLedgerServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) LedgerServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(jsonCodec{name: "json"})}, opts...)
	return &ledgerServiceClient{
		createGroup:    connect.NewClient[api.CreateGroupRequest, api.CreateGroupResponse](httpClient, baseURL+LedgerServiceCreateGroupProcedure, opts...),
		getGroup:       connect.NewClient[api.GetGroupRequest, api.GetGroupResponse](httpClient, baseURL+LedgerServiceGetGroupProcedure, opts...),
		listGroups:     connect.NewClient[api.ListGroupsRequest, api.ListGroupsResponse](httpClient, baseURL+LedgerServiceListGroupsProcedure, opts...),
		renameGroup:    connect.NewClient[api.RenameGroupRequest, api.RenameGroupResponse](httpClient, baseURL+LedgerServiceRenameGroupProcedure, opts...),
		deleteGroup:    connect.NewClient[api.DeleteGroupRequest, api.DeleteGroupResponse](httpClient, baseURL+LedgerServiceDeleteGroupProcedure, opts...),
		addMember:      connect.NewClient[api.AddMemberRequest, api.AddMemberResponse](httpClient, baseURL+LedgerServiceAddMemberProcedure, opts...),
		removeMember:   connect.NewClient[api.RemoveMemberRequest, api.RemoveMemberResponse](httpClient, baseURL+LedgerServiceRemoveMemberProcedure, opts...),
		addExpense:     connect.NewClient[api.AddExpenseRequest, api.AddExpenseResponse](httpClient, baseURL+LedgerServiceAddExpenseProcedure, opts...),
		getBalances:    connect.NewClient[api.GetBalancesRequest, api.GetBalancesResponse](httpClient, baseURL+LedgerServiceGetBalancesProcedure, opts...),
		planSettlement: connect.NewClient[api.PlanSettlementRequest, api.PlanSettlementResponse](httpClient, baseURL+LedgerServicePlanSettlementProcedure, opts...),
		settleUp:       connect.NewClient[api.SettleUpRequest, api.SettleUpResponse](httpClient, baseURL+LedgerServiceSettleUpProcedure, opts...),
	}
}

// ledgerServiceClient implements LedgerServiceClient.
type ledgerServiceClient struct {
	createGroup    *connect.Client[api.CreateGroupRequest, api.CreateGroupResponse]
	getGroup       *connect.Client[api.GetGroupRequest, api.GetGroupResponse]
	listGroups     *connect.Client[api.ListGroupsRequest, api.ListGroupsResponse]
	renameGroup    *connect.Client[api.RenameGroupRequest, api.RenameGroupResponse]
	deleteGroup    *connect.Client[api.DeleteGroupRequest, api.DeleteGroupResponse]
	addMember      *connect.Client[api.AddMemberRequest, api.AddMemberResponse]
	removeMember   *connect.Client[api.RemoveMemberRequest, api.RemoveMemberResponse]
	addExpense     *connect.Client[api.AddExpenseRequest, api.AddExpenseResponse]
	getBalances    *connect.Client[api.GetBalancesRequest, api.GetBalancesResponse]
	planSettlement *connect.Client[api.PlanSettlementRequest, api.PlanSettlementResponse]
	settleUp       *connect.Client[api.SettleUpRequest, api.SettleUpResponse]
}

func (c *ledgerServiceClient) CreateGroup(ctx context.Context, req *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error) {
	return c.createGroup.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) GetGroup(ctx context.Context, req *connect.Request[api.GetGroupRequest]) (*connect.Response[api.GetGroupResponse], error) {
	return c.getGroup.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) ListGroups(ctx context.Context, req *connect.Request[api.ListGroupsRequest]) (*connect.Response[api.ListGroupsResponse], error) {
	return c.listGroups.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) RenameGroup(ctx context.Context, req *connect.Request[api.RenameGroupRequest]) (*connect.Response[api.RenameGroupResponse], error) {
	return c.renameGroup.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) DeleteGroup(ctx context.Context, req *connect.Request[api.DeleteGroupRequest]) (*connect.Response[api.DeleteGroupResponse], error) {
	return c.deleteGroup.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) AddMember(ctx context.Context, req *connect.Request[api.AddMemberRequest]) (*connect.Response[api.AddMemberResponse], error) {
	return c.addMember.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) RemoveMember(ctx context.Context, req *connect.Request[api.RemoveMemberRequest]) (*connect.Response[api.RemoveMemberResponse], error) {
	return c.removeMember.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) AddExpense(ctx context.Context, req *connect.Request[api.AddExpenseRequest]) (*connect.Response[api.AddExpenseResponse], error) {
	return c.addExpense.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) GetBalances(ctx context.Context, req *connect.Request[api.GetBalancesRequest]) (*connect.Response[api.GetBalancesResponse], error) {
	return c.getBalances.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) PlanSettlement(ctx context.Context, req *connect.Request[api.PlanSettlementRequest]) (*connect.Response[api.PlanSettlementResponse], error) {
	return c.planSettlement.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) SettleUp(ctx context.Context, req *connect.Request[api.SettleUpRequest]) (*connect.Response[api.SettleUpResponse], error) {
	return c.settleUp.CallUnary(ctx, req)
}

// LedgerServiceHandler is an implementation of the splitchain.v1.LedgerService service.
type LedgerServiceHandler interface {
	CreateGroup(context.Context, *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error)
	GetGroup(context.Context, *connect.Request[api.GetGroupRequest]) (*connect.Response[api.GetGroupResponse], error)
	ListGroups(context.Context, *connect.Request[api.ListGroupsRequest]) (*connect.Response[api.ListGroupsResponse], error)
	RenameGroup(context.Context, *connect.Request[api.RenameGroupRequest]) (*connect.Response[api.RenameGroupResponse], error)
	DeleteGroup(context.Context, *connect.Request[api.DeleteGroupRequest]) (*connect.Response[api.DeleteGroupResponse], error)
	AddMember(context.Context, *connect.Request[api.AddMemberRequest]) (*connect.Response[api.AddMemberResponse], error)
	RemoveMember(context.Context, *connect.Request[api.RemoveMemberRequest]) (*connect.Response[api.RemoveMemberResponse], error)
	AddExpense(context.Context, *connect.Request[api.AddExpenseRequest]) (*connect.Response[api.AddExpenseResponse], error)
	GetBalances(context.Context, *connect.Request[api.GetBalancesRequest]) (*connect.Response[api.GetBalancesResponse], error)
	PlanSettlement(context.Context, *connect.Request[api.PlanSettlementRequest]) (*connect.Response[api.PlanSettlementResponse], error)
	SettleUp(context.Context, *connect.Request[api.SettleUpRequest]) (*connect.Response[api.SettleUpResponse], error)
}

// NewLedgerServiceHandler builds an HTTP handler from the service implementation. It returns the
// path on which to mount the handler and the handler itself.
//
// By default, handlers support the Connect, gRPC, and gRPC-Web protocols with the JSON codec.
func NewLedgerServiceHandler(svc LedgerServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{
		connect.WithCodec(jsonCodec{name: "json"}),
		connect.WithCodec(jsonCodec{name: "json; charset=utf-8"}),
	}, opts...)

	routes := map[string]http.Handler{
		LedgerServiceCreateGroupProcedure:    connect.NewUnaryHandler(LedgerServiceCreateGroupProcedure, svc.CreateGroup, opts...),
		LedgerServiceGetGroupProcedure:       connect.NewUnaryHandler(LedgerServiceGetGroupProcedure, svc.GetGroup, opts...),
		LedgerServiceListGroupsProcedure:     connect.NewUnaryHandler(LedgerServiceListGroupsProcedure, svc.ListGroups, opts...),
		LedgerServiceRenameGroupProcedure:    connect.NewUnaryHandler(LedgerServiceRenameGroupProcedure, svc.RenameGroup, opts...),
		LedgerServiceDeleteGroupProcedure:    connect.NewUnaryHandler(LedgerServiceDeleteGroupProcedure, svc.DeleteGroup, opts...),
		LedgerServiceAddMemberProcedure:      connect.NewUnaryHandler(LedgerServiceAddMemberProcedure, svc.AddMember, opts...),
		LedgerServiceRemoveMemberProcedure:   connect.NewUnaryHandler(LedgerServiceRemoveMemberProcedure, svc.RemoveMember, opts...),
		LedgerServiceAddExpenseProcedure:     connect.NewUnaryHandler(LedgerServiceAddExpenseProcedure, svc.AddExpense, opts...),
		LedgerServiceGetBalancesProcedure:    connect.NewUnaryHandler(LedgerServiceGetBalancesProcedure, svc.GetBalances, opts...),
		LedgerServicePlanSettlementProcedure: connect.NewUnaryHandler(LedgerServicePlanSettlementProcedure, svc.PlanSettlement, opts...),
		LedgerServiceSettleUpProcedure:       connect.NewUnaryHandler(LedgerServiceSettleUpProcedure, svc.SettleUp, opts...),
	}

	return "/" + LedgerServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h, ok := routes[r.URL.Path]; ok {
			h.ServeHTTP(w, r)
			return
		}
		http.NotFound(w, r)
	})
}

// UnimplementedLedgerServiceHandler returns CodeUnimplemented from all methods.
type UnimplementedLedgerServiceHandler struct{}

func (UnimplementedLedgerServiceHandler) CreateGroup(context.Context, *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("splitchain.v1.LedgerService.CreateGroup is not implemented"))
}

func (UnimplementedLedgerServiceHandler) GetGroup(context.Context, *connect.Request[api.GetGroupRequest]) (*connect.Response[api.GetGroupResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("splitchain.v1.LedgerService.GetGroup is not implemented"))
}

func (UnimplementedLedgerServiceHandler) ListGroups(context.Context, *connect.Request[api.ListGroupsRequest]) (*connect.Response[api.ListGroupsResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("splitchain.v1.LedgerService.ListGroups is not implemented"))
}

func (UnimplementedLedgerServiceHandler) RenameGroup(context.Context, *connect.Request[api.RenameGroupRequest]) (*connect.Response[api.RenameGroupResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("splitchain.v1.LedgerService.RenameGroup is not implemented"))
}

func (UnimplementedLedgerServiceHandler) DeleteGroup(context.Context, *connect.Request[api.DeleteGroupRequest]) (*connect.Response[api.DeleteGroupResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("splitchain.v1.LedgerService.DeleteGroup is not implemented"))
}

func (UnimplementedLedgerServiceHandler) AddMember(context.Context, *connect.Request[api.AddMemberRequest]) (*connect.Response[api.AddMemberResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("splitchain.v1.LedgerService.AddMember is not implemented"))
}

func (UnimplementedLedgerServiceHandler) RemoveMember(context.Context, *connect.Request[api.RemoveMemberRequest]) (*connect.Response[api.RemoveMemberResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("splitchain.v1.LedgerService.RemoveMember is not implemented"))
}

func (UnimplementedLedgerServiceHandler) AddExpense(context.Context, *connect.Request[api.AddExpenseRequest]) (*connect.Response[api.AddExpenseResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("splitchain.v1.LedgerService.AddExpense is not implemented"))
}

func (UnimplementedLedgerServiceHandler) GetBalances(context.Context, *connect.Request[api.GetBalancesRequest]) (*connect.Response[api.GetBalancesResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("splitchain.v1.LedgerService.GetBalances is not implemented"))
}

func (UnimplementedLedgerServiceHandler) PlanSettlement(context.Context, *connect.Request[api.PlanSettlementRequest]) (*connect.Response[api.PlanSettlementResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("splitchain.v1.LedgerService.PlanSettlement is not implemented"))
}

func (UnimplementedLedgerServiceHandler) SettleUp(context.Context, *connect.Request[api.SettleUpRequest]) (*connect.Response[api.SettleUpResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("splitchain.v1.LedgerService.SettleUp is not implemented"))
}
