package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"connectrpc.com/connect"
	"github.com/google/uuid"

	"github.com/mmynk/splitchain/internal/calculator"
	"github.com/mmynk/splitchain/internal/events"
	"github.com/mmynk/splitchain/internal/ledger"
	"github.com/mmynk/splitchain/internal/models"
	"github.com/mmynk/splitchain/internal/payment"
	"github.com/mmynk/splitchain/pkg/api"
)

// recordTimeout bounds saving and announcing a transfer that has already
// been paid.
const recordTimeout = 5 * time.Second

// GetBalances returns every current member's net balance.
func (s *LedgerService) GetBalances(ctx context.Context, req *connect.Request[api.GetBalancesRequest]) (*connect.Response[api.GetBalancesResponse], error) {
	slog.Info("GetBalances request received", "group_id", req.Msg.GroupID)
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}

	group, err := s.store.LoadGroup(ctx, req.Msg.GroupID)
	if err != nil {
		slog.Error("GetBalances failed - group not found", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}
	balances, err := calculator.ComputeBalances(group)
	if err != nil {
		slog.Error("GetBalances failed - could not compute", "group_id", req.Msg.GroupID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	return connect.NewResponse(&api.GetBalancesResponse{Balances: toAPIBalances(balances)}), nil
}

// PlanSettlement returns balances and the transfers that would clear them.
// Nothing is executed.
func (s *LedgerService) PlanSettlement(ctx context.Context, req *connect.Request[api.PlanSettlementRequest]) (*connect.Response[api.PlanSettlementResponse], error) {
	slog.Info("PlanSettlement request received", "group_id", req.Msg.GroupID)
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}

	group, err := s.store.LoadGroup(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(err)
	}
	balances, transfers, err := calculator.SettleGroup(group)
	if err != nil {
		slog.Error("PlanSettlement failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	slog.Info("PlanSettlement successful", "group_id", group.ID, "transfers", len(transfers))

	return connect.NewResponse(&api.PlanSettlementResponse{
		Balances:  toAPIBalances(balances),
		Transfers: toAPITransfers(transfers),
	}), nil
}

// SettleUp pays the requested transfers, or the current plan when none are
// given, and records each successful payment in the ledger.
//
// All transfers are validated against the group before the first one is
// executed. A rejected payment does not stop the ones after it; each result
// reports its own outcome.
func (s *LedgerService) SettleUp(ctx context.Context, req *connect.Request[api.SettleUpRequest]) (*connect.Response[api.SettleUpResponse], error) {
	slog.Info("SettleUp request received", "group_id", req.Msg.GroupID, "transfers", len(req.Msg.Transfers))
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}

	unlock := s.lockGroup(req.Msg.GroupID)
	defer unlock()

	group, err := s.store.LoadGroup(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(err)
	}

	transfers, err := s.transfersToExecute(group, req.Msg.Transfers)
	if err != nil {
		slog.Warn("SettleUp rejected", "group_id", group.ID, "error", err)
		return nil, toConnectError(err)
	}

	results := make([]api.TransferResult, 0, len(transfers))
	for _, t := range transfers {
		result := api.TransferResult{Transfer: toAPITransfer(t)}

		if err := ctx.Err(); err != nil {
			result.Status = api.TransferSkipped
			result.Error = err.Error()
			s.recorder.RecordTransfer(api.TransferSkipped, 0)
			results = append(results, result)
			continue
		}

		receipt, err := s.execute(ctx, t)
		if err != nil {
			slog.Warn("Transfer failed", "group_id", group.ID, "from", t.From, "to", t.To, "error", err)
			result.Status = api.TransferFailed
			result.Error = err.Error()
			s.recorder.RecordTransfer(api.TransferFailed, 0)
			results = append(results, result)
			continue
		}

		// The payment has happened. Record it even if the caller has gone away.
		recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
		at := s.now().UTC()
		next, err := ledger.ApplyTransfer(group, uuid.NewString(), t, at)
		if err == nil {
			err = s.store.SaveGroup(recordCtx, next)
		}
		if err != nil {
			cancel()
			// The money moved but the ledger does not show it. Surface the
			// reference so it can be reconciled by hand.
			slog.Error("Executed transfer could not be recorded",
				"group_id", group.ID, "from", t.From, "to", t.To,
				"amount", t.Amount.String(), "reference", receipt.Reference, "error", err,
			)
			return nil, connect.NewError(connect.CodeInternal,
				fmt.Errorf("transfer %s executed but not recorded: %w", receipt.Reference, err))
		}
		group = next

		recorded := group.Expenses[len(group.Expenses)-1]
		result.Status = api.TransferSettled
		result.Reference = receipt.Reference
		s.recorder.RecordTransfer(api.TransferSettled, t.Amount.Decimal().InexactFloat64())
		s.publish(recordCtx, events.Event{
			Type:       events.TypeTransferSettled,
			GroupID:    group.ID,
			OccurredAt: at,
			Payload: events.TransferSettled{
				ExpenseID: recorded.ID,
				From:      t.From,
				To:        t.To,
				Amount:    t.Amount,
				Reference: receipt.Reference,
			},
		})
		cancel()
		results = append(results, result)
	}

	balances, err := calculator.ComputeBalances(group)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	slog.Info("SettleUp finished", "group_id", group.ID, "results", len(results))

	return connect.NewResponse(&api.SettleUpResponse{
		Results:  results,
		Balances: toAPIBalances(balances),
	}), nil
}

// transfersToExecute parses the requested transfers, or plans them when the
// request has none, and checks that each would apply cleanly in order.
func (s *LedgerService) transfersToExecute(group models.Group, requested []api.Transfer) ([]models.Transfer, error) {
	if len(requested) == 0 {
		_, planned, err := calculator.SettleGroup(group)
		return planned, err
	}

	transfers := make([]models.Transfer, len(requested))
	scratch := group
	for i, r := range requested {
		t, err := fromAPITransfer(r)
		if err != nil {
			return nil, err
		}
		if scratch, err = ledger.ApplyTransfer(scratch, fmt.Sprintf("check-%d", i), t, s.now()); err != nil {
			return nil, fmt.Errorf("transfer %d: %w", i, err)
		}
		transfers[i] = t
	}
	return transfers, nil
}

func (s *LedgerService) execute(ctx context.Context, t models.Transfer) (payment.Receipt, error) {
	if s.paymentTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.paymentTimeout)
		defer cancel()
	}
	receipt, err := s.executor.Execute(ctx, t)
	if errors.Is(err, context.DeadlineExceeded) {
		return payment.Receipt{}, fmt.Errorf("payment timed out: %w", err)
	}
	return receipt, err
}
