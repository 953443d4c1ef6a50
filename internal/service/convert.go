package service

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitchain/internal/calculator"
	"github.com/mmynk/splitchain/internal/models"
	"github.com/mmynk/splitchain/internal/money"
	"github.com/mmynk/splitchain/pkg/api"
)

func toAPIGroup(g models.Group, withExpenses bool) api.Group {
	out := api.Group{
		ID:            g.ID,
		Name:          g.Name,
		Members:       append([]string{}, g.Members...),
		FormerMembers: g.FormerMembers,
		CreatedAt:     toUnix(g.CreatedAt),
	}
	if withExpenses {
		out.Expenses = make([]api.Expense, len(g.Expenses))
		for i, e := range g.Expenses {
			out.Expenses[i] = toAPIExpense(e)
		}
	}
	return out
}

func toAPIExpense(e models.Expense) api.Expense {
	return api.Expense{
		ID:          e.ID,
		Description: e.Description,
		Amount:      e.Amount.String(),
		Payer:       e.Payer,
		Timestamp:   toUnix(e.Timestamp),
		Split:       toAPISplit(e.Split),
		Payment:     e.Payment,
	}
}

func toAPISplit(split models.Split) api.Split {
	switch s := split.(type) {
	case models.EqualSplit:
		return api.Split{Policy: api.PolicyEqual, Members: s.Members}
	case models.PercentageSplit:
		out := api.Split{Policy: api.PolicyByPercentage}
		for _, sh := range s.Shares {
			out.Shares = append(out.Shares, api.Share{Member: sh.Member, Percent: sh.Percent.String()})
		}
		return out
	case models.CustomSplit:
		out := api.Split{Policy: api.PolicyCustom}
		for _, sh := range s.Shares {
			out.Shares = append(out.Shares, api.Share{Member: sh.Member, Amount: sh.Amount.String()})
		}
		return out
	default:
		return api.Split{}
	}
}

// fromAPISplit builds the split variant named by Policy. Members is only
// read for equal splits and Shares only for the other two.
func fromAPISplit(in api.Split) (models.Split, error) {
	policy, err := models.ParseSplitPolicy(in.Policy)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", calculator.ErrInvalidSplit, err)
	}

	switch policy {
	case models.PolicyEqual:
		if len(in.Shares) > 0 {
			return nil, fmt.Errorf("%w: equal split takes members, not shares", calculator.ErrInvalidSplit)
		}
		return models.EqualSplit{Members: append([]string(nil), in.Members...)}, nil
	case models.PolicyByPercentage:
		if len(in.Shares) == 0 {
			return nil, fmt.Errorf("%w: percentage split needs shares", calculator.ErrInvalidSplit)
		}
		out := models.PercentageSplit{}
		for _, sh := range in.Shares {
			pct, err := decimal.NewFromString(sh.Percent)
			if err != nil {
				return nil, fmt.Errorf("%w: bad percentage %q for %q", calculator.ErrInvalidSplit, sh.Percent, sh.Member)
			}
			out.Shares = append(out.Shares, models.PercentShare{Member: sh.Member, Percent: pct})
		}
		return out, nil
	default:
		if len(in.Shares) == 0 {
			return nil, fmt.Errorf("%w: custom split needs shares", calculator.ErrInvalidSplit)
		}
		out := models.CustomSplit{}
		for _, sh := range in.Shares {
			amount, err := money.Parse(sh.Amount)
			if err != nil {
				return nil, fmt.Errorf("%w: share of %q: %v", calculator.ErrInvalidSplit, sh.Member, err)
			}
			out.Shares = append(out.Shares, models.AmountShare{Member: sh.Member, Amount: amount})
		}
		return out, nil
	}
}

func toAPIBalances(balances []models.Balance) []api.Balance {
	out := make([]api.Balance, len(balances))
	for i, b := range balances {
		out[i] = api.Balance{Member: b.Member, Amount: b.Amount.String()}
	}
	return out
}

func toAPITransfer(t models.Transfer) api.Transfer {
	return api.Transfer{From: t.From, To: t.To, Amount: t.Amount.String()}
}

func toAPITransfers(transfers []models.Transfer) []api.Transfer {
	out := make([]api.Transfer, len(transfers))
	for i, t := range transfers {
		out[i] = toAPITransfer(t)
	}
	return out
}

func fromAPITransfer(t api.Transfer) (models.Transfer, error) {
	amount, err := money.Parse(t.Amount)
	if err != nil {
		return models.Transfer{}, err
	}
	return models.Transfer{From: t.From, To: t.To, Amount: amount}, nil
}

func toUnix(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}
