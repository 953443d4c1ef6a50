package calculator

import (
	"fmt"

	"github.com/mmynk/splitchain/internal/models"
	"github.com/mmynk/splitchain/internal/money"
)

// ComputeBalances replays a group's expense log and returns the net balance
// of every current member, in member order.
//
// Algorithm:
//   - For each expense the payer is credited the full amount
//   - Each participant is debited their share (see CalculateShares)
//   - Former members are resolved while replaying but left out of the
//     result; they can only have left at zero balance
//
// The balances always sum to zero.
func ComputeBalances(group models.Group) ([]models.Balance, error) {
	net := make(map[string]money.Amount, len(group.Members)+len(group.FormerMembers))
	for _, m := range group.Members {
		net[m] = 0
	}
	for _, m := range group.FormerMembers {
		net[m] = 0
	}

	for _, e := range group.Expenses {
		if _, ok := net[e.Payer]; !ok {
			return nil, fmt.Errorf("%w: expense %s payer %q", ErrUnknownMember, e.ID, e.Payer)
		}

		shares, err := CalculateShares(e.Amount, e.Split)
		if err != nil {
			return nil, fmt.Errorf("expense %s: %w", e.ID, err)
		}
		for _, s := range shares {
			if _, ok := net[s.Member]; !ok {
				return nil, fmt.Errorf("%w: expense %s participant %q", ErrUnknownMember, e.ID, s.Member)
			}
		}

		net[e.Payer] += e.Amount
		for _, s := range shares {
			net[s.Member] -= s.Amount
		}
	}

	balances := make([]models.Balance, len(group.Members))
	for i, m := range group.Members {
		balances[i] = models.Balance{Member: m, Amount: net[m]}
	}
	return balances, nil
}

// BalanceOf returns one current member's net balance.
func BalanceOf(group models.Group, member string) (money.Amount, error) {
	if !group.HasMember(member) {
		return 0, fmt.Errorf("%w: %q", ErrUnknownMember, member)
	}
	balances, err := ComputeBalances(group)
	if err != nil {
		return 0, err
	}
	return models.BalanceMap(balances)[member], nil
}
