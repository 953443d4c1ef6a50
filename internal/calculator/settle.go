package calculator

import (
	"github.com/mmynk/splitchain/internal/models"
	"github.com/mmynk/splitchain/internal/money"
)

// Settle turns net balances into a list of transfers that zeroes them.
//
// Greedy matching: the largest creditor is paired with the largest debtor,
// the smaller of the two amounts is transferred, and anyone reaching zero
// drops out. Ties go to whoever comes first in balances. Each round zeroes
// at least one member, so N nonzero members need at most N-1 transfers.
//
// Amounts are exact minor units; the transfers always sum to the total of
// the positive balances when balances sum to zero.
func Settle(balances []models.Balance) []models.Transfer {
	remaining := make([]money.Amount, len(balances))
	for i, b := range balances {
		remaining[i] = b.Amount
	}

	var transfers []models.Transfer
	for {
		creditor, debtor := -1, -1
		for i, amt := range remaining {
			if amt > 0 && (creditor < 0 || amt > remaining[creditor]) {
				creditor = i
			}
			if amt < 0 && (debtor < 0 || amt < remaining[debtor]) {
				debtor = i
			}
		}
		if creditor < 0 || debtor < 0 {
			return transfers
		}

		amount := min(remaining[creditor], -remaining[debtor])
		transfers = append(transfers, models.Transfer{
			From:   balances[debtor].Member,
			To:     balances[creditor].Member,
			Amount: amount,
		})
		remaining[creditor] -= amount
		remaining[debtor] += amount
	}
}

// SettleGroup computes balances and the transfers that settle them.
func SettleGroup(group models.Group) ([]models.Balance, []models.Transfer, error) {
	balances, err := ComputeBalances(group)
	if err != nil {
		return nil, nil, err
	}
	return balances, Settle(balances), nil
}
