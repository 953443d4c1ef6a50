package models

import "github.com/mmynk/splitchain/internal/money"

// Balance is one member's derived net position in a group.
type Balance struct {
	// Member is the member name.
	Member string

	// Amount is positive when the member is owed money and negative when
	// the member owes money.
	Amount money.Amount
}

// Transfer is a payment from one member to another that settles debt.
type Transfer struct {
	// From is the member who pays (debtor).
	From string

	// To is the member who receives (creditor).
	To string

	// Amount is always positive.
	Amount money.Amount
}

// BalanceMap indexes balances by member name.
func BalanceMap(balances []Balance) map[string]money.Amount {
	m := make(map[string]money.Amount, len(balances))
	for _, b := range balances {
		m[b.Member] = b.Amount
	}
	return m
}
