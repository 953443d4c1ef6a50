// Package models defines the core domain models for splitchain.
//
// # Models
//
//   - Group: a named set of members sharing an append-only expense log
//   - Expense: a single payment event with a payer and a Split
//   - Split: how an expense's amount is divided (equal, by percentage, custom)
//   - Balance: a member's derived net position
//   - Transfer: a suggested payment that moves balances toward zero
//
// Members are identified by their display names (case-sensitive).
//
// # Design Principles
//
//  1. Snapshots: a Group value is treated as immutable. Operations in
//     package ledger return a new Group rather than mutating their input.
//  2. Fixed point: all amounts are money.Amount minor units, never floats.
//  3. Derived data is never stored: balances and transfers are recomputed
//     from the expense log on demand.
package models
