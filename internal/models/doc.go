// Package models defines the core domain models for Splitledger.
//
// # Models
//
//   - User: Registered account. Friendships between users are symmetric.
//   - Group: Named set of member user IDs that owns transactions.
//   - Transaction: An EXPENSE or SETTLEMENT with a payer, an amount and a split.
//   - Share: One participant's portion of a transaction's amount.
//
// Transactions without a group ID belong to the virtual non-group scope
// (peer-to-peer transactions between friends).
//
// # Design Principles
//
//  1. **Balances are derived**: nothing in this package stores a balance.
//     They are recomputed from transactions by the calculator package.
//  2. **Avoid circular references**: Use ID strings instead of pointers for relationships.
//  3. **Exact money**: Amounts are decimal.Decimal, never float64.
package models
