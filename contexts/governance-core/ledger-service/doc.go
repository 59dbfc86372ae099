// Package ledgerservice implements the conserved-value currency layer of the
// governance-core context: account balances, the transfer/withdraw/deposit
// primitives, and the move-only imbalance tokens every fund movement routes
// through so no operation can create or destroy value silently.
package ledgerservice
