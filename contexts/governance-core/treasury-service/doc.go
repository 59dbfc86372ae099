// Package treasuryservice implements the treasury registry and the vote-gated
// spend/membership proposal machines inside the governance-core context.
//
// The module owns treasury lifecycle (open/close), proposal state progression
// (waiting -> voting -> terminal), identifier allocation, and the per-block
// poll sweep that advances vote-gated proposals. Fund movement is delegated to
// the ledger service and collaborator decisions (membership, votes, close-out
// distribution) stay behind ports.
package treasuryservice
