package commands

import (
	"context"
	"fmt"

	"daobank/contexts/governance-core/treasury-service/ports"
)

const treasuryNamespace = "treasury"

func spendNamespace(treasuryID uint64) string {
	return fmt.Sprintf("spend/%d", treasuryID)
}

func membershipNamespace(treasuryID uint64) string {
	return fmt.Sprintf("proposal/%d", treasuryID)
}

// nextID allocates the next identifier in a namespace: increment the stored
// nonce, probe the namespace for collisions with manually inserted or
// not-yet-pruned entries, and persist the final value. Never returns zero.
func nextID(
	ctx context.Context,
	nonces ports.NonceStore,
	namespace string,
	exists func(context.Context, uint64) (bool, error),
) (uint64, error) {
	nonce, err := nonces.GetNonce(ctx, namespace)
	if err != nil {
		return 0, err
	}
	candidate := nonce + 1
	for {
		taken, err := exists(ctx, candidate)
		if err != nil {
			return 0, err
		}
		if !taken {
			break
		}
		candidate++
	}
	if err := nonces.PutNonce(ctx, namespace, candidate); err != nil {
		return 0, err
	}
	return candidate, nil
}
