package entities

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
)

// moduleRoot is the fixed seed every custodial sub-account derives from.
const moduleRoot = "daobank/trsry"

// CustodialAccount derives the deterministic custodial address for a
// treasury. No key material exists for these accounts, so only module logic
// can move funds out of them.
func CustodialAccount(treasuryID uint64) string {
	var seed [8]byte
	binary.BigEndian.PutUint64(seed[:], treasuryID)
	sum := sha256.Sum256(append([]byte(moduleRoot), seed[:]...))
	return "trsry:" + hex.EncodeToString(sum[:20])
}
