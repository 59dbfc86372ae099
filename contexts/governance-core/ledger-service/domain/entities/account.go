package entities

// Account is one ledger account: spendable free balance plus a reserved
// portion locked by reservations.
type Account struct {
	Address  string
	Free     uint64
	Reserved uint64
}

func (a Account) Total() uint64 {
	return a.Free + a.Reserved
}
