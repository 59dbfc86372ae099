package entities

import "time"

// Treasury is an organization-owned custodial account plus its governance
// metadata. ID and Org are immutable for the life of the treasury.
type Treasury struct {
	TreasuryID uint64
	OrgID      uint64
	Controller string // empty means org-supervisor authorization applies
	OpenedBy   string
	CreatedAt  time.Time
}

// IsController reports whether account is the dedicated controller.
// Treasuries without a controller defer to org-level supervision.
func (t Treasury) IsController(account string) bool {
	return t.Controller != "" && t.Controller == account
}

func (t Treasury) HasController() bool {
	return t.Controller != ""
}
