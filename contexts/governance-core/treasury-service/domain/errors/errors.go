package errors

import "errors"

var (
	ErrDepositBelowMinimum   = errors.New("deposit is below the module minimum")
	ErrOrgAlreadyHasTreasury = errors.New("organization already has an open treasury")
	ErrTreasuryNotFound      = errors.New("treasury not found")
	ErrSpendNotFound         = errors.New("spend proposal not found")
	ErrProposalNotFound      = errors.New("membership proposal not found")
	ErrNotAMember            = errors.New("caller is not a member of the organization")
	ErrNotAuthorized         = errors.New("caller is not authorized")
	ErrInvalidStateForVote   = errors.New("proposal is not in a state that accepts a vote trigger")
	ErrAlreadyFinalized      = errors.New("proposal already reached a terminal state")
	ErrNoTreasuryForOrg      = errors.New("organization has no open treasury")
	ErrConflict              = errors.New("treasury state conflict")
)
