package errors

import "errors"

var (
	ErrInsufficientBalance     = errors.New("insufficient free balance")
	ErrBelowExistentialDeposit = errors.New("balance would fall below the existential deposit")
	ErrLivenessViolation       = errors.New("operation would kill an account that must stay alive")
	ErrAccountNotFound         = errors.New("account not found")
)
