package dao

import "errors"

// Precondition failures surfaced by pool operations. Every failure aborts
// the single operation and leaves prior committed state untouched.
var (
	ErrUnauthorized          = errors.New("unauthorized")
	ErrInvalidRole           = errors.New("invalid role")
	ErrBelowMinimumStake     = errors.New("below minimum stake")
	ErrInsufficientStake     = errors.New("insufficient stake")
	ErrTransferFailed        = errors.New("transfer failed")
	ErrVotingClosed          = errors.New("voting closed")
	ErrVotingStillOpen       = errors.New("voting still open")
	ErrAlreadyExecuted       = errors.New("claim already executed")
	ErrNotExecuted           = errors.New("claim not executed")
	ErrChallengeWindowClosed = errors.New("challenge window closed")
	ErrClaimNotFound         = errors.New("claim not found")
	ErrUnknownMember         = errors.New("unknown member")
)
