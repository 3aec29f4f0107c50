package service

import "errors"

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrNotFound          = errors.New("not found")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrContractTerminal  = errors.New("contract is in a terminal state")
	ErrCodeMismatch      = errors.New("code mismatch")
	ErrPhaseViolation    = errors.New("wrong verification phase")
	ErrStoreUnavailable  = errors.New("store unavailable")
)
