package models

import (
	"errors"
)

var (
	ErrNotFound           = errors.New("models: no matching record found")
	ErrForbidden          = errors.New("models: forbidden")
	ErrInvalidTransition  = errors.New("models: invalid quote status transition")
	ErrInsufficientFunds  = errors.New("models: insufficient funds")
	ErrAlreadyQuoted      = errors.New("models: host already quoted this request")
	ErrAlreadyRefunded    = errors.New("models: quote cost already refunded")
	ErrTemplateNotFound   = errors.New("models: quote template not found")
	ErrInvalidAmount      = errors.New("models: amount must be positive")
	ErrInvalidConfig      = errors.New("models: invalid auto-quote config")
	ErrInvariantViolation = errors.New("models: invariant violation")
)
