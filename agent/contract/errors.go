package contract

import "errors"

var (
	ErrModelInvoke     = errors.New("model invoke failed")
	ErrEmptyCompletion = errors.New("model returned no choices")
	ErrValidation      = errors.New("validation failed")
	ErrLeadWrite       = errors.New("lead write failed")
)
