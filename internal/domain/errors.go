package domain

import "errors"

// The five error kinds every scheduling operation resolves to. Package-level
// sentinels wrap one of these with %w so callers can classify with errors.Is
// without knowing the concrete failure.
var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrState      = errors.New("invalid state")
	ErrInternal   = errors.New("internal error")
)
