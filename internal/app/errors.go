package app

import "errors"

// ErrNotFound and related errors describe validation and runtime failures.
var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidSeedFixture = errors.New("invalid seed fixture")
)
