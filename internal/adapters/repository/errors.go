package repository

import "errors"

// Sentinel errors shared by the store adapters.
var (
	ErrHorseNotFound = errors.New("horse not found")
	ErrOwnerNotFound = errors.New("owner not found")
	ErrShowNotFound  = errors.New("show not found")

	// ErrDuplicateResult enforces the one-result-per-horse-per-show rule.
	// The pipeline treats it as the canonical "already entered" signal.
	ErrDuplicateResult = errors.New("duplicate competition result")
)
