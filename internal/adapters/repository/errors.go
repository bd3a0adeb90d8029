package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrRiderNotFound    = errors.New("rider not found")
	ErrRaceNotFound     = errors.New("race not found")
	ErrProfileNotFound  = errors.New("race profile not found")
	ErrRatingNotFound   = errors.New("rider rating not found")
	ErrDuplicateResult  = errors.New("duplicate race result")
	ErrInvalidLimit     = errors.New("invalid ranking limit")
	ErrUnknownDimension = errors.New("unknown ranking dimension")
)
