package engine

import "errors"

// Sentinel kinds for rating engine errors.
var (
	// ErrMissingProfile signals a rating update against a race that has
	// no dimension weight profile.
	ErrMissingProfile = errors.New("race has no profile")
	// ErrAlreadyProcessed signals a rating update against a race whose
	// snapshots already exist. Reprocessing would double-count.
	ErrAlreadyProcessed = errors.New("race already processed")
)
