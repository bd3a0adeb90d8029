package profile

import "errors"

// Sentinel kinds for catalog errors.
var (
	ErrUnknownTemplate = errors.New("unknown race template")
)
