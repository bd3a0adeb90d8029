package config

import "errors"

// Sentinel kinds for configuration errors.
var (
	ErrLoadFailed    = errors.New("config load failed")
	ErrInvalidConfig = errors.New("invalid configuration")
)
