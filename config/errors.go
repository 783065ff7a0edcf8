package config

import "errors"

// Parameter validation errors.
var (
	ErrParametersInvalid     = errors.New("invalid parameters")
	ErrInvalidTSDigits       = errors.New("ts_digits must be >= 1")
	ErrInvalidContentNibbles = errors.New("content_nibbles must be >= 1")
	ErrInvalidContentTTL     = errors.New("content_ttl must be > 0")
	ErrInvalidGCInterval     = errors.New("gc_interval must be > 0")
	ErrInvalidPort           = errors.New("port must be between 1 and 65535")
	ErrInvalidSQLitePath     = errors.New("sqlite_path must not be empty")
)
