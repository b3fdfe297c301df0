package server

import "errors"

var (
	// ErrAnswererRequired is returned when an answerer is not provided.
	ErrAnswererRequired = errors.New("answerer required")
)
