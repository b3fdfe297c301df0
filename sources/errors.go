package sources

import "errors"

var (
	// ErrUnknownKind is returned for a definition whose kind is not supported.
	ErrUnknownKind = errors.New("unknown source kind")

	// ErrInvalidDefinition is returned for a definition missing required fields.
	ErrInvalidDefinition = errors.New("invalid source definition")

	// ErrUnexpectedStatus is returned when a source answers with a non-2xx status.
	ErrUnexpectedStatus = errors.New("unexpected status")
)
