package strictkeys

import "errors"

var (
	// ErrInvalidRuleSet is returned when a rules document is malformed, a path
	// pattern is duplicated or an allowed-key entry is not a string.
	ErrInvalidRuleSet = errors.New("invalid rule set")

	// ErrInvalidDocument is returned when a target document cannot be parsed.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrUnknownFormat is returned when no registered format matches a name or
	// file extension.
	ErrUnknownFormat = errors.New("unknown format")
)
