package marcspec

import "errors"

var (
	// ErrInvalidSpec indicates the spec is too short or its tag is not three
	// alphanumeric characters.
	ErrInvalidSpec = errors.New("marcspec: invalid spec")
)
