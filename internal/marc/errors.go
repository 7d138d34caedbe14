package marc

import "errors"

var (
	// ErrMalformed indicates a record that cannot be decoded or encoded.
	ErrMalformed = errors.New("marc: malformed record")

	// ErrUnknownFormat indicates an unsupported serialization name.
	ErrUnknownFormat = errors.New("marc: unknown format")
)
