package dict

import "errors"

// Load errors for the compiled asset formats. IO failures are returned
// wrapped from the underlying call.
var (
	ErrInvalidHeader      = errors.New("invalid header")
	ErrInvalidMagic       = errors.New("invalid magic bytes")
	ErrUnsupportedVersion = errors.New("unsupported version")
	ErrParse              = errors.New("parse error")
)
