package ordix

import "errors"

var (
	ErrDegree         = errors.New("degree must be >= 2")
	ErrNilCompare     = errors.New("compare function cannot be nil")
	ErrNilCodec       = errors.New("codec cannot be nil")
	ErrClosed         = errors.New("index is closed")
	ErrNotImplemented = errors.New("range queries are not implemented")
	ErrNoStorage      = errors.New("no storage configured")
	ErrUnsavedChild   = errors.New("child node has no storage position")
	ErrCorruptRecord  = errors.New("malformed node record")
)
