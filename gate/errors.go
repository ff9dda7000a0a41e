package gate

import "errors"

// Sentinel errors returned by Gate.Authorize.
var (
	ErrUnauthorized    = errors.New("gate: action not allowed")
	ErrNoPolicyDefined = errors.New("gate: no policy defined for kind")
)
