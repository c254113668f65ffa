package shared

import "errors"

// ErrActorRequired indicates a mutating request without an acting user.
var ErrActorRequired = errors.New("actor required")
