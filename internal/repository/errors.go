package repository

import "errors"

// ErrNotFound is returned by every repository when the requested row
// does not exist. Callers branch on it with errors.Is; the service
// layer decides whether a miss is a 404, a skipped schedule or an
// omitted scoring dimension.
var ErrNotFound = errors.New("not found")
