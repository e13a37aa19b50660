package shortform

import "errors"

// ErrNotFound indicates the pk is absent from every list the store holds;
// no remote call is issued for such mutations.
var ErrNotFound = errors.New("shortform: video not found")
