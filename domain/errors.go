package domain

import "errors"

// ErrMalformedEvent indicates an event payload that could not be
// decoded or is missing its identifier. Such events are dropped; they
// must never stop the reconciliation loop.
var ErrMalformedEvent = errors.New("malformed event")
