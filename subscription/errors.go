package subscription

import "errors"

// ErrNotConnected indicates a join or leave before Connect (or after
// Close).
var ErrNotConnected = errors.New("transport not connected")
