// Package service provides the business logic services for LendingDesk.
// Business rule violations surface as the sentinel errors declared in the
// domain package; ErrInternalError wraps infrastructure failures.
package service

import "errors"

// ErrInternalError indicates an unexpected infrastructure failure
// (storage, I/O). The wrapped cause is attached with fmt.Errorf("%w: %v").
var ErrInternalError = errors.New("internal error")
