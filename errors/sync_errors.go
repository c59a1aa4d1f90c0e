// errors/sync_errors.go
package errors

import "errors"

var (
	ErrConflictNotFound = errors.New("conflict not found")
	ErrNotSubscribed    = errors.New("not subscribed to workspace")
)
