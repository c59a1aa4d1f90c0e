// errors/access_errors.go
package errors

import "errors"

var (
	ErrWorkspaceNotFound = errors.New("workspace not found")
	ErrPolicyNotFound    = errors.New("policy not found")
	ErrInvalidPolicyData = errors.New("invalid policy data")

	ErrDatabaseOperation = errors.New("database operation failed")
	ErrStoreUnavailable  = errors.New("shared store unavailable")
)
