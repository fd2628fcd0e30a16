package types

import "errors"

// Every failure aborts its whole transition; services return one of these and
// handlers translate it into an HTTP status with no partial state left behind.
var (
	ErrUnauthorized             = errors.New("unauthorized")
	ErrUnknownEmployee          = errors.New("unknown employee")
	ErrInvalidAccount           = errors.New("invalid account")
	ErrInvalidSalary            = errors.New("invalid salary")
	ErrNoTokensSpecified        = errors.New("no tokens specified")
	ErrInvalidAllocation        = errors.New("invalid allocation")
	ErrCooldownActive           = errors.New("cooldown active")
	ErrZeroPrice                = errors.New("zero price")
	ErrStalePrice               = errors.New("stale price")
	ErrTransferFailed           = errors.New("transfer failed")
	ErrOracleAuthenticityFailed = errors.New("oracle authenticity failed")
	ErrUnknownToken             = errors.New("unknown token")
	ErrUnknownQuery             = errors.New("unknown query")
	ErrInvalidAmount            = errors.New("invalid amount")
	ErrInvalidSymbol            = errors.New("invalid symbol")
)

const (
	ErrInvalidInput  = "Invalid input"
	ErrDatabaseError = "Database error"
	ErrInternalError = "internal server error"
)
