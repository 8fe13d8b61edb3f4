package ports

import "errors"

// Standard application-level errors.
// Adapters should wrap underlying infrastructure errors with these standard errors.
var (
	// General Errors
	ErrUnknown            = errors.New("unknown error occurred")
	ErrInvalidRequest     = errors.New("invalid request parameters or format")
	ErrNotFound           = errors.New("resource not found")
	ErrTimeout            = errors.New("operation timed out")
	ErrContextCanceled    = errors.New("operation canceled via context")
	ErrConfigurationError = errors.New("invalid or missing configuration")

	// Data Provider Specific Errors
	ErrProviderUnavailable = errors.New("market data provider is unavailable")
	ErrConnectionFailed    = errors.New("failed to connect to the data provider")
	ErrRateLimited         = errors.New("API rate limit exceeded")
	ErrSymbolNotFound      = errors.New("symbol not found at the data provider")
	ErrMalformedResponse   = errors.New("malformed response from the data provider")
	ErrInsufficientData    = errors.New("not enough data points for the requested operation")

	// Database Specific Errors
	ErrDuplicateEntry = errors.New("database record already exists")
	ErrDBConnection   = errors.New("database connection error")
	ErrQueryFailed    = errors.New("database query failed")
	ErrUpdateFailed   = errors.New("database update failed")
	ErrDeleteFailed   = errors.New("database delete failed")
)
