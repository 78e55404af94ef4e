package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown        ErrorCode = 1
	ErrCodeCallbackFailed ErrorCode = 2

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidPeriod        ErrorCode = 102
	ErrCodeInvalidType          ErrorCode = 103
	ErrCodeMissingParameter     ErrorCode = 104
	ErrCodeInvalidVersion       ErrorCode = 105
	ErrCodeInvalidMultiplier    ErrorCode = 106
	ErrCodeInvalidTimeframe     ErrorCode = 107
	ErrCodeInvalidMarketData    ErrorCode = 108
	ErrCodeInsufficientData     ErrorCode = 109

	// Data/Resource errors (200-299)
	ErrCodeDataNotFound          ErrorCode = 200
	ErrCodeDataSourceUnavailable ErrorCode = 201
	ErrCodeQueryFailed           ErrorCode = 202
	ErrCodeDataWriteFailed       ErrorCode = 203

	// Indicator errors (300-399)
	ErrCodeIndicatorNotFound      ErrorCode = 300
	ErrCodeIndicatorAlreadyExists ErrorCode = 301
	ErrCodeIndicatorCalculation   ErrorCode = 302

	// Strategy errors (400-499)
	ErrCodeUnsupportedStrategy ErrorCode = 400
	ErrCodeStrategyConfigError ErrorCode = 401

	// Risk errors (500-599)
	ErrCodeRiskConfigError      ErrorCode = 500
	ErrCodeInvalidSymbolFilters ErrorCode = 501

	// Backtest errors (600-699)
	ErrCodeBacktestConfigError  ErrorCode = 600
	ErrCodeBacktestInitFailed   ErrorCode = 601
	ErrCodeInvariantViolation   ErrorCode = 602
	ErrCodeBacktestStateNil     ErrorCode = 603
	ErrCodeBacktestNoResultsDir ErrorCode = 604

	// Execution errors (700-799)
	ErrCodeOrderFailed           ErrorCode = 700
	ErrCodePositionNotFound      ErrorCode = 701
	ErrCodeExchangeRequestFailed ErrorCode = 702
	ErrCodeRateLimited           ErrorCode = 703
	ErrCodeSymbolNotFound        ErrorCode = 704

	// Notification errors (800-899)
	ErrCodeNotificationFailed ErrorCode = 800
)
