package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	CodeRequiredField   Code = "REQUIRED_FIELD"
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeInvalidFormat   Code = "INVALID_FORMAT"
	CodeNotFound        Code = "NOT_FOUND"
	CodeValidationError Code = "VALIDATION_ERROR"

	CodeConfigurationError Code = "CONFIGURATION_ERROR"

	CodeExternalServiceError Code = "EXTERNAL_SERVICE_ERROR"
	CodeServiceTimeout       Code = "SERVICE_TIMEOUT"
	CodeServiceUnavailable   Code = "SERVICE_UNAVAILABLE"
	CodeRateLimitExceeded    Code = "RATE_LIMIT_EXCEEDED"

	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
)

// Curve (bonding-curve pricing) error codes
const (
	CodeMathOverflow                 Code = "MATH_OVERFLOW"
	CodeInvalidBinState              Code = "INVALID_BIN_STATE"
	CodeCannotSellMoreThanBin        Code = "CANNOT_SELL_MORE_THAN_BIN"
	CodeCannotSellMoreThanSupply     Code = "CANNOT_SELL_MORE_THAN_SUPPLY"
	CodeCanOnlySellEntireSupply      Code = "CAN_ONLY_SELL_ENTIRE_SUPPLY_IF_BIN_CONTAINS_ALL_TOKENS"
	CodeSellCalculationUnderflow     Code = "SELL_CALCULATION_UNDERFLOW"
	CodeValueOutOfU64Range           Code = "VALUE_OUT_OF_U64_RANGE"
	CodeInvalidDecimalString         Code = "INVALID_DECIMAL_STRING"
	CodeUnsupportedPrecision         Code = "UNSUPPORTED_PRECISION"
	CodeDeterministicEvaluationError Code = "DETERMINISTIC_EVALUATION_ERROR"
)

// Market error codes
const (
	CodeMarketNotFound           Code = "MARKET_NOT_FOUND"
	CodeInvalidTickSpacing       Code = "INVALID_TICK_SPACING"
	CodeMinTickNotMultiple       Code = "MIN_TICK_NOT_MULTIPLE"
	CodeMaxTickNotMultiple       Code = "MAX_TICK_NOT_MULTIPLE"
	CodeMinTickGreaterThanMax    Code = "MIN_TICK_GREATER_THAN_MAX"
	CodeBinIndexOutOfRange       Code = "BIN_INDEX_OUT_OF_RANGE"
	CodeArrayLengthMismatch      Code = "ARRAY_LENGTH_MISMATCH"
	CodeNoTokensToBuy            Code = "NO_TOKENS_TO_BUY"
	CodeCostExceedsMaxCollateral Code = "COST_EXCEEDS_MAX_COLLATERAL"
	CodeCannotSellFromEmptyBin   Code = "CANNOT_SELL_FROM_EMPTY_BIN"
	CodeInconsistentSnapshot     Code = "INCONSISTENT_SNAPSHOT"
	CodeTooManyBins              Code = "TOO_MANY_BINS"
)

// Infrastructure error codes
const (
	CodeWebSocketConnectionError Code = "WEBSOCKET_CONNECTION_ERROR"
	CodeWebSocketClosed          Code = "WEBSOCKET_CLOSED"
	CodeWebSocketSendError       Code = "WEBSOCKET_SEND_ERROR"

	CodeFeedUnavailable Code = "FEED_UNAVAILABLE"
	CodeSnapshotStale   Code = "SNAPSHOT_STALE"

	CodeJournalError Code = "JOURNAL_ERROR"

	CodeCacheMiss Code = "CACHE_MISS"

	CodeCircuitOpen Code = "CIRCUIT_OPEN"
)
