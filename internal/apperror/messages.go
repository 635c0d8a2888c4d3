package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	CodeRequiredField:   "Required field is missing",
	CodeInvalidInput:    "Invalid input provided",
	CodeInvalidFormat:   "Invalid data format",
	CodeNotFound:        "Resource not found",
	CodeValidationError: "Validation error",

	CodeConfigurationError: "Configuration error",

	CodeExternalServiceError: "External service error",
	CodeServiceTimeout:       "Service request timeout",
	CodeServiceUnavailable:   "Service temporarily unavailable",
	CodeRateLimitExceeded:    "Rate limit exceeded",

	CodeInternalError: "Internal server error",
	CodeUnknownError:  "An unknown error occurred",

	// Curve
	CodeMathOverflow:                 "Math overflow occurred",
	CodeInvalidBinState:              "Bin quantity exceeds market total",
	CodeCannotSellMoreThanBin:        "Cannot sell more tokens than available in bin",
	CodeCannotSellMoreThanSupply:     "Cannot sell more tokens than total supply",
	CodeCanOnlySellEntireSupply:      "Can only sell entire supply if bin contains all tokens",
	CodeSellCalculationUnderflow:     "Sell calculation underflow",
	CodeValueOutOfU64Range:           "Value exceeds the 64-bit unsigned range",
	CodeInvalidDecimalString:         "Value is not a decimal unsigned integer",
	CodeUnsupportedPrecision:         "Unsupported precision strategy",
	CodeDeterministicEvaluationError: "Deterministic curve evaluation failed",

	// Market
	CodeMarketNotFound:           "Market not found",
	CodeInvalidTickSpacing:       "Tick spacing must be positive",
	CodeMinTickNotMultiple:       "Min tick must be a multiple of tick spacing",
	CodeMaxTickNotMultiple:       "Max tick must be a multiple of tick spacing",
	CodeMinTickGreaterThanMax:    "Min tick must be less than max tick",
	CodeBinIndexOutOfRange:       "Bin index out of range",
	CodeArrayLengthMismatch:      "Array length mismatch",
	CodeNoTokensToBuy:            "Must bet on at least one bin",
	CodeCostExceedsMaxCollateral: "Cost exceeds maximum collateral",
	CodeCannotSellFromEmptyBin:   "Cannot sell from an empty bin",
	CodeInconsistentSnapshot:     "Market snapshot is inconsistent",
	CodeTooManyBins:              "Too many bins",

	// Infrastructure
	CodeWebSocketConnectionError: "WebSocket connection error",
	CodeWebSocketClosed:          "WebSocket connection closed",
	CodeWebSocketSendError:       "Failed to send WebSocket message",
	CodeFeedUnavailable:          "Market feed unavailable",
	CodeSnapshotStale:            "Market snapshot is stale",
	CodeJournalError:             "Quote journal error",
	CodeCacheMiss:                "Cache miss",
	CodeCircuitOpen:              "Circuit breaker is open",
}
