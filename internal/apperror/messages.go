package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	CodeInvalidInput:    "Invalid input provided",
	CodeInvalidState:    "Invalid state for this operation",
	CodeNotFound:        "Resource not found",
	CodeValidationError: "Validation error",

	CodeConfigurationError: "Configuration error",

	CodeServiceTimeout:    "Service request timeout",
	CodeRateLimitExceeded: "Rate limit exceeded",

	CodeInternalError: "Internal error",
	CodeUnknownError:  "An unknown error occurred",

	CodeEthereumConnectionFailed: "Failed to connect to Ethereum node",
	CodeEthereumRPCError:         "Ethereum RPC call failed",
	CodeBlockNotFound:            "Block not found",
	CodeTransactionNotFound:      "Transaction not found",
	CodeSenderRecoveryFailed:     "Could not recover transaction sender",

	CodeWebSocketConnectionError: "WebSocket connection error",
	CodeWebSocketClosed:          "WebSocket connection closed",
	CodeWebSocketSendError:       "Failed to send WebSocket message",
	CodeSubscribeFailed:          "Failed to subscribe to new heads",

	CodeExplorerDisabled:    "Block explorer API key not configured",
	CodeExplorerAPIError:    "Block explorer API error",
	CodeExplorerRateLimited: "Block explorer rate limit exceeded",

	CodeENSLookupFailed: "ENS lookup failed",
	CodeENSInvalidName:  "Invalid ENS name",

	CodeABIParseFailed:    "Contract ABI could not be parsed",
	CodeInputDecodeFailed: "Input data could not be decoded",

	CodeCommandStale:   "Result discarded after navigation",
	CodeQueueClosed:    "Command queue closed",
	CodeUnknownSearch:  "Search input is not a block, transaction, address or name",
	CodePartialFailure: "Some data could not be loaded",

	CodeClipboardFailed: "Could not copy to clipboard",

	CodeCircuitOpen:     "Circuit breaker is open",
	CodeCircuitHalfOpen: "Circuit breaker is half-open",
}
