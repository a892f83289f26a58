package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeInvalidState    Code = "INVALID_STATE"
	CodeNotFound        Code = "NOT_FOUND"
	CodeValidationError Code = "VALIDATION_ERROR"

	CodeConfigurationError Code = "CONFIGURATION_ERROR"

	CodeServiceTimeout    Code = "SERVICE_TIMEOUT"
	CodeRateLimitExceeded Code = "RATE_LIMIT_EXCEEDED"

	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
)

// Explorer-specific error codes
const (
	// Node access
	CodeEthereumConnectionFailed Code = "ETHEREUM_CONNECTION_FAILED"
	CodeEthereumRPCError         Code = "ETHEREUM_RPC_ERROR"
	CodeBlockNotFound            Code = "BLOCK_NOT_FOUND"
	CodeTransactionNotFound      Code = "TRANSACTION_NOT_FOUND"
	CodeSenderRecoveryFailed     Code = "SENDER_RECOVERY_FAILED"

	// Head subscription
	CodeWebSocketConnectionError Code = "WEBSOCKET_CONNECTION_ERROR"
	CodeWebSocketClosed          Code = "WEBSOCKET_CLOSED"
	CodeWebSocketSendError       Code = "WEBSOCKET_SEND_ERROR"
	CodeSubscribeFailed          Code = "SUBSCRIBE_FAILED"

	// Block explorer (Etherscan-compatible) API
	CodeExplorerDisabled    Code = "EXPLORER_DISABLED"
	CodeExplorerAPIError    Code = "EXPLORER_API_ERROR"
	CodeExplorerRateLimited Code = "EXPLORER_RATE_LIMITED"

	// Name service
	CodeENSLookupFailed Code = "ENS_LOOKUP_FAILED"
	CodeENSInvalidName  Code = "ENS_INVALID_NAME"

	// Calldata
	CodeABIParseFailed    Code = "ABI_PARSE_FAILED"
	CodeInputDecodeFailed Code = "INPUT_DECODE_FAILED"

	// Orchestration
	CodeCommandStale   Code = "COMMAND_STALE"
	CodeQueueClosed    Code = "QUEUE_CLOSED"
	CodeUnknownSearch  Code = "UNKNOWN_SEARCH"
	CodePartialFailure Code = "PARTIAL_FAILURE"

	// Terminal
	CodeClipboardFailed Code = "CLIPBOARD_FAILED"

	// Circuit breaker errors
	CodeCircuitOpen     Code = "CIRCUIT_OPEN"
	CodeCircuitHalfOpen Code = "CIRCUIT_HALF_OPEN"
)
