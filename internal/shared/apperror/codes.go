package apperror

const (
	// Client errors (4xx)
	CodeInvalidInput     = "INVALID_INPUT"
	CodeValidation       = "VALIDATION_ERROR"
	CodeMalformedPayload = "MALFORMED_PAYLOAD"
	CodeNotFound         = "NOT_FOUND"
	CodeConflict         = "CONFLICT"
	CodePartitionBusy    = "PARTITION_BUSY"
	CodeTooManyRequests  = "TOO_MANY_REQUESTS"

	// Server errors (5xx)
	CodeInternalError      = "INTERNAL_ERROR"
	CodeStorageWrite       = "STORAGE_WRITE_FAILURE"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)
