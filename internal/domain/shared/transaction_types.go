package shared

// FailureReason defines transaction failure categories
type FailureReason string

const (
	FailureReasonAccountNotFound    FailureReason = "ACCOUNT_NOT_FOUND"
	FailureReasonCurrencyMismatch   FailureReason = "CURRENCY_MISMATCH"
	FailureReasonInsufficientFunds  FailureReason = "INSUFFICIENT_FUNDS"
	FailureReasonInvalidTransaction FailureReason = "INVALID_TRANSACTION"
	FailureReasonPublishFailed      FailureReason = "PUBLISH_FAILED"
	FailureReasonUnknownError       FailureReason = "UNKNOWN_ERROR"
)

// OutboxStatus defines message publishing states
type OutboxStatus string

const (
	OutboxStatusPending         OutboxStatus = "PENDING"
	OutboxStatusProcessed       OutboxStatus = "PROCESSED"
	OutboxStatusFailedToPublish OutboxStatus = "FAILED_TO_PUBLISH"
)
