package domain

// TransactionStatus is the closed set of canonical payment states handed
// back to the order system. Status is always recomputed from the remote
// object's current state, never advanced incrementally, so replaying a
// webhook yields the same result every time.
type TransactionStatus string

const (
	StatusInitialized           TransactionStatus = "initialized"
	StatusAuthorized            TransactionStatus = "authorized"
	StatusCaptured              TransactionStatus = "captured"
	StatusCancelled             TransactionStatus = "cancelled"
	StatusRefunded              TransactionStatus = "refunded"
	StatusError                 TransactionStatus = "error"
	StatusPendingExternalSystem TransactionStatus = "pending_external_system"
)
