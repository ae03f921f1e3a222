package models

// Status is the terminal processing state of a record.
type Status string

const (
	// StatusPending means the record has been loaded but not yet attempted.
	// Pending records only survive into the ledger when a run is cut short.
	StatusPending Status = ""

	// StatusSuccess means extraction finished and a payload was stored.
	StatusSuccess Status = "success"

	// StatusFailed means the attempt for this record failed and was skipped.
	StatusFailed Status = "fail"
)

// Record tracks one input lookup key through a run. Records are created when
// the batch is loaded and are never removed, failed ones stay in the ledger
// for audit and retry.
type Record struct {
	Key    string `json:"key"`
	Status Status `json:"status"`
}

// Exchange correlates one captured background request with its response.
// It is scoped to a single extraction attempt and discarded afterwards.
type Exchange struct {
	RequestID string
	URL       string
	Body      []byte
}
