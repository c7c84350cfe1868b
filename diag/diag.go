// Package diag is the append-only incident log for anomalies in selection,
// ledger and verification. Records are written on error paths only and are
// never mutated.
package diag

// Category classifies a diagnostic error record.
type Category string

const (
	CategoryProbabilitySumInvalid Category = "probability_sum_invalid"
	CategorySelectionFailed       Category = "selection_failed"
	CategoryVerificationMismatch  Category = "verification_mismatch"
	CategoryAwardFailed           Category = "award_failed"
)

// Entry is one diagnostic record. Sectors carries a snapshot of the active
// sector set at error time and Context the request payload, both stored as
// JSON for postmortems.
type Entry struct {
	AccountID *int64
	SectorID  *int64
	Category  Category
	Detail    string
	Sectors   any
	Context   any
}
