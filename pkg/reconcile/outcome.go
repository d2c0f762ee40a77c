package reconcile

import "fmt"

// Status classifies the result of applying one panel's delta.
type Status string

const (
	// StatusNoChange indicates the delta was empty and zero writes were issued.
	StatusNoChange Status = "no_change"

	// StatusApplied indicates every change was applied (or would be, in
	// dry-run mode).
	StatusApplied Status = "applied"

	// StatusPartialFailure indicates a write failed and the panel's state
	// was rolled back to its checkpoint. Other panels are unaffected.
	StatusPartialFailure Status = "partial_failure"
)

// Outcome reports what applying a delta did for one panel.
type Outcome struct {
	Status  Status
	Added   int      // Membership rows inserted
	Removed int      // Membership rows deleted
	Updated []string // Attribute fields written
	Err     error    // Set only for StatusPartialFailure
}

// String returns a human-readable summary of the outcome.
func (o Outcome) String() string {
	switch o.Status {
	case StatusNoChange:
		return "no change"
	case StatusPartialFailure:
		return fmt.Sprintf("partial failure: %v", o.Err)
	default:
		if len(o.Updated) > 0 {
			return fmt.Sprintf("applied: %d fields updated", len(o.Updated))
		}
		return fmt.Sprintf("applied: %d added, %d removed", o.Added, o.Removed)
	}
}
