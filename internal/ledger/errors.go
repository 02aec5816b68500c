package ledger

import "fmt"

// ValidationError reports a malformed bill or line item, identifying the
// offending field. The entry step must not submit a bill that fails
// validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IntegrityError reports a dangling contributor id reference reaching the
// settlement engine. This should not occur when validation is enforced; when
// it does, the engine fails loudly instead of substituting a placeholder.
type IntegrityError struct {
	ID string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("unknown contributor id: %s", e.ID)
}
