package trust

import (
	"errors"
	"fmt"

	"orgtrust/internal/domain"
)

// Sentinel errors for the resolution failure taxonomy. Proof-level transport
// failures never surface here; they collapse into tri-state outcomes inside
// the proof package.
var (
	// ErrMissingDocument means no document content could be obtained at
	// all. Fatal for the attempt: a profile cannot be produced without
	// content.
	ErrMissingDocument = errors.New("missing organization document")

	// ErrCyclicHierarchy means an identifier recurred on the active
	// parent-resolution path.
	ErrCyclicHierarchy = errors.New("cyclic parent hierarchy")

	// ErrInconsistentParent means a subsidiary's declared parent does not
	// match the traversal context it was reached through.
	ErrInconsistentParent = errors.New("inconsistent parent reference")
)

// ResolutionError carries the identifier and stage of a failed resolution so
// drivers can log enough context to retry later.
type ResolutionError struct {
	OrgID domain.OrgID
	Stage string
	Err   error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve %s [%s]: %v", e.OrgID, e.Stage, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

func failure(id domain.OrgID, stage string, err error) error {
	return &ResolutionError{OrgID: id, Stage: stage, Err: err}
}
