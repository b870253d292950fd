package workflow

import (
	"errors"
	"fmt"
)

var (
	// ErrWorkflowNotFound is returned when no workflow matches the id
	// within the caller's tenant.
	ErrWorkflowNotFound = errors.New("workflow not found")

	// ErrStepNotFound is returned when no step matches the id within the
	// caller's tenant.
	ErrStepNotFound = errors.New("step not found")

	// ErrStepNotActive is returned when a decision targets a step that is
	// not the workflow's current step. Approvals are strictly ordered.
	ErrStepNotActive = errors.New("step is not the active step of its workflow")

	// ErrWorkflowClosed is returned when a decision or cancellation
	// targets a workflow that already reached a terminal state.
	ErrWorkflowClosed = errors.New("workflow is no longer in progress")

	// ErrVersionConflict is returned when the supplied version does not
	// match the stored one; the caller must refetch and retry.
	ErrVersionConflict = errors.New("version conflict: step was modified concurrently")

	// ErrInvalidDecision is returned for decision values other than
	// APPROUVE and REJETE.
	ErrInvalidDecision = errors.New("decision must be APPROUVE or REJETE")

	// ErrNotApprover is returned when the caller is not the assigned
	// approver of the step they try to decide.
	ErrNotApprover = errors.New("caller is not the assigned approver of this step")

	// ErrNotCreator is returned when someone other than the initiator
	// tries to cancel a workflow.
	ErrNotCreator = errors.New("only the workflow creator may cancel it")
)

// DraftError reports an invalid step list, pointing at the offending
// step when one can be identified.
type DraftError struct {
	Index   int // -1 when the error concerns the whole draft
	Message string
}

func (e *DraftError) Error() string {
	if e.Index < 0 {
		return e.Message
	}
	return fmt.Sprintf("step %d: %s", e.Index+1, e.Message)
}
