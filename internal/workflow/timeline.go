package workflow

import (
	"sort"
	"time"
)

// DefaultLateAfter is how long a pending current step may wait before it
// is flagged late. Exactly 48h elapsed is not late; lateness requires
// strictly more.
const DefaultLateAfter = 48 * time.Hour

// Visual states of a timeline entry, in display precedence order.
const (
	VisualDone     = "done"
	VisualRejected = "rejected"
	VisualLate     = "late"
	VisualCurrent  = "current"
	VisualUpcoming = "upcoming"
)

// TimelineStep is the read-only projection of one step for display.
type TimelineStep struct {
	Order       int        `json:"order"`
	ApproverID  string     `json:"approver_id"`
	Label       string     `json:"label"`
	Status      string     `json:"status"`
	Comment     string     `json:"comment,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	DecidedAt   *time.Time `json:"decided_at,omitempty"`
	VisualState string     `json:"visual_state"`
	Late        bool       `json:"late"`
}

// IsLate reports whether a pending step has waited strictly longer than
// lateAfter since its creation.
func IsLate(status string, createdAt, now time.Time, lateAfter time.Duration) bool {
	if status != StepEnAttente {
		return false
	}
	if lateAfter <= 0 {
		lateAfter = DefaultLateAfter
	}
	return now.Sub(createdAt) > lateAfter
}

// DeriveTimeline computes the visual state of each step from stored
// status, position relative to the current step and elapsed time. It is
// a pure function of its inputs; steps are sorted by order regardless of
// input order.
func DeriveTimeline(steps []TimelineStep, currentStep int, now time.Time, lateAfter time.Duration) []TimelineStep {
	out := make([]TimelineStep, len(steps))
	copy(out, steps)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Order < out[j].Order
	})

	for i := range out {
		s := &out[i]
		s.Late = false
		switch {
		case s.Status == StepApprouve:
			s.VisualState = VisualDone
		case s.Status == StepRejete:
			s.VisualState = VisualRejected
		case s.Order == currentStep && IsLate(s.Status, s.CreatedAt, now, lateAfter):
			s.VisualState = VisualLate
			s.Late = true
		case s.Order == currentStep:
			s.VisualState = VisualCurrent
		default:
			s.VisualState = VisualUpcoming
		}
	}

	return out
}
