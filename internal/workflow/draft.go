package workflow

import (
	"fmt"
	"sort"
	"strings"
)

// DraftStep is one entry of a step definition being assembled before a
// workflow is initiated.
type DraftStep struct {
	Order      int    `json:"order"`
	ApproverID string `json:"approver_id"`
	Label      string `json:"label"`
}

// Draft is an ordered step definition under construction. Orders are
// recomputed as index+1 on every mutation, so they stay contiguous even
// after mid-list removals.
type Draft struct {
	steps []DraftStep
}

// NewDraft creates an empty draft.
func NewDraft() *Draft {
	return &Draft{}
}

// DraftFromSteps builds a draft from an already assembled list, sorting
// by the supplied orders and renumbering.
func DraftFromSteps(steps []DraftStep) *Draft {
	d := &Draft{steps: make([]DraftStep, len(steps))}
	copy(d.steps, steps)
	sort.SliceStable(d.steps, func(i, j int) bool {
		return d.steps[i].Order < d.steps[j].Order
	})
	d.renumber()
	return d
}

// AddStep appends a step with a placeholder label and no approver.
func (d *Draft) AddStep() {
	d.steps = append(d.steps, DraftStep{
		Order: len(d.steps) + 1,
		Label: fmt.Sprintf("Étape %d", len(d.steps)+1),
	})
}

// RemoveStep removes the step at index and renumbers the remainder.
func (d *Draft) RemoveStep(index int) error {
	if index < 0 || index >= len(d.steps) {
		return &DraftError{Index: index, Message: "index out of range"}
	}
	d.steps = append(d.steps[:index], d.steps[index+1:]...)
	d.renumber()
	return nil
}

// SetApprover assigns the approver of the step at index.
func (d *Draft) SetApprover(index int, userID string) error {
	if index < 0 || index >= len(d.steps) {
		return &DraftError{Index: index, Message: "index out of range"}
	}
	d.steps[index].ApproverID = userID
	return nil
}

// SetLabel renames the step at index.
func (d *Draft) SetLabel(index int, label string) error {
	if index < 0 || index >= len(d.steps) {
		return &DraftError{Index: index, Message: "index out of range"}
	}
	d.steps[index].Label = label
	return nil
}

// Len returns the number of steps.
func (d *Draft) Len() int {
	return len(d.steps)
}

// Steps returns a copy of the draft's steps.
func (d *Draft) Steps() []DraftStep {
	out := make([]DraftStep, len(d.steps))
	copy(out, d.steps)
	return out
}

// Validate checks that the draft can be submitted: at least one step,
// every step with an approver and a non-blank label.
func (d *Draft) Validate() error {
	if len(d.steps) == 0 {
		return &DraftError{Index: -1, Message: "at least one step is required"}
	}
	for i, s := range d.steps {
		if strings.TrimSpace(s.ApproverID) == "" {
			return &DraftError{Index: i, Message: "approver is required"}
		}
		if strings.TrimSpace(s.Label) == "" {
			return &DraftError{Index: i, Message: "label is required"}
		}
	}
	return nil
}

// renumber recomputes orders as index+1.
func (d *Draft) renumber() {
	for i := range d.steps {
		d.steps[i].Order = i + 1
	}
}
