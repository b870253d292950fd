package workflow_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qualisoftsn/workflow-api/internal/workflow"
)

func TestDraftAddStepNumbersSequentially(t *testing.T) {
	d := workflow.NewDraft()
	d.AddStep()
	d.AddStep()
	d.AddStep()

	steps := d.Steps()
	require.Len(t, steps, 3)
	assert.Equal(t, 1, steps[0].Order)
	assert.Equal(t, 2, steps[1].Order)
	assert.Equal(t, 3, steps[2].Order)
	assert.Equal(t, "Étape 1", steps[0].Label)
	assert.Equal(t, "Étape 3", steps[2].Label)
}

func TestDraftRemoveStepRenumbers(t *testing.T) {
	d := workflow.NewDraft()
	d.AddStep()
	d.AddStep()
	d.AddStep()
	require.NoError(t, d.SetLabel(2, "Validation finale"))

	// removing the middle step closes the gap
	require.NoError(t, d.RemoveStep(1))

	steps := d.Steps()
	require.Len(t, steps, 2)
	assert.Equal(t, 1, steps[0].Order)
	assert.Equal(t, 2, steps[1].Order)
	assert.Equal(t, "Validation finale", steps[1].Label)
}

func TestDraftRemoveStepOutOfRange(t *testing.T) {
	d := workflow.NewDraft()
	d.AddStep()

	err := d.RemoveStep(5)
	require.Error(t, err)

	var draftErr *workflow.DraftError
	require.ErrorAs(t, err, &draftErr)
	assert.Equal(t, 5, draftErr.Index)
}

func TestDraftFromStepsSortsAndRenumbers(t *testing.T) {
	d := workflow.DraftFromSteps([]workflow.DraftStep{
		{Order: 7, ApproverID: "u2", Label: "Revue qualité"},
		{Order: 2, ApproverID: "u1", Label: "Relecture"},
	})

	steps := d.Steps()
	require.Len(t, steps, 2)
	assert.Equal(t, "u1", steps[0].ApproverID)
	assert.Equal(t, 1, steps[0].Order)
	assert.Equal(t, "u2", steps[1].ApproverID)
	assert.Equal(t, 2, steps[1].Order)
}

func TestDraftValidate(t *testing.T) {
	empty := workflow.NewDraft()
	err := empty.Validate()
	require.Error(t, err, "empty draft must not validate")

	d := workflow.NewDraft()
	d.AddStep()
	err = d.Validate()
	require.Error(t, err, "step without approver must not validate")

	var draftErr *workflow.DraftError
	require.ErrorAs(t, err, &draftErr)
	assert.Equal(t, 0, draftErr.Index)

	require.NoError(t, d.SetApprover(0, "u1"))
	assert.NoError(t, d.Validate())

	// a blank label is rejected even though AddStep pre-fills one
	require.NoError(t, d.SetLabel(0, "   "))
	assert.Error(t, d.Validate())
}

func TestDraftStepsReturnsCopy(t *testing.T) {
	d := workflow.NewDraft()
	d.AddStep()

	steps := d.Steps()
	steps[0].Label = "mutated"

	assert.Equal(t, "Étape 1", d.Steps()[0].Label)
}
