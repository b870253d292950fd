package workflow

// Step statuses. The French vocabulary is the product's wire format and
// is stored as-is.
const (
	StepEnAttente = "EN_ATTENTE"
	StepApprouve  = "APPROUVE"
	StepRejete    = "REJETE"
)

// Workflow states.
const (
	StateEnCours  = "EN_COURS"
	StateApprouve = "APPROUVE"
	StateRejete   = "REJETE"
	StateAnnule   = "ANNULE"
)

// Decisions accepted on a step.
const (
	DecisionApprouve = "APPROUVE"
	DecisionRejete   = "REJETE"
)

// Event types written to the notification outbox.
const (
	EventStepAssigned      = "step_assigned"
	EventWorkflowCompleted = "workflow_completed"
	EventWorkflowRejected  = "workflow_rejected"
	EventWorkflowCancelled = "workflow_cancelled"
)

// transitions lists the allowed workflow state changes. Terminal states
// have no outgoing edges.
var transitions = map[string][]string{
	StateEnCours: {StateApprouve, StateRejete, StateAnnule},
}

// CanTransition reports whether a workflow may move from one state to
// another.
func CanTransition(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the workflow state admits no further
// transitions.
func IsTerminal(state string) bool {
	return len(transitions[state]) == 0
}

// ValidDecision reports whether the decision value is one of the two
// accepted outcomes.
func ValidDecision(decision string) bool {
	return decision == DecisionApprouve || decision == DecisionRejete
}
