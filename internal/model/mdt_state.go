package model

import "sort"

// ProgressMessage is one entry in the outward-visible progress stream the
// MDT sub-pipeline emits as it runs, surfaced unchanged by the Main Graph.
type ProgressMessage struct {
	Component string `json:"component"`
	Text      string `json:"text"`
}

// MDTState is the umbrella object for one multi-disciplinary-team
// deliberation: the patient record under discussion, the derived portrait
// and dialogue summary, the expert pool, the blackboard, and round
// bookkeeping.
type MDTState struct {
	PatientRecord    PatientRecord                `json:"patient_record"`
	DialogueSummary  string                       `json:"dialogue_summary"`
	Portrait         string                       `json:"portrait"`
	ExpertPool       map[string]ExpertGroupState  `json:"expert_pool"`
	Blackboard       Blackboard                   `json:"blackboard"`
	RoundCount       int                          `json:"round_count"`
	MaxRounds        int                          `json:"max_rounds"`
	ConsensusReached bool                         `json:"consensus_reached"`
	Progress         []ProgressMessage            `json:"progress"`
}

// NewMDTState returns an MDTState seeded with an empty expert pool and
// blackboard, ready for the Triage Node to populate.
func NewMDTState(maxRounds int) MDTState {
	return MDTState{
		ExpertPool: map[string]ExpertGroupState{},
		Blackboard: NewBlackboard(),
		MaxRounds:  maxRounds,
	}
}

// Emit appends a progress message, visible to the outer Main Graph caller.
func (s *MDTState) Emit(component, text string) {
	s.Progress = append(s.Progress, ProgressMessage{Component: component, Text: text})
}

// RoundsExhausted reports whether the round budget has been spent.
func (s MDTState) RoundsExhausted() bool {
	return s.RoundCount >= s.MaxRounds
}

// ActiveGroups returns the group IDs of every expert not yet frozen by a
// fatal error, in a stable, sorted order so callers get deterministic
// fan-out ordering for logging and tests.
func (s MDTState) ActiveGroups() []string {
	ids := make([]string, 0, len(s.ExpertPool))
	for id, g := range s.ExpertPool {
		if g.Active() {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}
