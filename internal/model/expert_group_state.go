package model

// Message is one turn in an expert's tool-calling conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Name    string `json:"name,omitempty"`
}

// ExpertGroupState is the exclusively-owned slot for one expert group within
// the expert pool. Only that group's own runner writes to it during
// fan-out; the Reviewer is the only other writer, and only while it holds
// the review pass.
type ExpertGroupState struct {
	GroupID              string    `json:"group_id"`
	Messages             []Message `json:"messages"`
	Report               string    `json:"report"`
	Evidences            []string  `json:"evidences"`
	IsSatisfied          bool      `json:"is_satisfied"`
	ReinvestigateReason  *string   `json:"reinvestigate_reason,omitempty"`
	HasError             bool      `json:"has_error"`
	RoundCount           int       `json:"round_count"`
}

// NewExpertGroupState returns a fresh slot for groupID with the waiting
// report placeholder shown before the first successful run.
func NewExpertGroupState(groupID string) ExpertGroupState {
	return ExpertGroupState{
		GroupID: groupID,
		Report:  "waiting",
	}
}

// Active reports whether this group may still participate in further
// rounds: it has not been frozen by a fatal error.
func (s ExpertGroupState) Active() bool {
	return !s.HasError
}

// MarkSatisfied records an accepting review verdict and clears any pending
// reinvestigation reason, preserving the invariant that is_satisfied and
// reinvestigate_reason never disagree.
func (s *ExpertGroupState) MarkSatisfied() {
	s.IsSatisfied = true
	s.ReinvestigateReason = nil
}

// MarkReinvestigate records a rejecting review verdict along with the
// reviewer's reason.
func (s *ExpertGroupState) MarkReinvestigate(reason string) {
	s.IsSatisfied = false
	s.ReinvestigateReason = &reason
}

// MarkError freezes the group: it contributes nothing further, though its
// latest report may remain on the blackboard.
func (s *ExpertGroupState) MarkError() {
	s.HasError = true
}
