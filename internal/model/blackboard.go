package model

// Blackboard is the process-local, shared surface written only by the
// Reviewer and read by the Reviewer and the Summarizer. Every map grows
// monotonically within a round; conflicts is reset at the start of each
// review pass.
type Blackboard struct {
	PublishedReports      map[string]string `json:"published_reports"`
	Conflicts             map[string]string `json:"conflicts"`
	CommonUnderstandings  map[string]string `json:"common_understandings"`
}

// NewBlackboard returns an empty blackboard with initialized maps.
func NewBlackboard() Blackboard {
	return Blackboard{
		PublishedReports:     map[string]string{},
		Conflicts:            map[string]string{},
		CommonUnderstandings: map[string]string{},
	}
}

// Publish writes groupID's current report to published_reports, replacing
// any prior value. The Reviewer calls it before eliciting verdicts, and only
// for a group that has no published report yet.
func (b *Blackboard) Publish(groupID, report string) {
	if b.PublishedReports == nil {
		b.PublishedReports = map[string]string{}
	}
	b.PublishedReports[groupID] = report
}

// RecordConflict records the reviewer's reinvestigation reason for groupID.
func (b *Blackboard) RecordConflict(groupID, reason string) {
	if b.Conflicts == nil {
		b.Conflicts = map[string]string{}
	}
	b.Conflicts[groupID] = reason
}

// ResetConflicts clears the conflicts map at the start of a new review pass.
func (b *Blackboard) ResetConflicts() {
	b.Conflicts = map[string]string{}
}
