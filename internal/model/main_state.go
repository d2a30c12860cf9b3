package model

// DialogueTurn is one turn of the preceding patient-clinician conversation,
// the raw input PrepareSummary condenses into DialogueSummary before the
// MDT sub-graph starts.
type DialogueTurn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// MainState is the top-level state the Main Graph exclusively owns across a
// single invoke() call: a superset of MDTState adding the one-way
// start_diagnosis gate, the rendered final_report, and an optional
// free-form summary style directive.
type MainState struct {
	MDTState

	Dialogue       []DialogueTurn `json:"dialogue"`
	StartDiagnosis bool           `json:"start_diagnosis"`
	FinalReport    string         `json:"final_report"`
	SummaryStyle   *string        `json:"summary_style,omitempty"`

	RunID string `json:"run_id"`

	// TraceID optionally carries the hex trace id of an earlier invoke()
	// whose dialogue this call resumes, so a multi-turn deliberation stays
	// correlated across process invocations. Empty starts a fresh trace.
	TraceID string `json:"trace_id,omitempty"`
}

// NewMainState returns a MainState ready for the Main Graph driver loop,
// gated closed until the caller sets StartDiagnosis.
func NewMainState(runID string, maxRounds int) MainState {
	return MainState{
		MDTState: NewMDTState(maxRounds),
		RunID:    runID,
	}
}
