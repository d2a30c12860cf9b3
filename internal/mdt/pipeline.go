package mdt

import (
	"context"
	"fmt"
	"strings"

	"raredx.dev/mdtpanel/common/llm"
	"raredx.dev/mdtpanel/common/logger"
	"raredx.dev/mdtpanel/internal/model"
)

const dialogueSummaryInstruction = "Summarize the preceding patient-clinician dialogue as a structured case brief, under 500 characters."

const (
	nodeTriage = "triage"
	nodeFanOut = "fan_out"
	nodeReview = "review"
	nodeMarker = "round_marker"
)

// BuildMDTGraph wires the Triage Node, Fan-Out Scheduler, Reviewer, and an
// observability marker node into the declarative graph described by Graph:
// triage seeds the expert pool, fan-out feeds review, and review's outcome
// either terminates the sub-graph (consensus or an exhausted round budget)
// or loops back through a marker node that emits a visible "round N
// starting" progress message before the next fan-out. groupIDs and
// maxRounds come from static configuration; a caller that enters the graph
// with an already-seeded expert pool (a resumed deliberation) skips the
// triage fill and keeps its own pool.
func BuildMDTGraph(groupIDs []string, maxRounds int, runners map[string]Runner, reviewer *Reviewer) *Graph {
	g := NewGraph(nodeTriage)

	g.AddNode(nodeTriage, func(_ context.Context, s model.MDTState) (model.MDTState, error) {
		if len(s.ExpertPool) > 0 {
			return s, nil
		}
		rounds := s.MaxRounds
		if rounds <= 0 {
			rounds = maxRounds
		}
		seeded := Triage(s.PatientRecord, s.DialogueSummary, groupIDs, rounds)
		seeded.Progress = s.Progress
		seeded.Emit("mdt.triage", fmt.Sprintf("expert panel seeded (%d groups)", len(groupIDs)))
		return seeded, nil
	})

	g.AddNode(nodeFanOut, func(ctx context.Context, s model.MDTState) (model.MDTState, error) {
		return FanOut(ctx, s, runners), nil
	})

	g.AddNode(nodeReview, func(ctx context.Context, s model.MDTState) (model.MDTState, error) {
		return reviewer.Review(ctx, s), nil
	})

	g.AddNode(nodeMarker, func(_ context.Context, s model.MDTState) (model.MDTState, error) {
		s.Emit("mdt.router", fmt.Sprintf("round %d starting", s.RoundCount))
		return s, nil
	})

	g.AddEdge(nodeTriage, nodeFanOut, nil)
	g.AddEdge(nodeFanOut, nodeReview, nil)
	g.AddEdge(nodeReview, nodeMarker, func(s model.MDTState) bool { return Next(s) == RouteFanOut })
	g.AddEdge(nodeMarker, nodeFanOut, nil)

	return g
}

// Pipeline is the main graph: it owns MainState end to end for one
// invoke() call, wiring PrepareSummary, the MDT sub-graph, and the
// Summarizer together.
type Pipeline struct {
	DialogueClient llm.AgentClient
	MDTGraph       *Graph
	Summarizer     *Summarizer
}

// Invoke runs one full deliberation. If StartDiagnosis is false the state
// is returned unchanged — the caller is expected to resume on a later user
// turn. Otherwise it ensures a non-empty dialogue summary, runs the MDT
// sub-graph to termination, merges its output back by the
// union-overwriting-by-key rule, and produces the final report.
func (p *Pipeline) Invoke(ctx context.Context, state model.MainState) (model.MainState, error) {
	if !state.StartDiagnosis {
		return state, nil
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		RunID:     logger.Ptr(state.RunID),
		Component: "mdt.main_graph",
	})

	// The root span links back to the trace of the invoke() this call
	// resumes, when the caller carried one forward.
	rootSC := logger.StartSpanFromTraceID(ctx, state.TraceID, "mdt.invoke")
	defer rootSC.End()
	ctx = rootSC.Context()

	state.Emit("mdt.main_graph", "triggered deep diagnosis")

	prepareSC := logger.StartSpan(ctx, "mdt.prepare_summary")
	state.MDTState = p.prepareSummary(prepareSC.Context(), state.MDTState, state.Dialogue)
	prepareSC.End()

	mdtOut, err := p.MDTGraph.Run(ctx, state.MDTState)
	if err != nil {
		return state, err
	}
	state.MDTState = mergeMDTState(state.MDTState, mdtOut)

	// A cancelled driver skips the Summary stage outright: in-flight experts
	// already froze as errors, and no partial composition is kept.
	if err := ctx.Err(); err != nil {
		return state, err
	}

	summarySC := logger.StartSpan(ctx, "mdt.summarizer")
	report, err := p.Summarizer.Summarize(summarySC.Context(), state.MDTState, state.SummaryStyle)
	if err != nil {
		summarySC.RecordError(err)
		summarySC.End()
		return state, err
	}
	summarySC.End()
	state.FinalReport = report

	return state, nil
}

// prepareSummary ensures a non-empty DialogueSummary before the MDT
// sub-graph starts. On LLM failure it falls back to a deterministic
// concatenation of each turn, labelled by role.
func (p *Pipeline) prepareSummary(ctx context.Context, state model.MDTState, dialogue []model.DialogueTurn) model.MDTState {
	if state.DialogueSummary != "" || len(dialogue) == 0 {
		return state
	}

	resp, err := p.DialogueClient.ChatWithTools(ctx, llm.AgentRequest{
		Messages: []llm.Message{
			{Role: "system", Content: dialogueSummaryInstruction},
			{Role: "user", Content: renderDialogue(dialogue)},
		},
	})
	if err != nil {
		state.DialogueSummary = fallbackDialogueSummary(dialogue)
		return state
	}

	state.DialogueSummary = resp.Content
	return state
}

func renderDialogue(dialogue []model.DialogueTurn) string {
	var b strings.Builder
	for _, turn := range dialogue {
		fmt.Fprintf(&b, "%s: %s\n", turn.Role, turn.Text)
	}
	return b.String()
}

func fallbackDialogueSummary(dialogue []model.DialogueTurn) string {
	var b strings.Builder
	for _, turn := range dialogue {
		text := turn.Text
		if text == "" {
			text = "[non-text content]"
		}
		fmt.Fprintf(&b, "%s: %s\n", turn.Role, text)
	}
	return strings.TrimRight(b.String(), "\n")
}

// mergeMDTState applies the union-overwriting-by-key rule: every group_id
// present in sub yields a wholesale replacement of the outer slot, other
// fields replace the outer value when present, and the progress stream is
// appended to rather than replaced. The sub-graph runs over the outer
// stream, so its Progress already extends outer's; a sub that somehow
// returns a shorter stream must not drop outer messages.
func mergeMDTState(outer, sub model.MDTState) model.MDTState {
	merged := sub
	if len(sub.Progress) < len(outer.Progress) {
		merged.Progress = append(append([]model.ProgressMessage{}, outer.Progress...), sub.Progress...)
	}

	if merged.ExpertPool == nil {
		merged.ExpertPool = map[string]model.ExpertGroupState{}
	}
	for groupID, slot := range outer.ExpertPool {
		if _, present := sub.ExpertPool[groupID]; !present {
			merged.ExpertPool[groupID] = slot
		}
	}

	return merged
}
