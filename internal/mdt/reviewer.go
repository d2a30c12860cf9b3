package mdt

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"raredx.dev/mdtpanel/common/llm"
	"raredx.dev/mdtpanel/common/logger"
	"raredx.dev/mdtpanel/internal/model"
)

const reviewInstructionTemplate = `This is round %d of the panel review. You have seen the other experts' current reports above.

Decide whether your own report still stands. Respond with a single JSON object and nothing else:
{"is_satisfied": true|false, "reinvestigate_reason": "<empty when satisfied, otherwise a targeted instruction for what to re-investigate>"}`

const reinvestigateInstruction = `The panel review asked you to re-investigate: %s

Produce an updated report in the same format as before.`

// Reviewer runs the cross-review pass: publish, compose, elicit, record.
type Reviewer struct {
	Clients map[string]llm.AgentClient

	// PromptTemplate overrides reviewInstructionTemplate when non-empty. It
	// is loaded from mdt_config.reviewer_prompt_path and must itself contain
	// exactly one %d verb for the round number, matching the built-in
	// template's shape.
	PromptTemplate string
}

// NewReviewer returns a reviewer dispatching verdict calls through clients,
// keyed by group_id.
func NewReviewer(clients map[string]llm.AgentClient) *Reviewer {
	return &Reviewer{Clients: clients}
}

func (r *Reviewer) instructionTemplate() string {
	if r.PromptTemplate != "" {
		return r.PromptTemplate
	}
	return reviewInstructionTemplate
}

// Review runs one full review pass over state and returns the updated
// state, including the round_count increment and consensus determination.
func (r *Reviewer) Review(ctx context.Context, state model.MDTState) model.MDTState {
	state.Blackboard.ResetConflicts()

	groupIDs := make([]string, 0, len(state.ExpertPool))
	for id := range state.ExpertPool {
		groupIDs = append(groupIDs, id)
	}
	sort.Strings(groupIDs)

	for _, id := range groupIDs {
		slot := state.ExpertPool[id]
		if slot.HasError || slot.IsSatisfied {
			continue
		}
		if _, already := state.Blackboard.PublishedReports[id]; !already {
			state.Blackboard.Publish(id, slot.Report)
		}
	}

	for _, id := range groupIDs {
		slot := state.ExpertPool[id]
		if slot.HasError || slot.IsSatisfied {
			continue
		}

		updated := r.reviewOne(ctx, state, id, slot)
		state.ExpertPool[id] = updated
	}

	active := 0
	satisfied := 0
	for _, slot := range state.ExpertPool {
		if slot.HasError {
			continue
		}
		active++
		if slot.IsSatisfied {
			satisfied++
		}
	}

	state.ConsensusReached = active == 0 || satisfied == active
	completedRound := state.RoundCount
	state.RoundCount++

	suffix := ""
	switch {
	case state.ConsensusReached:
		suffix = " (consensus reached)"
	case state.RoundsExhausted():
		suffix = " (max rounds reached)"
	}
	state.Emit("mdt.reviewer", fmt.Sprintf("round %d review done (satisfied %d/%d)%s", completedRound, satisfied, active, suffix))

	return state
}

func (r *Reviewer) reviewOne(ctx context.Context, state model.MDTState, groupID string, slot model.ExpertGroupState) model.ExpertGroupState {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		GroupID:   logger.Ptr(groupID),
		Round:     logger.Ptr(state.RoundCount),
		Component: "mdt.reviewer",
	})

	client, ok := r.Clients[groupID]
	if !ok {
		slog.ErrorContext(ctx, "reviewer has no client for group", "group_id", groupID)
		slot.HasError = true
		return slot
	}

	// The portrait insert, peer-reports block, and review instruction become
	// part of the expert's own history, so an unsatisfied expert re-enters
	// its next deep-research turn still holding everything it was reviewed
	// against, not just the reinvestigation reason.
	slot.Messages = composeReviewMessages(state, groupID, slot, r.instructionTemplate())

	resp, err := client.ChatWithTools(ctx, llm.AgentRequest{Messages: toLLMMessages(slot.Messages), JSONOnly: true})
	if err != nil {
		slog.WarnContext(ctx, "reviewer LLM call failed", "group_id", groupID, "error", err)
		slot.HasError = true
		return slot
	}

	slot.Messages = append(slot.Messages, model.Message{Role: "assistant", Content: resp.Content})

	verdict, err := ParseVerdict(resp.Content)
	if err != nil {
		slog.WarnContext(ctx, "reviewer verdict parse failed", "group_id", groupID, "error", err)
		slot.HasError = true
		return slot
	}

	if verdict.IsSatisfied {
		slot.MarkSatisfied()
		return slot
	}

	slot.MarkReinvestigate(verdict.ReinvestigateReason)
	state.Blackboard.RecordConflict(groupID, verdict.ReinvestigateReason)
	slot.Messages = append(slot.Messages, model.Message{
		Role:    "user",
		Content: fmt.Sprintf(reinvestigateInstruction, verdict.ReinvestigateReason),
	})
	return slot
}

// composeReviewMessages returns the expert's private messages with the
// portrait inserted at position 1, a peer-reports block appended, and the
// review instruction for the given round appended last. The caller stores
// the result back into the slot: the review context persists into the
// history the next round's deep-research turn reads.
func composeReviewMessages(state model.MDTState, groupID string, slot model.ExpertGroupState, instructionTemplate string) []model.Message {
	out := make([]model.Message, 0, len(slot.Messages)+3)

	if len(slot.Messages) > 0 {
		out = append(out, slot.Messages[0])
	}
	out = append(out, model.Message{Role: "user", Content: state.Portrait})
	if len(slot.Messages) > 1 {
		out = append(out, slot.Messages[1:]...)
	}

	var peers strings.Builder
	peers.WriteString("## Other Experts' Current Reports\n")
	peerIDs := make([]string, 0, len(state.ExpertPool))
	for id := range state.ExpertPool {
		if id != groupID {
			peerIDs = append(peerIDs, id)
		}
	}
	sort.Strings(peerIDs)
	for _, id := range peerIDs {
		fmt.Fprintf(&peers, "\n### %s\n%s\n", id, state.ExpertPool[id].Report)
	}
	out = append(out, model.Message{Role: "user", Content: peers.String()})

	out = append(out, model.Message{Role: "user", Content: fmt.Sprintf(instructionTemplate, state.RoundCount)})

	return out
}
