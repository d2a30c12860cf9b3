package mdt

import (
	"fmt"

	"raredx.dev/mdtpanel/internal/model"
)

// Triage builds a fresh MDTState from a patient record and an already
// summarized dialogue: it renders the portrait, opens one expert slot per
// configured group, and seeds each slot with the only input it sees on
// round 1 — the portrait, plus the dialogue summary under a labeled header
// when non-empty.
func Triage(rec model.PatientRecord, dialogueSummary string, groupIDs []string, maxRounds int) model.MDTState {
	state := model.NewMDTState(maxRounds)
	state.PatientRecord = rec
	state.DialogueSummary = dialogueSummary
	state.Portrait = RenderPortrait(rec)
	state.RoundCount = 1

	seed := seedMessage(state.Portrait, dialogueSummary)

	for _, id := range groupIDs {
		slot := model.NewExpertGroupState(id)
		slot.Messages = []model.Message{{Role: "assistant", Content: seed}}
		state.ExpertPool[id] = slot
	}

	return state
}

func seedMessage(portrait, dialogueSummary string) string {
	if dialogueSummary == "" {
		return portrait
	}
	return fmt.Sprintf("%s\n\n## Preceding Dialogue Summary\n%s", portrait, dialogueSummary)
}
