package mdt

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"raredx.dev/mdtpanel/common/logger"
	"raredx.dev/mdtpanel/internal/model"
)

// Runner is the Expert Runner contract the Fan-Out Scheduler dispatches
// against. *ExpertRunner satisfies it; tests substitute fakes.
type Runner interface {
	Run(ctx context.Context, slot model.ExpertGroupState) model.ExpertGroupState
}

// FanOut concurrently invokes runners for every group_id not yet terminal
// (has_error=false and is_satisfied=false), one goroutine per group. Each
// invocation only ever reads and returns its own slot; nothing is shared
// across goroutines except the read-only input. The scheduler waits for
// every dispatched runner before merging results back by replacement.
func FanOut(ctx context.Context, state model.MDTState, runners map[string]Runner) model.MDTState {
	type update struct {
		groupID string
		slot    model.ExpertGroupState
	}

	var pending []string
	for groupID, slot := range state.ExpertPool {
		if slot.HasError || slot.IsSatisfied {
			continue
		}
		if _, ok := runners[groupID]; !ok {
			continue
		}
		pending = append(pending, groupID)
	}
	sort.Strings(pending)

	updates := make(chan update, len(pending))
	var wg sync.WaitGroup

	for _, groupID := range pending {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			sc := logger.StartSpan(ctx, "mdt.expert_runner")
			defer sc.End()
			slot := state.ExpertPool[id]
			result := runners[id].Run(sc.Context(), slot)
			updates <- update{groupID: id, slot: result}
		}(groupID)
	}

	wg.Wait()
	close(updates)

	for u := range updates {
		state.ExpertPool[u.groupID] = u.slot
	}

	for _, groupID := range pending {
		slot := state.ExpertPool[groupID]
		if slot.HasError {
			state.Emit("mdt.fan_out", fmt.Sprintf("expert group %s failed: %s", groupID, slot.Report))
			continue
		}
		state.Emit("mdt.fan_out", fmt.Sprintf("expert group %s completed", groupID))
	}

	return state
}
