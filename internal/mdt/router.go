package mdt

import "raredx.dev/mdtpanel/internal/model"

// Route is the Router's output: where the driver loop goes next. The
// router mutates no state; it only produces a decision.
type Route int

const (
	// RouteFanOut sends control back to the Fan-Out Scheduler for another
	// round.
	RouteFanOut Route = iota
	// RouteSummary ends the MDT sub-graph and hands off to the Summarizer.
	RouteSummary
)

// Next decides the post-Review routing: consensus or an exhausted round
// budget both terminate the loop; otherwise it continues.
func Next(state model.MDTState) Route {
	if state.ConsensusReached {
		return RouteSummary
	}
	if state.RoundsExhausted() {
		return RouteSummary
	}
	return RouteFanOut
}
