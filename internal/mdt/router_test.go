package mdt_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"raredx.dev/mdtpanel/internal/mdt"
	"raredx.dev/mdtpanel/internal/model"
)

var _ = Describe("Next", func() {
	It("routes to Summary once consensus is reached", func() {
		s := model.MDTState{ConsensusReached: true, RoundCount: 1, MaxRounds: 3}
		Expect(mdt.Next(s)).To(Equal(mdt.RouteSummary))
	})

	It("routes to Summary once the round budget is exhausted, even without consensus", func() {
		s := model.MDTState{ConsensusReached: false, RoundCount: 3, MaxRounds: 3}
		Expect(mdt.Next(s)).To(Equal(mdt.RouteSummary))
	})

	It("routes back to Fan-Out otherwise", func() {
		s := model.MDTState{ConsensusReached: false, RoundCount: 1, MaxRounds: 3}
		Expect(mdt.Next(s)).To(Equal(mdt.RouteFanOut))
	})
})
