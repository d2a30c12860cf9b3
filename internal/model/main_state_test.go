package model_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"raredx.dev/mdtpanel/internal/model"
)

var _ = Describe("MainState", func() {
	It("starts closed until start_diagnosis is set", func() {
		s := model.NewMainState("run_123", 3)

		Expect(s.StartDiagnosis).To(BeFalse())
		Expect(s.FinalReport).To(BeEmpty())
		Expect(s.MaxRounds).To(Equal(3))
		Expect(s.RunID).To(Equal("run_123"))
	})

	It("embeds MDTState so its fields are reachable without qualification", func() {
		s := model.NewMainState("run_456", 1)
		s.Emit("triage", "hello")

		Expect(s.Progress).To(HaveLen(1))
		Expect(s.ExpertPool).NotTo(BeNil())
	})
})
