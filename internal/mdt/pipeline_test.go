package mdt_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"raredx.dev/mdtpanel/common/llm"
	"raredx.dev/mdtpanel/internal/mdt"
	"raredx.dev/mdtpanel/internal/model"
)

var _ = Describe("BuildMDTGraph + Pipeline", func() {
	It("seeds the pool through the triage node, then runs fan-out and review to consensus", func() {
		state := model.NewMDTState(3)
		state.PatientRecord = model.PatientRecord{BaseInfo: map[string]any{"age": 50}}

		runners := map[string]mdt.Runner{
			"cardiology": mdt.NewExpertRunner(newFakeAgentClient(scriptedResponse{content: "cardiology finds <ref>1</ref>"})),
		}
		reviewer := mdt.NewReviewer(map[string]llm.AgentClient{
			"cardiology": newFakeAgentClient(scriptedResponse{content: `{"is_satisfied": true, "reinvestigate_reason": ""}`}),
		})

		graph := mdt.BuildMDTGraph([]string{"cardiology"}, 3, runners, reviewer)
		out, err := graph.Run(context.Background(), state)

		Expect(err).NotTo(HaveOccurred())
		Expect(out.ExpertPool).To(HaveKey("cardiology"))
		Expect(out.ConsensusReached).To(BeTrue())
		Expect(out.RoundCount).To(Equal(2))
		Expect(out.Blackboard.PublishedReports).To(HaveKey("cardiology"))
	})

	It("keeps a pre-seeded expert pool instead of re-triaging", func() {
		state := mdt.Triage(model.PatientRecord{}, "", []string{"existing"}, 3)

		runners := map[string]mdt.Runner{
			"existing": mdt.NewExpertRunner(newFakeAgentClient(scriptedResponse{content: "report"})),
		}
		reviewer := mdt.NewReviewer(map[string]llm.AgentClient{
			"existing": newFakeAgentClient(scriptedResponse{content: `{"is_satisfied": true, "reinvestigate_reason": ""}`}),
		})

		graph := mdt.BuildMDTGraph([]string{"would_be_new"}, 3, runners, reviewer)
		out, err := graph.Run(context.Background(), state)

		Expect(err).NotTo(HaveOccurred())
		Expect(out.ExpertPool).To(HaveKey("existing"))
		Expect(out.ExpertPool).NotTo(HaveKey("would_be_new"))
	})

	It("resolves a cross-disagreement on the second round", func() {
		state := model.NewMDTState(3)

		runners := map[string]mdt.Runner{
			"e1": mdt.NewExpertRunner(newFakeAgentClient(
				scriptedResponse{content: "e1 first report"},
				scriptedResponse{content: "e1 revised report"},
			)),
			"e2": mdt.NewExpertRunner(newFakeAgentClient(
				scriptedResponse{content: "e2 first report"},
				scriptedResponse{content: "e2 revised report"},
			)),
		}
		reviewer := mdt.NewReviewer(map[string]llm.AgentClient{
			"e1": newFakeAgentClient(
				scriptedResponse{content: `{"is_satisfied": false, "reinvestigate_reason": "e2 missed cardiac finding"}`},
				scriptedResponse{content: `{"is_satisfied": true, "reinvestigate_reason": ""}`},
			),
			"e2": newFakeAgentClient(
				scriptedResponse{content: `{"is_satisfied": false, "reinvestigate_reason": "e1 overstates the imaging"}`},
				scriptedResponse{content: `{"is_satisfied": true, "reinvestigate_reason": ""}`},
			),
		})

		graph := mdt.BuildMDTGraph([]string{"e1", "e2"}, 3, runners, reviewer)
		out, err := graph.Run(context.Background(), state)

		Expect(err).NotTo(HaveOccurred())
		Expect(out.ConsensusReached).To(BeTrue())
		Expect(out.RoundCount).To(Equal(3))
		Expect(out.ExpertPool["e1"].Report).To(Equal("e1 revised report"))
		Expect(out.ExpertPool["e1"].ReinvestigateReason).To(BeNil())
		Expect(out.Blackboard.Conflicts).To(BeEmpty())
	})

	It("stops looping once the round budget is exhausted without consensus", func() {
		state := mdt.Triage(model.PatientRecord{}, "", []string{"cardiology"}, 2)

		runners := map[string]mdt.Runner{
			"cardiology": mdt.NewExpertRunner(newFakeAgentClient(
				scriptedResponse{content: "round 1 report"},
				scriptedResponse{content: "round 2 report"},
			)),
		}
		reviewer := mdt.NewReviewer(map[string]llm.AgentClient{
			"cardiology": newFakeAgentClient(
				scriptedResponse{content: `{"is_satisfied": false, "reinvestigate_reason": "dig deeper"}`},
				scriptedResponse{content: `{"is_satisfied": false, "reinvestigate_reason": "still unsure"}`},
			),
		})

		graph := mdt.BuildMDTGraph([]string{"cardiology"}, 2, runners, reviewer)
		out, err := graph.Run(context.Background(), state)

		Expect(err).NotTo(HaveOccurred())
		Expect(out.ConsensusReached).To(BeFalse())
		Expect(out.RoundCount).To(Equal(2))
	})

	It("isolates one failing expert and publishes only the survivors' reports", func() {
		state := model.NewMDTState(3)

		runners := map[string]mdt.Runner{
			"e1": mdt.NewExpertRunner(newFakeAgentClient(scriptedResponse{content: "e1 report"})),
			"e2": mdt.NewExpertRunner(newFakeAgentClient(scriptedResponse{err: errors.New("boom")})),
			"e3": mdt.NewExpertRunner(newFakeAgentClient(scriptedResponse{content: "e3 report"})),
		}
		reviewer := mdt.NewReviewer(map[string]llm.AgentClient{
			"e1": newFakeAgentClient(scriptedResponse{content: `{"is_satisfied": true, "reinvestigate_reason": ""}`}),
			"e3": newFakeAgentClient(scriptedResponse{content: `{"is_satisfied": true, "reinvestigate_reason": ""}`}),
		})

		graph := mdt.BuildMDTGraph([]string{"e1", "e2", "e3"}, 3, runners, reviewer)
		out, err := graph.Run(context.Background(), state)

		Expect(err).NotTo(HaveOccurred())
		Expect(out.ExpertPool["e2"].HasError).To(BeTrue())
		Expect(out.ConsensusReached).To(BeTrue())
		Expect(out.Blackboard.PublishedReports).To(HaveKey("e1"))
		Expect(out.Blackboard.PublishedReports).To(HaveKey("e3"))
		Expect(out.Blackboard.PublishedReports).NotTo(HaveKey("e2"))
	})

	It("returns the state unchanged from Invoke when start_diagnosis is false", func() {
		state := model.NewMainState("run_1", 3)
		p := &mdt.Pipeline{}

		out, err := p.Invoke(context.Background(), state)

		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal(state))
	})

	It("runs PrepareSummary, the MDT sub-graph, and the Summarizer end to end", func() {
		state := model.NewMainState("run_2", 3)
		state.StartDiagnosis = true
		state.TraceID = "4bf92f3577b34da6a3ce929d0e0e4736"
		state.PatientRecord = model.PatientRecord{BaseInfo: map[string]any{"age": 61}}
		state.Dialogue = []model.DialogueTurn{
			{Role: "user", Text: "I've had chest pain for two days"},
		}

		runners := map[string]mdt.Runner{
			"cardiology": mdt.NewExpertRunner(newFakeAgentClient(scriptedResponse{content: "likely ACS"})),
		}
		reviewer := mdt.NewReviewer(map[string]llm.AgentClient{
			"cardiology": newFakeAgentClient(scriptedResponse{content: `{"is_satisfied": true, "reinvestigate_reason": ""}`}),
		})

		p := &mdt.Pipeline{
			DialogueClient: newFakeAgentClient(scriptedResponse{content: "brief case summary"}),
			MDTGraph:       mdt.BuildMDTGraph([]string{"cardiology"}, 3, runners, reviewer),
			Summarizer:     mdt.NewSummarizer(newFakeAgentClient(scriptedResponse{content: "Final assessment: ACS likely."}), "system"),
		}

		out, err := p.Invoke(context.Background(), state)

		Expect(err).NotTo(HaveOccurred())
		Expect(out.DialogueSummary).To(Equal("brief case summary"))
		Expect(out.FinalReport).To(ContainSubstring("ACS likely"))
		Expect(out.ConsensusReached).To(BeTrue())
		Expect(out.ExpertPool["cardiology"].Messages[0].Content).To(ContainSubstring("brief case summary"))
	})

	It("emits progress for every major stage", func() {
		state := model.NewMainState("run_3", 3)
		state.StartDiagnosis = true
		state.DialogueSummary = "already summarized"

		runners := map[string]mdt.Runner{
			"cardiology": mdt.NewExpertRunner(newFakeAgentClient(scriptedResponse{content: "report"})),
		}
		reviewer := mdt.NewReviewer(map[string]llm.AgentClient{
			"cardiology": newFakeAgentClient(scriptedResponse{content: `{"is_satisfied": true, "reinvestigate_reason": ""}`}),
		})

		p := &mdt.Pipeline{
			DialogueClient: newFakeAgentClient(),
			MDTGraph:       mdt.BuildMDTGraph([]string{"cardiology"}, 3, runners, reviewer),
			Summarizer:     mdt.NewSummarizer(newFakeAgentClient(scriptedResponse{content: "summary"}), "system"),
		}

		out, err := p.Invoke(context.Background(), state)

		Expect(err).NotTo(HaveOccurred())
		texts := make([]string, 0, len(out.Progress))
		for _, msg := range out.Progress {
			texts = append(texts, msg.Text)
		}
		Expect(texts).To(ContainElement("triggered deep diagnosis"))
		Expect(texts).To(ContainElement("expert panel seeded (1 groups)"))
		Expect(texts).To(ContainElement("expert group cardiology completed"))
		Expect(texts).To(ContainElement(ContainSubstring("round 1 review done (satisfied 1/1)")))
	})

	It("skips the Summary stage when the driver's context is already cancelled", func() {
		state := model.NewMainState("run_4", 3)
		state.StartDiagnosis = true
		state.DialogueSummary = "summary"

		runners := map[string]mdt.Runner{
			"cardiology": mdt.NewExpertRunner(newFakeAgentClient(scriptedResponse{err: context.Canceled})),
		}
		reviewer := mdt.NewReviewer(map[string]llm.AgentClient{
			"cardiology": newFakeAgentClient(),
		})

		summarizerCalled := false
		summaryClient := &fakeAgentClient{fn: func(llm.AgentRequest) (*llm.AgentResponse, error) {
			summarizerCalled = true
			return &llm.AgentResponse{Content: "should not happen"}, nil
		}}

		p := &mdt.Pipeline{
			DialogueClient: newFakeAgentClient(),
			MDTGraph:       mdt.BuildMDTGraph([]string{"cardiology"}, 3, runners, reviewer),
			Summarizer:     mdt.NewSummarizer(summaryClient, "system"),
		}

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		out, err := p.Invoke(ctx, state)

		Expect(err).To(MatchError(context.Canceled))
		Expect(summarizerCalled).To(BeFalse())
		Expect(out.FinalReport).To(BeEmpty())
		Expect(out.ExpertPool["cardiology"].HasError).To(BeTrue())
	})

	It("falls back to a role-labelled dialogue concatenation when the prep LLM fails", func() {
		state := model.NewMainState("run_5", 3)
		state.StartDiagnosis = true
		state.Dialogue = []model.DialogueTurn{
			{Role: "user", Text: "headache for a week"},
			{Role: "assistant", Text: ""},
		}

		runners := map[string]mdt.Runner{
			"neurology": mdt.NewExpertRunner(newFakeAgentClient(scriptedResponse{content: "report"})),
		}
		reviewer := mdt.NewReviewer(map[string]llm.AgentClient{
			"neurology": newFakeAgentClient(scriptedResponse{content: `{"is_satisfied": true, "reinvestigate_reason": ""}`}),
		})

		p := &mdt.Pipeline{
			DialogueClient: newFakeAgentClient(scriptedResponse{err: errors.New("model down")}),
			MDTGraph:       mdt.BuildMDTGraph([]string{"neurology"}, 3, runners, reviewer),
			Summarizer:     mdt.NewSummarizer(newFakeAgentClient(scriptedResponse{content: "summary"}), "system"),
		}

		out, err := p.Invoke(context.Background(), state)

		Expect(err).NotTo(HaveOccurred())
		Expect(out.DialogueSummary).To(ContainSubstring("user: headache for a week"))
		Expect(out.DialogueSummary).To(ContainSubstring("assistant: [non-text content]"))
	})
})
