package mdt_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"raredx.dev/mdtpanel/internal/mdt"
	"raredx.dev/mdtpanel/internal/model"
)

var _ = Describe("EvidenceNamespace", func() {
	It("builds stable group_id.index keys from published reports and their evidences", func() {
		pool := map[string]model.ExpertGroupState{
			"cardiology": {Evidences: []string{"elevated troponin", "ECG shows ST elevation"}},
			"neurology":  {Evidences: []string{"normal reflexes"}},
		}
		published := map[string]string{"cardiology": "...", "neurology": "..."}

		ns := mdt.EvidenceNamespace(pool, published)

		Expect(ns).To(HaveKeyWithValue("cardiology.1", "elevated troponin"))
		Expect(ns).To(HaveKeyWithValue("cardiology.2", "ECG shows ST elevation"))
		Expect(ns).To(HaveKeyWithValue("neurology.1", "normal reflexes"))
	})

	It("omits groups not present in published_reports", func() {
		pool := map[string]model.ExpertGroupState{
			"cardiology": {Evidences: []string{"a"}},
			"oncology":   {Evidences: []string{"b"}},
		}
		published := map[string]string{"cardiology": "..."}

		ns := mdt.EvidenceNamespace(pool, published)

		Expect(ns).NotTo(HaveKey("oncology.1"))
	})
})

var _ = Describe("RewriteLegacyRefs", func() {
	It("rewrites legacy numeric ref tags into the stable namespace", func() {
		out := mdt.RewriteLegacyRefs("cardiology", "Troponin is elevated <ref>1</ref> and ECG confirms it <ref>2</ref>.")

		Expect(out).To(ContainSubstring("<ref>cardiology.1</ref>"))
		Expect(out).To(ContainSubstring("<ref>cardiology.2</ref>"))
	})
})

var _ = Describe("ResolveReferences", func() {
	It("appends a trailing Cited Evidence section for each unique referenced key, in first-appearance order", func() {
		namespace := map[string]string{
			"cardiology.1": "elevated troponin",
			"cardiology.2": "ST elevation on ECG",
		}
		text := "Findings support ACS <ref>cardiology.2</ref>, confirmed by labs <ref>cardiology.1</ref> and again <ref>cardiology.2</ref>."

		out, unknown := mdt.ResolveReferences(text, namespace)

		Expect(unknown).To(BeEmpty())
		Expect(out).To(ContainSubstring("#### Cited Evidence"))
		citedSection := out[len("Findings support ACS <ref>cardiology.2</ref>, confirmed by labs <ref>cardiology.1</ref> and again <ref>cardiology.2</ref>."):]
		Expect(citedSection).To(ContainSubstring("[cardiology.2] ST elevation on ECG"))
		Expect(citedSection).To(ContainSubstring("[cardiology.1] elevated troponin"))
	})

	It("leaves text unchanged when no ref tags are present", func() {
		out, unknown := mdt.ResolveReferences("No citations here.", map[string]string{"a.1": "x"})

		Expect(out).To(Equal("No citations here."))
		Expect(unknown).To(BeEmpty())
	})

	It("reports unknown keys without removing the literal tag from the body", func() {
		out, unknown := mdt.ResolveReferences("See <ref>ghost.1</ref>.", map[string]string{})

		Expect(unknown).To(ConsistOf("ghost.1"))
		Expect(out).To(ContainSubstring("<ref>ghost.1</ref>"))
	})

	It("is idempotent: resolving its own output yields the same trailing section", func() {
		namespace := map[string]string{"a.1": "finding one"}
		first, _ := mdt.ResolveReferences("Claim <ref>a.1</ref>.", namespace)
		second, _ := mdt.ResolveReferences(first, namespace)

		Expect(second).To(Equal(first))
	})
})
