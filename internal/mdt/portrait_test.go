package mdt_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"raredx.dev/mdtpanel/internal/mdt"
	"raredx.dev/mdtpanel/internal/model"
)

var _ = Describe("RenderPortrait", func() {
	It("renders sections in the fixed order, skipping empty ones", func() {
		rec := model.PatientRecord{
			BaseInfo: map[string]any{"age": 34, "sex": "F"},
			Symptoms: []model.RecordEntry{
				{ID: "AB2C", Fields: map[string]any{"name": "fatigue", "duration": "3 weeks"}, CreatedAt: time.Now()},
			},
		}

		out := mdt.RenderPortrait(rec)

		Expect(out).To(ContainSubstring("## Base Info"))
		Expect(out).To(ContainSubstring("- age: 34"))
		Expect(out).To(ContainSubstring("## Symptoms"))
		Expect(out).To(ContainSubstring("- [ID: AB2C] duration=3 weeks, name=fatigue"))
		Expect(out).NotTo(ContainSubstring("## Vitals"))
		Expect(out).NotTo(ContainSubstring("## Exams"))
	})

	It("excludes identifier and timestamp from the rendered value list", func() {
		rec := model.PatientRecord{
			Vitals: []model.RecordEntry{
				{ID: "ZZ99", Fields: map[string]any{"bp": "120/80"}, CreatedAt: time.Now()},
			},
		}

		out := mdt.RenderPortrait(rec)

		Expect(out).To(ContainSubstring("- [ID: ZZ99] bp=120/80"))
		Expect(out).NotTo(ContainSubstring("ZZ99 id="))
	})

	It("returns an empty string for a record with no data", func() {
		Expect(mdt.RenderPortrait(model.PatientRecord{})).To(BeEmpty())
	})
})
