package mdt

import (
	"fmt"
	"sort"
	"strings"

	"raredx.dev/mdtpanel/internal/model"
)

type portraitSection struct {
	header  string
	mapping map[string]any
	entries []model.RecordEntry
}

// RenderPortrait produces the deterministic textual rendering of a
// PatientRecord: a fixed section order (base_info, symptoms, vitals, exams,
// medications, family_history, past_medical_history, others), one header
// per non-empty section, mapping sections rendered as "- key: value" lines
// and sequence sections rendered as "- [ID: <id>] k1=v1, k2=v2" lines with
// the identifier and timestamp excluded from the value list.
func RenderPortrait(rec model.PatientRecord) string {
	sections := []portraitSection{
		{header: "Base Info", mapping: rec.BaseInfo},
		{header: "Symptoms", entries: rec.Symptoms},
		{header: "Vitals", entries: rec.Vitals},
		{header: "Exams", entries: rec.Exams},
		{header: "Medications", entries: rec.Medications},
		{header: "Family History", entries: rec.FamilyHistory},
		{header: "Past Medical History", entries: rec.PastMedicalHistory},
		{header: "Others", entries: rec.Others},
	}

	var b strings.Builder
	for _, s := range sections {
		if s.mapping != nil {
			if len(s.mapping) == 0 {
				continue
			}
			writeMappingSection(&b, s.header, s.mapping)
			continue
		}
		if len(s.entries) == 0 {
			continue
		}
		writeSequenceSection(&b, s.header, s.entries)
	}

	return strings.TrimRight(b.String(), "\n")
}

func writeMappingSection(b *strings.Builder, header string, m map[string]any) {
	fmt.Fprintf(b, "## %s\n", header)

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		fmt.Fprintf(b, "- %s: %v\n", k, m[k])
	}
	b.WriteString("\n")
}

func writeSequenceSection(b *strings.Builder, header string, entries []model.RecordEntry) {
	fmt.Fprintf(b, "## %s\n", header)

	for _, e := range entries {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		pairs := make([]string, 0, len(keys))
		for _, k := range keys {
			pairs = append(pairs, fmt.Sprintf("%s=%v", k, e.Fields[k]))
		}

		fmt.Fprintf(b, "- [ID: %s] %s\n", e.ID, strings.Join(pairs, ", "))
	}
	b.WriteString("\n")
}
