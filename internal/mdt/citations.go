package mdt

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"raredx.dev/mdtpanel/internal/model"
)

var (
	legacyRefTag = regexp.MustCompile(`<ref>(\d+)</ref>`)
	stableRefTag = regexp.MustCompile(`<ref>([A-Za-z0-9_]+\.\d+)</ref>`)
)

// EvidenceNamespace maps a stable citation key (group_id.index) to the
// evidence text it refers to, built by enumerating published_reports in
// ascending group_id order and each group's evidences in recorded order.
// This replaces a purely numeric global index, which would misattribute
// evidence once reports are concatenated in an order different from how
// experts were originally enumerated.
func EvidenceNamespace(pool map[string]model.ExpertGroupState, published map[string]string) map[string]string {
	namespace := map[string]string{}

	groupIDs := make([]string, 0, len(published))
	for id := range published {
		groupIDs = append(groupIDs, id)
	}
	sort.Strings(groupIDs)

	for _, groupID := range groupIDs {
		slot, ok := pool[groupID]
		if !ok {
			continue
		}
		for i, ev := range slot.Evidences {
			key := fmt.Sprintf("%s.%d", groupID, i+1)
			namespace[key] = ev
		}
	}

	return namespace
}

// RewriteLegacyRefs rewrites an individual published report's legacy
// numeric <ref>N</ref> tags (1-based indices into that expert's own
// evidences) into the stable <ref>group_id.N</ref> form, so the summarizer
// sees a single unified namespace across every report.
func RewriteLegacyRefs(groupID, report string) string {
	return legacyRefTag.ReplaceAllString(report, fmt.Sprintf("<ref>%s.$1</ref>", groupID))
}

// ResolveReferences scans text for <ref>group_id.index</ref> tokens,
// collects the unique keys in first-appearance order, and appends a
// trailing "Cited Evidence" section listing each referenced key's text.
// Unknown keys are left as literal tags in the body and noted for the
// caller; they contribute no section line, and a report citing nothing
// but unknown keys gets no section at all. Calling this again on its own
// output is a no-op: the section body renders keys as plain-text [key]
// lines rather than <ref> tags, so a rescan produces the same key set
// and the same section, which is detected and not appended twice.
func ResolveReferences(text string, namespace map[string]string) (resolved string, unknown []string) {
	seen := map[string]bool{}
	var ordered []string
	unknownSeen := map[string]bool{}

	matches := stableRefTag.FindAllStringSubmatch(text, -1)
	for _, m := range matches {
		key := m[1]
		if _, ok := namespace[key]; !ok {
			if !unknownSeen[key] {
				unknownSeen[key] = true
				unknown = append(unknown, key)
			}
			continue
		}
		if !seen[key] {
			seen[key] = true
			ordered = append(ordered, key)
		}
	}

	if len(ordered) == 0 {
		return text, unknown
	}

	var b strings.Builder
	b.WriteString("\n\n#### Cited Evidence\n")
	for _, key := range ordered {
		fmt.Fprintf(&b, "[%s] %s\n", key, namespace[key])
	}
	section := b.String()

	if strings.HasSuffix(text, section) {
		return text, unknown
	}

	return text + section, unknown
}
