package mdt

import (
	"encoding/json"
	"fmt"
	"strings"

	"raredx.dev/mdtpanel/internal/mdterr"
)

// Verdict is the reviewer's parsed judgment on one expert's report.
type Verdict struct {
	IsSatisfied         bool   `json:"is_satisfied"`
	ReinvestigateReason string `json:"reinvestigate_reason"`
}

// ParseVerdict extracts a Verdict from raw model output, tolerating
// Markdown code fences and leading/trailing prose around the JSON object:
// it greedily takes the span from the first '{' to the last '}' and
// retries the parse once against that span before declaring failure.
func ParseVerdict(raw string) (Verdict, error) {
	var v Verdict
	if err := json.Unmarshal([]byte(raw), &v); err == nil {
		return v, nil
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return Verdict{}, mdterr.NewVerdictParseError(raw, fmt.Errorf("no JSON object found in verdict response"))
	}

	span := raw[start : end+1]
	if err := json.Unmarshal([]byte(span), &v); err != nil {
		return Verdict{}, mdterr.NewVerdictParseError(raw, fmt.Errorf("parse verdict span: %w", err))
	}

	return v, nil
}
