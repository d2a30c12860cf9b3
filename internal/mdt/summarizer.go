package mdt

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"raredx.dev/mdtpanel/common/llm"
	"raredx.dev/mdtpanel/common/logger"
	"raredx.dev/mdtpanel/internal/mdterr"
	"raredx.dev/mdtpanel/internal/model"
)

const defaultSummaryFormat = `Produce a structured clinical report with these sections, in order: Chief Complaint, Key Findings, Differential Diagnosis, Recommended Next Steps. Cite supporting evidence inline using <ref>group_id.index</ref> tags drawn only from the evidence guide below.`

// Summarizer composes the final report from every published expert report
// on the blackboard.
type Summarizer struct {
	Client       llm.AgentClient
	SystemPrompt string
}

// NewSummarizer returns a summarizer driven by client.
func NewSummarizer(client llm.AgentClient, systemPrompt string) *Summarizer {
	return &Summarizer{Client: client, SystemPrompt: systemPrompt}
}

// Summarize builds the final report. It fails with *mdterr.NoReportsError
// if published_reports is empty. If the LLM call itself fails, it falls
// back to a deterministic concatenation under a "degraded mode" heading
// rather than propagating the failure — a single LLM hiccup should not
// discard a full deliberation's worth of expert work.
func (s *Summarizer) Summarize(ctx context.Context, state model.MDTState, summaryStyle *string) (string, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "mdt.summarizer"})

	if len(state.Blackboard.PublishedReports) == 0 {
		return "", &mdterr.NoReportsError{}
	}

	namespace := EvidenceNamespace(state.ExpertPool, state.Blackboard.PublishedReports)
	prompt := s.composePrompt(state, namespace, summaryStyle)

	var report string
	resp, err := s.Client.ChatWithTools(ctx, llm.AgentRequest{
		Messages: []llm.Message{
			{Role: "system", Content: s.SystemPrompt},
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		slog.WarnContext(ctx, "summarizer LLM call failed, falling back to degraded mode", "error", err)
		report = s.degradedReport(state, err)
	} else {
		report = resp.Content
	}

	resolved, unknown := ResolveReferences(report, namespace)
	if len(unknown) > 0 {
		slog.InfoContext(ctx, "summarizer report referenced unknown citation keys", "unknown_keys", unknown)
	}

	return resolved, nil
}

func (s *Summarizer) composePrompt(state model.MDTState, namespace map[string]string, summaryStyle *string) string {
	var b strings.Builder

	if state.Portrait != "" {
		b.WriteString(state.Portrait)
		b.WriteString("\n\n")
	}

	b.WriteString("## Expert Reports\n")
	groupIDs := make([]string, 0, len(state.Blackboard.PublishedReports))
	for id := range state.Blackboard.PublishedReports {
		groupIDs = append(groupIDs, id)
	}
	sort.Strings(groupIDs)
	for _, id := range groupIDs {
		fmt.Fprintf(&b, "\n### %s\n%s\n", id, RewriteLegacyRefs(id, state.Blackboard.PublishedReports[id]))
	}

	b.WriteString("\n## Evidence Guide\n")
	b.WriteString("The following citation keys are legal. Use <ref>key</ref> to cite one.\n")
	keys := make([]string, 0, len(namespace))
	for k := range namespace {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "- %s: %s\n", k, namespace[k])
	}

	b.WriteString("\n## Format\n")
	if summaryStyle != nil && *summaryStyle != "" {
		b.WriteString(*summaryStyle)
	} else {
		b.WriteString(defaultSummaryFormat)
	}

	return b.String()
}

func (s *Summarizer) degradedReport(state model.MDTState, cause error) string {
	var b strings.Builder
	b.WriteString("## Degraded Mode\nThe summarizing model call failed; this report is a direct concatenation of expert findings.\n")
	fmt.Fprintf(&b, "Error: %s\n", cause)

	groupIDs := make([]string, 0, len(state.Blackboard.PublishedReports))
	for id := range state.Blackboard.PublishedReports {
		groupIDs = append(groupIDs, id)
	}
	sort.Strings(groupIDs)
	for _, id := range groupIDs {
		fmt.Fprintf(&b, "\n### %s\n%s\n", id, RewriteLegacyRefs(id, state.Blackboard.PublishedReports[id]))
	}

	return b.String()
}
