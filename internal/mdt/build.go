package mdt

import (
	"fmt"
	"os"
	"slices"
	"sort"

	"raredx.dev/mdtpanel/common/llm"
	"raredx.dev/mdtpanel/core/config"
	"raredx.dev/mdtpanel/internal/mdterr"
	"raredx.dev/mdtpanel/internal/tooladapter"
)

// BuildPipeline assembles a Pipeline from a loaded configuration: one
// ExpertRunner and reviewer client per configured expert group, a
// dialogue-prep client from the triage agent, and a Summarizer from the
// summary agent. tools is the process's full adapter inventory; each
// group's runner receives the subset its additional_tools / excoulde_tools
// lists allow.
func BuildPipeline(cfg config.Config, tools ...tooladapter.Adapter) (*Pipeline, error) {
	timeoutDefault := cfg.MDT.LLMTimeoutSeconds

	dialogueClient, err := NewAgentClient(cfg.PreDiagnosisAgent, timeoutDefault)
	if err != nil {
		return nil, mdterr.NewConfigError(fmt.Errorf("pre_diagnosis_agent: %w", err))
	}

	runners := map[string]Runner{}
	reviewerClients := map[string]llm.AgentClient{}

	for _, groupID := range ExpertGroupIDs(cfg) {
		group := cfg.MultiExpertDiagnosisAgent[groupID]

		client, err := NewAgentClient(group.MainAgent, timeoutDefault)
		if err != nil {
			return nil, mdterr.NewConfigError(fmt.Errorf("multi_expert_diagnosis_agent.%s.main_agent: %w", groupID, err))
		}

		runners[groupID] = NewExpertRunner(client, filterAdapters(group, tools)...)
		reviewerClients[groupID] = client
	}

	summaryClient, err := NewAgentClient(cfg.SummaryAgent, timeoutDefault)
	if err != nil {
		return nil, mdterr.NewConfigError(fmt.Errorf("summary_agent: %w", err))
	}

	summarySystemPrompt, err := readPromptFile(cfg.SummaryAgent.SystemPromptPath)
	if err != nil {
		return nil, mdterr.NewConfigError(err)
	}

	reviewPrompt, err := readPromptFile(cfg.MDT.ReviewerPromptPath)
	if err != nil {
		return nil, mdterr.NewConfigError(err)
	}

	reviewer := NewReviewer(reviewerClients)
	reviewer.PromptTemplate = reviewPrompt

	return &Pipeline{
		DialogueClient: dialogueClient,
		MDTGraph:       BuildMDTGraph(ExpertGroupIDs(cfg), cfg.MDT.MaxRounds, runners, reviewer),
		Summarizer:     NewSummarizer(summaryClient, summarySystemPrompt),
	}, nil
}

// filterAdapters applies one group's tool lists to the process inventory:
// a non-empty additional_tools acts as a whitelist, and excoulde_tools
// removes by name afterwards. The built-in evidence recorder is outside
// this filter; every runner adds it itself.
func filterAdapters(group config.ExpertGroupConfig, tools []tooladapter.Adapter) []tooladapter.Adapter {
	var out []tooladapter.Adapter
	for _, tool := range tools {
		if len(group.AdditionalTools) > 0 && !slices.Contains(group.AdditionalTools, tool.Name()) {
			continue
		}
		if slices.Contains(group.ExcludeTools, tool.Name()) {
			continue
		}
		out = append(out, tool)
	}
	return out
}

func readPromptFile(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading prompt file %s: %w", path, err)
	}
	return string(data), nil
}

// ExpertGroupIDs returns the configured expert group ids in a stable,
// sorted order, used by the graph's triage node to seed the expert pool.
func ExpertGroupIDs(cfg config.Config) []string {
	ids := make([]string, 0, len(cfg.MultiExpertDiagnosisAgent))
	for id := range cfg.MultiExpertDiagnosisAgent {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
