package mdt

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"raredx.dev/mdtpanel/common/llm"
	"raredx.dev/mdtpanel/common/logger"
	"raredx.dev/mdtpanel/internal/mdterr"
	"raredx.dev/mdtpanel/internal/model"
	"raredx.dev/mdtpanel/internal/tooladapter"
)

const defaultMaxToolRounds = 6
const defaultToolConcurrency = 3

// ExpertRunner executes one expert group's deep-research turn. The default
// implementation runs a bounded tool-calling loop against the group's
// configured agent client.
type ExpertRunner struct {
	Client          llm.AgentClient
	Tools           []tooladapter.Adapter
	MaxToolRounds   int
	ToolConcurrency int
}

// NewExpertRunner returns a runner with the reference loop's default bounds.
// tools is this group's configured domain adapter set; the built-in
// evidence recorder is added automatically on every run.
func NewExpertRunner(client llm.AgentClient, tools ...tooladapter.Adapter) *ExpertRunner {
	return &ExpertRunner{
		Client:          client,
		Tools:           tools,
		MaxToolRounds:   defaultMaxToolRounds,
		ToolConcurrency: defaultToolConcurrency,
	}
}

// Run executes one group's turn against slot, returning the updated slot.
// If is_satisfied or has_error is already set, the slot is returned
// unchanged: this is the "skip" short-circuit.
func (r *ExpertRunner) Run(ctx context.Context, slot model.ExpertGroupState) model.ExpertGroupState {
	if slot.IsSatisfied || slot.HasError {
		return slot
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		GroupID:   logger.Ptr(slot.GroupID),
		Component: "mdt.expert_runner",
	})

	evidences := append([]string{}, slot.Evidences...)
	messages := append([]model.Message{}, slot.Messages...)

	final, runErr := r.loop(ctx, messages, &evidences)

	next := slot
	next.RoundCount++

	if runErr != nil {
		slog.WarnContext(ctx, "expert runner failed", "group_id", slot.GroupID, "error", runErr)
		next.HasError = true
		next.Report = fmt.Sprintf("execution error: %s", runErr)
		return next
	}

	next.Messages = append(append([]model.Message{}, slot.Messages...), model.Message{Role: "assistant", Content: final})
	next.Report = final
	next.Evidences = evidences
	return next
}

func (r *ExpertRunner) loop(ctx context.Context, messages []model.Message, evidences *[]string) (string, error) {
	recorder := tooladapter.NewEvidenceRecorder(evidences)
	registry := tooladapter.NewRegistry(append([]tooladapter.Adapter{recorder}, r.Tools...)...)

	llmMessages := toLLMMessages(messages)

	for round := 0; round < r.MaxToolRounds; round++ {
		resp, err := r.Client.ChatWithTools(ctx, llm.AgentRequest{
			Messages: llmMessages,
			Tools:    registry.Definitions(),
		})
		if err != nil {
			return "", mdterr.NewTransientAgentError(err)
		}

		if len(resp.ToolCalls) == 0 {
			return resp.Content, nil
		}

		llmMessages = append(llmMessages, llm.Message{
			Role:      "assistant",
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})

		results := r.executeToolsBounded(ctx, registry, resp.ToolCalls)
		for i, res := range results {
			if res.Fatal {
				return "", res.Err
			}
			content := res.Output
			if res.Err != nil {
				content = fmt.Sprintf("Tool call failed: %s. Continue with an alternative tool or with the findings you already have; do not repeat the same call.", res.Err)
			}
			llmMessages = append(llmMessages, llm.Message{
				Role:       "tool",
				Content:    content,
				ToolCallID: resp.ToolCalls[i].ID,
			})
		}
	}

	return r.forceFinalAnswer(ctx, llmMessages)
}

func (r *ExpertRunner) forceFinalAnswer(ctx context.Context, messages []llm.Message) (string, error) {
	messages = append(messages, llm.Message{
		Role:    "user",
		Content: "Tool budget exhausted for this turn. Write your report now based on what you have found.",
	})
	resp, err := r.Client.ChatWithTools(ctx, llm.AgentRequest{Messages: messages})
	if err != nil {
		return "", mdterr.NewTransientAgentError(err)
	}
	return resp.Content, nil
}

func (r *ExpertRunner) executeToolsBounded(ctx context.Context, registry *tooladapter.Registry, calls []llm.ToolCall) []tooladapter.Result {
	results := make([]tooladapter.Result, len(calls))
	var wg sync.WaitGroup
	sem := make(chan struct{}, r.ToolConcurrency)

	for i, call := range calls {
		wg.Add(1)
		go func(idx int, c llm.ToolCall) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[idx] = registry.Execute(ctx, c.Name, c.Arguments)
		}(i, call)
	}

	wg.Wait()
	return results
}

func toLLMMessages(msgs []model.Message) []llm.Message {
	out := make([]llm.Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, llm.Message{Role: m.Role, Content: m.Content, Name: m.Name})
	}
	return out
}
