package mdt_test

import (
	"context"
	"errors"

	"raredx.dev/mdtpanel/common/llm"
)

// fakeAgentClient replays a queue of scripted responses, one per call, or
// invokes a custom function when set. It satisfies llm.AgentClient.
type fakeAgentClient struct {
	responses []scriptedResponse
	calls     int
	fn        func(req llm.AgentRequest) (*llm.AgentResponse, error)
}

type scriptedResponse struct {
	content   string
	toolCalls []llm.ToolCall
	err       error
}

func newFakeAgentClient(responses ...scriptedResponse) *fakeAgentClient {
	return &fakeAgentClient{responses: responses}
}

func (f *fakeAgentClient) ChatWithTools(_ context.Context, req llm.AgentRequest) (*llm.AgentResponse, error) {
	if f.fn != nil {
		return f.fn(req)
	}
	if f.calls >= len(f.responses) {
		return nil, errors.New("fakeAgentClient: no more scripted responses")
	}
	r := f.responses[f.calls]
	f.calls++
	if r.err != nil {
		return nil, r.err
	}
	return &llm.AgentResponse{Content: r.content, ToolCalls: r.toolCalls}, nil
}

func (f *fakeAgentClient) Model() string { return "fake-model" }
