package mdt

import (
	"fmt"
	"time"

	"raredx.dev/mdtpanel/common/llm"
	"raredx.dev/mdtpanel/core/config"
)

// NewAgentClient dispatches to the provider-specific constructor named by
// cfg.Provider. Both providers satisfy the same llm.AgentClient contract,
// so every component downstream (expert runner, reviewer, summarizer,
// dialogue prep) is provider-agnostic. defaultTimeoutSeconds applies when
// the agent does not configure its own per-call timeout; zero leaves the
// call bounded only by the caller's context.
func NewAgentClient(cfg config.AgentConfig, defaultTimeoutSeconds int) (llm.AgentClient, error) {
	timeoutSeconds := cfg.TimeoutSeconds
	if timeoutSeconds <= 0 {
		timeoutSeconds = defaultTimeoutSeconds
	}

	clientCfg := llm.Config{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.ModelName,
		Timeout: time.Duration(timeoutSeconds) * time.Second,
	}

	switch cfg.Provider {
	case config.ProviderOpenAI:
		return llm.NewAgentClient(clientCfg)
	case config.ProviderAnthropic:
		return llm.NewAnthropicClient(clientCfg)
	default:
		return nil, fmt.Errorf("unrecognized provider %q", cfg.Provider)
	}
}
