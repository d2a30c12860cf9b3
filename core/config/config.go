// Package config loads the process-wide, immutable configuration singleton
// used by the deliberation engine: per-agent LLM settings, the round budget,
// and observability toggles. It follows this codebase's existing
// "plain struct + Load() function" shape, generalized from a single flat
// struct into the nested per-agent sections the engine's components need.
package config

import (
	"fmt"
	"os"
	"regexp"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
	"raredx.dev/mdtpanel/internal/mdterr"
)

// Provider identifies which chat-completion backend an AgentConfig targets.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

// AgentConfig describes one LLM role: the triage agent, an expert group's
// main or sub-researcher agent, or the summarizer agent.
type AgentConfig struct {
	Provider         Provider       `yaml:"provider"`
	ModelName        string         `yaml:"model_name"`
	BaseURL          string         `yaml:"base_url"`
	APIKey           string         `yaml:"api_key"`
	Temperature      *float64       `yaml:"temperature"`
	SystemPromptPath string         `yaml:"system_prompt_path"`
	ModelKwargs      map[string]any `yaml:"model_kwargs"`

	// TimeoutSeconds bounds each individual chat request for this agent.
	// Zero falls back to the mdt_config.llm_timeout_seconds default.
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

func (a AgentConfig) validate(field string) error {
	switch a.Provider {
	case ProviderOpenAI, ProviderAnthropic:
	case "":
		return fmt.Errorf("%s: provider is required", field)
	default:
		return fmt.Errorf("%s: unrecognized provider %q", field, a.Provider)
	}
	if a.ModelName == "" {
		return fmt.Errorf("%s: model_name is required", field)
	}
	return nil
}

// ExpertGroupConfig is one entry under multi_expert_diagnosis_agent: a named
// expert group's main agent, optional inner sub-researcher agent, and its
// tool allow/deny lists.
type ExpertGroupConfig struct {
	MainAgent       AgentConfig `yaml:"main_agent"`
	SubAgent        AgentConfig `yaml:"sub_agent"`
	AdditionalTools []string    `yaml:"additional_tools"`
	ExcludeTools    []string    `yaml:"excoulde_tools"` // field name preserved from the source config schema
}

// MDTConfig holds the round budget, reviewer prompt location, and the
// default per-call LLM timeout applied to agents that do not set their own.
type MDTConfig struct {
	MaxRounds          int    `yaml:"max_rounds"`
	ReviewerPromptPath string `yaml:"reviewer_prompt_path"`
	LLMTimeoutSeconds  int    `yaml:"llm_timeout_seconds"`
}

// OTelConfig toggles OpenTelemetry export.
type OTelConfig struct {
	ServiceName    string `yaml:"service_name"`
	ServiceVersion string `yaml:"service_version"`
	Endpoint       string `yaml:"endpoint"`
	Headers        string `yaml:"headers"`
}

func (c OTelConfig) Enabled() bool { return c.Endpoint != "" }

// Config is the top-level, immutable configuration document.
type Config struct {
	Env                       string                       `yaml:"env"`
	OTel                      OTelConfig                   `yaml:"otel"`
	MaxInputTokens            int                          `yaml:"max_input_tokens"`
	PreDiagnosisAgent         AgentConfig                  `yaml:"pre_diagnosis_agent"`
	MultiExpertDiagnosisAgent map[string]ExpertGroupConfig `yaml:"multi_expert_diagnosis_agent"`
	MDT                       MDTConfig                    `yaml:"mdt_config"`
	SummaryAgent              AgentConfig                  `yaml:"summary_agent"`
}

// IsProduction returns true if running in production environment.
func (c Config) IsProduction() bool { return c.Env == "production" }

// IsDevelopment returns true if running in development environment.
func (c Config) IsDevelopment() bool { return c.Env == "development" }

var envToken = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Load reads the YAML config document at path, overlays a local .env file
// (if present) over the process environment, resolves ${VAR} interpolation
// tokens against that environment, and validates every configured agent.
// An unreadable or unparsable document, a missing required field, or an
// unrecognized provider value is returned wrapped in *mdterr.ConfigError.
// Prompt files are not read here; mdt.BuildPipeline reads them.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, mdterr.NewConfigError(fmt.Errorf("loading .env: %w", err))
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, mdterr.NewConfigError(fmt.Errorf("reading config %s: %w", path, err))
	}

	resolved := envToken.ReplaceAllStringFunc(string(raw), func(tok string) string {
		name := envToken.FindStringSubmatch(tok)[1]
		return os.Getenv(name)
	})

	var cfg Config
	if err := yaml.Unmarshal([]byte(resolved), &cfg); err != nil {
		return Config{}, mdterr.NewConfigError(fmt.Errorf("parsing config %s: %w", path, err))
	}

	applyDefaults(&cfg)

	if err := validate(cfg); err != nil {
		return Config{}, mdterr.NewConfigError(err)
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Env == "" {
		cfg.Env = "development"
	}
	if cfg.MDT.MaxRounds <= 0 {
		cfg.MDT.MaxRounds = 3
	}
	if cfg.MaxInputTokens <= 0 {
		cfg.MaxInputTokens = 32000
	}
	if cfg.OTel.ServiceName == "" {
		cfg.OTel.ServiceName = "mdtpanel"
	}
}

func validate(cfg Config) error {
	if err := cfg.PreDiagnosisAgent.validate("pre_diagnosis_agent"); err != nil {
		return err
	}
	if err := cfg.SummaryAgent.validate("summary_agent"); err != nil {
		return err
	}
	if len(cfg.MultiExpertDiagnosisAgent) == 0 {
		return fmt.Errorf("multi_expert_diagnosis_agent: at least one expert group is required")
	}
	for groupID, group := range cfg.MultiExpertDiagnosisAgent {
		field := fmt.Sprintf("multi_expert_diagnosis_agent.%s.main_agent", groupID)
		if err := group.MainAgent.validate(field); err != nil {
			return err
		}
	}
	return nil
}
