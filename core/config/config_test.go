package config_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"raredx.dev/mdtpanel/core/config"
)

const validYAML = `
env: development
max_input_tokens: 16000
pre_diagnosis_agent:
  provider: openai
  model_name: gpt-4o-mini
summary_agent:
  provider: anthropic
  model_name: claude-3-5-sonnet
multi_expert_diagnosis_agent:
  cardiology:
    main_agent:
      provider: openai
      model_name: gpt-4o
      timeout_seconds: 90
mdt_config:
  max_rounds: 2
  llm_timeout_seconds: 120
`

func writeTempConfig(dir, contents string) string {
	path := filepath.Join(dir, "config.yaml")
	Expect(os.WriteFile(path, []byte(contents), 0o644)).To(Succeed())
	return path
}

var _ = Describe("Load", func() {
	It("parses a well-formed document and applies defaults", func() {
		path := writeTempConfig(GinkgoT().TempDir(), validYAML)

		cfg, err := config.Load(path)

		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Env).To(Equal("development"))
		Expect(cfg.MaxInputTokens).To(Equal(16000))
		Expect(cfg.MDT.MaxRounds).To(Equal(2))
		Expect(cfg.MultiExpertDiagnosisAgent).To(HaveKey("cardiology"))
		Expect(cfg.MultiExpertDiagnosisAgent["cardiology"].MainAgent.TimeoutSeconds).To(Equal(90))
		Expect(cfg.MDT.LLMTimeoutSeconds).To(Equal(120))
		Expect(cfg.OTel.ServiceName).To(Equal("mdtpanel"))
		Expect(cfg.OTel.Enabled()).To(BeFalse())
	})

	It("fills in an unset max_rounds with the default budget", func() {
		path := writeTempConfig(GinkgoT().TempDir(), `
pre_diagnosis_agent:
  provider: openai
  model_name: gpt-4o-mini
summary_agent:
  provider: openai
  model_name: gpt-4o-mini
multi_expert_diagnosis_agent:
  neurology:
    main_agent:
      provider: anthropic
      model_name: claude-3-5-sonnet
`)

		cfg, err := config.Load(path)

		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.MDT.MaxRounds).To(Equal(3))
	})

	It("interpolates ${VAR} tokens against the process environment", func() {
		GinkgoT().Setenv("MDT_API_KEY", "sk-test-123")
		path := writeTempConfig(GinkgoT().TempDir(), `
pre_diagnosis_agent:
  provider: openai
  model_name: gpt-4o-mini
  api_key: ${MDT_API_KEY}
summary_agent:
  provider: openai
  model_name: gpt-4o-mini
multi_expert_diagnosis_agent:
  neurology:
    main_agent:
      provider: openai
      model_name: gpt-4o-mini
`)

		cfg, err := config.Load(path)

		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.PreDiagnosisAgent.APIKey).To(Equal("sk-test-123"))
	})

	It("wraps a missing file in a ConfigError", func() {
		_, err := config.Load(filepath.Join(GinkgoT().TempDir(), "missing.yaml"))

		Expect(err).To(HaveOccurred())
		Expect(err).To(MatchError(ContainSubstring("config error")))
	})

	It("rejects a config with no expert groups", func() {
		path := writeTempConfig(GinkgoT().TempDir(), `
pre_diagnosis_agent:
  provider: openai
  model_name: gpt-4o-mini
summary_agent:
  provider: openai
  model_name: gpt-4o-mini
`)

		_, err := config.Load(path)

		Expect(err).To(HaveOccurred())
		Expect(err).To(MatchError(ContainSubstring("at least one expert group")))
	})

	It("rejects an agent with an unrecognized provider", func() {
		path := writeTempConfig(GinkgoT().TempDir(), `
pre_diagnosis_agent:
  provider: azure
  model_name: gpt-4o-mini
summary_agent:
  provider: openai
  model_name: gpt-4o-mini
multi_expert_diagnosis_agent:
  neurology:
    main_agent:
      provider: openai
      model_name: gpt-4o-mini
`)

		_, err := config.Load(path)

		Expect(err).To(HaveOccurred())
		Expect(err).To(MatchError(ContainSubstring("unrecognized provider")))
	})
})
