// Package mdterr declares the typed error taxonomy shared by configuration
// loading and the deliberation engine, mirroring this codebase's existing
// convention of wrapping a cause in a small named type instead of bare
// fmt.Errorf strings, so callers can branch on failure class with errors.As.
package mdterr

import "fmt"

// ConfigError marks a fatal startup failure: a missing prompt file, an
// unreadable config document, or an unrecognized provider value.
type ConfigError struct {
	Err error
}

func NewConfigError(err error) *ConfigError { return &ConfigError{Err: err} }

func (e *ConfigError) Error() string { return fmt.Sprintf("config error: %s", e.Err) }
func (e *ConfigError) Unwrap() error { return e.Err }

// TransientAgentError wraps an LLM-call failure (timeout, rate limit, network,
// cancellation) observed at the Expert Runner boundary. It is never retried
// within a round; the round loop itself is the retry mechanism.
type TransientAgentError struct {
	Err error
}

func NewTransientAgentError(err error) *TransientAgentError { return &TransientAgentError{Err: err} }

func (e *TransientAgentError) Error() string { return fmt.Sprintf("transient agent error: %s", e.Err) }
func (e *TransientAgentError) Unwrap() error { return e.Err }

// ToolError wraps a failed tool invocation inside an expert's inner loop. The
// loop catches it, synthesizes a tool-role failure message for the model, and
// continues rather than aborting the expert.
type ToolError struct {
	ToolName string
	Err      error
}

func NewToolError(toolName string, err error) *ToolError { return &ToolError{ToolName: toolName, Err: err} }

func (e *ToolError) Error() string {
	return fmt.Sprintf("tool %q error: %s", e.ToolName, e.Err)
}
func (e *ToolError) Unwrap() error { return e.Err }

// VerdictParseError marks a reviewer response that could not be parsed as a
// verdict object even after lenient fenced-block/brace extraction.
type VerdictParseError struct {
	Raw string
	Err error
}

func NewVerdictParseError(raw string, err error) *VerdictParseError {
	return &VerdictParseError{Raw: raw, Err: err}
}

func (e *VerdictParseError) Error() string {
	return fmt.Sprintf("verdict parse error: %s", e.Err)
}
func (e *VerdictParseError) Unwrap() error { return e.Err }

// NoReportsError surfaces to the caller when the summarizer finds an empty
// published_reports map — every expert errored, or none were ever configured.
type NoReportsError struct{}

func (e *NoReportsError) Error() string {
	return "summarizer: no published reports available; every expert group failed or produced nothing"
}
