package logger

import "context"

type contextKey string

const logFieldsKey contextKey = "log_fields"

// LogFields contains structured fields automatically added to all logs within a context.
// Fields flow through context enrichment, so a single WithLogFields call at the top of a
// graph node makes every log line underneath it attributable without per-call-site tagging.
type LogFields struct {
	PatientID *string // stable identifier of the deliberation / patient record
	GroupID   *string // expert group id, set while inside a fan-out or review slot
	Round     *int    // current round_count, set while inside the MDT sub-pipeline
	RunID     *string // per-invoke() correlation id, generated by cmd/mdtpanel and attached by the Main Graph
	Component string  // component name (OTel semantic convention style, e.g. "mdt.reviewer")
}

// WithLogFields enriches context with structured log fields.
// Multiple calls merge fields, with newer non-nil/non-empty values taking precedence.
// Context timeouts and cancellation are preserved.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	existing := GetLogFields(ctx)
	merged := mergeFields(existing, fields)
	return context.WithValue(ctx, logFieldsKey, merged)
}

// GetLogFields retrieves log fields from context.
// Returns empty LogFields if none are set.
func GetLogFields(ctx context.Context) LogFields {
	if fields, ok := ctx.Value(logFieldsKey).(LogFields); ok {
		return fields
	}
	return LogFields{}
}

// mergeFields merges two LogFields, preferring non-nil/non-empty values from 'new'.
func mergeFields(existing, new LogFields) LogFields {
	result := existing

	if new.PatientID != nil {
		result.PatientID = new.PatientID
	}
	if new.GroupID != nil {
		result.GroupID = new.GroupID
	}
	if new.Round != nil {
		result.Round = new.Round
	}
	if new.RunID != nil {
		result.RunID = new.RunID
	}
	if new.Component != "" {
		result.Component = new.Component
	}

	return result
}

// Ptr is a helper to create a pointer from a value.
// Useful for setting LogFields inline: logger.WithLogFields(ctx, logger.LogFields{GroupID: logger.Ptr(id)})
func Ptr[T any](v T) *T {
	return &v
}

// Truncate truncates a string to maxLen characters, appending "..." if truncated.
// Useful for logging potentially long strings like reports or prompts.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
