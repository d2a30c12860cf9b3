// Package tooladapter declares the boundary an expert's tool inventory is
// built from. Individual domain tools (literature lookup, lab-value
// calculators, guideline retrieval) are out of scope for this core; what
// ships here is the interface every adapter must satisfy plus the one
// built-in adapter every expert gets regardless of configuration: recording
// a citable evidence statement.
package tooladapter

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"raredx.dev/mdtpanel/common/llm"
	"raredx.dev/mdtpanel/internal/mdterr"
)

// Result is the uniformly-typed outcome of one tool execution: a success
// value, or an error tagged fatal (aborts the expert) or recoverable (fed
// back to the model as a tool-role failure message).
type Result struct {
	Output string
	Err    error
	Fatal  bool
}

// Adapter is a single callable an expert's inner loop may dispatch to.
type Adapter interface {
	Name() string
	Description() string
	Schema() any
	Execute(ctx context.Context, arguments string) Result
}

// Registry holds the closed, enumerated set of adapters one expert group
// was configured with at startup.
type Registry struct {
	byName map[string]Adapter
	order  []string
}

// NewRegistry builds a registry from a fixed adapter set. The built-in
// evidence recorder is not added here; callers pass it in with the other
// adapters (ExpertRunner does so on every run).
func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{byName: map[string]Adapter{}}
	for _, a := range adapters {
		r.add(a)
	}
	return r
}

func (r *Registry) add(a Adapter) {
	if _, exists := r.byName[a.Name()]; exists {
		return
	}
	r.byName[a.Name()] = a
	r.order = append(r.order, a.Name())
}

// Definitions returns the tool definitions for the configured adapters, in
// the order they were registered, for handing to llm.AgentRequest.Tools.
func (r *Registry) Definitions() []llm.Tool {
	defs := make([]llm.Tool, 0, len(r.order))
	for _, name := range r.order {
		a := r.byName[name]
		defs = append(defs, llm.Tool{
			Name:        a.Name(),
			Description: a.Description(),
			Parameters:  a.Schema(),
		})
	}
	return defs
}

// Execute dispatches a named tool call. An unknown tool name — the model
// asked for something this expert was never configured with — is a
// recoverable ToolError: the failure is fed back to the model so it can
// continue with the tools it actually has.
func (r *Registry) Execute(ctx context.Context, name, arguments string) Result {
	a, ok := r.byName[name]
	if !ok {
		return Result{Err: mdterr.NewToolError(name, errors.New("not in this expert's configured tool inventory"))}
	}
	res := a.Execute(ctx, arguments)
	if res.Err != nil {
		var te *mdterr.ToolError
		if !errors.As(res.Err, &te) {
			res.Err = mdterr.NewToolError(name, res.Err)
		}
	}
	return res
}

// EvidenceRecorderArgs is the argument shape the record_evidence tool
// expects from the model.
type EvidenceRecorderArgs struct {
	Statement string `json:"statement" jsonschema:"description=A single factual statement supporting the expert's assessment,required"`
}

// EvidenceRecorder is the built-in adapter every expert carries: it lets
// the model record one factual statement at a time into the expert's
// evidences sequence, later addressable by a stable group_id.index
// citation key.
type EvidenceRecorder struct {
	mu        sync.Mutex
	evidences *[]string
}

// NewEvidenceRecorder returns an adapter that appends into evidences.
// evidences points at the slice one expert run collects into (ExpertRunner
// copies it into the slot afterwards); the pointer is stable for the
// lifetime of one inner-loop invocation.
func NewEvidenceRecorder(evidences *[]string) *EvidenceRecorder {
	return &EvidenceRecorder{evidences: evidences}
}

func (e *EvidenceRecorder) Name() string { return "record_evidence" }

func (e *EvidenceRecorder) Description() string {
	return "Record one factual statement (a lab value, an exam finding, a guideline reference) that supports your reasoning. Call this once per distinct fact; each call becomes independently citable."
}

func (e *EvidenceRecorder) Schema() any {
	return llm.GenerateSchemaFrom(EvidenceRecorderArgs{})
}

func (e *EvidenceRecorder) Execute(_ context.Context, arguments string) Result {
	args, err := llm.ParseToolArguments[EvidenceRecorderArgs](arguments)
	if err != nil {
		return Result{Err: err}
	}
	if args.Statement == "" {
		return Result{Err: fmt.Errorf("record_evidence: statement is required")}
	}

	e.mu.Lock()
	*e.evidences = append(*e.evidences, args.Statement)
	index := len(*e.evidences)
	e.mu.Unlock()

	return Result{Output: fmt.Sprintf("recorded as evidence #%d", index)}
}
