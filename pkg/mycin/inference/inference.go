package inference

import (
	"context"
	"sort"

	"github.com/cognicore/mycin/pkg/mycin/facts"
)

// Engine runs consultations over a knowledge base.
// This interface allows swapping implementations (the backward chainer, a
// replaying engine for tests, ...).
type Engine interface {
	// Execute builds one instance per context type, in order, and resolves
	// its initial and goal params. Context types without goals contribute
	// no findings.
	Execute(ctx context.Context, contexts []string) (Findings, error)

	// Trace returns what the last Execute did, step by step.
	Trace() []Step
}

// Findings maps each instance to the distributions of its goal params.
type Findings map[facts.Instance]map[string]facts.Distribution

// Instances lists the instances in findings sorted by context then sequence.
func (f Findings) Instances() []facts.Instance {
	out := make([]facts.Instance, 0, len(f))
	for inst := range f {
		out = append(out, inst)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Context != out[j].Context {
			return out[i].Context < out[j].Context
		}
		return out[i].Seq < out[j].Seq
	})
	return out
}

// StepKind labels a trace step.
type StepKind string

const (
	StepBuilt    StepKind = "built"
	StepAsked    StepKind = "asked"
	StepAnswered StepKind = "answered"
	StepDeclined StepKind = "declined"
	StepFired    StepKind = "fired"
	StepSkipped  StepKind = "skipped"
)

// Step represents one thing the engine did during a consultation
type Step struct {
	Kind     StepKind
	Param    string
	Instance facts.Instance
	RuleID   int     // set for fired and skipped steps
	Value    string  // answered value
	CF       float64 // answered certainty or effective rule certainty
	Depth    int     // discovery nesting depth
}
