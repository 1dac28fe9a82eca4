// Package oracle defines the external source the engine asks when rules
// cannot resolve a parameter, along with a scripted oracle for batch runs
// and a console oracle for interactive consultations.
package oracle

import (
	"context"
	"errors"

	"github.com/cognicore/mycin/pkg/mycin/facts"
	"github.com/cognicore/mycin/pkg/mycin/kb"
	"github.com/cognicore/mycin/pkg/mycin/rule"
)

var (
	// ErrDeclined means the oracle does not know the answer.
	ErrDeclined = errors.New("oracle declined")
	// ErrInputClosed means an interactive oracle ran out of input.
	ErrInputClosed = errors.New("oracle input closed")
)

// Phase says what the engine was doing when it asked.
type Phase string

const (
	PhaseInitial Phase = "initial"
	PhaseGoal    Phase = "goal"
	PhaseRule    Phase = "rule"
)

// Explanation tells a human why a question is being asked.
type Explanation struct {
	Phase Phase
	// Rule is the rule under consideration when Phase is PhaseRule.
	Rule *rule.Rule
	// Given are the rule's premises already known to hold.
	Given []facts.Bound
	// Pending are the premises still to be established.
	Pending []facts.Bound
}

// Question asks for the value of Param for Instance.
type Question struct {
	Param    *kb.Param
	Instance facts.Instance
	Why      Explanation
}

// Answer is one value with the certainty the oracle attaches to it.
type Answer struct {
	Value string
	CF    float64
}

// Oracle answers questions. Returning ErrDeclined (or a *ParseError) makes
// the engine fall back to its other strategy; any other error aborts the
// consultation.
type Oracle interface {
	Ask(ctx context.Context, q Question) ([]Answer, error)
}

// Func adapts a function to the Oracle interface.
type Func func(ctx context.Context, q Question) ([]Answer, error)

// Ask calls f.
func (f Func) Ask(ctx context.Context, q Question) ([]Answer, error) {
	return f(ctx, q)
}

// Declining is an oracle that never knows anything.
var Declining Oracle = Func(func(context.Context, Question) ([]Answer, error) {
	return nil, ErrDeclined
})

// IsDecline reports whether err should be treated as a declined question.
func IsDecline(err error) bool {
	var pe *ParseError
	return errors.Is(err, ErrDeclined) || errors.As(err, &pe)
}
