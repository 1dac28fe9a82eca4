// Package backward implements goal-directed, certainty-factor backward
// chaining. A param is resolved by asking the oracle and/or firing every
// rule that concludes it, recursively discovering whatever premises those
// rules need. Each (param, instance) is resolved at most once per session.
package backward

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/cognicore/mycin/pkg/mycin/cert"
	"github.com/cognicore/mycin/pkg/mycin/facts"
	"github.com/cognicore/mycin/pkg/mycin/inference"
	"github.com/cognicore/mycin/pkg/mycin/kb"
	"github.com/cognicore/mycin/pkg/mycin/oracle"
	"github.com/cognicore/mycin/pkg/mycin/rule"
)

// DefaultMaxDepth bounds nested discoveries when Options.MaxDepth is zero.
const DefaultMaxDepth = 64

// ErrDepthExceeded is returned when discovery nests deeper than MaxDepth.
var ErrDepthExceeded = errors.New("discovery depth exceeded")

// CycleError reports a param whose discovery depends on itself.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return "cyclic dependency: " + strings.Join(e.Path, " -> ")
}

// Options configures an Engine.
type Options struct {
	KB     *kb.KnowledgeBase
	Oracle oracle.Oracle
	Logger *zap.Logger
	// MaxDepth bounds nested discoveries; zero means DefaultMaxDepth.
	MaxDepth int
	// StrictParams makes discovering an undeclared param an error instead
	// of asking for it as free text.
	StrictParams bool
}

type key struct {
	param string
	inst  facts.Instance
}

func (k key) String() string {
	return k.param + "/" + k.inst.String()
}

// session is everything one Execute owns. Nothing survives a Reset.
type session struct {
	id        string
	store     *facts.Store
	given     map[key]bool
	asked     map[key]bool
	instances map[string]facts.Instance
	phase     oracle.Phase
	rule      *rule.Rule
	stack     []key
	trace     []inference.Step
}

// Engine is a backward-chaining inference engine. It is not safe for
// concurrent use; run concurrent consultations on separate engines.
type Engine struct {
	kb       *kb.KnowledgeBase
	oracle   oracle.Oracle
	logger   *zap.Logger
	maxDepth int
	strict   bool
	entropy  *ulid.MonotonicEntropy

	sess *session
}

var _ inference.Engine = (*Engine)(nil)

// New creates an engine with a fresh session.
func New(opts Options) *Engine {
	e := &Engine{
		kb:       opts.KB,
		oracle:   opts.Oracle,
		logger:   opts.Logger,
		maxDepth: opts.MaxDepth,
		strict:   opts.StrictParams,
		entropy:  ulid.Monotonic(rand.Reader, 0),
	}
	if e.kb == nil {
		e.kb = kb.New()
	}
	if e.oracle == nil {
		e.oracle = oracle.Declining
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	if e.maxDepth <= 0 {
		e.maxDepth = DefaultMaxDepth
	}
	e.Reset()
	return e
}

// Reset discards all session state and starts a new session.
func (e *Engine) Reset() {
	e.sess = &session{
		id:        ulid.MustNew(ulid.Now(), e.entropy).String(),
		store:     facts.NewStore(),
		given:     make(map[key]bool),
		asked:     make(map[key]bool),
		instances: make(map[string]facts.Instance),
	}
}

// SessionID identifies the current session.
func (e *Engine) SessionID() string {
	return e.sess.id
}

// Execute implements inference.Engine.
func (e *Engine) Execute(ctx context.Context, contexts []string) (inference.Findings, error) {
	e.Reset()
	s := e.sess
	e.logger.Info("consultation started",
		zap.String("session_id", s.id),
		zap.Strings("contexts", contexts))

	findings := make(inference.Findings)
	for _, name := range contexts {
		ct, err := e.kb.Context(name)
		if err != nil {
			return nil, err
		}
		inst, err := e.Build(name)
		if err != nil {
			return nil, err
		}

		if err := e.resolve(ctx, oracle.PhaseInitial, ct.Initial, inst); err != nil {
			return nil, err
		}
		if err := e.resolve(ctx, oracle.PhaseGoal, ct.Goals, inst); err != nil {
			return nil, err
		}

		if len(ct.Goals) > 0 {
			result := make(map[string]facts.Distribution, len(ct.Goals))
			for _, param := range ct.Goals {
				result[param] = s.store.Snapshot(param, inst)
			}
			findings[inst] = result
		}
	}

	e.logger.Info("consultation finished",
		zap.String("session_id", s.id),
		zap.Int("instances", len(findings)),
		zap.Int("questions", len(s.asked)))
	return findings, nil
}

func (e *Engine) resolve(ctx context.Context, phase oracle.Phase, params []string, inst facts.Instance) error {
	e.sess.phase = phase
	e.sess.rule = nil
	for _, param := range params {
		if _, err := e.Discover(ctx, param, inst); err != nil {
			return fmt.Errorf("%s param %s of %s: %w", phase, param, inst, err)
		}
	}
	return nil
}

// Build allocates an instance of the named context type and makes it the
// one rules mentioning that type bind to for the rest of the session.
func (e *Engine) Build(name string) (facts.Instance, error) {
	ct, err := e.kb.Context(name)
	if err != nil {
		return facts.Instance{}, err
	}
	inst := ct.Build()
	e.sess.instances[name] = inst
	e.record(inference.Step{Kind: inference.StepBuilt, Instance: inst})
	return inst, nil
}

// Discover resolves param for inst, asking and/or applying rules in the
// order the param's AskFirst policy dictates. It reports whether either
// strategy succeeded. The outcome is cached for the rest of the session.
func (e *Engine) Discover(ctx context.Context, param string, inst facts.Instance) (bool, error) {
	s := e.sess
	k := key{param, inst}
	if ok, done := s.given[k]; done {
		return ok, nil
	}

	for i, on := range s.stack {
		if on == k {
			path := make([]string, 0, len(s.stack)-i+1)
			for _, p := range s.stack[i:] {
				path = append(path, p.String())
			}
			return false, &CycleError{Path: append(path, k.String())}
		}
	}
	if len(s.stack) >= e.maxDepth {
		return false, fmt.Errorf("%s at depth %d: %w", k, len(s.stack), ErrDepthExceeded)
	}
	s.stack = append(s.stack, k)
	defer func() { s.stack = s.stack[:len(s.stack)-1] }()

	p, err := e.param(param)
	if err != nil {
		return false, err
	}

	e.logger.Debug("discovering",
		zap.String("param", param),
		zap.Stringer("instance", inst),
		zap.Bool("ask_first", p.AskFirst),
		zap.Int("depth", len(s.stack)))

	first, second := e.applyRules, e.ask
	if p.AskFirst {
		first, second = e.ask, e.applyRules
	}
	ok, err := first(ctx, p, inst)
	if err != nil {
		return false, err
	}
	if !ok {
		if ok, err = second(ctx, p, inst); err != nil {
			return false, err
		}
	}

	s.given[k] = ok
	return ok, nil
}

func (e *Engine) param(name string) (*kb.Param, error) {
	p, err := e.kb.Param(name)
	if err == nil {
		return p, nil
	}
	if e.strict {
		return nil, err
	}
	e.logger.Warn("undeclared param, treating as free text", zap.String("param", name))
	return &kb.Param{Name: name, Kind: kb.KindString}, nil
}

// ask consults the oracle at most once per (param, instance).
func (e *Engine) ask(ctx context.Context, p *kb.Param, inst facts.Instance) (bool, error) {
	s := e.sess
	k := key{p.Name, inst}
	if s.asked[k] {
		return false, nil
	}
	s.asked[k] = true

	e.record(inference.Step{Kind: inference.StepAsked, Param: p.Name, Instance: inst})
	answers, err := e.oracle.Ask(ctx, oracle.Question{Param: p, Instance: inst, Why: e.explain()})
	if err == nil {
		answers, err = oracle.Check(p, answers)
	}
	if err != nil {
		if !oracle.IsDecline(err) {
			return false, fmt.Errorf("ask %s: %w", k, err)
		}
		e.logger.Debug("oracle declined", zap.String("param", p.Name), zap.Stringer("instance", inst), zap.Error(err))
		e.record(inference.Step{Kind: inference.StepDeclined, Param: p.Name, Instance: inst})
		return false, nil
	}

	for _, a := range answers {
		cf := s.store.Update(p.Name, inst, a.Value, a.CF)
		e.record(inference.Step{Kind: inference.StepAnswered, Param: p.Name, Instance: inst, Value: a.Value, CF: cf})
	}
	return true, nil
}

// applyRules gives every rule concluding p the chance to fire and reports
// whether at least one did.
func (e *Engine) applyRules(ctx context.Context, p *kb.Param, inst facts.Instance) (bool, error) {
	s := e.sess
	fired := false
	for _, r := range e.kb.Rules(p.Name) {
		prevRule, prevPhase := s.rule, s.phase
		cf, ok, err := r.Apply(ctx, s.store, s.instances, e.Discover, e.track)
		s.rule, s.phase = prevRule, prevPhase
		if err != nil {
			return false, err
		}

		step := inference.Step{Kind: inference.StepSkipped, Param: p.Name, Instance: inst, RuleID: r.ID, CF: cf}
		if ok {
			fired = true
			step.Kind = inference.StepFired
			e.logger.Debug("rule fired",
				zap.Int("rule", r.ID),
				zap.String("param", p.Name),
				zap.Float64("cf", cf))
		}
		e.record(step)
	}
	return fired, nil
}

func (e *Engine) track(r *rule.Rule) {
	e.sess.rule = r
	e.sess.phase = oracle.PhaseRule
}

// explain splits the current rule's premises into those already known to
// hold and those still pending.
func (e *Engine) explain() oracle.Explanation {
	s := e.sess
	if s.rule == nil {
		return oracle.Explanation{Phase: s.phase}
	}

	why := oracle.Explanation{Phase: oracle.PhaseRule, Rule: s.rule}
	premises, err := s.rule.BoundPremises(s.instances)
	if err != nil {
		return why
	}
	for _, p := range premises {
		cf, err := facts.Evaluate(context.Background(), p, s.store, nil)
		if err == nil && cert.IsTrue(cf) {
			why.Given = append(why.Given, p)
		} else {
			why.Pending = append(why.Pending, p)
		}
	}
	return why
}

func (e *Engine) record(step inference.Step) {
	step.Depth = len(e.sess.stack)
	e.sess.trace = append(e.sess.trace, step)
}

// Values returns a copy of what is known about param for inst.
func (e *Engine) Values(param string, inst facts.Instance) facts.Distribution {
	return e.sess.store.Snapshot(param, inst)
}

// Trace implements inference.Engine.
func (e *Engine) Trace() []inference.Step {
	return append([]inference.Step(nil), e.sess.trace...)
}
