// Package rule implements weighted IF/THEN rules over facts.
package rule

import (
	"context"
	"fmt"
	"strings"

	"github.com/cognicore/mycin/pkg/mycin/cert"
	"github.com/cognicore/mycin/pkg/mycin/facts"
	"github.com/cognicore/mycin/pkg/mycin/internalerr"
)

// Rule concludes its conclusions with certainty CF when all premises hold.
type Rule struct {
	ID          int
	Premises    []facts.Condition
	Conclusions []facts.Condition
	CF          float64
}

// Validate checks the weight and that the rule concludes something.
func (r *Rule) Validate() error {
	if !cert.Valid(r.CF) {
		return fmt.Errorf("rule %d: cf %v outside [-1, 1]: %w", r.ID, r.CF, internalerr.ErrInvalidInput)
	}
	if len(r.Conclusions) == 0 {
		return fmt.Errorf("rule %d: no conclusions: %w", r.ID, internalerr.ErrInvalidInput)
	}
	return nil
}

// BoundPremises binds every premise to the session instances.
func (r *Rule) BoundPremises(instances map[string]facts.Instance) ([]facts.Bound, error) {
	return bindAll(r.ID, r.Premises, instances)
}

// BoundConclusions binds every conclusion to the session instances.
func (r *Rule) BoundConclusions(instances map[string]facts.Instance) ([]facts.Bound, error) {
	return bindAll(r.ID, r.Conclusions, instances)
}

func bindAll(id int, conds []facts.Condition, instances map[string]facts.Instance) ([]facts.Bound, error) {
	out := make([]facts.Bound, 0, len(conds))
	for _, c := range conds {
		b, err := c.Bind(instances)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", id, err)
		}
		out = append(out, b)
	}
	return out, nil
}

// Applicable returns the certainty that every premise holds.
//
// A first pass looks only at what is already known and gives up on any
// premise that is definitely false, so a moot rule never causes questions.
// The second pass discovers premises in order and stops as soon as the
// running conjunction is no longer true; later premises are not discovered.
// An inapplicable rule yields cert.False.
func (r *Rule) Applicable(ctx context.Context, store *facts.Store, instances map[string]facts.Instance, discover facts.DiscoverFunc) (float64, error) {
	premises, err := r.BoundPremises(instances)
	if err != nil {
		return cert.False, err
	}

	for _, p := range premises {
		cf, err := facts.Evaluate(ctx, p, store, nil)
		if err != nil {
			return cert.False, err
		}
		if cert.IsFalse(cf) {
			return cert.False, nil
		}
	}

	total := cert.True
	for _, p := range premises {
		cf, err := facts.Evaluate(ctx, p, store, discover)
		if err != nil {
			return cert.False, err
		}
		total = cert.And(total, cf)
		if !cert.IsTrue(total) {
			return cert.False, nil
		}
	}
	return total, nil
}

// Apply fires the rule if its effective certainty (CF times applicability)
// is true, OR-combining that certainty into every conclusion. It returns
// the effective certainty and whether the rule fired. track, when set, is told
// which rule is being considered before its premises are evaluated.
func (r *Rule) Apply(ctx context.Context, store *facts.Store, instances map[string]facts.Instance, discover facts.DiscoverFunc, track func(*Rule)) (float64, bool, error) {
	if track != nil {
		track(r)
	}

	applicable, err := r.Applicable(ctx, store, instances, discover)
	if err != nil {
		return cert.Unknown, false, err
	}
	// An inapplicable rule scores cert.False, so a negative weight turns
	// failed premises into positive evidence.
	cf := r.CF * applicable
	if !cert.IsTrue(cf) {
		return cf, false, nil
	}

	conclusions, err := r.BoundConclusions(instances)
	if err != nil {
		return cf, false, err
	}
	for _, c := range conclusions {
		store.Update(c.Param, c.Inst, c.Value, cf)
	}
	return cf, true, nil
}

// Clone copies the rule so its premises can be rewritten for display.
func (r *Rule) Clone() *Rule {
	return &Rule{
		ID:          r.ID,
		Premises:    append([]facts.Condition(nil), r.Premises...),
		Conclusions: append([]facts.Condition(nil), r.Conclusions...),
		CF:          r.CF,
	}
}

func (r *Rule) String() string {
	prems := make([]string, len(r.Premises))
	for i, p := range r.Premises {
		prems[i] = p.String()
	}
	concls := make([]string, len(r.Conclusions))
	for i, c := range r.Conclusions {
		concls[i] = c.String()
	}
	return fmt.Sprintf("RULE %d\nIF\n\t%s\nTHEN %f\n\t%s",
		r.ID, strings.Join(prems, "\n\t"), r.CF, strings.Join(concls, "\n\t"))
}
