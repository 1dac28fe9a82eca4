// Package kb holds the configuration a consultation reasons over: context
// types, parameters and the rule index.
package kb

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync/atomic"

	"github.com/cognicore/mycin/pkg/mycin/facts"
	"github.com/cognicore/mycin/pkg/mycin/internalerr"
	"github.com/cognicore/mycin/pkg/mycin/rule"
)

// ContextType is a category of entity that can be reasoned about.
type ContextType struct {
	Name    string
	Initial []string // params discovered right after building an instance
	Goals   []string // params whose distributions are reported

	count atomic.Int64
}

// NewContextType creates a context type.
func NewContextType(name string, initial, goals []string) *ContextType {
	return &ContextType{Name: name, Initial: initial, Goals: goals}
}

// Build allocates the next instance. Sequence numbers are never reused.
func (c *ContextType) Build() facts.Instance {
	n := c.count.Add(1) - 1
	return facts.Instance{Context: c.Name, Seq: int(n)}
}

// KnowledgeBase indexes rules by the params they conclude.
type KnowledgeBase struct {
	contexts map[string]*ContextType
	ctxOrder []string
	params   map[string]*Param
	rules    map[string][]*rule.Rule
	byID     map[int]*rule.Rule
	order    []*rule.Rule
}

// New creates an empty knowledge base.
func New() *KnowledgeBase {
	return &KnowledgeBase{
		contexts: make(map[string]*ContextType),
		params:   make(map[string]*Param),
		rules:    make(map[string][]*rule.Rule),
		byID:     make(map[int]*rule.Rule),
	}
}

// DefineContext registers a context type, replacing one with the same name.
func (k *KnowledgeBase) DefineContext(c *ContextType) error {
	if c == nil || c.Name == "" {
		return fmt.Errorf("context without name: %w", internalerr.ErrInvalidConfig)
	}
	if _, ok := k.contexts[c.Name]; !ok {
		k.ctxOrder = append(k.ctxOrder, c.Name)
	}
	k.contexts[c.Name] = c
	return nil
}

// DefineParam registers a param, replacing one with the same name.
func (k *KnowledgeBase) DefineParam(p *Param) error {
	if p == nil {
		return fmt.Errorf("nil param: %w", internalerr.ErrInvalidConfig)
	}
	if err := p.Validate(); err != nil {
		return err
	}
	k.params[p.Name] = p
	return nil
}

// DefineRule appends r to the rule list of every param it concludes.
func (k *KnowledgeBase) DefineRule(r *rule.Rule) error {
	if r == nil {
		return fmt.Errorf("nil rule: %w", internalerr.ErrInvalidConfig)
	}
	if err := r.Validate(); err != nil {
		return err
	}
	if _, dup := k.byID[r.ID]; dup {
		return fmt.Errorf("rule %d: %w", r.ID, internalerr.ErrDuplicate)
	}

	k.byID[r.ID] = r
	k.order = append(k.order, r)

	seen := make(map[string]bool)
	for _, c := range r.Conclusions {
		if seen[c.Param] {
			continue
		}
		seen[c.Param] = true
		k.rules[c.Param] = append(k.rules[c.Param], r)
	}
	return nil
}

// Rules returns the rules concluding param in registration order. The
// slice is a copy; the index is not affected by changes to it.
func (k *KnowledgeBase) Rules(param string) []*rule.Rule {
	return slices.Clone(k.rules[param])
}

// Rule returns the rule with the given id.
func (k *KnowledgeBase) Rule(id int) (*rule.Rule, error) {
	r, ok := k.byID[id]
	if !ok {
		return nil, fmt.Errorf("rule %d: %w", id, internalerr.ErrNotFound)
	}
	return r, nil
}

// AllRules returns every rule in registration order.
func (k *KnowledgeBase) AllRules() []*rule.Rule {
	return slices.Clone(k.order)
}

// Param looks up a declared param.
func (k *KnowledgeBase) Param(name string) (*Param, error) {
	p, ok := k.params[name]
	if !ok {
		return nil, fmt.Errorf("param %q: %w", name, internalerr.ErrNotFound)
	}
	return p, nil
}

// Params returns every declared param sorted by name.
func (k *KnowledgeBase) Params() []*Param {
	out := make([]*Param, 0, len(k.params))
	for _, p := range k.params {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Context looks up a context type.
func (k *KnowledgeBase) Context(name string) (*ContextType, error) {
	c, ok := k.contexts[name]
	if !ok {
		return nil, fmt.Errorf("context %q: %w", name, internalerr.ErrNotFound)
	}
	return c, nil
}

// ContextNames lists context types in declaration order.
func (k *KnowledgeBase) ContextNames() []string {
	return append([]string(nil), k.ctxOrder...)
}

// Validate reports every reference to an undeclared param or context type.
func (k *KnowledgeBase) Validate() error {
	var errs []error
	for _, name := range k.ctxOrder {
		c := k.contexts[name]
		for _, p := range append(append([]string(nil), c.Initial...), c.Goals...) {
			if !k.known(p) {
				errs = append(errs, fmt.Errorf("context %s: undeclared param %q: %w", name, p, internalerr.ErrNotFound))
			}
		}
	}
	for _, r := range k.order {
		for _, c := range append(append([]facts.Condition(nil), r.Premises...), r.Conclusions...) {
			if _, ok := k.contexts[c.Context]; !ok {
				errs = append(errs, fmt.Errorf("rule %d: undeclared context %q: %w", r.ID, c.Context, internalerr.ErrNotFound))
			}
			if !k.known(c.Param) {
				errs = append(errs, fmt.Errorf("rule %d: undeclared param %q: %w", r.ID, c.Param, internalerr.ErrNotFound))
			}
		}
	}
	return errors.Join(errs...)
}

// known reports whether a param is declared or at least concluded by a rule.
func (k *KnowledgeBase) known(param string) bool {
	_, ok := k.params[param]
	return ok || len(k.rules[param]) > 0
}
