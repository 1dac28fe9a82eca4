// Package facts holds the things rules talk about: instances of context
// types, conditions over their parameters, and the value store that
// accumulates certainty for every observed value.
package facts

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/cognicore/mycin/pkg/mycin/cert"
	"github.com/cognicore/mycin/pkg/mycin/internalerr"
)

// Unsure is the reply that never satisfies any comparator. It lets a
// user answer a yes/no question without supporting either side.
const Unsure = "not so sure"

// Instance is one built occurrence of a context type.
type Instance struct {
	Context string
	Seq     int
}

func (i Instance) String() string {
	return fmt.Sprintf("%s-%d", i.Context, i.Seq)
}

// Op is a comparator between an observed value and a rule literal.
type Op int

const (
	Eq Op = iota
	Ne
	Lt
	Le
	Gt
	Ge
)

var opNames = [...]string{"eq", "ne", "lt", "le", "gt", "ge"}

func (o Op) String() string {
	if o < 0 || int(o) >= len(opNames) {
		return fmt.Sprintf("op(%d)", int(o))
	}
	return opNames[o]
}

// ParseOp accepts the short names (eq, ne, ...) and the symbolic forms.
func ParseOp(s string) (Op, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "eq", "=", "==":
		return Eq, nil
	case "ne", "!=", "<>":
		return Ne, nil
	case "lt", "<":
		return Lt, nil
	case "le", "<=":
		return Le, nil
	case "gt", ">":
		return Gt, nil
	case "ge", ">=":
		return Ge, nil
	}
	return Eq, fmt.Errorf("unknown comparator %q: %w", s, internalerr.ErrInvalidInput)
}

// Holds reports whether observed satisfies the comparator against literal.
// Ordering compares numerically when both sides are numbers.
func (o Op) Holds(observed, literal string) bool {
	if observed == Unsure {
		return false
	}
	switch o {
	case Eq:
		return observed == literal
	case Ne:
		return observed != literal
	}

	c := compare(observed, literal)
	switch o {
	case Lt:
		return c < 0
	case Le:
		return c <= 0
	case Gt:
		return c > 0
	case Ge:
		return c >= 0
	}
	return false
}

func compare(a, b string) int {
	x, errA := strconv.ParseFloat(a, 64)
	y, errB := strconv.ParseFloat(b, 64)
	if errA == nil && errB == nil {
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	}
	return strings.Compare(a, b)
}

// Condition is a rule clause whose second element names a context type.
type Condition struct {
	Param   string
	Context string
	Op      Op
	Value   string
}

func (c Condition) String() string {
	return fmt.Sprintf("%s %s %s %s", c.Param, c.Context, c.Op, c.Value)
}

// Bind resolves the context type against the instances of a session.
func (c Condition) Bind(instances map[string]Instance) (Bound, error) {
	inst, ok := instances[c.Context]
	if !ok {
		return Bound{}, fmt.Errorf("condition %q: no instance of context %q: %w", c, c.Context, internalerr.ErrNotFound)
	}
	return Bound{Param: c.Param, Inst: inst, Op: c.Op, Value: c.Value}, nil
}

// Bound is a Condition attached to a concrete instance.
type Bound struct {
	Param string
	Inst  Instance
	Op    Op
	Value string
}

func (b Bound) String() string {
	return fmt.Sprintf("%s %s %s %s", b.Param, b.Inst.Context, b.Op, b.Value)
}

// DiscoverFunc is called before a condition is evaluated so the caller can
// populate the value store for (param, inst).
type DiscoverFunc func(ctx context.Context, param string, inst Instance) (bool, error)

// Evaluate returns the certainty that cond holds given what store knows.
// When discover is non-nil it runs first.
func Evaluate(ctx context.Context, cond Bound, store *Store, discover DiscoverFunc) (float64, error) {
	if discover != nil {
		if _, err := discover(ctx, cond.Param, cond.Inst); err != nil {
			return cert.Unknown, err
		}
	}

	total := 0.0
	for val, cf := range store.Get(cond.Param, cond.Inst) {
		if cond.Op.Holds(val, cond.Value) {
			total += cf
		}
	}
	return cert.Clamp(total), nil
}
