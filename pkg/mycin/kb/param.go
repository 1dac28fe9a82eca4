package kb

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/cognicore/mycin/pkg/mycin/internalerr"
)

// Kind is the elicitation domain of a parameter.
type Kind string

const (
	KindString Kind = "string"
	KindInt    Kind = "int"
	KindFloat  Kind = "float"
	KindEnum   Kind = "enum"
)

// Param is an attribute of a context type.
type Param struct {
	Name    string
	Context string
	Kind    Kind
	Values  []string // legal values when Kind is KindEnum
	// AskFirst consults the oracle before trying rules.
	AskFirst bool
	Prompt   string
}

// Validate checks that the domain is well formed.
func (p *Param) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("param without name: %w", internalerr.ErrInvalidConfig)
	}
	switch p.kind() {
	case KindString, KindInt, KindFloat:
	case KindEnum:
		if len(p.Values) == 0 {
			return fmt.Errorf("param %s: enum without values: %w", p.Name, internalerr.ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("param %s: unknown kind %q: %w", p.Name, p.Kind, internalerr.ErrInvalidConfig)
	}
	return nil
}

func (p *Param) kind() Kind {
	if p.Kind == "" {
		if len(p.Values) > 0 {
			return KindEnum
		}
		return KindString
	}
	return p.Kind
}

// Parse coerces a reply literal into the canonical value for this param.
func (p *Param) Parse(raw string) (string, error) {
	val := strings.TrimSpace(raw)
	if val == "" {
		return "", fmt.Errorf("%s: empty value: %w", p.Name, internalerr.ErrInvalidInput)
	}

	switch p.kind() {
	case KindInt:
		n, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return "", fmt.Errorf("%s: %q is not an int: %w", p.Name, val, internalerr.ErrInvalidInput)
		}
		return strconv.FormatInt(n, 10), nil
	case KindFloat:
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return "", fmt.Errorf("%s: %q is not a float: %w", p.Name, val, internalerr.ErrInvalidInput)
		}
		return strconv.FormatFloat(f, 'g', -1, 64), nil
	case KindEnum:
		if !slices.Contains(p.Values, val) {
			return "", fmt.Errorf("%s: val must be one of %s: %w",
				p.Name, strings.Join(p.Values, ", "), internalerr.ErrInvalidInput)
		}
	}
	return val, nil
}

// TypeString describes the domain for help output: "int" or "(no, yes)".
func (p *Param) TypeString() string {
	if p.kind() == KindEnum {
		return "(" + strings.Join(p.Values, ", ") + ")"
	}
	return string(p.kind())
}
