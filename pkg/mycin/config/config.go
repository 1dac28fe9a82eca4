package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/mycin/pkg/mycin/facts"
	"github.com/cognicore/mycin/pkg/mycin/internalerr"
	"github.com/cognicore/mycin/pkg/mycin/kb"
	"github.com/cognicore/mycin/pkg/mycin/oracle"
	"github.com/cognicore/mycin/pkg/mycin/rule"
)

// KnowledgeBase is the YAML form of a knowledge base.
type KnowledgeBase struct {
	Contexts []Context `yaml:"contexts"`
	Params   []Param   `yaml:"params"`
	Rules    []Rule    `yaml:"rules"`
}

// Context declares a context type.
type Context struct {
	Name    string   `yaml:"name"`
	Initial []string `yaml:"initial,omitempty"`
	Goals   []string `yaml:"goals,omitempty"`
}

// Param declares a parameter.
type Param struct {
	Name     string   `yaml:"name"`
	Context  string   `yaml:"context"`
	Kind     string   `yaml:"kind,omitempty"`
	Values   []string `yaml:"values,omitempty"`
	AskFirst bool     `yaml:"ask_first,omitempty"`
	Prompt   string   `yaml:"prompt,omitempty"`
}

// Rule declares a rule. Premises and conclusions are Conditions.
type Rule struct {
	ID   int         `yaml:"id"`
	If   []Condition `yaml:"if,omitempty"`
	Then []Condition `yaml:"then"`
	CF   float64     `yaml:"cf"`
}

// Condition is written either as a mapping
//
//	{param: sex, context: patient, op: eq, value: f}
//
// or as a flow sequence
//
//	[sex, patient, eq, f]
type Condition struct {
	Param   string `yaml:"param"`
	Context string `yaml:"context"`
	Op      string `yaml:"op"`
	Value   string `yaml:"value"`
}

// UnmarshalYAML accepts both condition notations.
func (c *Condition) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.SequenceNode {
		if len(node.Content) != 4 {
			return fmt.Errorf("line %d: condition needs [param, context, op, value], got %d items: %w",
				node.Line, len(node.Content), internalerr.ErrInvalidConfig)
		}
		fields := make([]string, 4)
		for i, n := range node.Content {
			if n.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: condition item %d is not a scalar: %w", n.Line, i, internalerr.ErrInvalidConfig)
			}
			fields[i] = n.Value
		}
		*c = Condition{Param: fields[0], Context: fields[1], Op: fields[2], Value: fields[3]}
		return nil
	}

	type plain Condition
	return node.Decode((*plain)(c))
}

// MarshalYAML writes the compact sequence notation.
func (c Condition) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
	for _, v := range []string{c.Param, c.Context, c.Op, c.Value} {
		node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v})
	}
	return node, nil
}

func (c Condition) toFacts() (facts.Condition, error) {
	op, err := facts.ParseOp(c.Op)
	if err != nil {
		return facts.Condition{}, err
	}
	return facts.Condition{Param: c.Param, Context: c.Context, Op: op, Value: c.Value}, nil
}

// FromCondition converts an engine condition back to its YAML form.
func FromCondition(c facts.Condition) Condition {
	return Condition{Param: c.Param, Context: c.Context, Op: c.Op.String(), Value: c.Value}
}

// LoadKnowledgeBase loads a knowledge base from a YAML file
func LoadKnowledgeBase(path string) (*KnowledgeBase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseKnowledgeBase(data)
}

// ParseKnowledgeBase decodes a YAML knowledge base document.
func ParseKnowledgeBase(data []byte) (*KnowledgeBase, error) {
	var doc KnowledgeBase
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", internalerr.ErrInvalidConfig, err)
	}
	return &doc, nil
}

// Build defines every context type, param and rule of the document in a new
// knowledge base.
func (d *KnowledgeBase) Build() (*kb.KnowledgeBase, error) {
	out := kb.New()
	for _, c := range d.Contexts {
		if c.Name == "" {
			return nil, fmt.Errorf("context without a name: %w", internalerr.ErrInvalidConfig)
		}
		if err := out.DefineContext(kb.NewContextType(c.Name, c.Initial, c.Goals)); err != nil {
			return nil, err
		}
	}

	for _, p := range d.Params {
		err := out.DefineParam(&kb.Param{
			Name:     p.Name,
			Context:  p.Context,
			Kind:     kb.Kind(p.Kind),
			Values:   p.Values,
			AskFirst: p.AskFirst,
			Prompt:   p.Prompt,
		})
		if err != nil {
			return nil, err
		}
	}

	for _, r := range d.Rules {
		built := &rule.Rule{ID: r.ID, CF: r.CF}
		for _, c := range r.If {
			fc, err := c.toFacts()
			if err != nil {
				return nil, fmt.Errorf("rule %d: %w", r.ID, err)
			}
			built.Premises = append(built.Premises, fc)
		}
		for _, c := range r.Then {
			fc, err := c.toFacts()
			if err != nil {
				return nil, fmt.Errorf("rule %d: %w", r.ID, err)
			}
			built.Conclusions = append(built.Conclusions, fc)
		}
		if err := out.DefineRule(built); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// FromKnowledgeBase is the inverse of Build.
func FromKnowledgeBase(k *kb.KnowledgeBase) *KnowledgeBase {
	doc := &KnowledgeBase{}
	for _, name := range k.ContextNames() {
		c, err := k.Context(name)
		if err != nil {
			continue
		}
		doc.Contexts = append(doc.Contexts, Context{Name: c.Name, Initial: c.Initial, Goals: c.Goals})
	}
	for _, p := range k.Params() {
		doc.Params = append(doc.Params, Param{
			Name:     p.Name,
			Context:  p.Context,
			Kind:     string(p.Kind),
			Values:   p.Values,
			AskFirst: p.AskFirst,
			Prompt:   p.Prompt,
		})
	}
	for _, r := range k.AllRules() {
		out := Rule{ID: r.ID, CF: r.CF}
		for _, c := range r.Premises {
			out.If = append(out.If, FromCondition(c))
		}
		for _, c := range r.Conclusions {
			out.Then = append(out.Then, FromCondition(c))
		}
		doc.Rules = append(doc.Rules, out)
	}
	return doc
}

// Answers is the YAML form of a scripted oracle's answer table:
//
//	answers:
//	  sex: f
//	  cough: [{value: "yes", cf: 0.6}, {value: "no", cf: 0.2}]
type Answers struct {
	Answers map[string]AnswerList `yaml:"answers"`
}

// AnswerList is either a bare value (certainty 1) or a list of weighted
// values.
type AnswerList []oracle.Answer

type weighted struct {
	Value string   `yaml:"value"`
	CF    *float64 `yaml:"cf"`
}

// UnmarshalYAML accepts both answer notations.
func (a *AnswerList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*a = AnswerList{{Value: node.Value, CF: 1}}
		return nil
	case yaml.SequenceNode:
		var items []weighted
		if err := node.Decode(&items); err != nil {
			return err
		}
		out := make(AnswerList, 0, len(items))
		for _, it := range items {
			cf := 1.0
			if it.CF != nil {
				cf = *it.CF
			}
			out = append(out, oracle.Answer{Value: it.Value, CF: cf})
		}
		*a = out
		return nil
	default:
		return fmt.Errorf("line %d: answer must be a value or a list of {value, cf}: %w", node.Line, internalerr.ErrInvalidConfig)
	}
}

// LoadAnswers loads a scripted answer table from a YAML file.
func LoadAnswers(path string) (map[string][]oracle.Answer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var doc Answers
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", internalerr.ErrInvalidConfig, err)
	}

	out := make(map[string][]oracle.Answer, len(doc.Answers))
	for param, list := range doc.Answers {
		out[param] = list
	}
	return out, nil
}
