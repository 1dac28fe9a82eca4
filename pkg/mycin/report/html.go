package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/cognicore/mycin/pkg/mycin/inference"
	"github.com/cognicore/mycin/pkg/mycin/store"
)

// HTML renders a consultation as a standalone page: a findings table
// followed by the step trace.
func HTML(w io.Writer, c store.Consultation) error {
	title := "Consultation " + c.ID

	findings := el(atom.Table, nil,
		el(atom.Thead, nil, row(atom.Th, "instance", "param", "value", "certainty")))
	body := el(atom.Tbody, nil)
	for _, f := range c.Findings {
		value, cf := f.Value, fmt.Sprintf("%.3f", f.CF)
		if value == "" {
			value, cf = "(nothing concluded)", ""
		}
		body.AppendChild(row(atom.Td, f.Instance.String(), f.Param, value, cf))
	}
	findings.AppendChild(body)

	trace := el(atom.Ol, nil)
	for _, st := range c.Steps {
		trace.AppendChild(el(atom.Li, []html.Attribute{{Key: "class", Val: string(st.Kind)}}, text(describe(st))))
	}

	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})
	doc.AppendChild(el(atom.Html, nil,
		el(atom.Head, nil,
			el(atom.Meta, []html.Attribute{{Key: "charset", Val: "utf-8"}}),
			el(atom.Title, nil, text(title)),
		),
		el(atom.Body, nil,
			el(atom.H1, nil, text(title)),
			el(atom.P, nil, text(fmt.Sprintf("Started %s. Contexts: %s.",
				c.StartedAt.UTC().Format(time.RFC3339), strings.Join(c.Contexts, ", ")))),
			el(atom.H2, nil, text("Findings")),
			findings,
			el(atom.H2, nil, text("Trace")),
			trace,
		),
	))
	return html.Render(w, doc)
}

func describe(st inference.Step) string {
	indent := strings.Repeat("  ", st.Depth)
	switch st.Kind {
	case inference.StepBuilt:
		return fmt.Sprintf("%sbuilt %s", indent, st.Instance)
	case inference.StepAnswered:
		return fmt.Sprintf("%s%s of %s = %s (%.3f)", indent, st.Param, st.Instance, st.Value, st.CF)
	case inference.StepFired, inference.StepSkipped:
		return fmt.Sprintf("%srule %d %s for %s (%.3f)", indent, st.RuleID, st.Kind, st.Param, st.CF)
	default:
		return fmt.Sprintf("%s%s %s of %s", indent, st.Kind, st.Param, st.Instance)
	}
}

func el(a atom.Atom, attrs []html.Attribute, children ...*html.Node) *html.Node {
	n := &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attrs}
	for _, c := range children {
		n.AppendChild(c)
	}
	return n
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

func row(cell atom.Atom, values ...string) *html.Node {
	tr := el(atom.Tr, nil)
	for _, v := range values {
		tr.AppendChild(el(cell, nil, text(v)))
	}
	return tr
}
