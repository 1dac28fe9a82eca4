package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/cognicore/mycin/pkg/mycin/config"
	"github.com/cognicore/mycin/pkg/mycin/facts"
	"github.com/cognicore/mycin/pkg/mycin/inference"
	"github.com/cognicore/mycin/pkg/mycin/kb"
	"github.com/cognicore/mycin/pkg/mycin/rule"
	"github.com/cognicore/mycin/pkg/mycin/store"
)

var disease = facts.Instance{Context: "disease", Seq: 0}

func TestText(t *testing.T) {
	f := inference.Findings{
		disease: {
			"identity": facts.Distribution{"cold": 0.3, "flu": 0.72},
			"severity": facts.Distribution{},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, Text(&buf, f))
	assert.Equal(t, "Findings for disease-0:\nidentity: flu: 0.720000, cold: 0.300000\nseverity: \n", buf.String())
}

func TestHTML(t *testing.T) {
	c := store.Consultation{
		ID:        "01HX",
		StartedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Contexts:  []string{"patient", "disease"},
		Findings: []store.Finding{
			{Instance: disease, Param: "identity", Value: "<flu>", CF: 0.72},
			{Instance: disease, Param: "severity"},
		},
		Steps: []inference.Step{
			{Kind: inference.StepBuilt, Instance: disease},
			{Kind: inference.StepFired, Param: "identity", Instance: disease, RuleID: 4, CF: 0.72, Depth: 1},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, HTML(&buf, c))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
	assert.Contains(t, out, "<title>Consultation 01HX</title>")
	assert.Contains(t, out, "&lt;flu&gt;", "values must be escaped")
	assert.Contains(t, out, "(nothing concluded)")
	assert.Contains(t, out, "rule 4 fired for identity (0.720)")

	doc, err := html.Parse(strings.NewReader(out))
	require.NoError(t, err)
	var cells int
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "td" {
			cells++
		}
		for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
			walk(ch)
		}
	}
	walk(doc)
	assert.Equal(t, 8, cells)
}

func testKB(t *testing.T) *kb.KnowledgeBase {
	t.Helper()
	k := kb.New()
	require.NoError(t, k.DefineContext(kb.NewContextType("patient", []string{"sex"}, nil)))
	require.NoError(t, k.DefineParam(&kb.Param{Name: "sex", Context: "patient", Values: []string{"m", "f"}, AskFirst: true}))
	require.NoError(t, k.DefineRule(&rule.Rule{
		ID:          3,
		Premises:    []facts.Condition{{Param: "sex", Context: "patient", Op: facts.Eq, Value: "f"}},
		Conclusions: []facts.Condition{{Param: "pregnant", Context: "patient", Op: facts.Eq, Value: "maybe"}},
		CF:          0.2,
	}))
	return k
}

func TestExportRulesRoundTrips(t *testing.T) {
	k := testKB(t)

	var buf bytes.Buffer
	require.NoError(t, ExportRules(&buf, k))
	assert.Contains(t, buf.String(), "ask_first: true")

	doc, err := config.ParseKnowledgeBase(buf.Bytes())
	require.NoError(t, err)
	back, err := doc.Build()
	require.NoError(t, err)
	require.Len(t, back.AllRules(), 1)
	assert.Equal(t, k.AllRules()[0].String(), back.AllRules()[0].String())
}

func TestRules(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Rules(&buf, testKB(t)))
	assert.Equal(t, "RULE 3\nIF\n\tsex patient eq f\nTHEN 0.200000\n\tpregnant patient eq maybe\n", buf.String())
}
