package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/cognicore/mycin/pkg/mycin/facts"
	"github.com/cognicore/mycin/pkg/mycin/internalerr"
	"github.com/cognicore/mycin/pkg/mycin/oracle"
)

const sampleKB = `
contexts:
  - name: patient
    initial: [name, sex, age]
  - name: disease
    goals: [identity]
params:
  - {name: name, context: patient, ask_first: true}
  - {name: sex, context: patient, values: [m, f], ask_first: true}
  - {name: age, context: patient, kind: int, ask_first: true}
  - name: cough
    context: patient
    kind: enum
    values: ["no", "yes", not so sure]
    prompt: "Is the patient coughing?"
rules:
  - id: 1
    if:
      - [cough, patient, eq, "yes"]
      - {param: age, context: patient, op: ">=", value: "12"}
    then:
      - [identity, disease, eq, allergies]
    cf: 0.4
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestParseKnowledgeBase(t *testing.T) {
	doc, err := ParseKnowledgeBase([]byte(sampleKB))
	require.NoError(t, err)

	require.Len(t, doc.Rules, 1)
	assert.Equal(t, []Condition{
		{Param: "cough", Context: "patient", Op: "eq", Value: "yes"},
		{Param: "age", Context: "patient", Op: ">=", Value: "12"},
	}, doc.Rules[0].If)
	assert.Equal(t, []string{"no", "yes", facts.Unsure}, doc.Params[3].Values)
}

func TestBuild(t *testing.T) {
	doc, err := ParseKnowledgeBase([]byte(sampleKB))
	require.NoError(t, err)
	k, err := doc.Build()
	require.NoError(t, err)

	assert.Equal(t, []string{"patient", "disease"}, k.ContextNames())

	sex, err := k.Param("sex")
	require.NoError(t, err)
	assert.True(t, sex.AskFirst)
	assert.Equal(t, "(m, f)", sex.TypeString())

	rules := k.Rules("identity")
	require.Len(t, rules, 1)
	assert.Equal(t, facts.Ge, rules[0].Premises[1].Op)
	assert.Equal(t, 0.4, rules[0].CF)
	assert.NoError(t, k.Validate())
}

func TestBuildRejectsBadDocuments(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
	}{
		{"unknown op", "rules:\n  - {id: 1, then: [[x, s, like, y]], cf: 0.5}\n", internalerr.ErrInvalidInput},
		{"bad weight", "rules:\n  - {id: 1, then: [[x, s, eq, y]], cf: 3}\n", internalerr.ErrInvalidInput},
		{"duplicate rule", "rules:\n  - {id: 1, then: [[x, s, eq, y]], cf: 0.5}\n  - {id: 1, then: [[z, s, eq, y]], cf: 0.5}\n", internalerr.ErrDuplicate},
		{"enum without values", "params:\n  - {name: x, context: s, kind: enum}\n", internalerr.ErrInvalidConfig},
		{"unnamed context", "contexts:\n  - {initial: [x]}\n", internalerr.ErrInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := ParseKnowledgeBase([]byte(tt.doc))
			require.NoError(t, err)
			_, err = doc.Build()
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestConditionSequenceNeedsFourItems(t *testing.T) {
	_, err := ParseKnowledgeBase([]byte("rules:\n  - {id: 1, then: [[x, s, eq]], cf: 0.5}\n"))
	assert.ErrorIs(t, err, internalerr.ErrInvalidConfig)

	_, err = ParseKnowledgeBase([]byte("rules: [\n"))
	assert.ErrorIs(t, err, internalerr.ErrInvalidConfig)
}

func TestRoundTripThroughYAML(t *testing.T) {
	doc, err := ParseKnowledgeBase([]byte(sampleKB))
	require.NoError(t, err)
	k, err := doc.Build()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, yaml.NewEncoder(&buf).Encode(FromKnowledgeBase(k)))
	assert.Contains(t, buf.String(), "- [cough, patient, eq, ")

	again, err := ParseKnowledgeBase(buf.Bytes())
	require.NoError(t, err)
	k2, err := again.Build()
	require.NoError(t, err)
	assert.Equal(t, k.AllRules()[0].String(), k2.AllRules()[0].String())
	assert.Equal(t, k.ContextNames(), k2.ContextNames())
}

func TestLoadAnswers(t *testing.T) {
	path := writeFile(t, "answers.yaml", `
answers:
  sex: f
  age: 40
  cough:
    - {value: "yes", cf: 0.6}
    - {value: "no"}
`)
	got, err := LoadAnswers(path)
	require.NoError(t, err)
	assert.Equal(t, map[string][]oracle.Answer{
		"sex":   {{Value: "f", CF: 1}},
		"age":   {{Value: "40", CF: 1}},
		"cough": {{Value: "yes", CF: 0.6}, {Value: "no", CF: 1}},
	}, got)

	bad := writeFile(t, "bad.yaml", "answers:\n  sex: {value: f}\n")
	_, err = LoadAnswers(bad)
	assert.ErrorIs(t, err, internalerr.ErrInvalidConfig)
}

func TestLoader(t *testing.T) {
	kbPath := writeFile(t, "kb.yaml", sampleKB)
	answersPath := writeFile(t, "answers.yaml", "answers:\n  sex: m\n")

	comp, err := (&Loader{KnowledgeBasePath: kbPath, AnswersPath: answersPath, Validate: true}).Load()
	require.NoError(t, err)
	assert.NotNil(t, comp.KB)
	assert.Equal(t, []oracle.Answer{{Value: "m", CF: 1}}, comp.Answers["sex"])
	assert.NotNil(t, comp.Oracle())
}

func TestLoaderErrors(t *testing.T) {
	_, err := (&Loader{}).Load()
	assert.Error(t, err)

	_, err = (&Loader{KnowledgeBasePath: "/nonexistent/kb.yaml"}).Load()
	assert.ErrorIs(t, err, os.ErrNotExist)

	kbPath := writeFile(t, "kb.yaml", sampleKB)
	_, err = (&Loader{KnowledgeBasePath: kbPath, AnswersPath: "/nonexistent/answers.yaml"}).Load()
	assert.ErrorIs(t, err, os.ErrNotExist)

	loose := writeFile(t, "loose.yaml", "contexts:\n  - {name: s, goals: [x]}\nrules:\n  - {id: 1, if: [[y, s, eq, a]], then: [[x, s, eq, b]], cf: 0.5}\n")
	_, err = (&Loader{KnowledgeBasePath: loose}).Load()
	assert.NoError(t, err)
	_, err = (&Loader{KnowledgeBasePath: loose, Validate: true}).Load()
	assert.ErrorIs(t, err, internalerr.ErrInvalidConfig)
}

func TestEnvSettings(t *testing.T) {
	t.Setenv("MYCIN_MAX_DEPTH", "")
	t.Setenv("MYCIN_STRICT_PARAMS", "")
	t.Setenv("LOG_LEVEL", "")
	assert.Equal(t, 64, MaxDepth())
	assert.False(t, StrictParams())
	assert.Equal(t, "info", LogLevel())

	path := writeFile(t, "test.env", "MYCIN_MAX_DEPTH=12\nMYCIN_STRICT_PARAMS=true\nMYCIN_DB_PATH=/tmp/mycin.db\n")
	t.Setenv("MYCIN_ENV", path)
	t.Setenv("MYCIN_DB_PATH", "")
	os.Unsetenv("MYCIN_MAX_DEPTH")
	os.Unsetenv("MYCIN_STRICT_PARAMS")
	os.Unsetenv("MYCIN_DB_PATH")
	LoadEnv()

	assert.Equal(t, 12, MaxDepth())
	assert.True(t, StrictParams())
	assert.Equal(t, "/tmp/mycin.db", DBPath())
}
