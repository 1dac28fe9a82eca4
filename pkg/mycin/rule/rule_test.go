package rule

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/mycin/pkg/mycin/cert"
	"github.com/cognicore/mycin/pkg/mycin/facts"
	"github.com/cognicore/mycin/pkg/mycin/internalerr"
)

var (
	patient   = facts.Instance{Context: "patient", Seq: 0}
	disease   = facts.Instance{Context: "disease", Seq: 0}
	instances = map[string]facts.Instance{"patient": patient, "disease": disease}
)

func cond(param, ctx, value string) facts.Condition {
	return facts.Condition{Param: param, Context: ctx, Op: facts.Eq, Value: value}
}

func allergyRule(cf float64) *Rule {
	return &Rule{
		ID: 1,
		Premises: []facts.Condition{
			cond("respiratory", "patient", "yes"),
			cond("coughing", "patient", "yes"),
		},
		Conclusions: []facts.Condition{cond("identity", "disease", "allergies")},
		CF:          cf,
	}
}

// answering discovery: fills each asked param from answers and records the order.
type answering struct {
	store   *facts.Store
	answers map[string]facts.Distribution
	asked   []string
}

func (a *answering) discover(ctx context.Context, param string, inst facts.Instance) (bool, error) {
	a.asked = append(a.asked, param)
	d, ok := a.answers[param]
	if !ok {
		return false, nil
	}
	for v, cf := range d {
		a.store.Update(param, inst, v, cf)
	}
	return true, nil
}

func TestValidate(t *testing.T) {
	require.NoError(t, allergyRule(0.4).Validate())

	err := allergyRule(1.4).Validate()
	assert.ErrorIs(t, err, internalerr.ErrInvalidInput)

	r := allergyRule(0.4)
	r.Conclusions = nil
	assert.ErrorIs(t, r.Validate(), internalerr.ErrInvalidInput)
}

func TestApplyFiresWithEffectiveCertainty(t *testing.T) {
	store := facts.NewStore()
	a := &answering{store: store, answers: map[string]facts.Distribution{
		"respiratory": {"yes": 1},
		"coughing":    {"yes": 0.8},
	}}

	cf, fired, err := allergyRule(0.5).Apply(context.Background(), store, instances, a.discover, nil)
	require.NoError(t, err)
	assert.True(t, fired)
	assert.InDelta(t, 0.4, cf, 1e-9)
	assert.InDelta(t, 0.4, store.Cert("identity", disease, "allergies"), 1e-9)
}

func TestApplyCombinesWithExistingConclusion(t *testing.T) {
	store := facts.NewStore()
	store.Update("identity", disease, "allergies", 0.5)
	a := &answering{store: store, answers: map[string]facts.Distribution{
		"respiratory": {"yes": 1},
		"coughing":    {"yes": 1},
	}}

	_, fired, err := allergyRule(0.3).Apply(context.Background(), store, instances, a.discover, nil)
	require.NoError(t, err)
	require.True(t, fired)
	assert.InDelta(t, 0.65, store.Cert("identity", disease, "allergies"), 1e-9)
}

func TestApplicableFastFailSkipsDiscovery(t *testing.T) {
	store := facts.NewStore()
	store.Update("respiratory", patient, "yes", -0.9)
	a := &answering{store: store}

	cf, err := allergyRule(0.5).Applicable(context.Background(), store, instances, a.discover)
	require.NoError(t, err)
	assert.Equal(t, cert.False, cf)
	assert.Empty(t, a.asked, "no premise may be discovered once one is known false")
}

func TestApplicableStopsAtFirstUntruePremise(t *testing.T) {
	store := facts.NewStore()
	a := &answering{store: store, answers: map[string]facts.Distribution{
		"respiratory": {"no": 1},
		"coughing":    {"yes": 1},
	}}

	cf, err := allergyRule(0.5).Applicable(context.Background(), store, instances, a.discover)
	require.NoError(t, err)
	assert.Equal(t, cert.False, cf)
	assert.Equal(t, []string{"respiratory"}, a.asked)
}

func TestApplicableWeakPremiseIsInapplicable(t *testing.T) {
	store := facts.NewStore()
	a := &answering{store: store, answers: map[string]facts.Distribution{
		"respiratory": {"yes": 0.2},
	}}

	cf, err := allergyRule(0.5).Applicable(context.Background(), store, instances, a.discover)
	require.NoError(t, err)
	assert.Equal(t, cert.False, cf)
}

func TestApplyNegativeWeightFiresWhenInapplicable(t *testing.T) {
	store := facts.NewStore()
	a := &answering{store: store, answers: map[string]facts.Distribution{
		"respiratory": {"no": 1},
	}}

	cf, fired, err := allergyRule(-0.3).Apply(context.Background(), store, instances, a.discover, nil)
	require.NoError(t, err)
	assert.True(t, fired)
	assert.InDelta(t, 0.3, cf, 1e-9)
	assert.InDelta(t, 0.3, store.Cert("identity", disease, "allergies"), 1e-9)
}

func TestApplyNegativeWeightDoesNotFireWhenApplicable(t *testing.T) {
	store := facts.NewStore()
	a := &answering{store: store, answers: map[string]facts.Distribution{
		"respiratory": {"yes": 1},
		"coughing":    {"yes": 1},
	}}

	cf, fired, err := allergyRule(-0.3).Apply(context.Background(), store, instances, a.discover, nil)
	require.NoError(t, err)
	assert.False(t, fired)
	assert.InDelta(t, -0.3, cf, 1e-9)
	assert.Empty(t, store.Snapshot("identity", disease))
}

func TestApplyBelowCutoffDoesNotFire(t *testing.T) {
	store := facts.NewStore()
	a := &answering{store: store, answers: map[string]facts.Distribution{
		"respiratory": {"yes": 1},
		"coughing":    {"yes": 1},
	}}

	cf, fired, err := allergyRule(0.1).Apply(context.Background(), store, instances, a.discover, nil)
	require.NoError(t, err)
	assert.False(t, fired)
	assert.InDelta(t, 0.1, cf, 1e-9)
}

func TestApplyTracksRule(t *testing.T) {
	var seen *Rule
	r := allergyRule(0.5)
	_, _, err := r.Apply(context.Background(), facts.NewStore(), instances, nil, func(x *Rule) { seen = x })
	require.NoError(t, err)
	assert.Same(t, r, seen)
}

func TestApplyUnboundContext(t *testing.T) {
	_, _, err := allergyRule(0.5).Apply(context.Background(), facts.NewStore(),
		map[string]facts.Instance{"disease": disease}, nil, nil)
	assert.ErrorIs(t, err, internalerr.ErrNotFound)
}

func TestString(t *testing.T) {
	want := "RULE 1\nIF\n\trespiratory patient eq yes\n\tcoughing patient eq yes\nTHEN 0.400000\n\tidentity disease eq allergies"
	assert.Equal(t, want, allergyRule(0.4).String())
}

func TestCloneIsIndependent(t *testing.T) {
	r := allergyRule(0.4)
	c := r.Clone()
	c.Premises = c.Premises[:1]
	c.Premises[0].Value = "no"
	assert.Len(t, r.Premises, 2)
	assert.Equal(t, "yes", r.Premises[0].Value)
}
