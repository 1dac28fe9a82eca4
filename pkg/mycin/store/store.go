package store

import (
	"context"
	"sort"
	"time"

	"github.com/cognicore/mycin/pkg/mycin/facts"
	"github.com/cognicore/mycin/pkg/mycin/inference"
)

// Store persists finished consultations.
type Store interface {
	Close() error

	// SaveConsultation stores c. Saving an ID twice fails with
	// internalerr.ErrDuplicate.
	SaveConsultation(ctx context.Context, c Consultation) error
	// GetConsultation loads a consultation with its findings and steps, or
	// fails with internalerr.ErrNotFound.
	GetConsultation(ctx context.Context, id string) (Consultation, error)
	// ListConsultations returns the most recent consultations first, without
	// findings or steps. A limit <= 0 means no limit.
	ListConsultations(ctx context.Context, limit int) ([]Consultation, error)
}

// Consultation is the record of one session.
type Consultation struct {
	ID        string
	StartedAt time.Time
	Contexts  []string
	Findings  []Finding
	Steps     []inference.Step
}

// Finding is one concluded value of a goal param. A goal nothing could be
// concluded about is kept as a single Finding with an empty Value.
type Finding struct {
	Instance facts.Instance
	Param    string
	Value    string
	CF       float64
}

// Flatten orders findings by instance, then param, then descending
// certainty.
func Flatten(f inference.Findings) []Finding {
	var out []Finding
	for _, inst := range f.Instances() {
		goals := f[inst]
		params := make([]string, 0, len(goals))
		for p := range goals {
			params = append(params, p)
		}
		sort.Strings(params)

		for _, p := range params {
			entries := goals[p].Sorted()
			if len(entries) == 0 {
				out = append(out, Finding{Instance: inst, Param: p})
				continue
			}
			for _, e := range entries {
				out = append(out, Finding{Instance: inst, Param: p, Value: e.Value, CF: e.CF})
			}
		}
	}
	return out
}

// Results rebuilds the findings map from the flattened form.
func (c Consultation) Results() inference.Findings {
	out := make(inference.Findings)
	for _, f := range c.Findings {
		goals, ok := out[f.Instance]
		if !ok {
			goals = make(map[string]facts.Distribution)
			out[f.Instance] = goals
		}
		d, ok := goals[f.Param]
		if !ok {
			d = make(facts.Distribution)
			goals[f.Param] = d
		}
		if f.Value != "" {
			d[f.Value] = f.CF
		}
	}
	return out
}
