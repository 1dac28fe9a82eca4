package facts

import (
	"sort"

	"github.com/cognicore/mycin/pkg/mycin/cert"
)

// Distribution maps each observed value to its accumulated certainty.
type Distribution map[string]float64

// Clone returns an independent copy.
func (d Distribution) Clone() Distribution {
	out := make(Distribution, len(d))
	for v, cf := range d {
		out[v] = cf
	}
	return out
}

// Entry is one value of a distribution.
type Entry struct {
	Value string
	CF    float64
}

// Sorted lists values by descending certainty, ties broken by value.
func (d Distribution) Sorted() []Entry {
	out := make([]Entry, 0, len(d))
	for v, cf := range d {
		out = append(out, Entry{Value: v, CF: cf})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CF != out[j].CF {
			return out[i].CF > out[j].CF
		}
		return out[i].Value < out[j].Value
	})
	return out
}

type key struct {
	param string
	inst  Instance
}

// Store is the value store of one session. It is not safe for concurrent use.
type Store struct {
	vals map[key]Distribution
}

// NewStore creates an empty value store.
func NewStore() *Store {
	return &Store{vals: make(map[key]Distribution)}
}

// Get returns the live distribution for (param, inst), creating it empty.
func (s *Store) Get(param string, inst Instance) Distribution {
	k := key{param, inst}
	d, ok := s.vals[k]
	if !ok {
		d = make(Distribution)
		s.vals[k] = d
	}
	return d
}

// Cert returns the certainty recorded for value, Unknown if none.
func (s *Store) Cert(param string, inst Instance, value string) float64 {
	return s.vals[key{param, inst}][value]
}

// Update OR-combines cf into the certainty of value and returns the result.
// A value's certainty is never overwritten.
func (s *Store) Update(param string, inst Instance, value string, cf float64) float64 {
	d := s.Get(param, inst)
	d[value] = cert.Or(d[value], cf)
	return d[value]
}

// Snapshot copies the distribution for (param, inst).
func (s *Store) Snapshot(param string, inst Instance) Distribution {
	return s.vals[key{param, inst}].Clone()
}

// Reset drops every value.
func (s *Store) Reset() {
	clear(s.vals)
}
