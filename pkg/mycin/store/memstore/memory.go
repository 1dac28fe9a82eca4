package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/cognicore/mycin/pkg/mycin/inference"
	"github.com/cognicore/mycin/pkg/mycin/internalerr"
	"github.com/cognicore/mycin/pkg/mycin/store"
)

// Store is an in-memory implementation of store.Store.
type Store struct {
	mu            sync.RWMutex
	consultations map[string]store.Consultation
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{consultations: make(map[string]store.Consultation)}
}

var _ store.Store = (*Store)(nil)

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// SaveConsultation implements store.Store.
func (s *Store) SaveConsultation(ctx context.Context, c store.Consultation) error {
	if c.ID == "" {
		return fmt.Errorf("consultation without id: %w", internalerr.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.consultations[c.ID]; ok {
		return fmt.Errorf("consultation %s: %w", c.ID, internalerr.ErrDuplicate)
	}
	s.consultations[c.ID] = copyConsultation(c)
	return nil
}

// GetConsultation implements store.Store.
func (s *Store) GetConsultation(ctx context.Context, id string) (store.Consultation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.consultations[id]
	if !ok {
		return store.Consultation{}, fmt.Errorf("consultation %s: %w", id, internalerr.ErrNotFound)
	}
	return copyConsultation(c), nil
}

// ListConsultations implements store.Store.
func (s *Store) ListConsultations(ctx context.Context, limit int) ([]store.Consultation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]store.Consultation, 0, len(s.consultations))
	for _, c := range s.consultations {
		out = append(out, store.Consultation{
			ID:        c.ID,
			StartedAt: c.StartedAt,
			Contexts:  append([]string(nil), c.Contexts...),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].StartedAt.After(out[j].StartedAt)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func copyConsultation(c store.Consultation) store.Consultation {
	c.Contexts = append([]string(nil), c.Contexts...)
	c.Findings = append([]store.Finding(nil), c.Findings...)
	c.Steps = append([]inference.Step(nil), c.Steps...)
	return c
}
