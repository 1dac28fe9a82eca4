package oracle

import (
	"context"
	"sync"
)

// Scripted answers from a fixed table keyed by param name and declines
// anything else. It records every question it receives.
type Scripted struct {
	mu      sync.Mutex
	answers map[string][]Answer
	asked   []Question
}

// NewScripted creates a scripted oracle from a param -> answers table.
func NewScripted(answers map[string][]Answer) *Scripted {
	s := &Scripted{answers: make(map[string][]Answer, len(answers))}
	for param, as := range answers {
		s.answers[param] = append([]Answer(nil), as...)
	}
	return s
}

// Set replaces the answers for param.
func (s *Scripted) Set(param string, answers ...Answer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.answers[param] = answers
}

// Ask implements Oracle.
func (s *Scripted) Ask(ctx context.Context, q Question) ([]Answer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.asked = append(s.asked, q)
	as, ok := s.answers[q.Param.Name]
	if !ok || len(as) == 0 {
		return nil, ErrDeclined
	}
	return append([]Answer(nil), as...), nil
}

// Asked returns the questions received so far, in order.
func (s *Scripted) Asked() []Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Question(nil), s.asked...)
}

// AskedParams returns the param names asked so far, in order.
func (s *Scripted) AskedParams() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.asked))
	for i, q := range s.asked {
		out[i] = q.Param.Name
	}
	return out
}
