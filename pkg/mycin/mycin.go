package mycin

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cognicore/mycin/pkg/mycin/inference/backward"
	"github.com/cognicore/mycin/pkg/mycin/internalerr"
	"github.com/cognicore/mycin/pkg/mycin/kb"
	"github.com/cognicore/mycin/pkg/mycin/oracle"
	"github.com/cognicore/mycin/pkg/mycin/store"
)

// Shell is the main consultation facade
type Shell struct {
	kb       *kb.KnowledgeBase
	oracle   oracle.Oracle
	store    store.Store
	logger   *zap.Logger
	maxDepth int
	strict   bool
	now      func() time.Time
}

// Options configures a Shell instance
type Options struct {
	KB     *kb.KnowledgeBase
	Oracle oracle.Oracle
	// Store persists finished consultations; nil keeps nothing.
	Store        store.Store
	Logger       *zap.Logger
	MaxDepth     int
	StrictParams bool
	// Now stamps consultations; nil means time.Now.
	Now func() time.Time
}

// New creates a Shell with the given dependencies
func New(opts Options) *Shell {
	s := &Shell{
		kb:       opts.KB,
		oracle:   opts.Oracle,
		store:    opts.Store,
		logger:   opts.Logger,
		maxDepth: opts.MaxDepth,
		strict:   opts.StrictParams,
		now:      opts.Now,
	}
	if s.kb == nil {
		s.kb = kb.New()
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Close cleanly shuts down the Shell
func (s *Shell) Close() error {
	if s.store == nil {
		return nil
	}
	return s.store.Close()
}

// KB returns the knowledge base the shell consults.
func (s *Shell) KB() *kb.KnowledgeBase {
	return s.kb
}

// Consult runs one session over the named context types, in order. With no
// names every context type is consulted in declaration order. The finished
// consultation is saved when the shell has a store.
func (s *Shell) Consult(ctx context.Context, contexts []string) (store.Consultation, error) {
	if len(contexts) == 0 {
		contexts = s.kb.ContextNames()
	}

	eng := backward.New(backward.Options{
		KB:           s.kb,
		Oracle:       s.oracle,
		Logger:       s.logger,
		MaxDepth:     s.maxDepth,
		StrictParams: s.strict,
	})

	started := s.now()
	findings, err := eng.Execute(ctx, contexts)
	if err != nil {
		return store.Consultation{}, fmt.Errorf("consultation %s: %w", eng.SessionID(), err)
	}

	c := store.Consultation{
		ID:        eng.SessionID(),
		StartedAt: started,
		Contexts:  append([]string(nil), contexts...),
		Findings:  store.Flatten(findings),
		Steps:     eng.Trace(),
	}

	if s.store != nil {
		if err := s.store.SaveConsultation(ctx, c); err != nil {
			return c, fmt.Errorf("save consultation %s: %w", c.ID, err)
		}
		s.logger.Info("consultation saved", zap.String("id", c.ID), zap.Int("findings", len(c.Findings)))
	}
	return c, nil
}

// Consultation loads a saved consultation.
func (s *Shell) Consultation(ctx context.Context, id string) (store.Consultation, error) {
	if s.store == nil {
		return store.Consultation{}, fmt.Errorf("no store configured: %w", internalerr.ErrStoreUnavailable)
	}
	return s.store.GetConsultation(ctx, id)
}
