package config

import (
	"fmt"

	"github.com/cognicore/mycin/pkg/mycin/internalerr"
	"github.com/cognicore/mycin/pkg/mycin/kb"
	"github.com/cognicore/mycin/pkg/mycin/oracle"
)

// Loader loads a knowledge base and, optionally, scripted answers.
type Loader struct {
	KnowledgeBasePath string
	AnswersPath       string
	// Validate rejects knowledge bases that reference undeclared params or
	// context types.
	Validate bool
}

// Components holds everything a consultation needs from disk.
type Components struct {
	KB      *kb.KnowledgeBase
	Answers map[string][]oracle.Answer
}

// Load reads all configured files and returns initialized components.
func (l *Loader) Load() (*Components, error) {
	if l.KnowledgeBasePath == "" {
		return nil, fmt.Errorf("knowledge base path is required: %w", internalerr.ErrInvalidConfig)
	}

	doc, err := LoadKnowledgeBase(l.KnowledgeBasePath)
	if err != nil {
		return nil, fmt.Errorf("load knowledge base: %w", err)
	}
	k, err := doc.Build()
	if err != nil {
		return nil, fmt.Errorf("build knowledge base: %w", err)
	}
	if l.Validate {
		if err := k.Validate(); err != nil {
			return nil, fmt.Errorf("validate knowledge base: %w: %w", internalerr.ErrInvalidConfig, err)
		}
	}

	comp := &Components{KB: k}
	if l.AnswersPath != "" {
		answers, err := LoadAnswers(l.AnswersPath)
		if err != nil {
			return nil, fmt.Errorf("load answers: %w", err)
		}
		comp.Answers = answers
	}
	return comp, nil
}

// Oracle returns a scripted oracle over the loaded answers.
func (c *Components) Oracle() *oracle.Scripted {
	return oracle.NewScripted(c.Answers)
}
