// Package report renders consultation findings for people and exports
// knowledge bases for editing.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/mycin/pkg/mycin/config"
	"github.com/cognicore/mycin/pkg/mycin/inference"
	"github.com/cognicore/mycin/pkg/mycin/kb"
)

// Text writes one block per instance:
//
//	Findings for disease-0:
//	identity: flu: 0.720000, cold: 0.300000
//
// Values are listed by descending certainty and goals by name.
func Text(w io.Writer, findings inference.Findings) error {
	for _, inst := range findings.Instances() {
		if _, err := fmt.Fprintf(w, "Findings for %s:\n", inst); err != nil {
			return err
		}

		goals := findings[inst]
		for _, param := range sortedKeys(goals) {
			entries := goals[param].Sorted()
			parts := make([]string, len(entries))
			for i, e := range entries {
				parts[i] = fmt.Sprintf("%s: %f", e.Value, e.CF)
			}
			if _, err := fmt.Fprintf(w, "%s: %s\n", param, strings.Join(parts, ", ")); err != nil {
				return err
			}
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ExportRules writes the knowledge base as a YAML document that
// config.LoadKnowledgeBase reads back.
func ExportRules(w io.Writer, k *kb.KnowledgeBase) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(config.FromKnowledgeBase(k)); err != nil {
		return fmt.Errorf("export rules: %w", err)
	}
	return enc.Close()
}

// Rules writes every rule in its textual form, separated by blank lines.
func Rules(w io.Writer, k *kb.KnowledgeBase) error {
	for i, r := range k.AllRules() {
		sep := "\n"
		if i == 0 {
			sep = ""
		}
		if _, err := fmt.Fprintf(w, "%s%s\n", sep, r); err != nil {
			return err
		}
	}
	return nil
}
