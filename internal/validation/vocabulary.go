package validation

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Vocabulary holds the locale specific terms the rules match against.
type Vocabulary struct {
	Preventive     string   `yaml:"preventive"`
	Corrective     string   `yaml:"corrective"`
	ProblemTerms   []string `yaml:"problem_terms"`
	GenericPhrases []string `yaml:"generic_phrases"`
}

// DefaultVocabulary returns the Spanish vocabulary used by field technicians.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		Preventive: "preventivo",
		Corrective: "correctivo",
		ProblemTerms: []string{
			"falla", "fallo", "problema", "avería", "averia", "error",
			"defecto", "daño", "roto", "descompuesto", "mal funcionamiento",
		},
		GenericPhrases: []string{
			"mantenimiento general", "revision general", "mantenimiento rutinario",
			"revision rutinaria", "mantenimiento normal",
		},
	}
}

// LoadVocabulary reads a YAML vocabulary file. Fields missing from the file
// keep their default values.
func LoadVocabulary(path string) (Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Vocabulary{}, fmt.Errorf("read vocabulary: %w", err)
	}
	v := DefaultVocabulary()
	if err := yaml.Unmarshal(data, &v); err != nil {
		return Vocabulary{}, fmt.Errorf("parse vocabulary: %w", err)
	}
	if err := v.Validate(); err != nil {
		return Vocabulary{}, err
	}
	return v, nil
}

// Validate checks that the vocabulary can drive the rules.
func (v Vocabulary) Validate() error {
	p, c := strings.TrimSpace(v.Preventive), strings.TrimSpace(v.Corrective)
	if p == "" || c == "" {
		return errors.New("vocabulary: preventive and corrective type names are required")
	}
	if strings.EqualFold(p, c) {
		return errors.New("vocabulary: preventive and corrective type names must differ")
	}
	if len(v.ProblemTerms) == 0 {
		return errors.New("vocabulary: at least one problem term is required")
	}
	return nil
}

// normalized returns a copy with every term trimmed and lower-cased.
func (v Vocabulary) normalized() Vocabulary {
	return Vocabulary{
		Preventive:     fold(v.Preventive),
		Corrective:     fold(v.Corrective),
		ProblemTerms:   foldAll(v.ProblemTerms),
		GenericPhrases: foldAll(v.GenericPhrases),
	}
}

func fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func foldAll(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if t = fold(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func containsAny(text string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(text, t) {
			return true
		}
	}
	return false
}
