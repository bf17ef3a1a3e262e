// Package validation decides whether a maintenance submission may be stored.
//
// An Engine runs a fixed, ordered catalog of independent rules against a
// submission and the history of accepted records. Every rule always runs;
// their errors and warnings are concatenated in catalog order. A submission
// is valid when no rule reported an error.
package validation

import (
	"time"

	"github.com/ukydev/equipment-maintenance/internal/models"
)

// Result is what a single rule contributes to a verdict.
type Result struct {
	Errors   []string
	Warnings []string
}

func (r *Result) addError(msg string) {
	r.Errors = append(r.Errors, msg)
}

func (r *Result) addWarning(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

// Rule is one independent check. Implementations must not modify the
// submission or the history.
type Rule interface {
	Name() string
	Check(sub models.MaintenanceSubmission, history []models.MaintenanceRecord, now time.Time) Result
}

// Observer is told about the outcome of every rule run.
type Observer func(rule string, res Result)

// Limits are the numeric thresholds used by the catalog.
type Limits struct {
	FutureTolerance    time.Duration
	BackfillWindow     time.Duration
	SequenceWindowDays int
	MinDescription     int
	MaxDescription     int
}

// DefaultLimits returns the thresholds used in production.
func DefaultLimits() Limits {
	return Limits{
		FutureTolerance:    time.Minute,
		BackfillWindow:     30 * 24 * time.Hour,
		SequenceWindowDays: 7,
		MinDescription:     10,
		MaxDescription:     2000,
	}
}

// Engine evaluates submissions against a rule catalog.
type Engine struct {
	rules    []Rule
	now      func() time.Time
	observer Observer
}

// Option configures an Engine.
type Option func(*engineConfig)

type engineConfig struct {
	vocab    Vocabulary
	limits   Limits
	now      func() time.Time
	rules    []Rule
	observer Observer
}

// WithVocabulary replaces the default vocabulary.
func WithVocabulary(v Vocabulary) Option {
	return func(c *engineConfig) { c.vocab = v }
}

// WithLimits replaces the default thresholds.
func WithLimits(l Limits) Option {
	return func(c *engineConfig) { c.limits = l }
}

// WithClock sets the source of the current time.
func WithClock(now func() time.Time) Option {
	return func(c *engineConfig) { c.now = now }
}

// WithRules replaces the default catalog entirely.
func WithRules(rules ...Rule) Option {
	return func(c *engineConfig) { c.rules = rules }
}

// WithObserver registers a callback invoked after each rule.
func WithObserver(o Observer) Option {
	return func(c *engineConfig) { c.observer = o }
}

// NewEngine creates an engine with the default catalog unless WithRules is given.
func NewEngine(opts ...Option) *Engine {
	cfg := engineConfig{
		vocab:  DefaultVocabulary(),
		limits: DefaultLimits(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	rules := cfg.rules
	if rules == nil {
		rules = DefaultCatalog(cfg.vocab, cfg.limits)
	}
	return &Engine{
		rules:    rules,
		now:      cfg.now,
		observer: cfg.observer,
	}
}

// DefaultCatalog returns the rules in the order their messages are reported.
func DefaultCatalog(vocab Vocabulary, limits Limits) []Rule {
	v := vocab.normalized()
	return []Rule{
		BasicFieldsRule{vocab: v, limits: limits},
		DuplicateRule{},
		TemporalSequenceRule{vocab: v, windowDays: limits.SequenceWindowDays},
		ContextualDescriptionRule{vocab: v},
		TemporalLimitsRule{window: limits.BackfillWindow},
		IdentifierSanityRule{},
	}
}

// Rules returns the names of the catalog in evaluation order.
func (e *Engine) Rules() []string {
	names := make([]string, len(e.rules))
	for i, r := range e.rules {
		names[i] = r.Name()
	}
	return names
}

// Evaluate runs every rule and aggregates the verdict. The clock is read once
// so all rules see the same instant.
func (e *Engine) Evaluate(sub models.MaintenanceSubmission, history []models.MaintenanceRecord) models.Verdict {
	now := e.now().UTC()
	var errs, warnings []string
	for _, rule := range e.rules {
		res := rule.Check(sub, history, now)
		if e.observer != nil {
			e.observer(rule.Name(), res)
		}
		errs = append(errs, res.Errors...)
		warnings = append(warnings, res.Warnings...)
	}
	return models.NewVerdict(errs, warnings)
}
