package ai

import (
	"context"
	"strings"

	"github.com/pmorales/jiratools/internal/analysis"
)

// Summarizer turns analysis results into narrative text. A nil Generator is
// valid and means fallbacks only.
type Summarizer struct {
	gen   Generator
	warnf func(format string, args ...any)
}

// SummarizerOption configures a Summarizer.
type SummarizerOption func(*Summarizer)

// WithWarnf installs a sink for degradation warnings emitted when a
// generator call fails and the fallback takes over.
func WithWarnf(fn func(format string, args ...any)) SummarizerOption {
	return func(s *Summarizer) { s.warnf = fn }
}

// NewSummarizer builds a Summarizer around an optional generator.
func NewSummarizer(gen Generator, opts ...SummarizerOption) *Summarizer {
	s := &Summarizer{gen: gen}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Enabled reports whether a generator is configured.
func (s *Summarizer) Enabled() bool { return s.gen != nil }

func (s *Summarizer) warn(format string, args ...any) {
	if s.warnf != nil {
		s.warnf(format, args...)
	}
}

// generate runs the generator and falls back on any failure or empty
// response. The fallback result is always usable; the warning records why it
// was used.
func (s *Summarizer) generate(ctx context.Context, kind, system, user, fallback string) string {
	if s.gen == nil {
		return fallback
	}
	text, err := s.gen.Generate(ctx, system, user)
	if err != nil {
		s.warn("%s generation failed, using fallback: %v", kind, err)
		return fallback
	}
	text = strings.TrimSpace(text)
	if text == "" {
		s.warn("%s generation returned empty text, using fallback", kind)
		return fallback
	}
	return text
}

// SprintAchievements narrates what one sprint delivered.
func (s *Summarizer) SprintAchievements(ctx context.Context, result analysis.SprintResult) string {
	return s.generate(ctx, "sprint summary",
		sprintSystemPrompt,
		sprintAchievementPrompt(result),
		fallbackSprintSummary(result))
}

// MultiSprintSummary narrates performance across several sprints.
func (s *Summarizer) MultiSprintSummary(ctx context.Context, result analysis.MultiSprintResult) string {
	return s.generate(ctx, "multi-sprint summary",
		multiSprintSystemPrompt,
		multiSprintPrompt(result),
		fallbackMultiSprintSummary(result))
}

// HygieneInsights narrates backlog health with prioritized actions.
func (s *Summarizer) HygieneInsights(ctx context.Context, report analysis.HygieneReport) string {
	return s.generate(ctx, "hygiene insights",
		hygieneInsightsSystemPrompt,
		hygienePrompt(report, hygieneInsightsClosing),
		fallbackHygieneInsights(report))
}

// HygieneRecommendations produces the short two-action form of the hygiene
// narrative used in published reports.
func (s *Summarizer) HygieneRecommendations(ctx context.Context, report analysis.HygieneReport) string {
	return s.generate(ctx, "hygiene recommendations",
		hygieneRecommendationsSystemPrompt,
		hygienePrompt(report, hygieneRecommendationsClosing),
		fallbackHygieneRecommendations(report))
}
