// Package rationalize orchestrates the scoring, TIME categorization, and
// recommendation stages into a single portfolio analysis.
package rationalize

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/opensource-portfolio/kestrel/internal/domain"
	"github.com/opensource-portfolio/kestrel/internal/recommend"
	"github.com/opensource-portfolio/kestrel/internal/scoring"
	"github.com/opensource-portfolio/kestrel/internal/timeframe"
)

// Engine runs the three pipeline stages in sequence and assembles the
// portfolio summary. Each stage augments records, never removes fields;
// the caller's input list is treated as an immutable snapshot.
type Engine struct {
	scoring   *scoring.Engine
	time      *timeframe.Framework
	recommend *recommend.Engine
}

// New creates an orchestrator with default weights and thresholds.
func New() (*Engine, error) {
	return NewWithConfig(domain.DefaultScoringWeights(), domain.DefaultTIMEThresholds())
}

// NewWithConfig creates an orchestrator with explicit configuration.
// Invalid weights or thresholds fail construction.
func NewWithConfig(weights domain.ScoringWeights, thresholds domain.TIMEThresholds) (*Engine, error) {
	scorer, err := scoring.NewEngine(weights)
	if err != nil {
		return nil, fmt.Errorf("scoring engine: %w", err)
	}
	framework, err := timeframe.New(thresholds)
	if err != nil {
		return nil, fmt.Errorf("time framework: %w", err)
	}
	return &Engine{
		scoring:   scorer,
		time:      framework,
		recommend: recommend.NewEngine(),
	}, nil
}

// ProcessPortfolio runs Scoring -> TIME -> Recommendation over a snapshot
// of the portfolio and assembles the summary. The summary is derived
// entirely from the batch result, so a single engine serves concurrent
// callers without their runs bleeding into each other. Idempotent for a
// fixed input: only the analysis ID and timestamp differ between calls,
// never the numeric fields.
func (e *Engine) ProcessPortfolio(apps []*domain.Application) *domain.PortfolioAnalysis {
	scored := e.scoring.BatchCalculateScores(apps)
	categorized := e.time.BatchCategorize(scored)
	recommended := e.recommend.BatchRecommend(categorized)

	timeSummary := timeframe.Summarize(recommended)

	summary := domain.Summary{
		TotalApplications: len(recommended),
		TIMEDistribution:  timeSummary.Distribution,
		TIMEPercentages:   timeSummary.Percentages,
		Recommendations:   recommend.Distribution(recommended),
		Matrix:            timeframe.Matrix(recommended),
		PrioritizedOrder:  e.recommend.PrioritizeActions(recommended),
	}

	if len(recommended) > 0 {
		var scoreSum, costSum float64
		for _, app := range recommended {
			scoreSum += app.CompositeScore
			costSum += app.Cost
		}
		summary.AverageScore = math.Round(scoreSum/float64(len(recommended))*100) / 100
		summary.TotalCost = costSum
	}

	return &domain.PortfolioAnalysis{
		ID:           uuid.New().String(),
		Applications: recommended,
		Summary:      summary,
		Timestamp:    time.Now().UTC(),
	}
}

// ProcessApplication runs the full pipeline for a single application.
func (e *Engine) ProcessApplication(app *domain.Application) *domain.Application {
	result := e.ProcessPortfolio([]*domain.Application{app})
	if len(result.Applications) > 0 {
		return result.Applications[0]
	}
	return app
}
