// Package scoring computes composite rationalization scores for
// applications from weighted business and technical dimensions.
package scoring

import (
	"fmt"
	"math"

	"github.com/opensource-portfolio/kestrel/internal/domain"
)

// Engine computes a composite 0-100 score per application from a
// configurable weighted combination of dimensions. The exact linear
// combination is documented on domain.ScoringWeights; the TIME framework
// thresholds assume it.
type Engine struct {
	weights domain.ScoringWeights
}

// NewEngine creates a scoring engine. Weights are validated once here;
// invalid configuration fails construction.
func NewEngine(weights domain.ScoringWeights) (*Engine, error) {
	if err := weights.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scoring weights: %w", err)
	}
	return &Engine{weights: weights}, nil
}

// Weights returns the configured weight set.
func (e *Engine) Weights() domain.ScoringWeights { return e.weights }

// CalculateScore computes and attaches the composite score for one
// application. The input is cloned; the caller's record is not mutated.
func (e *Engine) CalculateScore(app *domain.Application) *domain.Application {
	out := app.Clone()
	out.CompositeScore = e.composite(out)
	return out
}

// BatchCalculateScores scores every application in the batch. Records are
// independent; order is preserved. A record with a boundary data error
// keeps the neutral defaults it was normalized with and is still scored.
func (e *Engine) BatchCalculateScores(apps []*domain.Application) []*domain.Application {
	out := make([]*domain.Application, len(apps))
	for i, app := range apps {
		out[i] = e.CalculateScore(app)
	}
	return out
}

func (e *Engine) composite(app *domain.Application) float64 {
	w := e.weights

	usageNorm := math.Min(app.Usage/w.MaxUsage*10, 10)
	costEff := 10 * (1 - math.Min(app.Cost/w.MaxCost, 1.0))

	score := (domain.Clamp10(app.BusinessValue)*w.BusinessValue +
		domain.Clamp10(app.StrategicFit)*w.StrategicFit +
		domain.Clamp10(app.TechHealth)*w.TechHealth +
		domain.Clamp10(app.Security)*w.Security +
		usageNorm*w.Usage +
		costEff*w.CostEfficiency) * 10

	// Weighted dimensions are each in [0,10] and weights sum to 1, so the
	// score is already in [0,100]; the clamp guards weight-sum drift.
	return round2(math.Max(0, math.Min(100, score)))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
