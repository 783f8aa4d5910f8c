// Package timeframe implements the TIME (Tolerate, Invest, Migrate,
// Eliminate) quadrant classifier for application portfolios.
package timeframe

import (
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/opensource-portfolio/kestrel/internal/domain"
)

// Framework classifies applications into TIME categories using a quadrant
// model of business value vs. technical quality plus override rules.
//
// Classification is a pure function of the inputs and thresholds; the
// framework carries no per-run state, so one instance is safe to share
// across concurrent batches.
type Framework struct {
	thresholds domain.TIMEThresholds
}

// New creates a TIME framework. Thresholds are validated once; invalid
// configuration fails construction, never silently clamps.
func New(thresholds domain.TIMEThresholds) (*Framework, error) {
	validated, err := domain.NewTIMEThresholds(thresholds)
	if err != nil {
		return nil, fmt.Errorf("invalid TIME thresholds: %w", err)
	}
	return &Framework{thresholds: validated}, nil
}

// Thresholds returns the validated threshold configuration.
func (f *Framework) Thresholds() domain.TIMEThresholds { return f.thresholds }

// BusinessValueScore computes the BV axis:
//
//	BV = business_value*0.5 + usage_norm*0.2 + strategic_fit*0.3
//
// where usage_norm maps raw usage into [0,10] against maxUsage (capped).
func BusinessValueScore(businessValue, usage, strategicFit, maxUsage float64) float64 {
	if maxUsage <= 0 {
		maxUsage = 1000
	}
	usageNorm := math.Min(usage/maxUsage*10, 10)
	return round2(businessValue*0.5 + usageNorm*0.2 + strategicFit*0.3)
}

// TechnicalQualityScore computes the TQ axis:
//
//	TQ = tech_health*0.4 + security*0.3 + strategic_fit*0.2 + cost_eff*0.1
//
// where cost_eff = 10*(1 - min(cost/maxCost, 1)). Higher cost relative to
// the cap linearly lowers TQ.
func TechnicalQualityScore(techHealth, security, strategicFit, cost, maxCost float64) float64 {
	if maxCost <= 0 {
		maxCost = 300000
	}
	costEff := 10 * (1 - math.Min(cost/maxCost, 1.0))
	return round2(techHealth*0.4 + security*0.3 + strategicFit*0.2 + costEff*0.1)
}

// Categorize classifies one application. The input is cloned and returned
// with time_category, time_rationale, and the BV/TQ axis scores attached.
// Deterministic: identical inputs always produce identical outputs.
func (f *Framework) Categorize(app *domain.Application) *domain.Application {
	out := app.Clone()

	if out.DataError != "" {
		// Poisoned record: never abort the batch. Default to Tolerate with
		// an explanatory rationale and keep going.
		slog.Error("categorization failed, defaulting to Tolerate",
			"app", out.Name,
			"error", out.DataError,
		)
		out.TIMECategory = domain.CategoryTolerate
		out.TIMERationale = "Unable to categorize - data quality issues."
		out.BVScore = 5.0
		out.TQScore = 5.0
		return out
	}

	bv := BusinessValueScore(out.BusinessValue, out.Usage, out.StrategicFit, 1000)
	tq := TechnicalQualityScore(out.TechHealth, out.Security, out.StrategicFit, out.Cost, 300000)

	category, rationale := f.apply(out, bv, tq)

	out.BVScore = bv
	out.TQScore = tq
	out.TIMECategory = category
	out.TIMERationale = rationale
	return out
}

// apply evaluates the quadrant logic in fixed order; first match wins.
func (f *Framework) apply(app *domain.Application, bv, tq float64) (domain.TIMECategory, string) {
	t := f.thresholds

	highBV := bv >= t.BusinessValueThreshold
	highTQ := tq >= t.TechnicalQualityThreshold

	criticalBusiness := app.BusinessValue >= t.CriticalBusinessValue
	poorTech := app.TechHealth <= t.PoorTechHealth
	poorSecurity := app.Security <= t.PoorSecurity
	isRedundant := app.Redundancy == 1
	lowComposite := app.CompositeScore <= t.CompositeScoreLow

	switch {
	case highBV && highTQ:
		return domain.CategoryInvest, fmt.Sprintf(
			"High business value (BV: %.1f/10) and strong technical quality (TQ: %.1f/10). "+
				"Continue investment to maximize returns. Composite score: %.1f/100.",
			bv, tq, app.CompositeScore)

	case highBV && !highTQ:
		if criticalBusiness && (poorTech || poorSecurity) {
			return domain.CategoryMigrate, fmt.Sprintf(
				"Critical business value (%.1f/10) but poor technical quality (TQ: %.1f/10). "+
					"Technical debt requires urgent migration.",
				app.BusinessValue, tq)
		}
		return domain.CategoryTolerate, fmt.Sprintf(
			"High business value (BV: %.1f/10) justifies retention despite moderate "+
				"technical quality (TQ: %.1f/10). Plan improvements.",
			bv, tq)

	case !highBV && highTQ:
		if isRedundant {
			return domain.CategoryEliminate, fmt.Sprintf(
				"Redundant functionality with low business value (BV: %.1f/10). "+
					"Consolidate with primary system to reduce complexity.",
				bv)
		}
		return domain.CategoryMigrate, fmt.Sprintf(
			"Good technical quality (TQ: %.1f/10) but limited business value (BV: %.1f/10). "+
				"Consider consolidation or repurposing.",
			tq, bv)

	case !highBV && !highTQ:
		if lowComposite || isRedundant {
			return domain.CategoryEliminate, fmt.Sprintf(
				"Low business value (BV: %.1f/10) and poor technical quality (TQ: %.1f/10). "+
					"Strong candidate for retirement.",
				bv, tq)
		}
		return domain.CategoryMigrate, fmt.Sprintf(
			"Moderate scores suggest migration opportunity. Composite score: %.1f/100.",
			app.CompositeScore)
	}

	// The four quadrant branches above are exhaustive over (highBV, highTQ);
	// reaching this fallback signals a logic-coverage bug, so it is logged
	// distinctly from expected default handling.
	slog.Warn("TIME quadrant fallback reached",
		"app", app.Name,
		"bv_score", bv,
		"tq_score", tq,
		"composite_score", app.CompositeScore,
	)
	if app.CompositeScore >= 60 {
		return domain.CategoryTolerate, fmt.Sprintf(
			"Moderate composite score (%.1f/100). Monitor and reassess.", app.CompositeScore)
	}
	return domain.CategoryMigrate, "Below-threshold scores suggest migration planning needed."
}

// BatchCategorize classifies every application in the batch, preserving
// order. Per-record data errors degrade that record only; the batch always
// completes.
func (f *Framework) BatchCategorize(apps []*domain.Application) []*domain.Application {
	out := make([]*domain.Application, len(apps))
	for i, app := range apps {
		out[i] = f.Categorize(app)
	}
	return out
}

// CategorySummary reports category counts and percentages for one batch.
type CategorySummary struct {
	Total        int                `json:"total"`
	Distribution map[string]int     `json:"distribution"`
	Percentages  map[string]float64 `json:"percentages"`
}

// Summarize computes total, per-category counts, and percentages over a
// categorized batch. All four categories are always present in the
// distribution, zero-count ones included.
func Summarize(apps []*domain.Application) CategorySummary {
	s := CategorySummary{
		Total: len(apps),
		Distribution: map[string]int{
			domain.CategoryInvest.String():    0,
			domain.CategoryTolerate.String():  0,
			domain.CategoryMigrate.String():   0,
			domain.CategoryEliminate.String(): 0,
		},
		Percentages: make(map[string]float64, 4),
	}
	for _, app := range apps {
		s.Distribution[app.TIMECategory.String()]++
	}
	if s.Total > 0 {
		for cat, n := range s.Distribution {
			s.Percentages[cat] = math.Round(float64(n)/float64(s.Total)*1000) / 10
		}
	}
	return s
}

// Matrix groups application names by TIME category quadrant.
func Matrix(apps []*domain.Application) map[string][]string {
	m := map[string][]string{
		"invest":    {},
		"tolerate":  {},
		"migrate":   {},
		"eliminate": {},
	}
	for _, app := range apps {
		key := strings.ToLower(app.TIMECategory.String())
		if _, ok := m[key]; ok {
			m[key] = append(m[key], app.Name)
		}
	}
	return m
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
