// Package recommend maps TIME classifications to concrete portfolio
// actions and produces a stable priority ordering across the portfolio.
package recommend

import (
	"fmt"
	"sort"

	"github.com/opensource-portfolio/kestrel/internal/domain"
)

// Action priorities: lower number = more urgent. The mapping is monotonic
// in composite score within each category: a higher composite never maps
// to a more drastic action than a lower one in the same category.
//
//	Invest:    composite >= 80            -> INVEST (1)
//	           otherwise                  -> RETAIN (2)
//	Tolerate:  composite >= 55            -> MAINTAIN (3)
//	           otherwise                  -> TOLERATE (4)
//	Migrate:   composite <= 35 and
//	           (tech_health <= 3 or
//	            security <= 3)            -> IMMEDIATE_ACTION (0)
//	           otherwise                  -> MIGRATE (5)
//	Eliminate: redundancy flag set        -> CONSOLIDATE (6)
//	           otherwise                  -> RETIRE (7)
//
// The engine carries no per-run state; one instance is safe to share
// across concurrent batches.
type Engine struct{}

// NewEngine creates a recommendation engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Recommend attaches a recommended action, priority, and rationale to one
// categorized application. The input is cloned.
func (e *Engine) Recommend(app *domain.Application) *domain.Application {
	out := app.Clone()
	action, priority, rationale := e.mapAction(out)
	out.RecommendedAction = action
	out.ActionPriority = priority
	out.ActionRationale = rationale
	return out
}

// BatchRecommend processes every application, preserving order.
func (e *Engine) BatchRecommend(apps []*domain.Application) []*domain.Application {
	out := make([]*domain.Application, len(apps))
	for i, app := range apps {
		out[i] = e.Recommend(app)
	}
	return out
}

func (e *Engine) mapAction(app *domain.Application) (domain.ActionType, int, string) {
	score := app.CompositeScore

	switch app.TIMECategory {
	case domain.CategoryInvest:
		if score >= 80 {
			return domain.ActionInvest, 1, fmt.Sprintf(
				"Top performer (%.1f/100). Expand capability and fund growth.", score)
		}
		return domain.ActionRetain, 2, fmt.Sprintf(
			"Solid performer (%.1f/100). Retain and monitor for investment opportunities.", score)

	case domain.CategoryTolerate:
		if score >= 55 {
			return domain.ActionMaintain, 3, fmt.Sprintf(
				"Valuable but imperfect (%.1f/100). Maintain with planned improvements.", score)
		}
		return domain.ActionTolerate, 4, fmt.Sprintf(
			"Below-par platform (%.1f/100). Tolerate short-term, revisit next cycle.", score)

	case domain.CategoryMigrate:
		if score <= 35 && (app.TechHealth <= 3 || app.Security <= 3) {
			return domain.ActionImmediate, 0, fmt.Sprintf(
				"Severe technical or security exposure (%.1f/100). Immediate action required.", score)
		}
		return domain.ActionMigrate, 5, fmt.Sprintf(
			"Migration candidate (%.1f/100). Plan replatform or consolidation.", score)

	case domain.CategoryEliminate:
		if app.Redundancy == 1 {
			return domain.ActionConsolidate, 6, fmt.Sprintf(
				"Redundant system (%.1f/100). Consolidate into the primary platform.", score)
		}
		return domain.ActionRetire, 7, fmt.Sprintf(
			"Low value and quality (%.1f/100). Retire and decommission.", score)
	}

	// Unclassified records should not reach the recommender; degrade the
	// same way the classifier does rather than failing the batch.
	return domain.ActionTolerate, 4, "Unclassified application. Tolerate pending review."
}

// PrioritizeActions returns a stable total order over the portfolio:
// priority ascending, then composite score descending, then name ascending
// for determinism on ties.
func (e *Engine) PrioritizeActions(apps []*domain.Application) []domain.PrioritizedAction {
	ordered := make([]domain.PrioritizedAction, 0, len(apps))
	for _, app := range apps {
		ordered = append(ordered, domain.PrioritizedAction{
			Name:           app.Name,
			Action:         app.RecommendedAction,
			Priority:       app.ActionPriority,
			CompositeScore: app.CompositeScore,
			Rationale:      app.ActionRationale,
		})
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		if a.CompositeScore != b.CompositeScore {
			return a.CompositeScore > b.CompositeScore
		}
		return a.Name < b.Name
	})
	return ordered
}

// Distribution counts recommended actions across a processed batch.
// Actions that never occur are omitted.
func Distribution(apps []*domain.Application) map[string]int {
	out := make(map[string]int)
	for _, app := range apps {
		if app.RecommendedAction != "" {
			out[string(app.RecommendedAction)]++
		}
	}
	return out
}
