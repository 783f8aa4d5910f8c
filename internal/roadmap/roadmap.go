// Package roadmap sequences rationalization actions into a phased delivery
// plan with effort and impact scoring, dependency blocking, and timeline
// generation.
package roadmap

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/opensource-portfolio/kestrel/internal/domain"
)

// Effort dimension weights. Normalized cost dominates, followed by
// integration surface and user-facing change management.
const (
	effortWeightCost         = 0.30
	effortWeightIntegrations = 0.25
	effortWeightUsers        = 0.20
	effortWeightComplexity   = 0.15
	effortWeightAge          = 0.10
)

// Impact dimension weights.
const (
	impactWeightSavings = 0.35
	impactWeightHealth  = 0.25
	impactWeightRisk    = 0.20
	impactWeightValue   = 0.20
)

// phaseSpec is static phase configuration. Assignment boundaries are
// inclusive upper effort bounds.
type phaseSpec struct {
	key           string
	name          string
	description   string
	maxEffort     float64
	durationWeeks int
}

var phaseSpecs = []phaseSpec{
	{"quick_wins", "Quick Wins", "High impact, low effort - deliver immediate value", 30, 12},
	{"short_term", "Short-term Priorities", "Critical modernizations and strategic retirements", 50, 24},
	{"medium_term", "Medium-term Initiatives", "Complex consolidations and platform migrations", 70, 36},
	{"long_term", "Long-term Strategy", "Strategic transformations and large-scale modernization", 100, 52},
}

// DependencyWarning flags an action blocked by a planned retirement.
type DependencyWarning struct {
	AppName        string `json:"app_name"`
	ActionType     string `json:"action_type"`
	BlockedBy      string `json:"blocked_by"`
	Severity       string `json:"severity"`
	Recommendation string `json:"recommendation"`
}

// MatrixEntry is one point of the effort versus impact matrix.
type MatrixEntry struct {
	AppName          string  `json:"app_name"`
	ActionType       string  `json:"action_type"`
	Effort           float64 `json:"effort"`
	Impact           float64 `json:"impact"`
	PriorityScore    float64 `json:"priority_score"`
	EstimatedSavings float64 `json:"estimated_savings"`
	Quadrant         string  `json:"quadrant"`
}

// Engine generates a prioritized multi-phase roadmap from a portfolio
// snapshot. Actions are identified once and reused across views.
type Engine struct {
	apps         []*domain.Application
	maxCost      float64
	dependencies map[string][]string
	now          func() time.Time

	actions []domain.RoadmapAction
}

// New snapshots the portfolio, extracts dependencies, and identifies
// actions eagerly so every accessor works on the same plan.
func New(apps []*domain.Application) *Engine {
	e := &Engine{
		apps:    domain.CloneAll(apps),
		maxCost: 1,
		now:     time.Now,
	}
	for _, app := range e.apps {
		if app.Cost > e.maxCost {
			e.maxCost = app.Cost
		}
	}
	e.dependencies = e.extractDependencies()
	e.actions = e.identifyActions()
	return e
}

// Actions returns the identified actions in descending priority order.
func (e *Engine) Actions() []domain.RoadmapAction {
	return append([]domain.RoadmapAction(nil), e.actions...)
}

// extractDependencies scans application descriptions for dependency
// phrases and resolves mentions of other portfolio app names. Explicit
// dependency lists on the record take precedence.
func (e *Engine) extractDependencies() map[string][]string {
	deps := map[string][]string{}

	for _, app := range e.apps {
		if len(app.Dependencies) > 0 {
			deps[app.Name] = append([]string(nil), app.Dependencies...)
			continue
		}

		description := strings.ToLower(app.Description)
		if description == "" {
			continue
		}
		if !strings.Contains(description, "depends on") &&
			!strings.Contains(description, "requires") &&
			!strings.Contains(description, "integrates with") {
			continue
		}

		var found []string
		for _, other := range e.apps {
			if other.Name == app.Name || other.Name == "" {
				continue
			}
			if strings.Contains(description, strings.ToLower(other.Name)) {
				found = append(found, other.Name)
			}
		}
		if len(found) > 0 {
			deps[app.Name] = found
		}
	}
	return deps
}

// effortScore estimates delivery effort on a 0-100 scale.
func (e *Engine) effortScore(app *domain.Application) float64 {
	costNorm := 0.0
	if e.maxCost > 0 {
		costNorm = math.Min(100, app.Cost/e.maxCost*100)
	}

	integration := 50.0
	category := strings.ToLower(app.Category)
	switch {
	case containsAny(category, "core", "critical", "infrastructure", "platform"):
		integration = 80
	case containsAny(category, "standalone", "utility", "tool"):
		integration = 20
	}

	users := app.BusinessValue * 10
	complexity := (10 - app.TechHealth) * 10
	age := (10 - app.TechHealth) * 10

	effort := costNorm*effortWeightCost +
		integration*effortWeightIntegrations +
		users*effortWeightUsers +
		complexity*effortWeightComplexity +
		age*effortWeightAge
	return round1(effort)
}

// impactScore estimates organizational benefit on a 0-100 scale. The
// savings component depends on the action kind.
func (e *Engine) impactScore(app *domain.Application, actionType string) float64 {
	var savings float64
	switch actionType {
	case domain.ActionKindRetire:
		if e.maxCost > 0 {
			savings = 100 * (app.Cost / e.maxCost)
		}
	case domain.ActionKindConsolidate:
		if e.maxCost > 0 {
			savings = 70 * (app.Cost / e.maxCost)
		}
	case domain.ActionKindModernize:
		savings = 30
	}

	var health float64
	switch actionType {
	case domain.ActionKindModernize:
		health = (10 - app.TechHealth) * 10
	case domain.ActionKindRetire:
		health = app.TechHealth * 5
	default:
		health = 50
	}

	risk := (10 - app.TechHealth) * 10

	var value float64
	switch {
	case actionType == domain.ActionKindModernize && app.BusinessValue >= 7:
		value = 90
	case actionType == domain.ActionKindRetire && app.BusinessValue <= 4:
		value = 80
	default:
		value = app.BusinessValue * 10
	}

	impact := savings*impactWeightSavings +
		health*impactWeightHealth +
		risk*impactWeightRisk +
		value*impactWeightValue
	return round1(impact)
}

// identifyActions selects at most one action per application using the
// rule ladder (retire, modernize, consolidate, in that order), then sorts
// by priority score descending. Priority = impact - 0.5 * effort.
func (e *Engine) identifyActions() []domain.RoadmapAction {
	var actions []domain.RoadmapAction

	for _, app := range e.apps {
		health := app.TechHealth
		value := app.BusinessValue

		switch {
		case health <= 3 && value <= 4:
			effort := e.effortScore(app)
			impact := e.impactScore(app, domain.ActionKindRetire)
			actions = append(actions, domain.RoadmapAction{
				AppName:       app.Name,
				ActionType:    domain.ActionKindRetire,
				Effort:        effort,
				Impact:        impact,
				PriorityScore: round1(impact - effort*0.5),
				Cost:          app.Cost,
				Health:        health,
				Value:         value,
				Rationale: fmt.Sprintf("Low health (%.0f/10) and low business value (%.0f/10) - retirement candidate",
					health, value),
				EstimatedSavings: app.Cost,
				Dependencies:     e.dependencies[app.Name],
			})

		case health <= 5 && value >= 7:
			effort := math.Min(100, e.effortScore(app)*1.2)
			impact := e.impactScore(app, domain.ActionKindModernize)
			actions = append(actions, domain.RoadmapAction{
				AppName:       app.Name,
				ActionType:    domain.ActionKindModernize,
				Effort:        effort,
				Impact:        impact,
				PriorityScore: round1(impact - effort*0.5),
				Cost:          app.Cost,
				Health:        health,
				Value:         value,
				Rationale: fmt.Sprintf("Critical application (value %.0f/10) with aging technology (health %.0f/10)",
					value, health),
				EstimatedSavings: app.Cost * 0.2,
				Dependencies:     e.dependencies[app.Name],
			})

		case value <= 6 && health <= 6 && app.Cost > 50000:
			effort := e.effortScore(app) * 0.9
			impact := e.impactScore(app, domain.ActionKindConsolidate)
			actions = append(actions, domain.RoadmapAction{
				AppName:       app.Name,
				ActionType:    domain.ActionKindConsolidate,
				Effort:        effort,
				Impact:        impact,
				PriorityScore: round1(impact - effort*0.5),
				Cost:          app.Cost,
				Health:        health,
				Value:         value,
				Rationale: fmt.Sprintf("Moderate value and health with significant cost ($%.0f) - consolidation opportunity",
					app.Cost),
				EstimatedSavings: app.Cost * 0.3,
				Dependencies:     e.dependencies[app.Name],
			})
		}
	}

	sort.SliceStable(actions, func(i, j int) bool {
		return actions[i].PriorityScore > actions[j].PriorityScore
	})
	return actions
}

// AssignPhases buckets actions into phases by effort (inclusive upper
// bounds 30/50/70). An action whose dependency targets a planned
// retirement is blocked and cannot land in the first two phases.
func (e *Engine) AssignPhases() map[string][]domain.RoadmapAction {
	retiring := map[string]bool{}
	for _, a := range e.actions {
		if a.ActionType == domain.ActionKindRetire {
			retiring[a.AppName] = true
		}
	}

	phases := map[string][]domain.RoadmapAction{}
	for _, spec := range phaseSpecs {
		phases[spec.key] = []domain.RoadmapAction{}
	}

	for i := range e.actions {
		action := e.actions[i]
		for _, dep := range action.Dependencies {
			if retiring[dep] {
				action.BlockedBy = dep
				e.actions[i].BlockedBy = dep
				break
			}
		}
		blocked := action.BlockedBy != ""

		switch {
		case action.Effort <= 30 && !blocked:
			phases["quick_wins"] = append(phases["quick_wins"], action)
		case action.Effort <= 50 && !blocked:
			phases["short_term"] = append(phases["short_term"], action)
		case action.Effort <= 70:
			phases["medium_term"] = append(phases["medium_term"], action)
		default:
			phases["long_term"] = append(phases["long_term"], action)
		}
	}
	return phases
}

// Timeline lays the four phases out sequentially from today. Each phase
// starts the day after the previous one ends.
func (e *Engine) Timeline() []domain.Phase {
	assigned := e.AssignPhases()
	start := e.now()

	timeline := make([]domain.Phase, 0, len(phaseSpecs))
	for _, spec := range phaseSpecs {
		actions := assigned[spec.key]
		end := start.Add(time.Duration(spec.durationWeeks) * 7 * 24 * time.Hour)

		var savings, impactSum float64
		for _, a := range actions {
			savings += a.EstimatedSavings
			impactSum += a.Impact
		}
		avgImpact := 0.0
		if len(actions) > 0 {
			avgImpact = round1(impactSum / float64(len(actions)))
		}

		timeline = append(timeline, domain.Phase{
			Key:           spec.key,
			Name:          spec.name,
			Description:   spec.description,
			StartDate:     start.Format("2006-01-02"),
			EndDate:       end.Format("2006-01-02"),
			DurationWeeks: spec.durationWeeks,
			Actions:       actions,
			TotalActions:  len(actions),
			TotalSavings:  round2(savings),
			AvgImpact:     avgImpact,
			Milestones:    milestones(actions, spec.name),
		})

		start = end.Add(24 * time.Hour)
	}
	return timeline
}

// milestones builds the descriptive checkpoints for a phase. Empty phases
// carry no milestones.
func milestones(actions []domain.RoadmapAction, phaseName string) []domain.Milestone {
	if len(actions) == 0 {
		return []domain.Milestone{}
	}

	ms := []domain.Milestone{{
		Name:          phaseName + " Kickoff",
		Description:   "Phase planning and resource allocation",
		SuccessMetric: "Teams assigned and timeline confirmed",
	}}

	var highImpact []domain.RoadmapAction
	for _, a := range actions {
		if a.Impact >= 70 {
			highImpact = append(highImpact, a)
		}
	}
	if len(highImpact) > 0 {
		var savings float64
		for _, a := range highImpact {
			savings += a.EstimatedSavings
		}
		ms = append(ms, domain.Milestone{
			Name:          "High-Impact Actions Completed",
			Description:   fmt.Sprintf("%d critical actions delivered", len(highImpact)),
			SuccessMetric: fmt.Sprintf("$%.0f in savings realized", savings),
		})
	}

	var total float64
	for _, a := range actions {
		total += a.EstimatedSavings
	}
	ms = append(ms, domain.Milestone{
		Name:          phaseName + " Complete",
		Description:   fmt.Sprintf("All %d actions delivered", len(actions)),
		SuccessMetric: fmt.Sprintf("$%.0f annual savings achieved", total),
	})
	return ms
}

// EffortImpactMatrix labels every action with its prioritization quadrant.
func (e *Engine) EffortImpactMatrix() []MatrixEntry {
	entries := make([]MatrixEntry, 0, len(e.actions))
	for _, a := range e.actions {
		entries = append(entries, MatrixEntry{
			AppName:          a.AppName,
			ActionType:       a.ActionType,
			Effort:           a.Effort,
			Impact:           a.Impact,
			PriorityScore:    a.PriorityScore,
			EstimatedSavings: a.EstimatedSavings,
			Quadrant:         quadrant(a.Effort, a.Impact),
		})
	}
	return entries
}

func quadrant(effort, impact float64) string {
	switch {
	case impact >= 60 && effort <= 40:
		return "Quick Wins"
	case impact >= 60:
		return "Strategic Priorities"
	case effort <= 40:
		return "Low Priority"
	default:
		return "Reconsider"
	}
}

// DependencyWarnings lists actions blocked by a planned retirement.
// Severity is high when the blocked action's impact is at least 70.
func (e *Engine) DependencyWarnings() []DependencyWarning {
	e.AssignPhases()

	var warnings []DependencyWarning
	for _, a := range e.actions {
		if a.BlockedBy == "" {
			continue
		}
		severity := "medium"
		if a.Impact >= 70 {
			severity = "high"
		}
		warnings = append(warnings, DependencyWarning{
			AppName:        a.AppName,
			ActionType:     a.ActionType,
			BlockedBy:      a.BlockedBy,
			Severity:       severity,
			Recommendation: fmt.Sprintf("Review dependency on %s before proceeding", a.BlockedBy),
		})
	}
	return warnings
}

// Summary builds the executive view over the full timeline.
func (e *Engine) Summary() domain.RoadmapSummary {
	timeline := e.Timeline()

	totalActions := 0
	var totalSavings float64
	totalWeeks := 0
	for _, phase := range timeline {
		totalActions += phase.TotalActions
		totalSavings += phase.TotalSavings
		totalWeeks += phase.DurationWeeks
	}

	breakdown := map[string]int{}
	blocked := 0
	var impactSum float64
	for _, a := range e.actions {
		breakdown[a.ActionType]++
		impactSum += a.Impact
		if a.BlockedBy != "" {
			blocked++
		}
	}
	avgImpact := 0.0
	if len(e.actions) > 0 {
		avgImpact = round1(impactSum / float64(len(e.actions)))
	}

	quickWinsCount := 0
	var quickWinsSavings float64
	if len(timeline) > 0 {
		quickWinsCount = timeline[0].TotalActions
		quickWinsSavings = timeline[0].TotalSavings
	}

	return domain.RoadmapSummary{
		TotalActions:     totalActions,
		TotalSavings:     round2(totalSavings),
		DurationMonths:   float64(totalWeeks) / 4,
		ActionBreakdown:  breakdown,
		QuickWinsCount:   quickWinsCount,
		QuickWinsSavings: quickWinsSavings,
		BlockedActions:   blocked,
		AvgImpact:        avgImpact,
		Timeline:         timeline,
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
