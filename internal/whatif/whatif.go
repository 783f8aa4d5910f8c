// Package whatif simulates hypothetical portfolio transformations
// (retirement, modernization, consolidation) and projects their impact on
// cost, health, and risk without mutating the real portfolio.
package whatif

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/opensource-portfolio/kestrel/internal/domain"
)

// Default heuristics shared by the simulation methods. The modernization
// cost factor (15% of annual cost per health point) and the consolidation
// migration factor (50% of first-year savings) must be preserved exactly
// for reproducibility.
const (
	DefaultHealthImprovement   = 3.0
	DefaultCostReduction       = 0.30
	modernizationCostFactor    = 0.15
	securityImprovementFactor  = 0.4
	consolidationMigrationCost = 0.5
)

// Engine holds an immutable snapshot of the portfolio plus cached baseline
// metrics. Every simulation works on a deep copy of the snapshot; the
// baseline is never mutated.
type Engine struct {
	apps     []*domain.Application
	baseline domain.PortfolioMetrics
}

// New snapshots the portfolio and computes the baseline metrics.
func New(apps []*domain.Application) *Engine {
	snapshot := domain.CloneAll(apps)
	return &Engine{
		apps:     snapshot,
		baseline: Metrics(snapshot),
	}
}

// Baseline returns the cached baseline metrics.
func (e *Engine) Baseline() domain.PortfolioMetrics { return e.baseline }

// Metrics computes aggregate portfolio metrics for a list of applications.
// An empty list yields the zero value, never an error.
func Metrics(apps []*domain.Application) domain.PortfolioMetrics {
	if len(apps) == 0 {
		return domain.PortfolioMetrics{}
	}

	var cost, health, value, security float64
	redundant := 0
	for _, app := range apps {
		cost += app.Cost
		health += app.TechHealth
		value += app.BusinessValue
		security += app.Security
		if app.Redundancy > 0 {
			redundant++
		}
	}
	n := float64(len(apps))

	return domain.PortfolioMetrics{
		TotalApps:       len(apps),
		TotalCost:       cost,
		AvgHealth:       round2(health / n),
		AvgValue:        round2(value / n),
		AvgSecurity:     round2(security / n),
		RedundancyCount: redundant,
		RiskScore:       RiskScore(apps),
	}
}

// RiskScore computes the portfolio risk score in [0,100], lower is better:
//
//	risk = 0.5*(10-avg_health)*10 + 0.3*(10-avg_security)*10 +
//	       0.2*(redundancy_count/n)*20
func RiskScore(apps []*domain.Application) float64 {
	if len(apps) == 0 {
		return 0
	}

	var health, security float64
	redundant := 0
	for _, app := range apps {
		health += app.TechHealth
		security += app.Security
		if app.Redundancy > 0 {
			redundant++
		}
	}
	n := float64(len(apps))
	avgHealth := health / n
	avgSecurity := security / n

	healthRisk := (10 - avgHealth) * 10
	securityRisk := (10 - avgSecurity) * 10
	redundancyRisk := float64(redundant) / n * 20

	total := healthRisk*0.5 + securityRisk*0.3 + redundancyRisk*0.2
	return round1(math.Min(100, math.Max(0, total)))
}

// SimulateRetirement projects retiring the named applications. New-state
// metrics cover the remaining portfolio only; details report the realized
// savings. An empty name list returns a zero-impact baseline-vs-baseline
// result, never an error.
func (e *Engine) SimulateRetirement(names []string) domain.ScenarioResult {
	if len(names) == 0 {
		return e.result("retirement", nil, e.baseline, domain.ScenarioDetails{})
	}

	nameSet := toSet(names)
	var retired, remaining []*domain.Application
	for _, app := range domain.CloneAll(e.apps) {
		if nameSet[app.Name] {
			retired = append(retired, app)
		} else {
			remaining = append(remaining, app)
		}
	}

	var savings, healthSum, valueSum float64
	retiredApps := make([]domain.RetiredApp, 0, len(retired))
	for _, app := range retired {
		savings += app.Cost
		healthSum += app.TechHealth
		valueSum += app.BusinessValue
		retiredApps = append(retiredApps, domain.RetiredApp{
			Name:          app.Name,
			Cost:          app.Cost,
			TechHealth:    app.TechHealth,
			BusinessValue: app.BusinessValue,
		})
	}

	details := domain.ScenarioDetails{
		AppsRetired:      len(retired),
		CostSavings:      savings,
		AvgRetiredHealth: safeAvg(healthSum, len(retired)),
		AvgRetiredValue:  safeAvg(valueSum, len(retired)),
		RetiredApps:      retiredApps,
	}
	return e.result("retirement", names, Metrics(remaining), details)
}

// SimulateModernization projects raising tech health of the named apps by
// healthImprovement (capped at 10) and security by 40% of the improvement
// (capped at 10). One-time cost is 15% of annual cost per health point.
// App count is unchanged.
func (e *Engine) SimulateModernization(names []string, healthImprovement float64) domain.ScenarioResult {
	if len(names) == 0 {
		return e.result("modernization", nil, e.baseline, domain.ScenarioDetails{})
	}
	if healthImprovement <= 0 {
		healthImprovement = DefaultHealthImprovement
	}

	nameSet := toSet(names)
	working := domain.CloneAll(e.apps)

	var oneTimeCost, originalSum, newSum float64
	modernized := make([]domain.ModernizedApp, 0, len(names))
	for _, app := range working {
		if !nameSet[app.Name] {
			continue
		}
		original := app.TechHealth
		app.TechHealth = math.Min(10, original+healthImprovement)
		app.Security = math.Min(10, app.Security+healthImprovement*securityImprovementFactor)
		oneTimeCost += app.Cost * modernizationCostFactor * healthImprovement

		originalSum += original
		newSum += app.TechHealth
		modernized = append(modernized, domain.ModernizedApp{
			Name:           app.Name,
			Cost:           app.Cost,
			OriginalHealth: original,
			NewHealth:      app.TechHealth,
			BusinessValue:  app.BusinessValue,
		})
	}

	details := domain.ScenarioDetails{
		AppsModernized:    len(modernized),
		OneTimeCost:       round2(oneTimeCost),
		HealthImprovement: healthImprovement,
		AvgOriginalHealth: safeAvg(originalSum, len(modernized)),
		AvgNewHealth:      safeAvg(newSum, len(modernized)),
		ModernizedApps:    modernized,
	}
	return e.result("modernization", names, Metrics(working), details)
}

// SimulateConsolidation projects merging each group of applications into
// its highest-business-value member. The survivor's cost drops by
// costReduction; realized savings are the group total minus the survivor's
// new cost; migration cost is half the savings. Groups are processed
// independently in input order; an app claimed by an earlier group is
// simply absent from later ones (first group wins).
func (e *Engine) SimulateConsolidation(groups [][]string, costReduction float64) domain.ScenarioResult {
	if len(groups) == 0 {
		return e.result("consolidation", nil, e.baseline, domain.ScenarioDetails{})
	}
	if costReduction <= 0 || costReduction >= 1 {
		costReduction = DefaultCostReduction
	}

	working := domain.CloneAll(e.apps)
	var totalSaved, migrationCost float64
	groupsConsolidated := 0
	var eliminated []string

	for _, group := range groups {
		working, totalSaved, migrationCost, eliminated, groupsConsolidated =
			consolidateGroup(working, group, costReduction, totalSaved, migrationCost, eliminated, groupsConsolidated)
	}

	var affected []string
	for _, group := range groups {
		affected = append(affected, group...)
	}

	details := domain.ScenarioDetails{
		GroupsConsolidated: groupsConsolidated,
		AppsEliminated:     len(eliminated),
		AnnualSavings:      round2(totalSaved),
		OneTimeCost:        round2(migrationCost),
		EliminatedApps:     eliminated,
	}
	return e.result("consolidation", affected, Metrics(working), details)
}

// consolidateGroup applies one consolidation group to the working list.
func consolidateGroup(
	working []*domain.Application,
	group []string,
	costReduction float64,
	totalSaved, migrationCost float64,
	eliminated []string,
	groupsConsolidated int,
) ([]*domain.Application, float64, float64, []string, int) {
	if len(group) <= 1 {
		return working, totalSaved, migrationCost, eliminated, groupsConsolidated
	}

	groupSet := toSet(group)
	var members []*domain.Application
	for _, app := range working {
		if groupSet[app.Name] {
			members = append(members, app)
		}
	}
	if len(members) == 0 {
		return working, totalSaved, migrationCost, eliminated, groupsConsolidated
	}

	var groupCost float64
	survivor := members[0]
	for _, app := range members {
		groupCost += app.Cost
		if app.BusinessValue > survivor.BusinessValue {
			survivor = app
		}
	}

	newCost := survivor.Cost * (1 - costReduction)
	saved := groupCost - newCost
	totalSaved += saved
	migrationCost += saved * consolidationMigrationCost
	groupsConsolidated++

	kept := working[:0]
	for _, app := range working {
		if groupSet[app.Name] && app.Name != survivor.Name {
			eliminated = append(eliminated, app.Name)
			continue
		}
		if app.Name == survivor.Name {
			app.Cost = newCost
		}
		kept = append(kept, app)
	}
	return kept, totalSaved, migrationCost, eliminated, groupsConsolidated
}

// SimulateCombined applies retire/modernize/consolidate steps in the given
// order on a single working copy, accumulating savings and one-time cost.
// ROI = savings / one-time cost * 100 (0 when one-time cost is 0); this is
// the only scenario with an ROI figure.
func (e *Engine) SimulateCombined(steps []domain.ScenarioStep) domain.ScenarioResult {
	if len(steps) == 0 {
		return e.result("combined", nil, e.baseline, domain.ScenarioDetails{})
	}

	working := domain.CloneAll(e.apps)
	var totalSaved, totalOneTime float64
	var summaries []string

	for _, step := range steps {
		switch step.Type {
		case domain.ActionKindRetire:
			if len(step.Apps) == 0 {
				continue
			}
			nameSet := toSet(step.Apps)
			kept := working[:0]
			for _, app := range working {
				if nameSet[app.Name] {
					totalSaved += app.Cost
					continue
				}
				kept = append(kept, app)
			}
			working = kept
			summaries = append(summaries, retireSummary(len(step.Apps)))

		case domain.ActionKindModernize:
			if len(step.Apps) == 0 {
				continue
			}
			improvement := step.HealthImprovement
			if improvement <= 0 {
				improvement = DefaultHealthImprovement
			}
			nameSet := toSet(step.Apps)
			count := 0
			for _, app := range working {
				if !nameSet[app.Name] {
					continue
				}
				totalOneTime += app.Cost * modernizationCostFactor * improvement
				app.TechHealth = math.Min(10, app.TechHealth+improvement)
				app.Security = math.Min(10, app.Security+improvement*securityImprovementFactor)
				count++
			}
			summaries = append(summaries, modernizeSummary(count, improvement))

		case domain.ActionKindConsolidate:
			reduction := step.CostReduction
			if reduction <= 0 || reduction >= 1 {
				reduction = DefaultCostReduction
			}
			var eliminated []string
			groups := 0
			for _, group := range step.AppGroups {
				working, totalSaved, totalOneTime, eliminated, groups =
					consolidateGroup(working, group, reduction, totalSaved, totalOneTime, eliminated, groups)
			}
			if len(step.AppGroups) > 0 {
				summaries = append(summaries, consolidateSummary(len(step.AppGroups)))
			}
		}
	}

	roi := 0.0
	if totalOneTime > 0 {
		roi = round1(totalSaved / totalOneTime * 100)
	}

	details := domain.ScenarioDetails{
		ActionsPerformed:   len(steps),
		ActionsSummary:     summaries,
		TotalAnnualSavings: round2(totalSaved),
		TotalOneTimeCost:   round2(totalOneTime),
		NetFirstYearImpact: round2(totalSaved - totalOneTime),
		ROIPercentage:      roi,
	}
	return e.result("combined", nil, Metrics(working), details)
}

// RecommendedScenarios pre-selects candidate actions for the caller to
// feed back into the simulation methods. Advisory only: nothing here is
// simulated.
func (e *Engine) RecommendedScenarios() []domain.RecommendedScenario {
	var recs []domain.RecommendedScenario

	var retireCandidates, modernizeCandidates []*domain.Application
	for _, app := range e.apps {
		if app.TechHealth <= 3 && app.BusinessValue <= 4 {
			retireCandidates = append(retireCandidates, app)
		}
		if app.TechHealth <= 5 && app.BusinessValue >= 7 {
			modernizeCandidates = append(modernizeCandidates, app)
		}
	}

	if len(retireCandidates) > 0 {
		var savings float64
		names := make([]string, 0, len(retireCandidates))
		for _, app := range retireCandidates {
			savings += app.Cost
			names = append(names, app.Name)
		}
		recs = append(recs, domain.RecommendedScenario{
			Name:             "Aggressive Retirement",
			Description:      retireSummary(len(names)) + " with low value and poor health",
			Type:             domain.ActionKindRetire,
			Apps:             names,
			EstimatedSavings: round2(savings),
		})
	}

	if len(modernizeCandidates) > 0 {
		var cost float64
		names := make([]string, 0, len(modernizeCandidates))
		for _, app := range modernizeCandidates {
			cost += app.Cost * modernizationCostFactor * DefaultHealthImprovement
			names = append(names, app.Name)
		}
		recs = append(recs, domain.RecommendedScenario{
			Name:          "Critical Modernization",
			Description:   modernizeSummary(len(names), DefaultHealthImprovement) + " of critical apps with aging tech",
			Type:          domain.ActionKindModernize,
			Apps:          names,
			EstimatedCost: round2(cost),
		})
	}

	if groups := e.redundancyGroups(); len(groups) > 0 {
		recs = append(recs, domain.RecommendedScenario{
			Name:        "Redundancy Consolidation",
			Description: consolidateSummary(len(groups)) + " of redundant applications",
			Type:        domain.ActionKindConsolidate,
			AppGroups:   groups,
		})
	}

	// Balanced: top 10 retirement candidates by ascending business value
	// plus top 5 modernization candidates by descending business value.
	retireSome := topByValue(retireCandidates, 10, false)
	modernizeSome := topByValue(modernizeCandidates, 5, true)
	if len(retireSome) > 0 && len(modernizeSome) > 0 {
		recs = append(recs, domain.RecommendedScenario{
			Name:        "Balanced Optimization",
			Description: retireSummary(len(retireSome)) + " + " + modernizeSummary(len(modernizeSome), DefaultHealthImprovement),
			Type:        "combined",
			Steps: []domain.ScenarioStep{
				{Type: domain.ActionKindRetire, Apps: retireSome},
				{Type: domain.ActionKindModernize, Apps: modernizeSome, HealthImprovement: DefaultHealthImprovement},
			},
		})
	}

	return recs
}

// redundancyGroups buckets redundant apps by category, at most 4 per
// group, requiring at least 4 redundant apps portfolio-wide.
func (e *Engine) redundancyGroups() [][]string {
	var redundant []*domain.Application
	for _, app := range e.apps {
		if app.Redundancy > 0 {
			redundant = append(redundant, app)
		}
	}
	if len(redundant) < 4 {
		return nil
	}

	byCategory := map[string][]string{}
	var order []string
	for _, app := range redundant {
		cat := app.Category
		if cat == "" {
			cat = "Other"
		}
		if _, seen := byCategory[cat]; !seen {
			order = append(order, cat)
		}
		byCategory[cat] = append(byCategory[cat], app.Name)
	}

	var groups [][]string
	for _, cat := range order {
		names := byCategory[cat]
		if len(names) >= 2 {
			if len(names) > 4 {
				names = names[:4]
			}
			groups = append(groups, names)
		}
	}
	return groups
}

func topByValue(apps []*domain.Application, limit int, descending bool) []string {
	sorted := append([]*domain.Application(nil), apps...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if descending {
			return sorted[i].BusinessValue > sorted[j].BusinessValue
		}
		return sorted[i].BusinessValue < sorted[j].BusinessValue
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	names := make([]string, len(sorted))
	for i, app := range sorted {
		names[i] = app.Name
	}
	return names
}

// result assembles the standard scenario bundle, including the impact
// deltas between baseline and new state.
func (e *Engine) result(scenarioType string, affected []string, newState domain.PortfolioMetrics, details domain.ScenarioDetails) domain.ScenarioResult {
	if affected == nil {
		affected = []string{}
	}
	return domain.ScenarioResult{
		ScenarioType: scenarioType,
		AppsAffected: affected,
		Baseline:     e.baseline,
		NewState:     newState,
		Impact:       impact(e.baseline, newState),
		Details:      details,
		Timestamp:    time.Now().UTC(),
	}
}

// impact computes elementwise deltas and percent changes, guarding
// divide-by-zero as 0%.
func impact(base, next domain.PortfolioMetrics) domain.Impact {
	return domain.Impact{
		AppsChange:        next.TotalApps - base.TotalApps,
		AppsChangePct:     pctChange(float64(next.TotalApps), float64(base.TotalApps)),
		CostChange:        next.TotalCost - base.TotalCost,
		CostChangePct:     pctChange(next.TotalCost, base.TotalCost),
		HealthChange:      round2(next.AvgHealth - base.AvgHealth),
		HealthChangePct:   pctChange(next.AvgHealth, base.AvgHealth),
		ValueChange:       round2(next.AvgValue - base.AvgValue),
		ValueChangePct:    pctChange(next.AvgValue, base.AvgValue),
		SecurityChange:    round2(next.AvgSecurity - base.AvgSecurity),
		SecurityChangePct: pctChange(next.AvgSecurity, base.AvgSecurity),
		RiskChange:        round2(next.RiskScore - base.RiskScore),
		RiskChangePct:     pctChange(next.RiskScore, base.RiskScore),
	}
}

func pctChange(next, old float64) float64 {
	if old == 0 {
		return 0
	}
	return round1((next - old) / old * 100)
}

func retireSummary(n int) string {
	return fmt.Sprintf("Retired %d application%s", n, pluralSuffix(n))
}

func modernizeSummary(n int, improvement float64) string {
	return fmt.Sprintf("Modernized %d application%s (+%.1f health)", n, pluralSuffix(n), improvement)
}

func consolidateSummary(n int) string {
	return fmt.Sprintf("Consolidated %d group%s", n, pluralSuffix(n))
}

func pluralSuffix(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

func toSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}

func safeAvg(sum float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return round2(sum / float64(n))
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
