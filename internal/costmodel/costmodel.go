// Package costmodel breaks annual application cost into TCO components,
// allocates spend to departments, and surfaces hidden costs and
// optimization opportunities. All estimates derive deterministically from
// portfolio attributes.
package costmodel

import (
	"math"
	"sort"

	"github.com/opensource-portfolio/kestrel/internal/domain"
)

// TCO components in reporting order. Base percentages are industry
// averages; category multipliers reshape them before renormalization.
var tcoComponents = []string{"licensing", "support", "infrastructure", "labor", "training", "other"}

var baseBreakdown = map[string]float64{
	"licensing":      0.30,
	"support":        0.20,
	"infrastructure": 0.25,
	"labor":          0.20,
	"training":       0.03,
	"other":          0.02,
}

var categoryMultipliers = map[string]map[string]float64{
	"IT & Infrastructure":    {"infrastructure": 1.5, "labor": 1.3},
	"Finance & Accounting":   {"support": 1.2, "training": 1.5},
	"Citizen Services":       {"labor": 1.4, "support": 1.1},
	"Human Resources":        {"training": 1.6, "support": 1.2},
	"Public Safety":          {"infrastructure": 1.3, "labor": 1.5},
	"Operations":             {"infrastructure": 1.2, "labor": 1.3},
	"Compliance & Reporting": {"support": 1.4, "labor": 1.2},
	"Records Management":     {"infrastructure": 1.3, "support": 1.1},
	"ERP":                    {"licensing": 1.3, "support": 1.4, "training": 1.5},
	"CRM":                    {"licensing": 1.2, "support": 1.3},
	"BI":                     {"infrastructure": 1.2, "labor": 1.3},
	"Security":               {"infrastructure": 1.4, "labor": 1.5},
	"Collaboration":          {"licensing": 1.1, "training": 1.3},
}

var categoryToDepartment = map[string]string{
	"Finance & Accounting":   "Finance Department",
	"IT & Infrastructure":    "IT Department",
	"Citizen Services":       "Citizen Services",
	"Human Resources":        "Human Resources",
	"Public Safety":          "Public Safety",
	"Operations":             "Operations",
	"Compliance & Reporting": "Legal/Compliance",
	"Records Management":     "Administration",
	"ERP":                    "Finance Department",
	"CRM":                    "Sales/Marketing",
	"BI":                     "IT Department",
	"Security":               "IT Department",
	"Collaboration":          "IT Department",
}

const defaultDepartment = "General Administration"

// AppTCO is the component breakdown for one application.
type AppTCO struct {
	AppName     string             `json:"app_name"`
	AppID       string             `json:"app_id,omitempty"`
	Category    string             `json:"category"`
	TotalCost   float64            `json:"total_cost"`
	Components  map[string]float64 `json:"components"`
	Percentages map[string]float64 `json:"percentages"`
}

// CostDriver is one top cost-driving application.
type CostDriver struct {
	AppName          string  `json:"app_name"`
	TotalCost        float64 `json:"total_cost"`
	Category         string  `json:"category"`
	TopComponent     string  `json:"top_component"`
	TopComponentCost float64 `json:"top_component_cost"`
}

// TCOSummary aggregates the component breakdown across the portfolio.
type TCOSummary struct {
	TotalPortfolioCost   float64            `json:"total_portfolio_cost"`
	ComponentBreakdown   map[string]float64 `json:"component_breakdown"`
	ComponentPercentages map[string]float64 `json:"component_percentages"`
	TopCostDrivers       []CostDriver       `json:"top_cost_drivers"`
	ApplicationCount     int                `json:"application_count"`
	AppBreakdowns        []AppTCO           `json:"app_breakdowns"`
}

// DepartmentAllocation is the spend attributed to one department.
type DepartmentAllocation struct {
	Department   string   `json:"department"`
	TotalCost    float64  `json:"total_cost"`
	AppCount     int      `json:"app_count"`
	AvgHealth    float64  `json:"avg_health"`
	AvgValue     float64  `json:"avg_value"`
	Applications []string `json:"applications"`
}

// AllocationResult maps portfolio spend onto departments by category.
type AllocationResult struct {
	AllocationMethod string                 `json:"allocation_method"`
	Departments      []DepartmentAllocation `json:"departments"`
	TotalDepartments int                    `json:"total_departments"`
	HighestSpend     *DepartmentAllocation  `json:"highest_spend,omitempty"`
	TotalCost        float64                `json:"total_cost"`
}

// HiddenCost is one estimated cost category not visible in line items.
type HiddenCost struct {
	Category            string  `json:"category"`
	EstimatedAnnualCost float64 `json:"estimated_annual_cost"`
	AffectedApps        int     `json:"affected_apps"`
	AffectedCategories  int     `json:"affected_categories,omitempty"`
	Description         string  `json:"description"`
	PotentialSavings    float64 `json:"potential_savings"`
	Recommendation      string  `json:"recommendation"`
}

// QuickWin is an immediately actionable savings opportunity.
type QuickWin struct {
	Opportunity      string   `json:"opportunity"`
	AppCount         int      `json:"app_count"`
	PotentialSavings float64  `json:"potential_savings"`
	Effort           string   `json:"effort"`
	Apps             []string `json:"apps"`
}

// Opportunity is one ranked optimization lever.
type Opportunity struct {
	Category         string  `json:"category"`
	PotentialSavings float64 `json:"potential_savings"`
	Effort           string  `json:"effort"`
	Timeframe        string  `json:"timeframe"`
	Priority         int     `json:"priority"`
}

// OptimizationSummary is the full cost optimization report.
type OptimizationSummary struct {
	CurrentPortfolioCost float64          `json:"current_portfolio_cost"`
	HiddenCostsTotal     float64          `json:"hidden_costs_total"`
	PotentialSavings     float64          `json:"potential_savings"`
	SavingsPercentage    float64          `json:"savings_percentage"`
	HiddenCostCategories []HiddenCost     `json:"hidden_cost_categories"`
	DepartmentAllocation AllocationResult `json:"department_allocation"`
	QuickWins            []QuickWin       `json:"quick_wins"`
	TopOpportunities     []Opportunity    `json:"top_opportunities"`
}

// Modeler computes TCO and optimization analytics over a portfolio
// snapshot.
type Modeler struct {
	apps []*domain.Application
}

// New snapshots the portfolio.
func New(apps []*domain.Application) *Modeler {
	return &Modeler{apps: domain.CloneAll(apps)}
}

// TCOBreakdown computes the per-application and portfolio component
// breakdown. Category multipliers are applied and renormalized so each
// application's percentages still sum to 1.
func (m *Modeler) TCOBreakdown() TCOSummary {
	breakdowns := make([]AppTCO, 0, len(m.apps))
	componentTotals := map[string]float64{}

	for _, app := range m.apps {
		pct := map[string]float64{}
		for _, c := range tcoComponents {
			pct[c] = baseBreakdown[c]
		}
		if multipliers, ok := categoryMultipliers[app.Category]; ok {
			for component, multiplier := range multipliers {
				pct[component] *= multiplier
			}
			var sum float64
			for _, v := range pct {
				sum += v
			}
			for c := range pct {
				pct[c] /= sum
			}
		}

		components := map[string]float64{}
		percentages := map[string]float64{}
		for _, c := range tcoComponents {
			components[c] = round2(app.Cost * pct[c])
			percentages[c] = round1(pct[c] * 100)
			componentTotals[c] += components[c]
		}

		breakdowns = append(breakdowns, AppTCO{
			AppName:     app.Name,
			AppID:       app.ID,
			Category:    app.Category,
			TotalCost:   app.Cost,
			Components:  components,
			Percentages: percentages,
		})
	}

	var total float64
	for _, v := range componentTotals {
		total += v
	}
	componentPct := map[string]float64{}
	for c, v := range componentTotals {
		if total > 0 {
			componentPct[c] = round1(v / total * 100)
		} else {
			componentPct[c] = 0
		}
	}

	return TCOSummary{
		TotalPortfolioCost:   round2(total),
		ComponentBreakdown:   componentTotals,
		ComponentPercentages: componentPct,
		TopCostDrivers:       costDrivers(breakdowns),
		ApplicationCount:     len(breakdowns),
		AppBreakdowns:        breakdowns,
	}
}

func costDrivers(breakdowns []AppTCO) []CostDriver {
	sorted := append([]AppTCO(nil), breakdowns...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].TotalCost > sorted[j].TotalCost })
	if len(sorted) > 10 {
		sorted = sorted[:10]
	}

	drivers := make([]CostDriver, 0, len(sorted))
	for _, app := range sorted {
		topComponent, topCost := "N/A", 0.0
		for _, c := range tcoComponents {
			if app.Components[c] > topCost {
				topComponent = c
				topCost = app.Components[c]
			}
		}
		drivers = append(drivers, CostDriver{
			AppName:          app.AppName,
			TotalCost:        app.TotalCost,
			Category:         app.Category,
			TopComponent:     topComponent,
			TopComponentCost: topCost,
		})
	}
	return drivers
}

// AllocateByDepartment rolls spend up to departments through the category
// mapping, sorted by total cost descending.
func (m *Modeler) AllocateByDepartment() AllocationResult {
	type agg struct {
		cost      float64
		count     int
		healthSum float64
		valueSum  float64
		apps      []string
	}
	byDept := map[string]*agg{}
	var order []string

	for _, app := range m.apps {
		dept, ok := categoryToDepartment[app.Category]
		if !ok {
			dept = defaultDepartment
		}
		a, seen := byDept[dept]
		if !seen {
			a = &agg{}
			byDept[dept] = a
			order = append(order, dept)
		}
		a.cost += app.Cost
		a.count++
		a.healthSum += app.TechHealth
		a.valueSum += app.BusinessValue
		a.apps = append(a.apps, app.Name)
	}

	allocations := make([]DepartmentAllocation, 0, len(order))
	var total float64
	for _, dept := range order {
		a := byDept[dept]
		allocations = append(allocations, DepartmentAllocation{
			Department:   dept,
			TotalCost:    a.cost,
			AppCount:     a.count,
			AvgHealth:    round1(a.healthSum / float64(a.count)),
			AvgValue:     round1(a.valueSum / float64(a.count)),
			Applications: a.apps,
		})
		total += a.cost
	}
	sort.SliceStable(allocations, func(i, j int) bool { return allocations[i].TotalCost > allocations[j].TotalCost })

	result := AllocationResult{
		AllocationMethod: "category_based",
		Departments:      allocations,
		TotalDepartments: len(allocations),
		TotalCost:        total,
	}
	if len(allocations) > 0 {
		top := allocations[0]
		result.HighestSpend = &top
	}
	return result
}

// HiddenCosts estimates cost categories invisible in line-item budgets.
// Categories with no qualifying apps are omitted.
func (m *Modeler) HiddenCosts() []HiddenCost {
	var costs []HiddenCost
	for _, estimate := range []func() *HiddenCost{
		m.integrationCosts,
		m.redundancyCosts,
		m.technicalDebtCosts,
		m.trainingCosts,
		m.opportunityCosts,
	} {
		if hc := estimate(); hc != nil {
			costs = append(costs, *hc)
		}
	}
	return costs
}

func (m *Modeler) integrationCosts() *HiddenCost {
	cost, count := m.sumWhere(func(a *domain.Application) bool { return a.TechHealth <= 4 })
	if count == 0 {
		return nil
	}
	overhead := cost * 0.12
	return &HiddenCost{
		Category:            "Integration Complexity",
		EstimatedAnnualCost: round2(overhead),
		AffectedApps:        count,
		Description:         "Annual cost of maintaining fragile integrations",
		PotentialSavings:    round2(overhead * 0.3),
		Recommendation:      "Modernize or consolidate apps with low health scores to reduce integration overhead",
	}
}

func (m *Modeler) redundancyCosts() *HiddenCost {
	byCategory := map[string][]*domain.Application{}
	for _, app := range m.apps {
		cat := app.Category
		if cat == "" {
			cat = "Other"
		}
		byCategory[cat] = append(byCategory[cat], app)
	}

	var cost float64
	apps, categories := 0, 0
	for _, group := range byCategory {
		if len(group) < 3 {
			continue
		}
		categories++
		for _, app := range group {
			cost += app.Cost
			apps++
		}
	}
	if categories == 0 {
		return nil
	}

	return &HiddenCost{
		Category:            "Application Redundancy",
		EstimatedAnnualCost: round2(cost),
		AffectedApps:        apps,
		AffectedCategories:  categories,
		Description:         "Cost of maintaining redundant or overlapping applications",
		PotentialSavings:    round2(cost * 0.25),
		Recommendation:      "Review categories with 3+ apps for consolidation opportunities",
	}
}

func (m *Modeler) technicalDebtCosts() *HiddenCost {
	cost, count := m.sumWhere(func(a *domain.Application) bool { return a.TechHealth <= 5 })
	if count == 0 {
		return nil
	}
	debt := cost * 0.20
	return &HiddenCost{
		Category:            "Technical Debt",
		EstimatedAnnualCost: round2(debt),
		AffectedApps:        count,
		Description:         "Additional maintenance costs due to aging technology",
		PotentialSavings:    round2(debt * 0.7),
		Recommendation:      "Prioritize modernization of applications with health scores <= 5",
	}
}

func (m *Modeler) trainingCosts() *HiddenCost {
	cost, count := m.sumWhere(func(a *domain.Application) bool { return a.TechHealth <= 6 })
	if count == 0 {
		return nil
	}
	overhead := cost * 0.065
	return &HiddenCost{
		Category:            "Training & Support",
		EstimatedAnnualCost: round2(overhead),
		AffectedApps:        count,
		Description:         "Excess training costs for difficult-to-use systems",
		PotentialSavings:    round2(overhead * 0.5),
		Recommendation:      "Improve UX or replace apps with poor usability",
	}
}

func (m *Modeler) opportunityCosts() *HiddenCost {
	cost, count := m.sumWhere(func(a *domain.Application) bool { return a.BusinessValue <= 4 })
	if count == 0 {
		return nil
	}
	return &HiddenCost{
		Category:            "Opportunity Cost",
		EstimatedAnnualCost: round2(cost),
		AffectedApps:        count,
		Description:         "Budget locked in low-value applications",
		PotentialSavings:    round2(cost * 0.6),
		Recommendation:      "Retire or replace low-value apps to free budget for strategic initiatives",
	}
}

// OptimizationSummary assembles the full report: hidden costs, department
// allocation, quick wins, and ranked opportunities.
func (m *Modeler) OptimizationSummary() OptimizationSummary {
	hidden := m.HiddenCosts()

	var hiddenTotal, savings, portfolioCost float64
	for _, h := range hidden {
		hiddenTotal += h.EstimatedAnnualCost
		savings += h.PotentialSavings
	}
	for _, app := range m.apps {
		portfolioCost += app.Cost
	}

	savingsPct := 0.0
	if portfolioCost > 0 {
		savingsPct = round1(savings / portfolioCost * 100)
	}

	return OptimizationSummary{
		CurrentPortfolioCost: portfolioCost,
		HiddenCostsTotal:     round2(hiddenTotal),
		PotentialSavings:     round2(savings),
		SavingsPercentage:    savingsPct,
		HiddenCostCategories: hidden,
		DepartmentAllocation: m.AllocateByDepartment(),
		QuickWins:            m.quickWins(),
		TopOpportunities:     m.rankOpportunities(),
	}
}

func (m *Modeler) quickWins() []QuickWin {
	var wins []QuickWin

	var retireNames []string
	var retireSavings float64
	for _, app := range m.apps {
		if app.Cost > 50000 && app.BusinessValue <= 4 && app.TechHealth <= 4 {
			retireSavings += app.Cost
			retireNames = append(retireNames, app.Name)
		}
	}
	if len(retireNames) > 0 {
		wins = append(wins, QuickWin{
			Opportunity:      "Retire High-Cost, Low-Value Apps",
			AppCount:         len(retireNames),
			PotentialSavings: retireSavings,
			Effort:           "Low",
			Apps:             capNames(retireNames, 5),
		})
	}

	var cheapNames []string
	var cheapCost float64
	for _, app := range m.apps {
		if app.Cost < 20000 && app.BusinessValue <= 5 {
			cheapCost += app.Cost
			cheapNames = append(cheapNames, app.Name)
		}
	}
	if len(cheapNames) >= 5 {
		wins = append(wins, QuickWin{
			Opportunity:      "Consolidate Low-Cost Redundant Apps",
			AppCount:         len(cheapNames),
			PotentialSavings: round2(cheapCost * 0.3),
			Effort:           "Low",
			Apps:             capNames(cheapNames, 5),
		})
	}
	return wins
}

func (m *Modeler) rankOpportunities() []Opportunity {
	retireSavings, _ := m.sumWhere(func(a *domain.Application) bool { return a.BusinessValue <= 4 })
	consolidateBase, _ := m.sumWhere(func(a *domain.Application) bool { return a.TechHealth <= 6 })
	modernizeBase, modernizeCount := m.sumWhere(func(a *domain.Application) bool {
		return a.TechHealth <= 5 && a.BusinessValue >= 7
	})

	consolidateSavings := consolidateBase * 0.25
	modernizeSavings := modernizeBase * 0.15

	opportunities := []Opportunity{
		{
			Category:         "Application Retirement",
			PotentialSavings: retireSavings,
			Effort:           "Low-Medium",
			Timeframe:        "3-6 months",
			Priority:         priorityFrom(retireSavings > 500000, 1, 2),
		},
		{
			Category:         "Application Consolidation",
			PotentialSavings: round2(consolidateSavings),
			Effort:           "Medium",
			Timeframe:        "6-12 months",
			Priority:         priorityFrom(consolidateSavings > 1000000, 1, 2),
		},
		{
			Category:         "Application Modernization",
			PotentialSavings: round2(modernizeSavings),
			Effort:           "High",
			Timeframe:        "12-24 months",
			Priority:         priorityFrom(modernizeCount > 0, 1, 3),
		},
	}

	sort.SliceStable(opportunities, func(i, j int) bool {
		if opportunities[i].Priority != opportunities[j].Priority {
			return opportunities[i].Priority < opportunities[j].Priority
		}
		return opportunities[i].PotentialSavings > opportunities[j].PotentialSavings
	})
	return opportunities
}

func (m *Modeler) sumWhere(match func(*domain.Application) bool) (float64, int) {
	var cost float64
	count := 0
	for _, app := range m.apps {
		if match(app) {
			cost += app.Cost
			count++
		}
	}
	return cost, count
}

func capNames(names []string, limit int) []string {
	if len(names) > limit {
		return names[:limit]
	}
	return names
}

func priorityFrom(high bool, whenHigh, whenLow int) int {
	if high {
		return whenHigh
	}
	return whenLow
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
