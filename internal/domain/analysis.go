package domain

import "time"

// PortfolioAnalysis is the output of a full rationalization run: the
// augmented application records plus portfolio-level statistics. The
// orchestrator returns a fresh value per call; downstream layers serialize
// it verbatim, so the JSON field names here are the wire contract.
type PortfolioAnalysis struct {
	ID           string         `json:"id"`
	TenantID     string         `json:"tenantId,omitempty"`
	Applications []*Application `json:"applications"`
	Summary      Summary        `json:"summary"`
	Timestamp    time.Time      `json:"timestamp"`
}

// Summary aggregates portfolio-level statistics.
type Summary struct {
	TotalApplications int                     `json:"total_applications"`
	AverageScore      float64                 `json:"average_score"`
	TotalCost         float64                 `json:"total_cost"`
	TIMEDistribution  map[string]int          `json:"time_distribution"`
	TIMEPercentages   map[string]float64      `json:"time_percentages"`
	Recommendations   map[string]int          `json:"recommendation_distribution"`
	Matrix            map[string][]string     `json:"time_matrix"`
	PrioritizedOrder  []PrioritizedAction     `json:"prioritized_actions"`
}

// PrioritizedAction is one entry of the stable total order produced by the
// recommendation engine.
type PrioritizedAction struct {
	Name           string     `json:"name"`
	Action         ActionType `json:"action"`
	Priority       int        `json:"priority"`
	CompositeScore float64    `json:"composite_score"`
	Rationale      string     `json:"rationale,omitempty"`
}

// PortfolioMetrics is the aggregate state of a portfolio used as the
// baseline and new-state of what-if simulations.
type PortfolioMetrics struct {
	TotalApps       int     `json:"total_apps"`
	TotalCost       float64 `json:"total_cost"`
	AvgHealth       float64 `json:"avg_health"`
	AvgValue        float64 `json:"avg_value"`
	AvgSecurity     float64 `json:"avg_security"`
	RedundancyCount int     `json:"total_redundancy_count"`
	RiskScore       float64 `json:"risk_score"`
}

// Impact is the elementwise delta and percent change between a baseline and
// a simulated new state. Percent changes guard divide-by-zero as 0.
type Impact struct {
	AppsChange        int     `json:"apps_change"`
	AppsChangePct     float64 `json:"apps_change_pct"`
	CostChange        float64 `json:"cost_change"`
	CostChangePct     float64 `json:"cost_change_pct"`
	HealthChange      float64 `json:"health_change"`
	HealthChangePct   float64 `json:"health_change_pct"`
	ValueChange       float64 `json:"value_change"`
	ValueChangePct    float64 `json:"value_change_pct"`
	SecurityChange    float64 `json:"security_change"`
	SecurityChangePct float64 `json:"security_change_pct"`
	RiskChange        float64 `json:"risk_change"`
	RiskChangePct     float64 `json:"risk_change_pct"`
}

// ScenarioResult bundles everything a what-if simulation produces. Created
// fresh per call and never mutated after return.
type ScenarioResult struct {
	ScenarioType string           `json:"scenario_type"`
	AppsAffected []string         `json:"apps_affected"`
	Baseline     PortfolioMetrics `json:"baseline"`
	NewState     PortfolioMetrics `json:"new_state"`
	Impact       Impact           `json:"impact"`
	Details      ScenarioDetails  `json:"details"`
	Timestamp    time.Time        `json:"timestamp"`
}

// ScenarioDetails carries the category-specific payload of a scenario.
// Only the fields relevant to the scenario type are populated.
type ScenarioDetails struct {
	// Retirement
	AppsRetired      int          `json:"apps_retired,omitempty"`
	CostSavings      float64      `json:"cost_savings,omitempty"`
	AvgRetiredHealth float64      `json:"avg_retired_health,omitempty"`
	AvgRetiredValue  float64      `json:"avg_retired_value,omitempty"`
	RetiredApps      []RetiredApp `json:"retired_apps,omitempty"`

	// Modernization
	AppsModernized    int             `json:"apps_modernized,omitempty"`
	HealthImprovement float64         `json:"health_improvement,omitempty"`
	AvgOriginalHealth float64         `json:"avg_original_health,omitempty"`
	AvgNewHealth      float64         `json:"avg_new_health,omitempty"`
	ModernizedApps    []ModernizedApp `json:"modernized_apps,omitempty"`

	// Consolidation
	GroupsConsolidated int      `json:"groups_consolidated,omitempty"`
	AppsEliminated     int      `json:"apps_eliminated,omitempty"`
	AnnualSavings      float64  `json:"annual_savings,omitempty"`
	EliminatedApps     []string `json:"eliminated_apps,omitempty"`

	// Shared / combined
	OneTimeCost        float64  `json:"one_time_cost,omitempty"`
	ActionsPerformed   int      `json:"actions_performed,omitempty"`
	ActionsSummary     []string `json:"actions_summary,omitempty"`
	TotalAnnualSavings float64  `json:"total_annual_savings,omitempty"`
	TotalOneTimeCost   float64  `json:"total_one_time_cost,omitempty"`
	NetFirstYearImpact float64  `json:"net_first_year_impact,omitempty"`
	ROIPercentage      float64  `json:"roi_percentage,omitempty"`
}

// RetiredApp summarizes one application in a retirement scenario.
type RetiredApp struct {
	Name          string  `json:"name"`
	Cost          float64 `json:"cost"`
	TechHealth    float64 `json:"tech_health"`
	BusinessValue float64 `json:"business_value"`
}

// ModernizedApp summarizes one application in a modernization scenario.
type ModernizedApp struct {
	Name           string  `json:"name"`
	Cost           float64 `json:"cost"`
	OriginalHealth float64 `json:"original_health"`
	NewHealth      float64 `json:"new_health"`
	BusinessValue  float64 `json:"business_value"`
}

// ScenarioStep is one operation of a combined scenario, applied in order.
type ScenarioStep struct {
	Type              string     `json:"type"` // retire, modernize, consolidate
	Apps              []string   `json:"apps,omitempty"`
	AppGroups         [][]string `json:"app_groups,omitempty"`
	HealthImprovement float64    `json:"health_improvement,omitempty"`
	CostReduction     float64    `json:"cost_reduction,omitempty"`
}

// RecommendedScenario is a heuristically pre-selected candidate scenario
// for the caller to feed back into the simulation methods. Advisory only,
// never simulated by the engine itself.
type RecommendedScenario struct {
	Name             string         `json:"name"`
	Description      string         `json:"description"`
	Type             string         `json:"type"`
	Apps             []string       `json:"apps,omitempty"`
	AppGroups        [][]string     `json:"app_groups,omitempty"`
	Steps            []ScenarioStep `json:"scenarios,omitempty"`
	EstimatedSavings float64        `json:"estimated_savings,omitempty"`
	EstimatedCost    float64        `json:"estimated_cost,omitempty"`
}

// RoadmapAction is one prioritized delivery action on an application.
type RoadmapAction struct {
	AppName          string   `json:"app_name"`
	ActionType       string   `json:"action_type"`
	Effort           float64  `json:"effort"`
	Impact           float64  `json:"impact"`
	PriorityScore    float64  `json:"priority_score"`
	Cost             float64  `json:"cost"`
	Health           float64  `json:"health"`
	Value            float64  `json:"value"`
	Rationale        string   `json:"rationale"`
	EstimatedSavings float64  `json:"estimated_savings"`
	Dependencies     []string `json:"dependencies,omitempty"`
	BlockedBy        string   `json:"blocked_by,omitempty"`
}

// Phase is one sequential delivery phase of the roadmap timeline.
type Phase struct {
	Key           string          `json:"phase"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	StartDate     string          `json:"start_date"`
	EndDate       string          `json:"end_date"`
	DurationWeeks int             `json:"duration_weeks"`
	Actions       []RoadmapAction `json:"actions"`
	TotalActions  int             `json:"total_actions"`
	TotalSavings  float64         `json:"total_savings"`
	AvgImpact     float64         `json:"avg_impact"`
	Milestones    []Milestone     `json:"milestones"`
}

// Milestone is descriptive phase metadata, not control flow.
type Milestone struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	SuccessMetric string `json:"success_metric"`
}

// RoadmapSummary is the executive view of a generated roadmap.
type RoadmapSummary struct {
	TotalActions     int            `json:"total_actions"`
	TotalSavings     float64        `json:"total_savings"`
	DurationMonths   float64        `json:"duration_months"`
	ActionBreakdown  map[string]int `json:"action_breakdown"`
	QuickWinsCount   int            `json:"quick_wins_count"`
	QuickWinsSavings float64        `json:"quick_wins_savings"`
	BlockedActions   int            `json:"blocked_actions"`
	AvgImpact        float64        `json:"avg_impact"`
	Timeline         []Phase        `json:"timeline"`
}
