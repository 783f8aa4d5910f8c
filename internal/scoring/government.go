package scoring

import (
	"fmt"
	"math"
	"sort"

	"github.com/opensource-portfolio/kestrel/internal/domain"
)

// GovernmentEngine scores public-sector portfolios. It replaces the
// enterprise business-value/technical-quality axes with mission
// criticality, citizen impact, and interoperability, applies a risk-factor
// penalty list, and classifies with a separately ordered rule table. It
// shares the enterprise classifier's output contract (category, rationale)
// but keeps an independent rule set.
type GovernmentEngine struct {
	weights domain.GovernmentWeights
}

// RiskFactor is one government-specific penalty applied to the composite.
type RiskFactor struct {
	Factor      string  `json:"factor"`
	Description string  `json:"description"`
	Penalty     float64 `json:"penalty"`
	Category    string  `json:"category"`
}

// GovernmentScore is the per-application result of government scoring.
type GovernmentScore struct {
	AppName         string              `json:"app_name"`
	AppID           string              `json:"app_id,omitempty"`
	CompositeScore  float64             `json:"gov_composite_score"`
	RawScore        float64             `json:"raw_composite_score"`
	DimensionScores map[string]float64  `json:"dimension_scores"`
	RiskFactors     []RiskFactor        `json:"risk_factors"`
	RiskPenaltyPct  float64             `json:"risk_penalty_pct"`
	TIMECategory    domain.TIMECategory `json:"time_category"`
	TIMERationale   string              `json:"time_rationale"`
}

// GovernmentPortfolio is the batch result with portfolio rollup.
type GovernmentPortfolio struct {
	Scores  []GovernmentScore `json:"application_scores"`
	Summary GovernmentSummary `json:"portfolio_summary"`
}

// GovernmentSummary aggregates government batch scoring.
type GovernmentSummary struct {
	TotalApplications    int            `json:"total_applications"`
	AverageScore         float64        `json:"average_score"`
	TIMEDistribution     map[string]int `json:"time_distribution"`
	HighRiskApps         int            `json:"high_risk_apps"`
	InvestmentCandidates int            `json:"investment_candidates"`
	RiskByCategory       map[string]int `json:"risk_by_category"`
}

// ModernizationPriority is one entry of the urgency-ordered modernization
// backlog for a government portfolio.
type ModernizationPriority struct {
	AppName            string              `json:"app_name"`
	CurrentScore       float64             `json:"current_score"`
	TIMECategory       domain.TIMECategory `json:"time_category"`
	UrgencyScore       float64             `json:"urgency_score"`
	MissionCriticality float64             `json:"mission_criticality"`
	CitizenImpact      float64             `json:"citizen_impact"`
	TechHealth         float64             `json:"tech_health"`
	EstimatedCost      float64             `json:"estimated_cost"`
	RiskFactors        []RiskFactor        `json:"risk_factors"`
	Rationale          string              `json:"rationale"`
}

// NewGovernmentEngine creates a government scoring engine with the given
// weights. Invalid weights fail construction.
func NewGovernmentEngine(weights domain.GovernmentWeights) (*GovernmentEngine, error) {
	if err := weights.Validate(); err != nil {
		return nil, fmt.Errorf("invalid government weights: %w", err)
	}
	return &GovernmentEngine{weights: weights}, nil
}

// NewSectorEngine creates a government engine using a sector preset.
func NewSectorEngine(sector domain.GovernmentSector) *GovernmentEngine {
	return &GovernmentEngine{weights: domain.SectorWeights(sector)}
}

// Score computes the government composite score and classification for one
// application.
func (e *GovernmentEngine) Score(app *domain.Application) GovernmentScore {
	w := e.weights

	// Dimensions normalized to [0,1].
	mission := norm01(app.MissionCriticality)
	citizen := norm01(app.CitizenImpact)
	health := norm01(app.TechHealth)
	security := norm01(app.Security)
	interop := norm01(app.Interoperability)
	costEff := e.costEfficiency(app)
	compliance := e.complianceScore(app)

	raw := (mission*w.MissionCriticality +
		citizen*w.CitizenImpact +
		health*w.TechHealth +
		security*w.Security +
		interop*w.Interoperability +
		costEff*w.CostEfficiency +
		compliance*w.Compliance) * 100

	risks := e.riskFactors(app)
	var penalty float64
	for _, r := range risks {
		penalty += r.Penalty
	}
	penaltyFrac := penalty / 100
	adjusted := raw * (1 - penaltyFrac)

	category, rationale := e.classify(adjusted, mission*10, health*10, citizen*10)

	return GovernmentScore{
		AppName:        app.Name,
		AppID:          app.ID,
		CompositeScore: round2(adjusted),
		RawScore:       round2(raw),
		DimensionScores: map[string]float64{
			"mission_criticality": round2(mission * 10),
			"citizen_impact":      round2(citizen * 10),
			"tech_health":         round2(health * 10),
			"security":            round2(security * 10),
			"interoperability":    round2(interop * 10),
			"cost_efficiency":     round2(costEff * 10),
			"compliance":          round2(compliance * 10),
		},
		RiskFactors:    risks,
		RiskPenaltyPct: round1(penaltyFrac * 100),
		TIMECategory:   category,
		TIMERationale:  rationale,
	}
}

// BatchScore scores a portfolio and builds the rollup summary.
func (e *GovernmentEngine) BatchScore(apps []*domain.Application) GovernmentPortfolio {
	scores := make([]GovernmentScore, 0, len(apps))
	dist := map[string]int{}
	for _, c := range domain.Categories() {
		dist[c.String()] = 0
	}
	riskByCat := map[string]int{}

	var sum float64
	highRisk, investCandidates := 0, 0
	for _, app := range apps {
		s := e.Score(app)
		scores = append(scores, s)
		sum += s.CompositeScore
		dist[s.TIMECategory.String()]++
		if s.CompositeScore < 40 {
			highRisk++
		}
		if s.TIMECategory == domain.CategoryInvest {
			investCandidates++
		}
		for _, r := range s.RiskFactors {
			riskByCat[r.Category]++
		}
	}

	avg := 0.0
	if len(scores) > 0 {
		avg = round2(sum / float64(len(scores)))
	}

	return GovernmentPortfolio{
		Scores: scores,
		Summary: GovernmentSummary{
			TotalApplications:    len(scores),
			AverageScore:         avg,
			TIMEDistribution:     dist,
			HighRiskApps:         highRisk,
			InvestmentCandidates: investCandidates,
			RiskByCategory:       riskByCat,
		},
	}
}

// ModernizationPriorities returns the urgency-ordered modernization backlog
// for apps classified Migrate or Eliminate. A positive budget constrains
// the cumulative estimated cost of the returned list.
func (e *GovernmentEngine) ModernizationPriorities(apps []*domain.Application, budget float64) []ModernizationPriority {
	priorities := make([]ModernizationPriority, 0)

	for _, app := range apps {
		s := e.Score(app)
		if s.TIMECategory != domain.CategoryMigrate && s.TIMECategory != domain.CategoryEliminate {
			continue
		}

		urgency := (app.MissionCriticality + app.CitizenImpact) / 2 * (10 - app.TechHealth)
		priorities = append(priorities, ModernizationPriority{
			AppName:            app.Name,
			CurrentScore:       s.CompositeScore,
			TIMECategory:       s.TIMECategory,
			UrgencyScore:       round2(urgency),
			MissionCriticality: app.MissionCriticality,
			CitizenImpact:      app.CitizenImpact,
			TechHealth:         app.TechHealth,
			EstimatedCost:      app.Cost,
			RiskFactors:        s.RiskFactors,
			Rationale:          s.TIMERationale,
		})
	}

	sort.SliceStable(priorities, func(i, j int) bool {
		return priorities[i].UrgencyScore > priorities[j].UrgencyScore
	})

	if budget > 0 {
		var cumulative float64
		filtered := priorities[:0]
		for _, p := range priorities {
			if cumulative+p.EstimatedCost <= budget {
				filtered = append(filtered, p)
				cumulative += p.EstimatedCost
			}
		}
		return filtered
	}
	return priorities
}

// costEfficiency derives a [0,1] efficiency from cost per user, falling
// back to citizen impact when usage is unknown.
func (e *GovernmentEngine) costEfficiency(app *domain.Application) float64 {
	if app.Cost == 0 {
		return 0.8
	}
	if app.Usage > 0 {
		costPerUser := app.Cost / app.Usage
		return clamp01(1 - math.Min(1, costPerUser/2000))
	}
	return clamp01(math.Max(0.3, app.CitizenImpact/10-(app.Cost/100000)*0.1))
}

// complianceScore estimates compliance readiness from security posture and
// the declared requirement burden.
func (e *GovernmentEngine) complianceScore(app *domain.Application) float64 {
	security := norm01(app.Security)
	if len(app.ComplianceReqs) == 0 {
		return security
	}
	burden := float64(len(app.ComplianceReqs)) * 0.1
	return clamp01(math.Max(0.3, security*0.8-burden+0.2))
}

func (e *GovernmentEngine) riskFactors(app *domain.Application) []RiskFactor {
	var risks []RiskFactor

	if app.GrantFunded {
		risks = append(risks, RiskFactor{
			Factor:      "Grant-funded application",
			Description: "Funding tied to grant expiration",
			Penalty:     5,
			Category:    "financial",
		})
	}

	sensLevel := map[string]int{"public": 0, "sensitive": 1, "confidential": 2, "restricted": 3}[app.DataSensitivity]
	if sensLevel >= 2 && app.Security < 7 {
		risks = append(risks, RiskFactor{
			Factor:      "High-sensitivity data with insufficient security",
			Description: fmt.Sprintf("%s data requires security score >= 7", app.DataSensitivity),
			Penalty:     10,
			Category:    "security",
		})
	}

	if app.SystemOfRecord && app.TechHealth < 6 {
		risks = append(risks, RiskFactor{
			Factor:      "System of record with aging technology",
			Description: "Authoritative systems require robust infrastructure",
			Penalty:     8,
			Category:    "operational",
		})
	}

	if app.PublicFacing && app.Security < 6 {
		risks = append(risks, RiskFactor{
			Factor:      "Public-facing application with low security",
			Description: "Citizen-accessible systems need strong security",
			Penalty:     12,
			Category:    "security",
		})
	}

	if app.MissionCriticality >= 8 && app.TechHealth < 5 {
		risks = append(risks, RiskFactor{
			Factor:      "Mission-critical system at technical risk",
			Description: "High criticality requires stable technology",
			Penalty:     15,
			Category:    "operational",
		})
	}

	if app.SharedService && app.Interoperability < 5 {
		risks = append(risks, RiskFactor{
			Factor:      "Shared service with poor interoperability",
			Description: "Multi-agency systems need data sharing capability",
			Penalty:     7,
			Category:    "integration",
		})
	}

	return risks
}

// classify applies the government-ordered TIME rules. Inputs are on the
// 0-100 (composite) and 0-10 (dimension) scales.
func (e *GovernmentEngine) classify(composite, mission, health, citizen float64) (domain.TIMECategory, string) {
	if composite >= 70 && mission >= 7 && health >= 6 {
		return domain.CategoryInvest, fmt.Sprintf(
			"High mission criticality (%.0f) with solid technology. Strategic investment will enhance citizen services.", mission)
	}
	if mission >= 6 && health >= 4 && composite >= 50 {
		return domain.CategoryTolerate, fmt.Sprintf(
			"Meets operational needs (score: %.0f). Maintain current state while planning future improvements.", composite)
	}
	if citizen >= 6 && health < 5 {
		return domain.CategoryMigrate, fmt.Sprintf(
			"Critical for citizens (impact: %.0f) but technology health (%.0f) requires modernization.", citizen, health)
	}
	if mission >= 5 && health < 4 {
		return domain.CategoryMigrate, fmt.Sprintf(
			"Mission-relevant but aging technology (%.0f). Plan migration to modern platform.", health)
	}
	if composite < 40 && mission < 4 && citizen < 4 {
		return domain.CategoryEliminate, fmt.Sprintf(
			"Low mission criticality (%.0f) and citizen impact (%.0f). Consider retirement to reduce portfolio complexity.", mission, citizen)
	}
	return domain.CategoryTolerate, fmt.Sprintf(
		"Application requires further evaluation. Score: %.0f.", composite)
}

func norm01(v float64) float64 {
	return clamp01(v / 10)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
