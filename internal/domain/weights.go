package domain

import (
	"fmt"
	"math"
)

// ScoringWeights configures the composite-score linear combination.
// The composite score is:
//
//	composite = (business_value*BusinessValue + strategic_fit*StrategicFit +
//	             tech_health*TechHealth + security*Security +
//	             usage_norm*Usage + cost_eff*CostEfficiency) * 10
//
// where usage_norm maps raw usage into [0,10] against MaxUsage and cost_eff
// = 10*(1 - min(cost/MaxCost, 1)). Weights must sum to 1.0.
type ScoringWeights struct {
	BusinessValue  float64 `json:"businessValue"`
	StrategicFit   float64 `json:"strategicFit"`
	TechHealth     float64 `json:"techHealth"`
	Security       float64 `json:"security"`
	Usage          float64 `json:"usage"`
	CostEfficiency float64 `json:"costEfficiency"`

	MaxUsage float64 `json:"maxUsage"`
	MaxCost  float64 `json:"maxCost"`
}

// DefaultScoringWeights returns the standard enterprise weight set.
func DefaultScoringWeights() ScoringWeights {
	return ScoringWeights{
		BusinessValue:  0.25,
		StrategicFit:   0.15,
		TechHealth:     0.25,
		Security:       0.15,
		Usage:          0.10,
		CostEfficiency: 0.10,
		MaxUsage:       1000,
		MaxCost:        300000,
	}
}

// Validate checks that the weights form a proper convex combination.
func (w ScoringWeights) Validate() error {
	sum := w.BusinessValue + w.StrategicFit + w.TechHealth + w.Security + w.Usage + w.CostEfficiency
	if math.Abs(sum-1.0) > 0.001 {
		return fmt.Errorf("scoring weights must sum to 1.0, got %.3f", sum)
	}
	for _, v := range []float64{w.BusinessValue, w.StrategicFit, w.TechHealth, w.Security, w.Usage, w.CostEfficiency} {
		if v < 0 {
			return fmt.Errorf("scoring weights must be non-negative")
		}
	}
	if w.MaxUsage <= 0 || w.MaxCost <= 0 {
		return fmt.Errorf("maxUsage and maxCost must be positive")
	}
	return nil
}

// TIMEThresholds governs the quadrant boundaries of the TIME classifier.
// Immutable after validation: construct via NewTIMEThresholds.
type TIMEThresholds struct {
	BusinessValueThreshold    float64 `json:"businessValueThreshold"`
	TechnicalQualityThreshold float64 `json:"technicalQualityThreshold"`
	CompositeScoreHigh        float64 `json:"compositeScoreHigh"`
	CompositeScoreLow         float64 `json:"compositeScoreLow"`
	CriticalBusinessValue     float64 `json:"criticalBusinessValue"`
	PoorTechHealth            float64 `json:"poorTechHealth"`
	PoorSecurity              float64 `json:"poorSecurity"`
}

// DefaultTIMEThresholds returns the standard threshold set.
func DefaultTIMEThresholds() TIMEThresholds {
	return TIMEThresholds{
		BusinessValueThreshold:    6.0,
		TechnicalQualityThreshold: 6.0,
		CompositeScoreHigh:        65.0,
		CompositeScoreLow:         40.0,
		CriticalBusinessValue:     8.0,
		PoorTechHealth:            4.0,
		PoorSecurity:              5.0,
	}
}

// NewTIMEThresholds validates and returns a threshold configuration.
// Invalid configuration fails fast here, never silently clamps.
func NewTIMEThresholds(t TIMEThresholds) (TIMEThresholds, error) {
	if t.BusinessValueThreshold < 0 || t.BusinessValueThreshold > 10 {
		return t, fmt.Errorf("business value threshold %.2f out of range [0,10]", t.BusinessValueThreshold)
	}
	if t.TechnicalQualityThreshold < 0 || t.TechnicalQualityThreshold > 10 {
		return t, fmt.Errorf("technical quality threshold %.2f out of range [0,10]", t.TechnicalQualityThreshold)
	}
	if t.CompositeScoreHigh < 0 || t.CompositeScoreHigh > 100 {
		return t, fmt.Errorf("composite score high %.2f out of range [0,100]", t.CompositeScoreHigh)
	}
	if t.CompositeScoreLow < 0 || t.CompositeScoreLow > 100 {
		return t, fmt.Errorf("composite score low %.2f out of range [0,100]", t.CompositeScoreLow)
	}
	if t.CompositeScoreLow >= t.CompositeScoreHigh {
		return t, fmt.Errorf("composite score low (%.2f) must be below high (%.2f)", t.CompositeScoreLow, t.CompositeScoreHigh)
	}
	return t, nil
}

// GovernmentSector selects a sector-specific weight preset.
type GovernmentSector string

const (
	SectorPublicSafety GovernmentSector = "public_safety"
	SectorHealthHuman  GovernmentSector = "health_human_services"
	SectorFinanceAdmin GovernmentSector = "finance_admin"
	SectorCourtsLegal  GovernmentSector = "courts_legal"
	SectorGeneral      GovernmentSector = "general_government"
)

// GovernmentWeights configures the government composite score. All seven
// dimension weights must sum to 1.0.
type GovernmentWeights struct {
	MissionCriticality float64 `json:"missionCriticality"`
	CitizenImpact      float64 `json:"citizenImpact"`
	TechHealth         float64 `json:"techHealth"`
	Security           float64 `json:"security"`
	Interoperability   float64 `json:"interoperability"`
	CostEfficiency     float64 `json:"costEfficiency"`
	Compliance         float64 `json:"compliance"`
}

// DefaultGovernmentWeights returns the general-government preset.
func DefaultGovernmentWeights() GovernmentWeights {
	return GovernmentWeights{
		MissionCriticality: 0.25,
		CitizenImpact:      0.20,
		TechHealth:         0.15,
		Security:           0.15,
		Interoperability:   0.10,
		CostEfficiency:     0.10,
		Compliance:         0.05,
	}
}

// SectorWeights returns the preset for a sector, falling back to the
// general-government preset for unknown sectors.
func SectorWeights(sector GovernmentSector) GovernmentWeights {
	switch sector {
	case SectorPublicSafety:
		return GovernmentWeights{
			MissionCriticality: 0.30, CitizenImpact: 0.15, TechHealth: 0.10,
			Security: 0.25, Interoperability: 0.10, CostEfficiency: 0.05, Compliance: 0.05,
		}
	case SectorHealthHuman:
		return GovernmentWeights{
			MissionCriticality: 0.20, CitizenImpact: 0.25, TechHealth: 0.15,
			Security: 0.20, Interoperability: 0.10, CostEfficiency: 0.05, Compliance: 0.05,
		}
	case SectorFinanceAdmin:
		return GovernmentWeights{
			MissionCriticality: 0.20, CitizenImpact: 0.10, TechHealth: 0.15,
			Security: 0.20, Interoperability: 0.10, CostEfficiency: 0.20, Compliance: 0.05,
		}
	case SectorCourtsLegal:
		return GovernmentWeights{
			MissionCriticality: 0.25, CitizenImpact: 0.20, TechHealth: 0.10,
			Security: 0.20, Interoperability: 0.15, CostEfficiency: 0.05, Compliance: 0.05,
		}
	default:
		return DefaultGovernmentWeights()
	}
}

// Validate checks the government weights sum to 1.0.
func (w GovernmentWeights) Validate() error {
	sum := w.MissionCriticality + w.CitizenImpact + w.TechHealth + w.Security +
		w.Interoperability + w.CostEfficiency + w.Compliance
	if math.Abs(sum-1.0) > 0.001 {
		return fmt.Errorf("government weights must sum to 1.0, got %.3f", sum)
	}
	return nil
}
