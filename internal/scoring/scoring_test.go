package scoring

import (
	"testing"

	"github.com/opensource-portfolio/kestrel/internal/domain"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(domain.DefaultScoringWeights())
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	return e
}

func TestCalculateScore(t *testing.T) {
	engine := newTestEngine(t)

	t.Run("KnownComposite", func(t *testing.T) {
		// usage_norm = 500/1000*10 = 5, cost_eff = 10*(1-150000/300000) = 5
		// (8*.25 + 6*.15 + 7*.25 + 9*.15 + 5*.10 + 5*.10) * 10 = 70
		app := &domain.Application{
			Name:          "ERP",
			BusinessValue: 8,
			StrategicFit:  6,
			TechHealth:    7,
			Security:      9,
			Usage:         500,
			Cost:          150000,
		}

		scored := engine.CalculateScore(app)
		if scored.CompositeScore != 70 {
			t.Errorf("expected composite 70, got %.2f", scored.CompositeScore)
		}
	})

	t.Run("PerfectApplication", func(t *testing.T) {
		app := &domain.Application{
			Name:          "Ideal",
			BusinessValue: 10,
			StrategicFit:  10,
			TechHealth:    10,
			Security:      10,
			Usage:         1000,
			Cost:          0,
		}

		scored := engine.CalculateScore(app)
		if scored.CompositeScore != 100 {
			t.Errorf("expected composite 100, got %.2f", scored.CompositeScore)
		}
	})

	t.Run("WorstApplication", func(t *testing.T) {
		app := &domain.Application{
			Name: "Doomed",
			Cost: 500000, // above MaxCost, cost efficiency bottoms out
		}

		scored := engine.CalculateScore(app)
		if scored.CompositeScore != 0 {
			t.Errorf("expected composite 0, got %.2f", scored.CompositeScore)
		}
	})

	t.Run("UsageCappedAtMax", func(t *testing.T) {
		low := engine.CalculateScore(&domain.Application{Usage: 1000})
		high := engine.CalculateScore(&domain.Application{Usage: 50000})
		if low.CompositeScore != high.CompositeScore {
			t.Errorf("usage above MaxUsage should not raise the score: %.2f vs %.2f",
				low.CompositeScore, high.CompositeScore)
		}
	})

	t.Run("DimensionsClamped", func(t *testing.T) {
		inRange := engine.CalculateScore(&domain.Application{BusinessValue: 10})
		overRange := engine.CalculateScore(&domain.Application{BusinessValue: 15})
		if inRange.CompositeScore != overRange.CompositeScore {
			t.Errorf("dimension above 10 should be clamped: %.2f vs %.2f",
				inRange.CompositeScore, overRange.CompositeScore)
		}
	})

	t.Run("InputNotMutated", func(t *testing.T) {
		app := &domain.Application{Name: "Frozen", BusinessValue: 8, TechHealth: 8}
		engine.CalculateScore(app)
		if app.CompositeScore != 0 {
			t.Errorf("input record was mutated: composite %.2f", app.CompositeScore)
		}
	})
}

func TestBatchCalculateScores(t *testing.T) {
	engine := newTestEngine(t)

	apps := []*domain.Application{
		{Name: "A", BusinessValue: 9, TechHealth: 9},
		{Name: "B", BusinessValue: 2, TechHealth: 2},
		{Name: "C", BusinessValue: 5, TechHealth: 5},
	}

	scored := engine.BatchCalculateScores(apps)
	if len(scored) != 3 {
		t.Fatalf("expected 3 records, got %d", len(scored))
	}
	for i, app := range scored {
		if app.Name != apps[i].Name {
			t.Errorf("order not preserved at %d: got %q", i, app.Name)
		}
	}
	if scored[0].CompositeScore <= scored[1].CompositeScore {
		t.Errorf("stronger application should score higher: %.2f vs %.2f",
			scored[0].CompositeScore, scored[1].CompositeScore)
	}

	t.Run("EmptyBatch", func(t *testing.T) {
		out := engine.BatchCalculateScores(nil)
		if len(out) != 0 {
			t.Errorf("expected empty result, got %d", len(out))
		}
	})
}

func TestNewEngineValidation(t *testing.T) {
	t.Run("WeightsMustSumToOne", func(t *testing.T) {
		w := domain.DefaultScoringWeights()
		w.BusinessValue = 0.5 // sum now 1.25
		if _, err := NewEngine(w); err == nil {
			t.Error("expected error for weights not summing to 1.0")
		}
	})

	t.Run("NegativeWeightRejected", func(t *testing.T) {
		w := domain.DefaultScoringWeights()
		w.BusinessValue = -0.05
		w.StrategicFit += 0.30 // keep the sum at 1.0
		if _, err := NewEngine(w); err == nil {
			t.Error("expected error for negative weight")
		}
	})

	t.Run("MaxCostMustBePositive", func(t *testing.T) {
		w := domain.DefaultScoringWeights()
		w.MaxCost = 0
		if _, err := NewEngine(w); err == nil {
			t.Error("expected error for zero MaxCost")
		}
	})
}
