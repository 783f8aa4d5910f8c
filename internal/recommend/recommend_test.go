package recommend

import (
	"testing"

	"github.com/opensource-portfolio/kestrel/internal/domain"
)

func TestRecommend(t *testing.T) {
	tests := []struct {
		name         string
		app          domain.Application
		wantAction   domain.ActionType
		wantPriority int
	}{
		{
			name:         "TopPerformerInvests",
			app:          domain.Application{TIMECategory: domain.CategoryInvest, CompositeScore: 85},
			wantAction:   domain.ActionInvest,
			wantPriority: 1,
		},
		{
			name:         "SolidPerformerRetains",
			app:          domain.Application{TIMECategory: domain.CategoryInvest, CompositeScore: 70},
			wantAction:   domain.ActionRetain,
			wantPriority: 2,
		},
		{
			name:         "DecentTolerateMaintains",
			app:          domain.Application{TIMECategory: domain.CategoryTolerate, CompositeScore: 60},
			wantAction:   domain.ActionMaintain,
			wantPriority: 3,
		},
		{
			name:         "WeakTolerateTolerates",
			app:          domain.Application{TIMECategory: domain.CategoryTolerate, CompositeScore: 40},
			wantAction:   domain.ActionTolerate,
			wantPriority: 4,
		},
		{
			name: "SevereExposureEscalates",
			app: domain.Application{
				TIMECategory: domain.CategoryMigrate, CompositeScore: 30,
				TechHealth: 2, Security: 6,
			},
			wantAction:   domain.ActionImmediate,
			wantPriority: 0,
		},
		{
			name: "LowScoreHealthyTechMigrates",
			app: domain.Application{
				TIMECategory: domain.CategoryMigrate, CompositeScore: 30,
				TechHealth: 6, Security: 6,
			},
			wantAction:   domain.ActionMigrate,
			wantPriority: 5,
		},
		{
			name: "ModerateScorePoorTechMigrates",
			app: domain.Application{
				TIMECategory: domain.CategoryMigrate, CompositeScore: 50,
				TechHealth: 2, Security: 2,
			},
			wantAction:   domain.ActionMigrate,
			wantPriority: 5,
		},
		{
			name:         "RedundantEliminateConsolidates",
			app:          domain.Application{TIMECategory: domain.CategoryEliminate, Redundancy: 1},
			wantAction:   domain.ActionConsolidate,
			wantPriority: 6,
		},
		{
			name:         "PlainEliminateRetires",
			app:          domain.Application{TIMECategory: domain.CategoryEliminate},
			wantAction:   domain.ActionRetire,
			wantPriority: 7,
		},
		{
			name:         "UnclassifiedDegradesToTolerate",
			app:          domain.Application{},
			wantAction:   domain.ActionTolerate,
			wantPriority: 4,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := NewEngine()
			got := e.Recommend(&tc.app)
			if got.RecommendedAction != tc.wantAction {
				t.Errorf("expected action %s, got %s", tc.wantAction, got.RecommendedAction)
			}
			if got.ActionPriority != tc.wantPriority {
				t.Errorf("expected priority %d, got %d", tc.wantPriority, got.ActionPriority)
			}
			if got.ActionRationale == "" {
				t.Error("expected a rationale")
			}
			if tc.app.RecommendedAction != "" {
				t.Error("input record was mutated")
			}
		})
	}
}

func TestPrioritizeActions(t *testing.T) {
	e := NewEngine()

	apps := e.BatchRecommend([]*domain.Application{
		{Name: "Zeta", TIMECategory: domain.CategoryInvest, CompositeScore: 85},
		{Name: "Urgent", TIMECategory: domain.CategoryMigrate, CompositeScore: 20, TechHealth: 2},
		{Name: "Alpha", TIMECategory: domain.CategoryInvest, CompositeScore: 85},
		{Name: "Old", TIMECategory: domain.CategoryEliminate, CompositeScore: 15},
	})

	ordered := e.PrioritizeActions(apps)
	if len(ordered) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(ordered))
	}

	// Priority ascending: IMMEDIATE_ACTION (0) first, RETIRE (7) last
	if ordered[0].Name != "Urgent" {
		t.Errorf("expected Urgent first, got %s", ordered[0].Name)
	}
	if ordered[len(ordered)-1].Name != "Old" {
		t.Errorf("expected Old last, got %s", ordered[len(ordered)-1].Name)
	}

	// Equal priority and score: alphabetical tie-break keeps the order stable
	if ordered[1].Name != "Alpha" || ordered[2].Name != "Zeta" {
		t.Errorf("expected Alpha before Zeta on tie, got %s then %s", ordered[1].Name, ordered[2].Name)
	}
}

func TestDistribution(t *testing.T) {
	e := NewEngine()

	out := e.BatchRecommend([]*domain.Application{
		{Name: "A", TIMECategory: domain.CategoryInvest, CompositeScore: 90},
		{Name: "B", TIMECategory: domain.CategoryInvest, CompositeScore: 90},
		{Name: "C", TIMECategory: domain.CategoryEliminate},
	})

	dist := Distribution(out)
	if dist[string(domain.ActionInvest)] != 2 {
		t.Errorf("expected 2 INVEST, got %d", dist[string(domain.ActionInvest)])
	}
	if dist[string(domain.ActionRetire)] != 1 {
		t.Errorf("expected 1 RETIRE, got %d", dist[string(domain.ActionRetire)])
	}
	// Zero-count actions are omitted
	if _, ok := dist[string(domain.ActionMigrate)]; ok {
		t.Error("expected no MIGRATE entry")
	}

	if len(Distribution(nil)) != 0 {
		t.Error("expected empty distribution for empty batch")
	}
}
