package depgraph

import (
	"strings"
	"testing"

	"github.com/opensource-portfolio/kestrel/internal/domain"
)

// Layered fixture: a database everything leans on, an auth service, a
// portal, a reporting tail, and one isolated sandbox.
func graphApps() []*domain.Application {
	return []*domain.Application{
		{Name: "Database Core", Category: "Database", BusinessValue: 9, CompositeScore: 75},
		{Name: "Auth Service", Category: "Auth", BusinessValue: 7, CompositeScore: 68,
			Dependencies: []string{"Database Core"}},
		{Name: "Web Portal", BusinessValue: 5, CompositeScore: 45,
			Dependencies: []string{"Auth Service", "Database Core"}},
		{Name: "Reporting", BusinessValue: 3, CompositeScore: 25,
			Dependencies: []string{"Web Portal"}},
		{Name: "Sandbox", BusinessValue: 2, CompositeScore: 20},
	}
}

func TestBuildAndSummary(t *testing.T) {
	g := Build(graphApps())
	sum := g.Summary()

	if sum.Metrics.TotalNodes != 5 {
		t.Errorf("nodes = %d, want 5", sum.Metrics.TotalNodes)
	}
	if sum.Metrics.TotalEdges != 4 {
		t.Errorf("edges = %d, want 4", sum.Metrics.TotalEdges)
	}
	if sum.Metrics.AvgDependencies != 0.8 {
		t.Errorf("avg dependencies = %.2f, want 0.8", sum.Metrics.AvgDependencies)
	}
	if len(sum.Metrics.IsolatedApps) != 1 || sum.Metrics.IsolatedApps[0] != "Sandbox" {
		t.Errorf("isolated = %v, want [Sandbox]", sum.Metrics.IsolatedApps)
	}
	if len(sum.Metrics.Cycles) != 0 {
		t.Errorf("cycles = %v, want none", sum.Metrics.Cycles)
	}
	if len(sum.Metrics.HighlyConnected) == 0 || sum.Metrics.HighlyConnected[0].Name != "Web Portal" {
		t.Errorf("most connected = %v, want Web Portal first", sum.Metrics.HighlyConnected)
	}

	t.Run("EdgeTypes", func(t *testing.T) {
		types := map[string]string{}
		for _, e := range sum.Edges {
			types[e.Source+"->"+e.Target] = e.Type
		}
		if types["Auth Service->Database Core"] != "database" {
			t.Errorf("auth->db type = %s, want database", types["Auth Service->Database Core"])
		}
		if types["Web Portal->Auth Service"] != "api" {
			t.Errorf("portal->auth type = %s, want api", types["Web Portal->Auth Service"])
		}
	})

	t.Run("Criticality", func(t *testing.T) {
		levels := map[string]string{}
		for _, n := range sum.Nodes {
			levels[n.Name] = n.Criticality
		}
		want := map[string]string{
			"Database Core": CriticalityCritical,
			"Auth Service":  CriticalityHigh,
			"Web Portal":    CriticalityMedium,
			"Reporting":     CriticalityLow,
		}
		for name, level := range want {
			if levels[name] != level {
				t.Errorf("criticality[%s] = %s, want %s", name, levels[name], level)
			}
		}
	})

	t.Run("UnknownDependencyDropped", func(t *testing.T) {
		g := Build([]*domain.Application{
			{Name: "App", Dependencies: []string{"Ghost System"}},
		})
		if n := g.Summary().Metrics.TotalEdges; n != 0 {
			t.Errorf("edges = %d, want 0", n)
		}
	})
}

func TestCycles(t *testing.T) {
	g := Build([]*domain.Application{
		{Name: "A", Dependencies: []string{"B"}},
		{Name: "B", Dependencies: []string{"C"}},
		{Name: "C", Dependencies: []string{"A"}},
	})

	cycles := g.Cycles()
	if len(cycles) != 1 {
		t.Fatalf("cycles = %d, want 1", len(cycles))
	}
	cycle := cycles[0]
	if len(cycle) != 4 || cycle[0] != cycle[len(cycle)-1] {
		t.Errorf("cycle = %v, want closed walk of 3 members", cycle)
	}
}

func TestBlastRadius(t *testing.T) {
	g := Build(graphApps())

	t.Run("DatabaseFailure", func(t *testing.T) {
		br := g.BlastRadius("Database Core")

		if br.DirectImpactCount != 2 {
			t.Errorf("direct = %d, want 2", br.DirectImpactCount)
		}
		if br.IndirectImpact != 1 {
			t.Errorf("indirect = %d, want 1", br.IndirectImpact)
		}
		if br.TotalImpactCount != 3 {
			t.Errorf("total = %d, want 3", br.TotalImpactCount)
		}
		if br.RiskLevel != CriticalityMedium {
			t.Errorf("risk = %s, want medium", br.RiskLevel)
		}
		// Critical hub: 4 base hours plus half an hour per impacted app.
		if br.EstimatedDowntime != 5.5 {
			t.Errorf("downtime = %.1f, want 5.5", br.EstimatedDowntime)
		}

		impactTypes := map[string]string{}
		for _, a := range br.ImpactedApps {
			impactTypes[a.Name] = a.ImpactType
		}
		if impactTypes["Auth Service"] != "direct" || impactTypes["Reporting"] != "indirect" {
			t.Errorf("impact types = %v", impactTypes)
		}
	})

	t.Run("LeafFailure", func(t *testing.T) {
		br := g.BlastRadius("Reporting")
		if br.TotalImpactCount != 0 || br.RiskLevel != CriticalityLow {
			t.Errorf("leaf blast = %d/%s, want 0/low", br.TotalImpactCount, br.RiskLevel)
		}
		if br.EstimatedDowntime != 2.0 {
			t.Errorf("downtime = %.1f, want base 2.0", br.EstimatedDowntime)
		}
	})

	t.Run("UnknownApp", func(t *testing.T) {
		br := g.BlastRadius("Nope")
		if br.RiskLevel != "unknown" {
			t.Errorf("risk = %s, want unknown", br.RiskLevel)
		}
		if br.ImpactedApps == nil || br.Recommendations == nil {
			t.Error("impacted and recommendations should be empty, not nil")
		}
	})
}

func TestCriticalPaths(t *testing.T) {
	g := Build(graphApps())
	paths := g.CriticalPaths()

	if len(paths) != 2 {
		t.Fatalf("paths = %d, want 2", len(paths))
	}
	for _, p := range paths {
		if p.Apps[0] != "Reporting" || p.Apps[len(p.Apps)-1] != "Database Core" {
			t.Errorf("path = %v, want Reporting .. Database Core", p.Apps)
		}
		if p.WeakestLinkApp != "Reporting" || p.WeakestLinkScore != 25 {
			t.Errorf("weakest = %s/%.0f, want Reporting/25", p.WeakestLinkApp, p.WeakestLinkScore)
		}
		if p.RiskLevel != CriticalityCritical {
			t.Errorf("risk = %s, want critical for score below 30", p.RiskLevel)
		}
		if p.PathID == "" {
			t.Error("path id missing")
		}
	}
	if paths[0].TotalLength != 4 || paths[1].TotalLength != 3 {
		t.Errorf("lengths = %d/%d, want 4/3", paths[0].TotalLength, paths[1].TotalLength)
	}
}

func TestRetirementSequence(t *testing.T) {
	g := Build(graphApps())

	t.Run("DependentsRetireFirst", func(t *testing.T) {
		plan := g.RetirementSequence([]string{"Database Core", "Auth Service", "Reporting"})

		if plan.TotalApps != 3 {
			t.Fatalf("total = %d, want 3", plan.TotalApps)
		}
		order := make([]string, 0, 3)
		for _, s := range plan.Sequence {
			order = append(order, s.AppName)
		}
		// Database Core is blocked until Auth Service leaves the batch.
		if order[2] != "Database Core" {
			t.Errorf("order = %v, want Database Core last", order)
		}

		last := plan.Sequence[2]
		if last.DependentCount != 2 {
			t.Errorf("dependents = %d, want 2", last.DependentCount)
		}
		if !strings.Contains(last.Notes, "coordinate") {
			t.Errorf("notes = %q, want coordination warning", last.Notes)
		}
		if len(plan.Warnings) != 1 || !strings.Contains(plan.Warnings[0], "critical") {
			t.Errorf("warnings = %v, want critical-app warning", plan.Warnings)
		}
	})

	t.Run("CycleForcesLowestScoreOut", func(t *testing.T) {
		g := Build([]*domain.Application{
			{Name: "A", CompositeScore: 50, Dependencies: []string{"B"}},
			{Name: "B", CompositeScore: 30, Dependencies: []string{"C"}},
			{Name: "C", CompositeScore: 40, Dependencies: []string{"A"}},
		})
		plan := g.RetirementSequence([]string{"A", "B", "C"})

		if plan.Sequence[0].AppName != "B" {
			t.Errorf("first out = %s, want lowest-scoring B", plan.Sequence[0].AppName)
		}
		foundCycleWarning := false
		for _, w := range plan.Warnings {
			if strings.Contains(w, "Circular dependency") {
				foundCycleWarning = true
			}
		}
		if !foundCycleWarning {
			t.Errorf("warnings = %v, want circular dependency warning", plan.Warnings)
		}
	})
}
