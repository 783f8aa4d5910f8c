package domain

import (
	"strings"
	"testing"
)

func TestFromMap(t *testing.T) {
	t.Run("SnakeCaseKeys", func(t *testing.T) {
		app := FromMap(map[string]any{
			"name":           "CRM Platform",
			"business_value": 9.0,
			"strategic_fit":  8.0,
			"tech_health":    8.0,
			"security":       7.0,
			"usage":          2000.0,
			"cost":           200000.0,
			"redundancy":     1.0,
			"dependencies":   []any{"Database Core", "Auth Service"},
		})

		if app.Name != "CRM Platform" || app.BusinessValue != 9 || app.Cost != 200000 {
			t.Errorf("app = %+v", app)
		}
		if app.Redundancy != 1 {
			t.Errorf("redundancy = %d, want 1", app.Redundancy)
		}
		if len(app.Dependencies) != 2 || app.Dependencies[1] != "Auth Service" {
			t.Errorf("dependencies = %v", app.Dependencies)
		}
		if app.DataError != "" {
			t.Errorf("unexpected data error: %s", app.DataError)
		}
	})

	t.Run("TitleCaseAliases", func(t *testing.T) {
		app := FromMap(map[string]any{
			"Application Name": "Billing System",
			"Business Value":   8,
			"Tech Health":      2,
			"Cost":             "100000",
			"Public Facing":    "yes",
		})
		if app.Name != "Billing System" || app.BusinessValue != 8 || app.TechHealth != 2 {
			t.Errorf("app = %+v", app)
		}
		if app.Cost != 100000 {
			t.Errorf("cost = %.0f, want numeric string parsed", app.Cost)
		}
		if !app.PublicFacing {
			t.Error("public facing flag not parsed from yes")
		}
	})

	t.Run("MissingDimensionsDefaultToMidpoint", func(t *testing.T) {
		app := FromMap(map[string]any{"name": "Bare"})
		for field, v := range map[string]float64{
			"business_value":      app.BusinessValue,
			"strategic_fit":       app.StrategicFit,
			"tech_health":         app.TechHealth,
			"security":            app.Security,
			"mission_criticality": app.MissionCriticality,
		} {
			if v != 5 {
				t.Errorf("%s = %.1f, want default 5", field, v)
			}
		}
		if app.Usage != 0 || app.Cost != 0 {
			t.Errorf("usage/cost = %.0f/%.0f, want 0/0", app.Usage, app.Cost)
		}
	})

	t.Run("DimensionsClamped", func(t *testing.T) {
		app := FromMap(map[string]any{
			"name":           "Outlier",
			"business_value": 15.0,
			"tech_health":    -3.0,
		})
		if app.BusinessValue != 10 || app.TechHealth != 0 {
			t.Errorf("clamped = %.1f/%.1f, want 10/0", app.BusinessValue, app.TechHealth)
		}
	})

	t.Run("NonNumericRecordsDataError", func(t *testing.T) {
		app := FromMap(map[string]any{
			"name":           "Poisoned",
			"business_value": "lots",
			"cost":           "cheap",
		})
		if app.DataError == "" {
			t.Fatal("expected data error for non-numeric fields")
		}
		if !strings.Contains(app.DataError, "business_value") || !strings.Contains(app.DataError, "cost") {
			t.Errorf("data error = %q, want both fields reported", app.DataError)
		}
		// Defaults survive the failed conversion.
		if app.BusinessValue != 5 || app.Cost != 0 {
			t.Errorf("values = %.1f/%.0f, want defaults 5/0", app.BusinessValue, app.Cost)
		}
	})

	t.Run("BatchPreservesOrder", func(t *testing.T) {
		apps := FromMaps([]map[string]any{
			{"name": "First"},
			{"name": "Second"},
		})
		if len(apps) != 2 || apps[0].Name != "First" || apps[1].Name != "Second" {
			t.Errorf("apps = %v", apps)
		}
	})
}

func TestClone(t *testing.T) {
	orig := &Application{
		Name:           "Shared",
		Dependencies:   []string{"A"},
		ComplianceReqs: []string{"SOX"},
	}
	cp := orig.Clone()
	cp.Dependencies[0] = "B"
	cp.ComplianceReqs[0] = "GDPR"

	if orig.Dependencies[0] != "A" || orig.ComplianceReqs[0] != "SOX" {
		t.Error("clone shares slice storage with the original")
	}
}

func TestClamp10(t *testing.T) {
	cases := []struct{ in, want float64 }{
		{-1, 0}, {0, 0}, {5.5, 5.5}, {10, 10}, {12, 10},
	}
	for _, c := range cases {
		if got := Clamp10(c.in); got != c.want {
			t.Errorf("Clamp10(%.1f) = %.1f, want %.1f", c.in, got, c.want)
		}
	}
}

func TestTIMECategoryValid(t *testing.T) {
	for _, c := range Categories() {
		if !c.Valid() {
			t.Errorf("%s should be valid", c)
		}
	}
	if TIMECategory("Unknown").Valid() {
		t.Error("arbitrary category should be invalid")
	}
}
