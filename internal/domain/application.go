// Package domain defines the core interfaces and types for Kestrel.
package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// TIMECategory is the strategic classification of an application:
// Tolerate, Invest, Migrate, or Eliminate.
type TIMECategory string

const (
	CategoryInvest    TIMECategory = "Invest"
	CategoryTolerate  TIMECategory = "Tolerate"
	CategoryMigrate   TIMECategory = "Migrate"
	CategoryEliminate TIMECategory = "Eliminate"
)

// Categories lists all TIME categories in display order.
func Categories() []TIMECategory {
	return []TIMECategory{CategoryInvest, CategoryTolerate, CategoryMigrate, CategoryEliminate}
}

// Valid reports whether c is one of the four TIME categories.
func (c TIMECategory) Valid() bool {
	switch c {
	case CategoryInvest, CategoryTolerate, CategoryMigrate, CategoryEliminate:
		return true
	}
	return false
}

// String returns the external display form of the category.
func (c TIMECategory) String() string { return string(c) }

// ActionType is a concrete recommended action for an application.
type ActionType string

const (
	ActionImmediate   ActionType = "IMMEDIATE_ACTION"
	ActionInvest      ActionType = "INVEST"
	ActionRetain      ActionType = "RETAIN"
	ActionMaintain    ActionType = "MAINTAIN"
	ActionTolerate    ActionType = "TOLERATE"
	ActionMigrate     ActionType = "MIGRATE"
	ActionConsolidate ActionType = "CONSOLIDATE"
	ActionRetire      ActionType = "RETIRE"

	// Roadmap action kinds (lowercase by convention in exported plans).
	ActionKindRetire      = "retire"
	ActionKindModernize   = "modernize"
	ActionKindConsolidate = "consolidate"
)

// Application is the canonical, strongly-typed application record.
// Boundary input arrives as loose key/value maps (snake_case or Title Case
// aliases); FromMap produces this single internal representation so engine
// code never branches on field aliases.
type Application struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Category    string `json:"category,omitempty"`
	Description string `json:"description,omitempty"`

	// Business dimensions (0-10 except Usage, which is a raw count).
	BusinessValue float64 `json:"business_value"`
	StrategicFit  float64 `json:"strategic_fit"`
	Usage         float64 `json:"usage"`

	// Technical dimensions (0-10).
	TechHealth float64 `json:"tech_health"`
	Security   float64 `json:"security"`

	// Annual cost in dollars.
	Cost float64 `json:"cost"`

	// Redundancy flag: 1 if the application duplicates another system.
	Redundancy int `json:"redundancy"`

	// Government-sector dimensions.
	MissionCriticality float64  `json:"mission_criticality,omitempty"`
	CitizenImpact      float64  `json:"citizen_impact,omitempty"`
	Interoperability   float64  `json:"interoperability_score,omitempty"`
	DataSensitivity    string   `json:"data_sensitivity,omitempty"`
	GrantFunded        bool     `json:"grant_funded,omitempty"`
	SystemOfRecord     bool     `json:"system_of_record,omitempty"`
	PublicFacing       bool     `json:"public_facing,omitempty"`
	SharedService      bool     `json:"shared_service,omitempty"`
	ComplianceReqs     []string `json:"compliance_requirements,omitempty"`

	// Explicit dependency list (application names).
	Dependencies []string `json:"dependencies,omitempty"`

	// Derived fields, written back by pipeline stages.
	CompositeScore    float64      `json:"composite_score"`
	TIMECategory      TIMECategory `json:"time_category,omitempty"`
	TIMERationale     string       `json:"time_rationale,omitempty"`
	BVScore           float64      `json:"time_bv_score,omitempty"`
	TQScore           float64      `json:"time_tq_score,omitempty"`
	RecommendedAction ActionType   `json:"recommended_action,omitempty"`
	ActionPriority    int          `json:"action_priority,omitempty"`
	ActionRationale   string       `json:"action_rationale,omitempty"`

	// DataError records a field conversion failure detected at the input
	// boundary. Batch stages must not abort on it: the record is carried
	// through with neutral defaults and an explanatory rationale.
	DataError string `json:"data_error,omitempty"`
}

// Clone returns a copy of the application. Slices are copied so that
// simulation engines can mutate working copies without touching the
// caller's snapshot.
func (a *Application) Clone() *Application {
	cp := *a
	if a.Dependencies != nil {
		cp.Dependencies = append([]string(nil), a.Dependencies...)
	}
	if a.ComplianceReqs != nil {
		cp.ComplianceReqs = append([]string(nil), a.ComplianceReqs...)
	}
	return &cp
}

// CloneAll deep-copies a slice of applications.
func CloneAll(apps []*Application) []*Application {
	out := make([]*Application, len(apps))
	for i, a := range apps {
		out[i] = a.Clone()
	}
	return out
}

// Clamp10 bounds a dimension score to [0,10].
func Clamp10(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 10 {
		return 10
	}
	return v
}

// FromMap normalizes a loose key/value record into an Application.
// Unknown keys are ignored. Missing dimensions default to the neutral
// midpoint 5; usage and cost default to 0. Dimension values are clamped to
// [0,10]. A non-numeric value in a numeric field does not abort the
// conversion: the field keeps its default and the error is recorded in
// DataError so the classifier can degrade the record per batch-resilience
// rules.
func FromMap(m map[string]any) *Application {
	app := &Application{
		Name:          str(m, "name", "Name", "Application Name"),
		ID:            str(m, "id", "ID"),
		Category:      str(m, "category", "Category"),
		Description:   str(m, "description", "Description"),
		BusinessValue: 5, StrategicFit: 5, TechHealth: 5, Security: 5,
		MissionCriticality: 5, CitizenImpact: 5, Interoperability: 5,
		DataSensitivity: str(m, "data_sensitivity", "Data Sensitivity"),
	}

	var errs []string
	dim := func(dst *float64, keys ...string) {
		v, ok, err := num(m, keys...)
		if err != nil {
			errs = append(errs, err.Error())
			return
		}
		if ok {
			*dst = Clamp10(v)
		}
	}
	raw := func(dst *float64, keys ...string) {
		v, ok, err := num(m, keys...)
		if err != nil {
			errs = append(errs, err.Error())
			return
		}
		if ok && v > 0 {
			*dst = v
		}
	}

	dim(&app.BusinessValue, "business_value", "Business Value")
	dim(&app.StrategicFit, "strategic_fit", "Strategic Fit")
	dim(&app.TechHealth, "tech_health", "Tech Health")
	dim(&app.Security, "security", "Security")
	dim(&app.MissionCriticality, "mission_criticality", "Mission Criticality")
	dim(&app.CitizenImpact, "citizen_impact", "Citizen Impact")
	dim(&app.Interoperability, "interoperability_score", "Interoperability Score")
	raw(&app.Usage, "usage", "Usage")
	raw(&app.Cost, "cost", "Cost")

	if v, ok, err := num(m, "redundancy", "Redundancy"); err != nil {
		errs = append(errs, err.Error())
	} else if ok && v >= 1 {
		app.Redundancy = 1
	}
	if v, ok, err := num(m, "composite_score", "Composite Score"); err != nil {
		errs = append(errs, err.Error())
	} else if ok {
		app.CompositeScore = v
	}

	app.GrantFunded = flag(m, "grant_funded", "Grant Funded")
	app.SystemOfRecord = flag(m, "system_of_record", "System of Record")
	app.PublicFacing = flag(m, "public_facing", "Public Facing")
	app.SharedService = flag(m, "shared_service", "Shared Service")
	app.Dependencies = strs(m, "dependencies", "Dependencies")
	app.ComplianceReqs = strs(m, "compliance_requirements", "Compliance Requirements")

	if len(errs) > 0 {
		app.DataError = strings.Join(errs, "; ")
	}
	return app
}

// FromMaps normalizes a batch of loose records.
func FromMaps(records []map[string]any) []*Application {
	apps := make([]*Application, len(records))
	for i, m := range records {
		apps[i] = FromMap(m)
	}
	return apps
}

func str(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if s, ok := v.(string); ok {
				return s
			}
		}
	}
	return ""
}

func num(m map[string]any, keys ...string) (float64, bool, error) {
	for _, k := range keys {
		v, ok := m[k]
		if !ok || v == nil {
			continue
		}
		switch n := v.(type) {
		case float64:
			return n, true, nil
		case float32:
			return float64(n), true, nil
		case int:
			return float64(n), true, nil
		case int64:
			return float64(n), true, nil
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
			if err != nil {
				return 0, false, fmt.Errorf("field %q: non-numeric value %q", k, n)
			}
			return f, true, nil
		case bool:
			if n {
				return 1, true, nil
			}
			return 0, true, nil
		default:
			return 0, false, fmt.Errorf("field %q: unsupported type %T", k, v)
		}
	}
	return 0, false, nil
}

func flag(m map[string]any, keys ...string) bool {
	for _, k := range keys {
		v, ok := m[k]
		if !ok {
			continue
		}
		switch b := v.(type) {
		case bool:
			return b
		case float64:
			return b >= 1
		case int:
			return b >= 1
		case string:
			return strings.EqualFold(b, "true") || b == "1" || strings.EqualFold(b, "yes")
		}
	}
	return false
}

func strs(m map[string]any, keys ...string) []string {
	for _, k := range keys {
		v, ok := m[k]
		if !ok {
			continue
		}
		switch l := v.(type) {
		case []string:
			return append([]string(nil), l...)
		case []any:
			out := make([]string, 0, len(l))
			for _, e := range l {
				if s, ok := e.(string); ok {
					out = append(out, s)
				}
			}
			return out
		}
	}
	return nil
}
