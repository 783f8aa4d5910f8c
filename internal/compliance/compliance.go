// Package compliance assesses applications against regulatory control
// frameworks (SOX, PCI-DSS, HIPAA, GDPR). Requirement expressions are
// CEL programs compiled once at engine construction and evaluated against
// application attributes, so an assessment is deterministic for a given
// portfolio.
package compliance

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"

	"github.com/opensource-portfolio/kestrel/internal/domain"
)

// Compliance status values per requirement.
const (
	StatusCompliant    = "compliant"
	StatusPartial      = "partial"
	StatusNonCompliant = "non_compliant"
)

// Readiness thresholds after the severity modifier. Lower, inclusive.
const (
	compliantThreshold = 0.70
	partialThreshold   = 0.40
)

// severityModifiers shape readiness downward for stricter controls.
var severityModifiers = map[string]float64{
	SeverityCritical: -0.15,
	SeverityHigh:     -0.10,
	SeverityMedium:   -0.05,
	SeverityLow:      0,
}

var severityRank = map[string]int{
	SeverityCritical: 3,
	SeverityHigh:     2,
	SeverityMedium:   1,
	SeverityLow:      0,
}

// remediationActions maps a requirement category to its standard fix.
var remediationActions = map[string]string{
	"Data Security":        "Implement encryption and data protection controls",
	"Access Control":       "Deploy identity and access management solution",
	"Audit Trail":          "Enable comprehensive logging and monitoring",
	"Network Security":     "Update firewall rules and network segmentation",
	"Monitoring":           "Deploy SIEM and security monitoring tools",
	"Business Continuity":  "Implement backup and disaster recovery procedures",
	"Incident Response":    "Develop and test incident response procedures",
	"Data Rights":          "Implement data subject rights management system",
	"System Design":        "Redesign system with privacy by design principles",
	"Change Management":    "Establish formal change management process",
	"Security Maintenance": "Implement patch management and vulnerability scanning",
}

// RequirementResult is the evaluated outcome of one requirement for one
// application.
type RequirementResult struct {
	RequirementID   string  `json:"requirement_id"`
	RequirementName string  `json:"requirement_name"`
	Description     string  `json:"description"`
	Category        string  `json:"category"`
	Severity        string  `json:"severity"`
	Status          string  `json:"status"`
	Score           float64 `json:"score"`
	Weight          float64 `json:"weight"`
}

// Assessment is the full framework assessment of one application.
type Assessment struct {
	ApplicationName      string              `json:"application_name"`
	ApplicationID        string              `json:"application_id,omitempty"`
	Framework            string              `json:"framework"`
	AssessmentDate       time.Time           `json:"assessment_date"`
	CompliancePercentage float64             `json:"compliance_percentage"`
	ComplianceLevel      string              `json:"compliance_level"`
	RiskLevel            string              `json:"risk_level"`
	TotalRequirements    int                 `json:"total_requirements"`
	CompliantCount       int                 `json:"compliant_count"`
	PartialCount         int                 `json:"partial_count"`
	NonCompliantCount    int                 `json:"non_compliant_count"`
	CriticalGapsCount    int                 `json:"critical_gaps_count"`
	RequirementResults   []RequirementResult `json:"requirement_results"`
	Gaps                 []RequirementResult `json:"gaps"`
	CriticalGaps         []RequirementResult `json:"critical_gaps"`
}

// PortfolioSummary aggregates a batch assessment.
type PortfolioSummary struct {
	TotalApplications      int     `json:"total_applications"`
	AvgCompliancePct       float64 `json:"avg_compliance_percentage"`
	FullyCompliant         int     `json:"fully_compliant"`
	SubstantiallyCompliant int     `json:"substantially_compliant"`
	PartiallyCompliant     int     `json:"partially_compliant"`
	NonCompliant           int     `json:"non_compliant"`
	CriticalRiskApps       int     `json:"critical_risk_apps"`
	HighRiskApps           int     `json:"high_risk_apps"`
}

// BatchResult is the portfolio-wide assessment against one framework.
type BatchResult struct {
	Framework             string                `json:"framework"`
	AssessmentDate        time.Time             `json:"assessment_date"`
	PortfolioSummary      PortfolioSummary      `json:"portfolio_summary"`
	RiskDistribution      map[string]int        `json:"risk_distribution"`
	Assessments           []Assessment          `json:"application_assessments"`
	RemediationPriorities []RemediationPriority `json:"remediation_priorities"`
}

// RemediationPriority is one ranked cross-portfolio gap.
type RemediationPriority struct {
	RequirementID     string   `json:"requirement_id"`
	RequirementName   string   `json:"requirement_name"`
	Category          string   `json:"category"`
	Severity          string   `json:"severity"`
	AffectedApps      []string `json:"affected_apps"`
	AffectedCount     int      `json:"affected_count"`
	PriorityRank      int      `json:"priority_rank"`
	RecommendedAction string   `json:"recommended_action"`
	EstimatedEffort   string   `json:"estimated_effort"`
}

// FrameworkInfo is the catalog entry returned by ListFrameworks.
type FrameworkInfo struct {
	Name              string `json:"name"`
	Description       string `json:"description"`
	RequirementsCount int    `json:"requirements_count"`
}

type compiledRequirement struct {
	req     Requirement
	program cel.Program
}

type compiledFramework struct {
	framework    Framework
	requirements []compiledRequirement
}

// Engine evaluates compiled framework requirements. Safe for concurrent
// use; the framework set is fixed at construction.
type Engine struct {
	mu         sync.RWMutex
	env        *cel.Env
	frameworks map[string]*compiledFramework
	order      []string
}

// NewEngine compiles the built-in frameworks.
func NewEngine() (*Engine, error) {
	return NewEngineWithFrameworks(BuiltinFrameworks())
}

// NewEngineWithFrameworks compiles a custom framework catalog. Compilation
// failures surface at construction, not at assessment time.
func NewEngineWithFrameworks(frameworks []Framework) (*Engine, error) {
	env, err := cel.NewEnv(
		cel.Variable("app", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("security", cel.DoubleType),
		cel.Variable("tech_health", cel.DoubleType),
		cel.Variable("business_value", cel.DoubleType),
		cel.Variable("cost", cel.DoubleType),
		cel.Variable("data_sensitivity", cel.StringType),
		cel.Variable("public_facing", cel.BoolType),
		cel.Variable("system_of_record", cel.BoolType),
		cel.Variable("grant_funded", cel.BoolType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	e := &Engine{
		env:        env,
		frameworks: make(map[string]*compiledFramework, len(frameworks)),
	}
	for _, fw := range frameworks {
		compiled := &compiledFramework{framework: fw}
		for _, req := range fw.Requirements {
			program, err := e.compile(req)
			if err != nil {
				return nil, err
			}
			compiled.requirements = append(compiled.requirements, compiledRequirement{req: req, program: program})
		}
		e.frameworks[fw.Name] = compiled
		e.order = append(e.order, fw.Name)
	}
	return e, nil
}

func (e *Engine) compile(req Requirement) (cel.Program, error) {
	ast, issues := e.env.Compile(req.Expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("failed to compile requirement %s: %w", req.ID, issues.Err())
	}
	outputType := ast.OutputType()
	if outputType != cel.BoolType && outputType != cel.DoubleType && outputType != cel.IntType {
		return nil, fmt.Errorf("requirement %s: expression must return bool, int, or double, got %s", req.ID, outputType)
	}
	program, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create program for requirement %s: %w", req.ID, err)
	}
	return program, nil
}

// Assess evaluates one application against one framework.
func (e *Engine) Assess(app *domain.Application, frameworkName string) (*Assessment, error) {
	e.mu.RLock()
	compiled, ok := e.frameworks[frameworkName]
	e.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrFrameworkNotFound, frameworkName)
	}

	activation := activationFor(app)

	var totalWeight, weightedScore float64
	results := make([]RequirementResult, 0, len(compiled.requirements))
	for _, cr := range compiled.requirements {
		score := evaluate(cr.program, activation, cr.req.Severity)
		status := statusFor(score)

		// compliant=1.0, partial=0.5, non_compliant=0.0 toward the total.
		var contribution float64
		switch status {
		case StatusCompliant:
			contribution = 1.0
		case StatusPartial:
			contribution = 0.5
		}
		weightedScore += contribution * cr.req.Weight
		totalWeight += cr.req.Weight

		results = append(results, RequirementResult{
			RequirementID:   cr.req.ID,
			RequirementName: cr.req.Name,
			Description:     cr.req.Description,
			Category:        cr.req.Category,
			Severity:        cr.req.Severity,
			Status:          status,
			Score:           contribution,
			Weight:          cr.req.Weight,
		})
	}

	pct := 0.0
	if totalWeight > 0 {
		pct = round2(weightedScore / totalWeight * 100)
	}
	level, risk := levelFor(pct)

	a := &Assessment{
		ApplicationName:      app.Name,
		ApplicationID:        app.ID,
		Framework:            frameworkName,
		AssessmentDate:       time.Now().UTC(),
		CompliancePercentage: pct,
		ComplianceLevel:      level,
		RiskLevel:            risk,
		TotalRequirements:    len(compiled.requirements),
		RequirementResults:   results,
	}
	for _, r := range results {
		switch r.Status {
		case StatusCompliant:
			a.CompliantCount++
		case StatusPartial:
			a.PartialCount++
		default:
			a.NonCompliantCount++
		}
		if r.Status != StatusCompliant {
			a.Gaps = append(a.Gaps, r)
			if r.Severity == SeverityCritical {
				a.CriticalGaps = append(a.CriticalGaps, r)
			}
		}
	}
	a.CriticalGapsCount = len(a.CriticalGaps)
	return a, nil
}

// BatchAssess evaluates every application and aggregates the portfolio
// view with ranked remediation priorities.
func (e *Engine) BatchAssess(apps []*domain.Application, frameworkName string) (*BatchResult, error) {
	assessments := make([]Assessment, 0, len(apps))
	for _, app := range apps {
		a, err := e.Assess(app, frameworkName)
		if err != nil {
			return nil, err
		}
		assessments = append(assessments, *a)
	}

	summary := PortfolioSummary{TotalApplications: len(assessments)}
	risk := map[string]int{"Low": 0, "Medium": 0, "High": 0, "Critical": 0}
	var pctSum float64
	for _, a := range assessments {
		pctSum += a.CompliancePercentage
		risk[a.RiskLevel]++
		switch a.ComplianceLevel {
		case "Fully Compliant":
			summary.FullyCompliant++
		case "Substantially Compliant":
			summary.SubstantiallyCompliant++
		case "Partially Compliant":
			summary.PartiallyCompliant++
		default:
			summary.NonCompliant++
		}
	}
	if len(assessments) > 0 {
		summary.AvgCompliancePct = round2(pctSum / float64(len(assessments)))
	}
	summary.CriticalRiskApps = risk["Critical"]
	summary.HighRiskApps = risk["High"]

	return &BatchResult{
		Framework:             frameworkName,
		AssessmentDate:        time.Now().UTC(),
		PortfolioSummary:      summary,
		RiskDistribution:      risk,
		Assessments:           assessments,
		RemediationPriorities: remediationPriorities(assessments),
	}, nil
}

// remediationPriorities rolls critical gaps up across applications and
// ranks the top ten by severity then affected count.
func remediationPriorities(assessments []Assessment) []RemediationPriority {
	byReq := map[string]*RemediationPriority{}
	var order []string
	for _, a := range assessments {
		for _, gap := range a.CriticalGaps {
			p, seen := byReq[gap.RequirementID]
			if !seen {
				p = &RemediationPriority{
					RequirementID:   gap.RequirementID,
					RequirementName: gap.RequirementName,
					Category:        gap.Category,
					Severity:        gap.Severity,
				}
				byReq[gap.RequirementID] = p
				order = append(order, gap.RequirementID)
			}
			p.AffectedApps = append(p.AffectedApps, a.ApplicationName)
			p.AffectedCount++
		}
	}

	priorities := make([]RemediationPriority, 0, len(byReq))
	for _, id := range order {
		priorities = append(priorities, *byReq[id])
	}
	sort.SliceStable(priorities, func(i, j int) bool {
		si, sj := severityRank[priorities[i].Severity], severityRank[priorities[j].Severity]
		if si != sj {
			return si > sj
		}
		return priorities[i].AffectedCount > priorities[j].AffectedCount
	})

	if len(priorities) > 10 {
		priorities = priorities[:10]
	}
	for i := range priorities {
		priorities[i].PriorityRank = i + 1
		action, ok := remediationActions[priorities[i].Category]
		if !ok {
			action = "Review and implement appropriate controls"
		}
		priorities[i].RecommendedAction = action
		priorities[i].EstimatedEffort = estimateEffort(priorities[i])
	}
	return priorities
}

func estimateEffort(p RemediationPriority) string {
	switch {
	case p.Severity == SeverityCritical && p.AffectedCount > 10:
		return "High (3-6 months)"
	case (p.Severity == SeverityCritical || p.Severity == SeverityHigh) && p.AffectedCount > 5:
		return "Medium (1-3 months)"
	default:
		return "Low (< 1 month)"
	}
}

// FrameworkSummary describes one framework's catalog.
func (e *Engine) FrameworkSummary(name string) (*Framework, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	compiled, ok := e.frameworks[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrFrameworkNotFound, name)
	}
	fw := compiled.framework
	return &fw, nil
}

// ListFrameworks returns the catalog in registration order.
func (e *Engine) ListFrameworks() []FrameworkInfo {
	e.mu.RLock()
	defer e.mu.RUnlock()
	infos := make([]FrameworkInfo, 0, len(e.order))
	for _, name := range e.order {
		fw := e.frameworks[name].framework
		infos = append(infos, FrameworkInfo{
			Name:              fw.Name,
			Description:       fw.Description,
			RequirementsCount: len(fw.Requirements),
		})
	}
	return infos
}

func activationFor(app *domain.Application) map[string]any {
	return map[string]any{
		"app": map[string]any{
			"id":       app.ID,
			"name":     app.Name,
			"category": app.Category,
		},
		"security":         app.Security,
		"tech_health":      app.TechHealth,
		"business_value":   app.BusinessValue,
		"cost":             app.Cost,
		"data_sensitivity": app.DataSensitivity,
		"public_facing":    app.PublicFacing,
		"system_of_record": app.SystemOfRecord,
		"grant_funded":     app.GrantFunded,
	}
}

// evaluate runs the program and applies the severity modifier, clamping
// the readiness score to [0,1]. Evaluation errors yield 0.
func evaluate(program cel.Program, activation map[string]any, severity string) float64 {
	out, _, err := program.Eval(activation)
	if err != nil {
		return 0
	}
	score := toScore(out) + severityModifiers[severity]
	return math.Max(0, math.Min(1, score))
}

func toScore(val ref.Val) float64 {
	switch v := val.(type) {
	case types.Bool:
		if v {
			return 1.0
		}
		return 0.0
	case types.Double:
		return float64(v)
	case types.Int:
		return float64(v)
	default:
		return 0.0
	}
}

func statusFor(score float64) string {
	switch {
	case score >= compliantThreshold:
		return StatusCompliant
	case score >= partialThreshold:
		return StatusPartial
	default:
		return StatusNonCompliant
	}
}

func levelFor(pct float64) (level, risk string) {
	switch {
	case pct >= 95:
		return "Fully Compliant", "Low"
	case pct >= 80:
		return "Substantially Compliant", "Medium"
	case pct >= 60:
		return "Partially Compliant", "High"
	default:
		return "Non-Compliant", "Critical"
	}
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
