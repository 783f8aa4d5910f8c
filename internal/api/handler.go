package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/opensource-portfolio/kestrel/internal/compliance"
	"github.com/opensource-portfolio/kestrel/internal/costmodel"
	"github.com/opensource-portfolio/kestrel/internal/depgraph"
	"github.com/opensource-portfolio/kestrel/internal/domain"
	"github.com/opensource-portfolio/kestrel/internal/rationalize"
	"github.com/opensource-portfolio/kestrel/internal/roadmap"
	"github.com/opensource-portfolio/kestrel/internal/scoring"
	"github.com/opensource-portfolio/kestrel/internal/whatif"
)

// analysisCacheTTL bounds how long a completed analysis stays in cache.
const analysisCacheTTL = 15 * time.Minute

// Handler holds dependencies for API handlers.
type Handler struct {
	repo       domain.Repository
	cache      domain.Cache
	bus        domain.EventBus
	pipeline   *rationalize.Engine
	compliance *compliance.Engine
	version    string

	// Classifier strategy from configuration. A government portfolio type
	// routes the generic analyze endpoint through the public-sector
	// classifier; sector is the preset when a request names none.
	portfolioType domain.PortfolioType
	sector        domain.GovernmentSector
}

// NewHandler creates a new API handler.
func NewHandler(cfg *domain.Config, repo domain.Repository, cache domain.Cache, bus domain.EventBus, pipeline *rationalize.Engine, complianceEngine *compliance.Engine, version string) *Handler {
	return &Handler{
		repo:          repo,
		cache:         cache,
		bus:           bus,
		pipeline:      pipeline,
		compliance:    complianceEngine,
		version:       version,
		portfolioType: cfg.PortfolioType,
		sector:        cfg.Sector,
	}
}

// PortfolioRequest is the request body for analysis and simulation
// endpoints. Applications arrive as loose records and are normalized at
// this boundary; engine code only ever sees domain.Application.
type PortfolioRequest struct {
	PortfolioID  string           `json:"portfolioId,omitempty"`
	Applications []map[string]any `json:"applications"`

	// Government analysis options.
	Sector string  `json:"sector,omitempty"`
	Budget float64 `json:"budget,omitempty"`

	// Scenario options.
	Apps              []string              `json:"apps,omitempty"`
	AppGroups         [][]string            `json:"app_groups,omitempty"`
	HealthImprovement float64               `json:"health_improvement,omitempty"`
	CostReduction     float64               `json:"cost_reduction,omitempty"`
	Scenarios         []domain.ScenarioStep `json:"scenarios,omitempty"`
}

// decodePortfolio parses the request body and normalizes the application
// records. A nil return means the error response has already been written.
func (h *Handler) decodePortfolio(w http.ResponseWriter, r *http.Request) (*PortfolioRequest, []*domain.Application) {
	var req PortfolioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return nil, nil
	}
	if len(req.Applications) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "applications list is required",
		})
		return nil, nil
	}
	return &req, domain.FromMaps(req.Applications)
}

// AnalyzePortfolio handles POST /portfolios/analyze: the full
// scoring -> TIME -> recommendation pipeline, synchronously.
func (h *Handler) AnalyzePortfolio(w http.ResponseWriter, r *http.Request) {
	if h.portfolioType == domain.PortfolioGovernment {
		h.AnalyzeGovernment(w, r)
		return
	}

	start := time.Now()
	ctx := r.Context()
	tenantID := GetTenantID(ctx)
	traceID := GetTraceID(ctx)

	req, apps := h.decodePortfolio(w, r)
	if req == nil {
		return
	}

	analysis := h.pipeline.ProcessPortfolio(apps)
	analysis.TenantID = tenantID

	portfolioID := req.PortfolioID
	if portfolioID == "" {
		portfolioID = uuid.New().String()
	}

	if h.repo != nil {
		if err := h.repo.SaveApplications(ctx, tenantID, portfolioID, apps); err != nil {
			slog.Error("failed to save portfolio snapshot", "portfolio_id", portfolioID, "error", err)
		}
		if err := h.repo.SaveAnalysis(ctx, tenantID, analysis); err != nil {
			slog.Error("failed to save analysis", "analysis_id", analysis.ID, "error", err)
		}
	}

	if h.cache != nil {
		if err := h.cache.SetAnalysis(ctx, tenantID, analysis, analysisCacheTTL); err != nil {
			slog.Warn("failed to cache analysis", "analysis_id", analysis.ID, "error", err)
		}
	}

	if h.bus != nil {
		payload, _ := json.Marshal(analysis)
		if err := h.bus.Publish(ctx, tenantID, domain.TopicAnalysisCompleted, payload); err != nil {
			slog.Error("failed to publish analysis", "analysis_id", analysis.ID, "error", err)
		}
	}

	slog.Info("portfolio analyzed",
		"tenant_id", tenantID,
		"trace_id", traceID,
		"portfolio_id", portfolioID,
		"analysis_id", analysis.ID,
		"application_count", analysis.Summary.TotalApplications,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	writeJSON(w, http.StatusOK, map[string]any{
		"portfolioId": portfolioID,
		"analysis":    analysis,
	})
}

// AnalyzeGovernment handles POST /portfolios/analyze/government: the
// public-sector classifier with sector presets and risk-factor penalties.
func (h *Handler) AnalyzeGovernment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)

	req, apps := h.decodePortfolio(w, r)
	if req == nil {
		return
	}

	sector := domain.GovernmentSector(req.Sector)
	if req.Sector == "" {
		sector = h.sector
	}

	engine := scoring.NewSectorEngine(sector)
	portfolio := engine.BatchScore(apps)

	resp := map[string]any{
		"sector":    string(sector),
		"portfolio": portfolio,
	}
	if req.Budget > 0 {
		resp["modernization_priorities"] = engine.ModernizationPriorities(apps, req.Budget)
	}

	slog.Info("government portfolio scored",
		"tenant_id", tenantID,
		"sector", string(sector),
		"application_count", len(apps),
	)

	writeJSON(w, http.StatusOK, resp)
}

// GetAnalysis retrieves a previously stored analysis by ID, consulting
// the cache before the repository.
func (h *Handler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)
	analysisID := chi.URLParam(r, "id")

	if analysisID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "analysis id is required",
		})
		return
	}

	if h.cache != nil {
		if cached, err := h.cache.GetAnalysis(ctx, tenantID, analysisID); err == nil && cached != nil {
			writeJSON(w, http.StatusOK, cached)
			return
		}
	}

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	analysis, err := h.repo.GetAnalysis(ctx, tenantID, analysisID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			slog.Error("failed to get analysis", "id", analysisID, "error", err)
		}
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "analysis not found",
		})
		return
	}

	if h.cache != nil {
		_ = h.cache.SetAnalysis(ctx, tenantID, analysis, analysisCacheTTL)
	}

	writeJSON(w, http.StatusOK, analysis)
}

// Simulate handles POST /scenarios/{type}: what-if simulation of a
// retirement, modernization, consolidation, or combined scenario against
// the submitted portfolio snapshot.
func (h *Handler) Simulate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)
	scenarioType := chi.URLParam(r, "type")

	req, apps := h.decodePortfolio(w, r)
	if req == nil {
		return
	}

	engine := whatif.New(apps)

	var result domain.ScenarioResult
	switch scenarioType {
	case "retirement":
		result = engine.SimulateRetirement(req.Apps)
	case "modernization":
		result = engine.SimulateModernization(req.Apps, req.HealthImprovement)
	case "consolidation":
		result = engine.SimulateConsolidation(req.AppGroups, req.CostReduction)
	case "combined":
		result = engine.SimulateCombined(req.Scenarios)
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "unknown scenario type: " + scenarioType,
		})
		return
	}

	if h.bus != nil {
		payload, _ := json.Marshal(result)
		if err := h.bus.Publish(ctx, tenantID, domain.TopicScenarioSimulated, payload); err != nil {
			slog.Error("failed to publish scenario result", "scenario_type", scenarioType, "error", err)
		}
	}

	slog.Info("scenario simulated",
		"tenant_id", tenantID,
		"scenario_type", scenarioType,
		"apps_affected", len(result.AppsAffected),
	)

	writeJSON(w, http.StatusOK, result)
}

// RecommendScenarios handles POST /scenarios/recommended: heuristic
// candidate scenarios for the caller to feed back into simulation.
func (h *Handler) RecommendScenarios(w http.ResponseWriter, r *http.Request) {
	req, apps := h.decodePortfolio(w, r)
	if req == nil {
		return
	}

	engine := whatif.New(apps)
	writeJSON(w, http.StatusOK, map[string]any{
		"baseline":  engine.Baseline(),
		"scenarios": engine.RecommendedScenarios(),
	})
}

// GenerateRoadmap handles POST /roadmap: phased timeline, effort/impact
// matrix, and dependency warnings for the submitted portfolio.
func (h *Handler) GenerateRoadmap(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)

	req, apps := h.decodePortfolio(w, r)
	if req == nil {
		return
	}

	engine := roadmap.New(apps)
	resp := map[string]any{
		"timeline":            engine.Timeline(),
		"effort_impact":       engine.EffortImpactMatrix(),
		"dependency_warnings": engine.DependencyWarnings(),
	}

	if h.bus != nil {
		payload, _ := json.Marshal(resp)
		if err := h.bus.Publish(ctx, tenantID, domain.TopicRoadmapGenerated, payload); err != nil {
			slog.Error("failed to publish roadmap", "error", err)
		}
	}

	slog.Info("roadmap generated",
		"tenant_id", tenantID,
		"action_count", len(engine.Actions()),
	)

	writeJSON(w, http.StatusOK, resp)
}

// RoadmapSummary handles POST /roadmap/summary.
func (h *Handler) RoadmapSummary(w http.ResponseWriter, r *http.Request) {
	req, apps := h.decodePortfolio(w, r)
	if req == nil {
		return
	}

	engine := roadmap.New(apps)
	writeJSON(w, http.StatusOK, engine.Summary())
}

// AssessCompliance handles POST /compliance/{framework}: portfolio-wide
// assessment against one regulatory framework.
func (h *Handler) AssessCompliance(w http.ResponseWriter, r *http.Request) {
	frameworkName := chi.URLParam(r, "framework")

	req, apps := h.decodePortfolio(w, r)
	if req == nil {
		return
	}

	result, err := h.compliance.BatchAssess(apps, frameworkName)
	if err != nil {
		if errors.Is(err, domain.ErrFrameworkNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{
				"error": "unknown framework: " + frameworkName,
			})
			return
		}
		slog.Error("compliance assessment failed", "framework", frameworkName, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "compliance assessment failed",
		})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ListFrameworks handles GET /compliance/frameworks.
func (h *Handler) ListFrameworks(w http.ResponseWriter, r *http.Request) {
	frameworks := h.compliance.ListFrameworks()
	writeJSON(w, http.StatusOK, map[string]any{
		"frameworks": frameworks,
		"count":      len(frameworks),
	})
}

// DependencyGraph handles POST /dependencies/graph: graph summary, cycle
// detection, and critical paths for the submitted portfolio.
func (h *Handler) DependencyGraph(w http.ResponseWriter, r *http.Request) {
	req, apps := h.decodePortfolio(w, r)
	if req == nil {
		return
	}

	graph := depgraph.Build(apps)
	resp := map[string]any{
		"summary":        graph.Summary(),
		"critical_paths": graph.CriticalPaths(),
	}
	if len(req.Apps) > 0 {
		resp["retirement_plan"] = graph.RetirementSequence(req.Apps)
	}

	writeJSON(w, http.StatusOK, resp)
}

// BlastRadius handles POST /dependencies/blast-radius/{name}: the set of
// applications impacted by a failure of the named application.
func (h *Handler) BlastRadius(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "application name is required",
		})
		return
	}

	req, apps := h.decodePortfolio(w, r)
	if req == nil {
		return
	}

	graph := depgraph.Build(apps)
	writeJSON(w, http.StatusOK, graph.BlastRadius(name))
}

// CostAnalysis handles POST /costs/tco: TCO breakdown, department
// allocation, hidden-cost estimates, and optimization opportunities.
func (h *Handler) CostAnalysis(w http.ResponseWriter, r *http.Request) {
	req, apps := h.decodePortfolio(w, r)
	if req == nil {
		return
	}

	modeler := costmodel.New(apps)
	writeJSON(w, http.StatusOK, map[string]any{
		"tco":          modeler.TCOBreakdown(),
		"allocation":   modeler.AllocateByDepartment(),
		"hidden_costs": modeler.HiddenCosts(),
		"optimization": modeler.OptimizationSummary(),
	})
}

// Health returns server health status.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"

	// Check repository health
	if h.repo != nil {
		if err := h.repo.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	// Check cache health
	if h.cache != nil {
		if err := h.cache.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  status,
		"version": h.version,
	})
}

// Ready returns whether the server is ready to accept traffic.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"ready": "true",
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
