//go:build integration
// +build integration

// Package integration provides end-to-end tests for the Kestrel portfolio
// rationalization engine.
//
// These tests verify the COMPLETE analysis pipeline:
//
//	Portfolio → Scoring → TIME Classification → Recommendation → Summary
//
// Run with: go test -tags=integration -v ./tests/integration/...
//
// UNDERSTANDING THE DOMAIN:
//
// 1. APPLICATION: One IT system with business and technical dimensions
//    (business value, tech health, security, strategic fit, usage, cost).
//
// 2. SCORING: A weighted composite score (0-100) over five dimensions.
//
// 3. TIME: Gartner-style quadrant classification using business value and
//    technical quality: Invest, Tolerate, Migrate, Eliminate.
//
// 4. RECOMMENDATION: A concrete action (RETIRE, MODERNIZE, CONSOLIDATE...)
//    with a priority, derived from the TIME category and raw dimensions.
//
// The server must be running before these tests execute:
//
//	go run cmd/kestrel/main.go
package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"
)

// TestConfig holds test environment configuration
type TestConfig struct {
	BaseURL  string
	TenantID string
}

func getTestConfig() TestConfig {
	baseURL := os.Getenv("KESTREL_TEST_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	return TestConfig{
		BaseURL:  baseURL,
		TenantID: "test-tenant",
	}
}

func requireServer(t *testing.T, cfg TestConfig) {
	t.Helper()
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(cfg.BaseURL + "/health")
	if err != nil {
		t.Skipf("kestrel not reachable at %s: %v", cfg.BaseURL, err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Skipf("kestrel unhealthy at %s: status %d", cfg.BaseURL, resp.StatusCode)
	}
}

func postJSON(t *testing.T, cfg TestConfig, path string, payload any) (*http.Response, []byte) {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Tenant-ID", cfg.TenantID)

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatalf("read response: %v", err)
	}
	return resp, buf.Bytes()
}

func getJSON(t *testing.T, cfg TestConfig, path string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, cfg.BaseURL+path, nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("X-Tenant-ID", cfg.TenantID)

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatalf("read response: %v", err)
	}
	return resp, buf.Bytes()
}

// samplePortfolio covers all four TIME quadrants.
func samplePortfolio() map[string]any {
	return map[string]any{
		"applications": []map[string]any{
			{
				// Low value, low health: Eliminate / retire territory
				"name": "Legacy Mainframe", "category": "Finance",
				"business_value": 3.0, "tech_health": 2.0, "security": 3.0,
				"strategic_fit": 2.0, "usage": 100.0, "cost": 500000.0,
			},
			{
				// High value, high health: Invest
				"name": "CRM Platform", "category": "Sales",
				"business_value": 9.0, "tech_health": 8.0, "security": 8.0,
				"strategic_fit": 9.0, "usage": 2000.0, "cost": 200000.0,
			},
			{
				// High value, poor health: Migrate / modernize
				"name": "Billing System", "category": "Finance",
				"business_value": 8.0, "tech_health": 2.0, "security": 4.0,
				"strategic_fit": 7.0, "usage": 1500.0, "cost": 100000.0,
				"dependencies": []string{"Legacy Mainframe"},
			},
			{
				// Low value, decent health: Tolerate
				"name": "Meeting Scheduler", "category": "Collaboration",
				"business_value": 3.0, "tech_health": 7.0, "security": 7.0,
				"strategic_fit": 4.0, "usage": 300.0, "cost": 15000.0,
			},
		},
	}
}

func TestFullAnalysisPipeline(t *testing.T) {
	cfg := getTestConfig()
	requireServer(t, cfg)

	resp, body := postJSON(t, cfg, "/portfolios/analyze", samplePortfolio())
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}

	var result struct {
		PortfolioID string `json:"portfolioId"`
		Analysis    struct {
			ID           string `json:"id"`
			Applications []struct {
				Name              string  `json:"name"`
				CompositeScore    float64 `json:"composite_score"`
				TIMECategory      string  `json:"time_category"`
				RecommendedAction string  `json:"recommended_action"`
			} `json:"applications"`
			Summary struct {
				TotalApplications int     `json:"total_applications"`
				AverageScore      float64 `json:"average_score"`
				TotalCost         float64 `json:"total_cost"`
			} `json:"summary"`
		} `json:"analysis"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatalf("parse response: %v", err)
	}

	if result.Analysis.Summary.TotalApplications != 4 {
		t.Errorf("expected 4 applications, got %d", result.Analysis.Summary.TotalApplications)
	}
	if result.Analysis.Summary.TotalCost != 815000 {
		t.Errorf("expected total cost 815000, got %.2f", result.Analysis.Summary.TotalCost)
	}

	categories := map[string]string{}
	for _, app := range result.Analysis.Applications {
		if app.CompositeScore < 0 || app.CompositeScore > 100 {
			t.Errorf("app %q composite score out of range: %.2f", app.Name, app.CompositeScore)
		}
		if app.TIMECategory == "" {
			t.Errorf("app %q missing TIME category", app.Name)
		}
		if app.RecommendedAction == "" {
			t.Errorf("app %q missing recommendation", app.Name)
		}
		categories[app.Name] = app.TIMECategory
	}

	if categories["CRM Platform"] != "Invest" {
		t.Errorf("expected CRM Platform to classify as Invest, got %q", categories["CRM Platform"])
	}
	if categories["Billing System"] != "Migrate" {
		t.Errorf("expected Billing System to classify as Migrate, got %q", categories["Billing System"])
	}

	// The stored analysis must be retrievable by ID
	t.Run("AnalysisRetrieval", func(t *testing.T) {
		resp, body := getJSON(t, cfg, "/analyses/"+result.Analysis.ID)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
		}

		var stored struct {
			ID      string `json:"id"`
			Summary struct {
				TotalApplications int `json:"total_applications"`
			} `json:"summary"`
		}
		if err := json.Unmarshal(body, &stored); err != nil {
			t.Fatalf("parse stored analysis: %v", err)
		}
		if stored.ID != result.Analysis.ID {
			t.Errorf("expected analysis id %q, got %q", result.Analysis.ID, stored.ID)
		}
		if stored.Summary.TotalApplications != 4 {
			t.Errorf("expected 4 applications in stored analysis, got %d", stored.Summary.TotalApplications)
		}
	})
}

func TestScenarioSimulation(t *testing.T) {
	cfg := getTestConfig()
	requireServer(t, cfg)

	payload := samplePortfolio()
	payload["apps"] = []string{"Legacy Mainframe"}

	resp, body := postJSON(t, cfg, "/scenarios/retirement", payload)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}

	var result struct {
		ScenarioType string `json:"scenario_type"`
		Impact       struct {
			CostChange float64 `json:"cost_change"`
		} `json:"impact"`
		NewState struct {
			TotalApps int `json:"total_apps"`
		} `json:"new_state"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatalf("parse response: %v", err)
	}

	if result.ScenarioType != "retirement" {
		t.Errorf("expected scenario_type 'retirement', got %q", result.ScenarioType)
	}
	if result.Impact.CostChange != -500000 {
		t.Errorf("expected cost change -500000, got %.2f", result.Impact.CostChange)
	}
	if result.NewState.TotalApps != 3 {
		t.Errorf("expected 3 remaining applications, got %d", result.NewState.TotalApps)
	}
}

func TestRoadmapGeneration(t *testing.T) {
	cfg := getTestConfig()
	requireServer(t, cfg)

	resp, body := postJSON(t, cfg, "/roadmap/summary", samplePortfolio())
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}

	var summary struct {
		TotalActions   int     `json:"total_actions"`
		DurationMonths float64 `json:"duration_months"`
	}
	if err := json.Unmarshal(body, &summary); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if summary.TotalActions == 0 {
		t.Error("expected roadmap actions for the sample portfolio")
	}
	if summary.DurationMonths <= 0 {
		t.Errorf("expected positive duration, got %.1f", summary.DurationMonths)
	}
}

func TestComplianceAssessment(t *testing.T) {
	cfg := getTestConfig()
	requireServer(t, cfg)

	for _, framework := range []string{"SOX", "PCI-DSS", "HIPAA", "GDPR"} {
		t.Run(framework, func(t *testing.T) {
			resp, body := postJSON(t, cfg, fmt.Sprintf("/compliance/%s", framework), samplePortfolio())
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
			}
		})
	}
}

func TestTenantIsolation(t *testing.T) {
	cfg := getTestConfig()
	requireServer(t, cfg)

	// Analysis stored by one tenant must not be visible to another
	resp, body := postJSON(t, cfg, "/portfolios/analyze", samplePortfolio())
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}

	var result struct {
		Analysis struct {
			ID string `json:"id"`
		} `json:"analysis"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatalf("parse response: %v", err)
	}

	other := cfg
	other.TenantID = "other-tenant"
	resp, _ = getJSON(t, other, "/analyses/"+result.Analysis.ID)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for foreign tenant, got %d", resp.StatusCode)
	}
}
