package repository

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/opensource-portfolio/kestrel/internal/domain"
)

func TestSQLiteRepository(t *testing.T) {
	// Create temp database file
	tmpFile, err := os.CreateTemp("", "kestrel-test-*.db")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	tmpPath := tmpFile.Name()
	tmpFile.Close()
	defer os.Remove(tmpPath)

	cfg := domain.RepositoryConfig{
		Driver:     "sqlite",
		SQLitePath: tmpPath,
	}

	repo, err := New(cfg)
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}
	defer repo.Close()

	ctx := context.Background()
	tenantID := "tenant-001"

	t.Run("Ping", func(t *testing.T) {
		if err := repo.Ping(ctx); err != nil {
			t.Errorf("Ping failed: %v", err)
		}
	})

	t.Run("SaveAndGetApplications", func(t *testing.T) {
		apps := []*domain.Application{
			{Name: "ERP Core", Category: "ERP", BusinessValue: 8, TechHealth: 7, Security: 6, Cost: 200000},
			{Name: "Legacy Billing", Category: "Finance & Accounting", BusinessValue: 3, TechHealth: 2, Security: 4, Cost: 500000},
			{Name: "Field Mobile", Category: "Operations", BusinessValue: 8, TechHealth: 2, Security: 5, Cost: 100000},
		}

		if err := repo.SaveApplications(ctx, tenantID, "portfolio-001", apps); err != nil {
			t.Fatalf("SaveApplications failed: %v", err)
		}

		retrieved, err := repo.GetApplications(ctx, tenantID, "portfolio-001")
		if err != nil {
			t.Fatalf("GetApplications failed: %v", err)
		}

		if len(retrieved) != 3 {
			t.Fatalf("expected 3 applications, got %d", len(retrieved))
		}
		// Submission order is preserved
		if retrieved[0].Name != "ERP Core" || retrieved[2].Name != "Field Mobile" {
			t.Errorf("order not preserved: %s, %s", retrieved[0].Name, retrieved[2].Name)
		}
		if retrieved[1].Cost != 500000 {
			t.Errorf("expected cost 500000, got %.2f", retrieved[1].Cost)
		}
	})

	t.Run("ResubmitReplacesSnapshot", func(t *testing.T) {
		apps := []*domain.Application{
			{Name: "Only App", BusinessValue: 5, TechHealth: 5, Security: 5, Cost: 50000},
		}

		if err := repo.SaveApplications(ctx, tenantID, "portfolio-001", apps); err != nil {
			t.Fatalf("SaveApplications failed: %v", err)
		}

		retrieved, err := repo.GetApplications(ctx, tenantID, "portfolio-001")
		if err != nil {
			t.Fatalf("GetApplications failed: %v", err)
		}
		if len(retrieved) != 1 {
			t.Errorf("expected snapshot to be replaced, got %d applications", len(retrieved))
		}
	})

	t.Run("TenantIsolation", func(t *testing.T) {
		otherTenant := "tenant-002"

		_, err := repo.GetApplications(ctx, otherTenant, "portfolio-001")
		if !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound for different tenant, got: %v", err)
		}
	})

	t.Run("RequiresTenantID", func(t *testing.T) {
		err := repo.SaveApplications(ctx, "", "p", nil)
		if err == nil {
			t.Error("expected error for empty tenantID")
		}

		_, err = repo.GetApplications(ctx, "", "portfolio-001")
		if err == nil {
			t.Error("expected error for empty tenantID")
		}
	})

	t.Run("SaveAndGetAnalysis", func(t *testing.T) {
		analysis := &domain.PortfolioAnalysis{
			ID:       "analysis-001",
			TenantID: tenantID,
			Applications: []*domain.Application{
				{Name: "ERP Core", CompositeScore: 71.5, TIMECategory: domain.CategoryInvest},
			},
			Summary: domain.Summary{
				TotalApplications: 1,
				AverageScore:      71.5,
				TotalCost:         200000,
				TIMEDistribution:  map[string]int{"Invest": 1},
			},
			Timestamp: time.Now().UTC(),
		}

		if err := repo.SaveAnalysis(ctx, tenantID, analysis); err != nil {
			t.Fatalf("SaveAnalysis failed: %v", err)
		}

		retrieved, err := repo.GetAnalysis(ctx, tenantID, analysis.ID)
		if err != nil {
			t.Fatalf("GetAnalysis failed: %v", err)
		}

		if retrieved.ID != analysis.ID {
			t.Errorf("expected ID %s, got %s", analysis.ID, retrieved.ID)
		}
		if retrieved.Summary.AverageScore != 71.5 {
			t.Errorf("expected AverageScore 71.5, got %.2f", retrieved.Summary.AverageScore)
		}
		if len(retrieved.Applications) != 1 || retrieved.Applications[0].TIMECategory != domain.CategoryInvest {
			t.Error("applications not round-tripped")
		}
	})

	t.Run("ListAnalyses", func(t *testing.T) {
		second := &domain.PortfolioAnalysis{
			ID:        "analysis-002",
			TenantID:  tenantID,
			Summary:   domain.Summary{TotalApplications: 2},
			Timestamp: time.Now().UTC().Add(time.Second),
		}
		if err := repo.SaveAnalysis(ctx, tenantID, second); err != nil {
			t.Fatalf("SaveAnalysis failed: %v", err)
		}

		since := time.Now().Add(-1 * time.Hour)
		analyses, err := repo.ListAnalyses(ctx, tenantID, since)
		if err != nil {
			t.Fatalf("ListAnalyses failed: %v", err)
		}

		if len(analyses) != 2 {
			t.Fatalf("expected 2 analyses, got %d", len(analyses))
		}
		// Newest first
		if analyses[0].ID != "analysis-002" {
			t.Errorf("expected newest first, got %s", analyses[0].ID)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := repo.GetAnalysis(ctx, tenantID, "nonexistent")
		if !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got: %v", err)
		}

		_, err = repo.GetApplications(ctx, tenantID, "nonexistent")
		if !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got: %v", err)
		}
	})
}

func TestUnsupportedDriver(t *testing.T) {
	cfg := domain.RepositoryConfig{
		Driver: "mysql",
	}

	_, err := New(cfg)
	if err == nil {
		t.Error("expected error for unsupported driver")
	}
}

func TestRebind(t *testing.T) {
	repo := &SQLRepository{driver: "postgres"}

	tests := []struct {
		input    string
		expected string
	}{
		{"SELECT * FROM t WHERE id = ?", "SELECT * FROM t WHERE id = $1"},
		{"INSERT INTO t (a, b) VALUES (?, ?)", "INSERT INTO t (a, b) VALUES ($1, $2)"},
		{"SELECT * FROM t", "SELECT * FROM t"},
	}

	for _, tt := range tests {
		result := repo.rebind(tt.input)
		if result != tt.expected {
			t.Errorf("rebind(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}
