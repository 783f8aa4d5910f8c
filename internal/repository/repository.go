// Package repository provides data persistence implementations.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/opensource-portfolio/kestrel/internal/domain"
)

// SQLRepository implements domain.Repository using database/sql.
// Works with both SQLite and PostgreSQL drivers.
type SQLRepository struct {
	db     *sql.DB
	driver string
}

// New creates a new repository based on configuration.
func New(cfg domain.RepositoryConfig) (domain.Repository, error) {
	var db *sql.DB
	var err error

	switch cfg.Driver {
	case "sqlite":
		db, err = openSQLite(cfg)
	case "postgres":
		db, err = openPostgres(cfg)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", cfg.Driver)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	repo := &SQLRepository{
		db:     db,
		driver: cfg.Driver,
	}

	// Run migrations
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return repo, nil
}

func (r *SQLRepository) migrate() error {
	for _, schema := range AllSchemas() {
		if _, err := r.db.Exec(schema); err != nil {
			return err
		}
	}
	return nil
}

// SaveApplications stores a portfolio snapshot with tenant isolation.
// Resubmitting the same portfolio ID replaces the previous snapshot.
func (r *SQLRepository) SaveApplications(ctx context.Context, tenantID string, portfolioID string, apps []*domain.Application) error {
	if tenantID == "" {
		return fmt.Errorf("%w: tenantID is required", domain.ErrInvalidInput)
	}
	if portfolioID == "" {
		return fmt.Errorf("%w: portfolioID is required", domain.ErrInvalidInput)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().UTC()

	upsertPortfolio := `
		INSERT INTO portfolios (id, tenant_id, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id, tenant_id) DO UPDATE SET updated_at = excluded.updated_at
	`
	if _, err := tx.ExecContext(ctx, r.rebind(upsertPortfolio), portfolioID, tenantID, now, now); err != nil {
		return err
	}

	deleteApps := `DELETE FROM applications WHERE tenant_id = ? AND portfolio_id = ?`
	if _, err := tx.ExecContext(ctx, r.rebind(deleteApps), tenantID, portfolioID); err != nil {
		return err
	}

	insertApp := `
		INSERT INTO applications (portfolio_id, tenant_id, position, name, record, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	for i, app := range apps {
		record, err := json.Marshal(app)
		if err != nil {
			return fmt.Errorf("failed to serialize application %s: %w", app.Name, err)
		}
		if _, err := tx.ExecContext(ctx, r.rebind(insertApp),
			portfolioID, tenantID, i, app.Name, string(record), now,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetApplications retrieves a portfolio snapshot in submission order.
func (r *SQLRepository) GetApplications(ctx context.Context, tenantID string, portfolioID string) ([]*domain.Application, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenantID is required", domain.ErrInvalidInput)
	}

	query := `
		SELECT record
		FROM applications
		WHERE tenant_id = ? AND portfolio_id = ?
		ORDER BY position
	`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), tenantID, portfolioID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var apps []*domain.Application
	for rows.Next() {
		var record string
		if err := rows.Scan(&record); err != nil {
			return nil, err
		}
		var app domain.Application
		if err := json.Unmarshal([]byte(record), &app); err != nil {
			return nil, fmt.Errorf("failed to parse application record: %w", err)
		}
		apps = append(apps, &app)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(apps) == 0 {
		return nil, domain.ErrNotFound
	}
	return apps, nil
}

// SaveAnalysis stores an analysis result with tenant isolation.
func (r *SQLRepository) SaveAnalysis(ctx context.Context, tenantID string, analysis *domain.PortfolioAnalysis) error {
	if tenantID == "" {
		return fmt.Errorf("%w: tenantID is required", domain.ErrInvalidInput)
	}
	if analysis == nil || analysis.ID == "" {
		return fmt.Errorf("%w: analysis with ID is required", domain.ErrInvalidInput)
	}

	apps, err := json.Marshal(analysis.Applications)
	if err != nil {
		return fmt.Errorf("failed to serialize applications: %w", err)
	}
	summary, err := json.Marshal(analysis.Summary)
	if err != nil {
		return fmt.Errorf("failed to serialize summary: %w", err)
	}

	query := `
		INSERT INTO analyses (
			id, tenant_id, total_applications, average_score, total_cost,
			applications, summary, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, r.rebind(query),
		analysis.ID, tenantID,
		analysis.Summary.TotalApplications, analysis.Summary.AverageScore, analysis.Summary.TotalCost,
		string(apps), string(summary), analysis.Timestamp,
	)
	return err
}

// GetAnalysis retrieves an analysis by ID with tenant isolation.
func (r *SQLRepository) GetAnalysis(ctx context.Context, tenantID string, analysisID string) (*domain.PortfolioAnalysis, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenantID is required", domain.ErrInvalidInput)
	}

	query := `
		SELECT id, tenant_id, applications, summary, timestamp
		FROM analyses
		WHERE tenant_id = ? AND id = ?
	`

	var analysis domain.PortfolioAnalysis
	var apps, summary string

	err := r.db.QueryRowContext(ctx, r.rebind(query), tenantID, analysisID).Scan(
		&analysis.ID, &analysis.TenantID, &apps, &summary, &analysis.Timestamp,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(apps), &analysis.Applications); err != nil {
		return nil, fmt.Errorf("failed to parse applications: %w", err)
	}
	if err := json.Unmarshal([]byte(summary), &analysis.Summary); err != nil {
		return nil, fmt.Errorf("failed to parse summary: %w", err)
	}

	return &analysis, nil
}

// ListAnalyses retrieves analyses since a cutoff, newest first.
func (r *SQLRepository) ListAnalyses(ctx context.Context, tenantID string, since time.Time) ([]*domain.PortfolioAnalysis, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenantID is required", domain.ErrInvalidInput)
	}

	query := `
		SELECT id, tenant_id, applications, summary, timestamp
		FROM analyses
		WHERE tenant_id = ? AND timestamp >= ?
		ORDER BY timestamp DESC
	`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), tenantID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var analyses []*domain.PortfolioAnalysis
	for rows.Next() {
		var analysis domain.PortfolioAnalysis
		var apps, summary string

		if err := rows.Scan(&analysis.ID, &analysis.TenantID, &apps, &summary, &analysis.Timestamp); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(apps), &analysis.Applications); err != nil {
			return nil, fmt.Errorf("failed to parse applications for %s: %w", analysis.ID, err)
		}
		if err := json.Unmarshal([]byte(summary), &analysis.Summary); err != nil {
			return nil, fmt.Errorf("failed to parse summary for %s: %w", analysis.ID, err)
		}
		analyses = append(analyses, &analysis)
	}

	return analyses, rows.Err()
}

// Ping checks database connectivity.
func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database connection.
func (r *SQLRepository) Close() error {
	return r.db.Close()
}

// rebind converts ? placeholders to $1, $2, etc. for PostgreSQL.
func (r *SQLRepository) rebind(query string) string {
	if r.driver != "postgres" {
		return query
	}

	// Convert ? to $1, $2, etc.
	var result []byte
	n := 1
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			result = append(result, '$')
			result = append(result, fmt.Sprintf("%d", n)...)
			n++
		} else {
			result = append(result, query[i])
		}
	}
	return string(result)
}
