package domain

import (
	"context"
	"time"
)

// Repository defines the interface for data persistence.
// All methods require tenantID for strict multi-tenancy isolation.
type Repository interface {
	// Portfolio snapshots
	SaveApplications(ctx context.Context, tenantID string, portfolioID string, apps []*Application) error
	GetApplications(ctx context.Context, tenantID string, portfolioID string) ([]*Application, error)

	// Analysis results
	SaveAnalysis(ctx context.Context, tenantID string, analysis *PortfolioAnalysis) error
	GetAnalysis(ctx context.Context, tenantID string, analysisID string) (*PortfolioAnalysis, error)
	ListAnalyses(ctx context.Context, tenantID string, since time.Time) ([]*PortfolioAnalysis, error)

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// RepositoryConfig holds configuration for repository initialization.
type RepositoryConfig struct {
	// Driver is the database driver: "sqlite" or "postgres"
	Driver string

	// SQLite specific
	SQLitePath string

	// PostgreSQL specific
	PostgresHost     string
	PostgresPort     int
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}
