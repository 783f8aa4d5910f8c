package repository

// Schema definitions for Kestrel database.
// Compatible with both SQLite and PostgreSQL.

const schemaPortfolios = `
CREATE TABLE IF NOT EXISTS portfolios (
    id TEXT NOT NULL,
    tenant_id TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    PRIMARY KEY (id, tenant_id)
);

CREATE INDEX IF NOT EXISTS idx_portfolios_tenant ON portfolios(tenant_id);
`

const schemaApplications = `
CREATE TABLE IF NOT EXISTS applications (
    portfolio_id TEXT NOT NULL,
    tenant_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    name TEXT NOT NULL,
    record TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL,
    PRIMARY KEY (portfolio_id, tenant_id, position)
);

CREATE INDEX IF NOT EXISTS idx_applications_tenant ON applications(tenant_id);
CREATE INDEX IF NOT EXISTS idx_applications_portfolio ON applications(tenant_id, portfolio_id);
CREATE INDEX IF NOT EXISTS idx_applications_name ON applications(tenant_id, name);
`

// schemaAnalyses stores complete analysis results. The applications and
// summary columns carry the serialized analysis payload; scalar columns
// exist for filtering and listing without deserializing.
const schemaAnalyses = `
CREATE TABLE IF NOT EXISTS analyses (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    total_applications INTEGER NOT NULL,
    average_score REAL NOT NULL,
    total_cost REAL NOT NULL,
    applications TEXT NOT NULL,
    summary TEXT NOT NULL,
    timestamp TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_analyses_tenant ON analyses(tenant_id);
CREATE INDEX IF NOT EXISTS idx_analyses_timestamp ON analyses(tenant_id, timestamp);
`

// AllSchemas returns all schema statements in order.
func AllSchemas() []string {
	return []string{
		schemaPortfolios,
		schemaApplications,
		schemaAnalyses,
	}
}
