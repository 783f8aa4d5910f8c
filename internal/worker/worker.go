// Package worker provides async portfolio processing for the Pro tier.
package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/opensource-portfolio/kestrel/internal/domain"
	"github.com/opensource-portfolio/kestrel/internal/rationalize"
)

// Worker processes submitted portfolios asynchronously from the EventBus.
type Worker struct {
	bus      domain.EventBus
	repo     domain.Repository
	pipeline *rationalize.Engine

	subscriptions []domain.Subscription
	wg            sync.WaitGroup
	ctx           context.Context
	cancel        context.CancelFunc
}

// Config holds worker configuration.
type Config struct {
	// TenantIDs is the list of tenants to process (empty = all via wildcard if supported)
	TenantIDs []string

	// WorkerCount is the number of concurrent workers per tenant
	WorkerCount int
}

// NewWorker creates a new async worker.
func NewWorker(bus domain.EventBus, repo domain.Repository, pipeline *rationalize.Engine) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		bus:      bus,
		repo:     repo,
		pipeline: pipeline,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start begins processing messages for the given tenants.
func (w *Worker) Start(cfg Config) error {
	if len(cfg.TenantIDs) == 0 {
		return w.startGlobalWorker()
	}

	for _, tenantID := range cfg.TenantIDs {
		if err := w.startTenantWorker(tenantID); err != nil {
			slog.Error("failed to start worker for tenant",
				"tenant_id", tenantID,
				"error", err,
			)
			continue
		}
	}

	slog.Info("workers started",
		"tenant_count", len(cfg.TenantIDs),
	)

	return nil
}

// startGlobalWorker starts a worker that processes all tenants (for testing/dev).
func (w *Worker) startGlobalWorker() error {
	// Subscribe using a special "global" tenant ID
	// In production, you'd want to subscribe with wildcards or JetStream
	sub, err := w.bus.Subscribe(w.ctx, "_global", domain.TopicPortfolioSubmitted, w.handleMessage)
	if err != nil {
		return err
	}
	w.subscriptions = append(w.subscriptions, sub)

	slog.Info("global worker started")
	return nil
}

// startTenantWorker starts workers for a specific tenant.
func (w *Worker) startTenantWorker(tenantID string) error {
	sub, err := w.bus.Subscribe(w.ctx, tenantID, domain.TopicPortfolioSubmitted, func(ctx context.Context, msg *domain.Message) error {
		return w.processPortfolio(ctx, tenantID, msg)
	})
	if err != nil {
		return err
	}
	w.subscriptions = append(w.subscriptions, sub)

	slog.Info("tenant worker started",
		"tenant_id", tenantID,
		"topic", domain.TopicPortfolioSubmitted,
	)

	return nil
}

// handleMessage handles messages from global subscription.
func (w *Worker) handleMessage(ctx context.Context, msg *domain.Message) error {
	return w.processPortfolio(ctx, msg.TenantID, msg)
}

// PortfolioMessage is the message payload for portfolio processing.
type PortfolioMessage struct {
	PortfolioID  string           `json:"portfolioId"`
	TenantID     string           `json:"tenantId"`
	TraceID      string           `json:"traceId"`
	Applications []map[string]any `json:"applications"`
}

// processPortfolio runs a submitted portfolio through the rationalization
// pipeline, persists both the snapshot and the analysis, and publishes the
// completed result.
func (w *Worker) processPortfolio(ctx context.Context, tenantID string, msg *domain.Message) error {
	start := time.Now()

	var pm PortfolioMessage
	if err := json.Unmarshal(msg.Payload, &pm); err != nil {
		slog.Error("failed to parse portfolio message",
			"message_id", msg.ID,
			"error", err,
		)
		return err
	}

	// Use message tenant if provided
	if pm.TenantID != "" {
		tenantID = pm.TenantID
	}

	traceID := pm.TraceID
	if traceID == "" {
		traceID = msg.ID
	}

	slog.Debug("processing portfolio",
		"portfolio_id", pm.PortfolioID,
		"tenant_id", tenantID,
		"trace_id", traceID,
		"application_count", len(pm.Applications),
	)

	apps := domain.FromMaps(pm.Applications)

	analysis := w.pipeline.ProcessPortfolio(apps)
	analysis.TenantID = tenantID

	if w.repo != nil {
		if pm.PortfolioID != "" {
			if err := w.repo.SaveApplications(ctx, tenantID, pm.PortfolioID, apps); err != nil {
				slog.Error("failed to save portfolio snapshot",
					"portfolio_id", pm.PortfolioID,
					"error", err,
				)
			}
		}
		if err := w.repo.SaveAnalysis(ctx, tenantID, analysis); err != nil {
			slog.Error("failed to save analysis",
				"analysis_id", analysis.ID,
				"error", err,
			)
		}
	}

	resultPayload, _ := json.Marshal(analysis)
	if err := w.bus.Publish(ctx, tenantID, domain.TopicAnalysisCompleted, resultPayload); err != nil {
		slog.Error("failed to publish analysis",
			"analysis_id", analysis.ID,
			"error", err,
		)
	}

	slog.Info("portfolio processed",
		"portfolio_id", pm.PortfolioID,
		"tenant_id", tenantID,
		"analysis_id", analysis.ID,
		"application_count", analysis.Summary.TotalApplications,
		"average_score", analysis.Summary.AverageScore,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return nil
}

// Stop gracefully stops all workers.
func (w *Worker) Stop() error {
	w.cancel()

	// Unsubscribe all
	for _, sub := range w.subscriptions {
		if err := sub.Unsubscribe(); err != nil {
			slog.Error("failed to unsubscribe",
				"topic", sub.Topic(),
				"error", err,
			)
		}
	}
	w.subscriptions = nil

	w.wg.Wait()

	slog.Info("workers stopped")
	return nil
}

// Stats returns worker statistics.
type Stats struct {
	SubscriptionCount int      `json:"subscriptionCount"`
	Topics            []string `json:"topics"`
}

// GetStats returns current worker statistics.
func (w *Worker) GetStats() Stats {
	topics := make([]string, len(w.subscriptions))
	for i, sub := range w.subscriptions {
		topics[i] = sub.Topic()
	}
	return Stats{
		SubscriptionCount: len(w.subscriptions),
		Topics:            topics,
	}
}
