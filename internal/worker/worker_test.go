package worker

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	"github.com/opensource-portfolio/kestrel/internal/bus"
	"github.com/opensource-portfolio/kestrel/internal/domain"
	"github.com/opensource-portfolio/kestrel/internal/rationalize"
)

func testApplications() []map[string]any {
	return []map[string]any{
		{
			"name":           "Legacy Mainframe",
			"business_value": 3.0,
			"tech_health":    2.0,
			"cost":           500000.0,
			"usage":          100.0,
			"security":       3.0,
			"strategic_fit":  2.0,
		},
		{
			"name":           "CRM Platform",
			"business_value": 9.0,
			"tech_health":    8.0,
			"cost":           200000.0,
			"usage":          2000.0,
			"security":       8.0,
			"strategic_fit":  9.0,
		},
		{
			"name":           "Billing System",
			"business_value": 8.0,
			"tech_health":    2.0,
			"cost":           100000.0,
			"usage":          1500.0,
			"security":       4.0,
			"strategic_fit":  7.0,
		},
	}
}

func TestWorker(t *testing.T) {
	// Create channel bus
	eventBus := bus.NewChannelBus(100)
	defer eventBus.Close()

	pipeline, err := rationalize.New()
	if err != nil {
		t.Fatalf("pipeline construction failed: %v", err)
	}

	worker := NewWorker(eventBus, nil, pipeline)

	t.Run("StartAndStop", func(t *testing.T) {
		cfg := Config{
			TenantIDs:   []string{"tenant-001"},
			WorkerCount: 1,
		}

		err := worker.Start(cfg)
		if err != nil {
			t.Fatalf("Start failed: %v", err)
		}

		stats := worker.GetStats()
		if stats.SubscriptionCount != 1 {
			t.Errorf("expected 1 subscription, got %d", stats.SubscriptionCount)
		}

		err = worker.Stop()
		if err != nil {
			t.Errorf("Stop failed: %v", err)
		}

		stats = worker.GetStats()
		if stats.SubscriptionCount != 0 {
			t.Errorf("expected 0 subscriptions after stop, got %d", stats.SubscriptionCount)
		}
	})

	t.Run("ProcessPortfolio", func(t *testing.T) {
		// Create fresh worker for this test
		w := NewWorker(eventBus, nil, pipeline)

		cfg := Config{
			TenantIDs: []string{"tenant-test"},
		}
		w.Start(cfg)
		defer w.Stop()

		// Track analysis results
		var analysisReceived atomic.Bool
		var analysisPayload []byte

		eventBus.Subscribe(context.Background(), "tenant-test", domain.TopicAnalysisCompleted, func(ctx context.Context, msg *domain.Message) error {
			analysisPayload = msg.Payload
			analysisReceived.Store(true)
			return nil
		})

		// Allow subscriptions to be active
		time.Sleep(50 * time.Millisecond)

		pm := PortfolioMessage{
			PortfolioID:  "portfolio-001",
			TenantID:     "tenant-test",
			TraceID:      "trace-001",
			Applications: testApplications(),
		}

		payload, _ := json.Marshal(pm)
		err := eventBus.Publish(context.Background(), "tenant-test", domain.TopicPortfolioSubmitted, payload)
		if err != nil {
			t.Fatalf("Publish failed: %v", err)
		}

		// Wait for processing
		time.Sleep(100 * time.Millisecond)

		if !analysisReceived.Load() {
			t.Error("expected analysis to be published")
		}

		if analysisPayload != nil {
			var analysis domain.PortfolioAnalysis
			if err := json.Unmarshal(analysisPayload, &analysis); err != nil {
				t.Fatalf("failed to parse analysis: %v", err)
			}

			if analysis.TenantID != "tenant-test" {
				t.Errorf("expected tenantID 'tenant-test', got '%s'", analysis.TenantID)
			}
			if analysis.Summary.TotalApplications != 3 {
				t.Errorf("expected 3 applications, got %d", analysis.Summary.TotalApplications)
			}
			if analysis.Summary.TotalCost != 800000 {
				t.Errorf("expected total cost 800000, got %.2f", analysis.Summary.TotalCost)
			}
			for _, app := range analysis.Applications {
				if app.TIMECategory == "" {
					t.Errorf("application %q missing TIME category", app.Name)
				}
				if app.RecommendedAction == "" {
					t.Errorf("application %q missing recommendation", app.Name)
				}
			}
		}
	})

	t.Run("MultiTenant", func(t *testing.T) {
		w := NewWorker(eventBus, nil, pipeline)

		cfg := Config{
			TenantIDs: []string{"tenant-a", "tenant-b"},
		}
		w.Start(cfg)
		defer w.Stop()

		stats := w.GetStats()
		if stats.SubscriptionCount != 2 {
			t.Errorf("expected 2 subscriptions for 2 tenants, got %d", stats.SubscriptionCount)
		}
	})
}

func TestPortfolioMessageParsing(t *testing.T) {
	msg := PortfolioMessage{
		PortfolioID:  "portfolio-123",
		TenantID:     "tenant-001",
		TraceID:      "trace-456",
		Applications: testApplications(),
	}

	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var parsed PortfolioMessage
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if parsed.PortfolioID != msg.PortfolioID {
		t.Errorf("expected PortfolioID '%s', got '%s'", msg.PortfolioID, parsed.PortfolioID)
	}
	if len(parsed.Applications) != len(msg.Applications) {
		t.Errorf("expected %d applications, got %d", len(msg.Applications), len(parsed.Applications))
	}
}
