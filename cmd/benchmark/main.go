// Benchmark tool for measuring Kestrel analysis throughput with synthetic
// portfolios.
//
// Usage:
//   go run cmd/benchmark/main.go -url http://localhost:8080 -apps 200 -portfolios 50
//
// This tool:
//   1. Generates synthetic application portfolios from a fixed seed
//   2. Sends each portfolio to Kestrel for full rationalization analysis
//   3. Tallies the TIME category and recommendation distributions
//   4. Reports latency and throughput
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// AnalyzeRequest is the Kestrel API request format
type AnalyzeRequest struct {
	PortfolioID  string           `json:"portfolioId"`
	Applications []map[string]any `json:"applications"`
}

// AnalyzeResponse is the Kestrel API response format
type AnalyzeResponse struct {
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

// Metrics tracks benchmark results
type Metrics struct {
	TotalPortfolios   int64
	TotalApplications int64
	TotalErrors       int64
	ProcessingTimeMs  int64

	mu         sync.Mutex
	categories map[string]int64
	actions    map[string]int64
	scoreSum   float64
}

func (m *Metrics) record(resp *AnalyzeResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, app := range resp.Analysis.Applications {
		m.categories[app.TIMECategory]++
		m.actions[app.RecommendedAction]++
	}
	m.scoreSum += resp.Analysis.Summary.AverageScore
}

var categoryPool = []string{
	"Finance", "HR", "Sales", "Marketing", "Operations",
	"Analytics", "Security", "Database", "Integration", "Collaboration",
}

func main() {
	// Parse flags
	baseURL := flag.String("url", "http://localhost:8080", "Kestrel base URL")
	tenantID := flag.String("tenant", "benchmark-test", "Tenant ID for requests")
	portfolios := flag.Int("portfolios", 50, "Number of portfolios to analyze")
	apps := flag.Int("apps", 200, "Applications per portfolio")
	workers := flag.Int("workers", 10, "Number of concurrent workers")
	seed := flag.Int64("seed", 42, "Random seed for synthetic data")
	verbose := flag.Bool("verbose", false, "Print each portfolio result")
	flag.Parse()

	fmt.Println("================================================================")
	fmt.Println("        KESTREL BENCHMARK - Synthetic Portfolio Analysis")
	fmt.Println("================================================================")
	fmt.Printf("\nKestrel URL: %s\n", *baseURL)
	fmt.Printf("Tenant ID:   %s\n", *tenantID)
	fmt.Printf("Portfolios:  %d\n", *portfolios)
	fmt.Printf("Apps each:   %d\n", *apps)
	fmt.Printf("Workers:     %d\n", *workers)
	fmt.Printf("Seed:        %d\n", *seed)
	fmt.Println()

	// Check Kestrel is running
	if err := checkHealth(*baseURL); err != nil {
		fmt.Printf("ERROR: Kestrel not reachable at %s: %v\n", *baseURL, err)
		fmt.Println("\nMake sure Kestrel is running:")
		fmt.Println("  cd kestrel && go run cmd/kestrel/main.go")
		os.Exit(1)
	}
	fmt.Println("Kestrel is healthy")

	// Generate portfolios from a fixed seed so runs are reproducible
	fmt.Printf("\nGenerating %d portfolios of %d applications...\n", *portfolios, *apps)
	rng := rand.New(rand.NewSource(*seed))
	batches := make([]AnalyzeRequest, *portfolios)
	for i := range batches {
		batches[i] = AnalyzeRequest{
			PortfolioID:  fmt.Sprintf("bench-portfolio-%04d", i),
			Applications: generatePortfolio(rng, *apps),
		}
	}
	fmt.Printf("Generated %d portfolios\n", len(batches))

	// Run benchmark
	fmt.Printf("\nRunning benchmark with %d workers...\n", *workers)
	startTime := time.Now()
	metrics := runBenchmark(batches, *baseURL, *tenantID, *workers, *verbose)
	duration := time.Since(startTime)

	// Print results
	printResults(metrics, duration)
}

func checkHealth(baseURL string) error {
	resp, err := http.Get(baseURL + "/health")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

// generatePortfolio produces one synthetic portfolio. Roughly a quarter of
// the applications are skewed toward low health and low value so every TIME
// quadrant shows up in the results.
func generatePortfolio(rng *rand.Rand, count int) []map[string]any {
	records := make([]map[string]any, count)
	for i := range records {
		category := categoryPool[rng.Intn(len(categoryPool))]

		var health, value float64
		switch rng.Intn(4) {
		case 0: // legacy: low health, low value
			health = float64(rng.Intn(4))
			value = float64(rng.Intn(4))
		case 1: // strategic: high health, high value
			health = 6 + float64(rng.Intn(5))
			value = 7 + float64(rng.Intn(4))
		case 2: // modernization candidate: low health, high value
			health = float64(rng.Intn(5))
			value = 7 + float64(rng.Intn(4))
		default: // middling
			health = 3 + float64(rng.Intn(5))
			value = 3 + float64(rng.Intn(5))
		}

		records[i] = map[string]any{
			"name":           fmt.Sprintf("%s App %04d", category, i),
			"category":       category,
			"business_value": value,
			"tech_health":    health,
			"security":       float64(rng.Intn(11)),
			"strategic_fit":  float64(rng.Intn(11)),
			"usage":          float64(rng.Intn(5000)),
			"cost":           float64(10000 + rng.Intn(990000)),
			"redundancy":     rng.Intn(5) / 4, // 1 in 5 marked redundant
		}
	}
	return records
}

func runBenchmark(batches []AnalyzeRequest, baseURL, tenantID string, numWorkers int, verbose bool) *Metrics {
	metrics := &Metrics{
		categories: make(map[string]int64),
		actions:    make(map[string]int64),
	}

	work := make(chan AnalyzeRequest, 10)
	var wg sync.WaitGroup

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			client := &http.Client{Timeout: 60 * time.Second}

			for batch := range work {
				start := time.Now()
				result, err := analyzePortfolio(client, baseURL, tenantID, batch)
				elapsed := time.Since(start).Milliseconds()

				atomic.AddInt64(&metrics.ProcessingTimeMs, elapsed)
				atomic.AddInt64(&metrics.TotalPortfolios, 1)

				if err != nil {
					atomic.AddInt64(&metrics.TotalErrors, 1)
					if verbose {
						fmt.Printf("ERROR: %s -> %v\n", batch.PortfolioID, err)
					}
					continue
				}

				atomic.AddInt64(&metrics.TotalApplications, int64(result.Analysis.Summary.TotalApplications))
				metrics.record(result)

				if verbose {
					fmt.Printf("%s | apps: %4d | avg score: %6.2f | total cost: $%14.2f | %d ms\n",
						batch.PortfolioID,
						result.Analysis.Summary.TotalApplications,
						result.Analysis.Summary.AverageScore,
						result.Analysis.Summary.TotalCost,
						elapsed,
					)
				}
			}
		}()
	}

	for _, batch := range batches {
		work <- batch
	}
	close(work)

	wg.Wait()

	return metrics
}

func analyzePortfolio(client *http.Client, baseURL, tenantID string, req AnalyzeRequest) (*AnalyzeResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequest(http.MethodPost, baseURL+"/portfolios/analyze", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Tenant-ID", tenantID)

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	var result AnalyzeResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	return &result, nil
}

func printResults(m *Metrics, duration time.Duration) {
	fmt.Println("\n================================================================")
	fmt.Println("                      BENCHMARK RESULTS")
	fmt.Println("================================================================")

	fmt.Printf("\nDATASET STATISTICS\n")
	fmt.Printf("   Portfolios Analyzed:    %d\n", m.TotalPortfolios)
	fmt.Printf("   Applications Processed: %d\n", m.TotalApplications)
	fmt.Printf("   Errors:                 %d\n", m.TotalErrors)

	printDistribution("TIME CATEGORY DISTRIBUTION", m.categories, m.TotalApplications)
	printDistribution("RECOMMENDATION DISTRIBUTION", m.actions, m.TotalApplications)

	analyzed := m.TotalPortfolios - m.TotalErrors
	if analyzed > 0 {
		fmt.Printf("\nSCORING\n")
		fmt.Printf("   Mean Portfolio Avg Score: %.2f\n", m.scoreSum/float64(analyzed))
	}

	fmt.Printf("\nPERFORMANCE\n")
	fmt.Printf("   Total Duration:   %v\n", duration.Round(time.Millisecond))
	if m.TotalPortfolios > 0 {
		avgMs := float64(m.ProcessingTimeMs) / float64(m.TotalPortfolios)
		pps := float64(m.TotalPortfolios) / duration.Seconds()
		aps := float64(m.TotalApplications) / duration.Seconds()
		fmt.Printf("   Avg Latency:      %.2f ms/portfolio\n", avgMs)
		fmt.Printf("   Throughput:       %.2f portfolios/sec (%.0f apps/sec)\n", pps, aps)
	}

	fmt.Println()
}

func printDistribution(title string, counts map[string]int64, total int64) {
	if len(counts) == 0 || total == 0 {
		return
	}

	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Printf("\n%s\n", title)
	for _, k := range keys {
		fmt.Printf("   %-20s %8d  (%5.2f%%)\n", k, counts[k], 100*float64(counts[k])/float64(total))
	}
}
