// Benchmark tool for testing PhishGuard against a labeled message corpus.
//
// Usage:
//   go run cmd/benchmark/main.go -csv /path/to/corpus.csv -url http://localhost:8080
//
// The CSV needs a "text" column and a "label" column (1 = phishing).
// This tool:
//   1. Reads the labeled messages
//   2. Sends each message to PhishGuard for analysis
//   3. Compares the verdict (risk score >= threshold) with the labels
//   4. Calculates precision, recall, F1-score, and confusion matrix
package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Sample represents one labeled row from the corpus
type Sample struct {
	Text       string
	IsPhishing bool
}

// AnalyzeRequest is the PhishGuard API request format
type AnalyzeRequest struct {
	InputText string `json:"inputText"`
}

// AnalyzeResponse is the PhishGuard API response format
type AnalyzeResponse struct {
	AnalysisID string `json:"analysisId"`
	Result     struct {
		RiskScore   int    `json:"riskScore"`
		ThreatLevel string `json:"threatLevel"`
	} `json:"result"`
}

// Metrics tracks benchmark results
type Metrics struct {
	TruePositives  int64 // Phishing flagged as phishing
	FalsePositives int64 // Legitimate flagged as phishing
	TrueNegatives  int64 // Legitimate passed as safe
	FalseNegatives int64 // Phishing passed as safe (missed!)

	TotalProcessed int64
	TotalPhishing  int64
	TotalLegit     int64
	TotalErrors    int64

	ProcessingTimeMs int64
}

func main() {
	// Parse flags
	csvPath := flag.String("csv", "", "Path to labeled corpus CSV file")
	baseURL := flag.String("url", "http://localhost:8080", "PhishGuard base URL")
	userID := flag.String("user", "benchmark-test", "User ID for requests")
	limit := flag.Int("limit", 10000, "Maximum messages to process (0 = all)")
	workers := flag.Int("workers", 10, "Number of concurrent workers")
	threshold := flag.Int("threshold", 40, "Risk score at which a message counts as phishing")
	phishingOnly := flag.Bool("phishing-only", false, "Only test phishing messages")
	verbose := flag.Bool("verbose", false, "Print each message result")
	flag.Parse()

	if *csvPath == "" {
		fmt.Println("Usage: benchmark -csv /path/to/corpus.csv [-url http://localhost:8080]")
		fmt.Println("\nFlags:")
		flag.PrintDefaults()
		os.Exit(1)
	}

	fmt.Println("╔═══════════════════════════════════════════════════════════════╗")
	fmt.Println("║        PHISHGUARD BENCHMARK - Labeled Message Corpus          ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════════╝")
	fmt.Printf("\nCSV File:       %s\n", *csvPath)
	fmt.Printf("PhishGuard URL: %s\n", *baseURL)
	fmt.Printf("User ID:        %s\n", *userID)
	fmt.Printf("Workers:        %d\n", *workers)
	fmt.Printf("Limit:          %d\n", *limit)
	fmt.Printf("Threshold:      %d\n", *threshold)
	fmt.Printf("Phishing Only:  %v\n", *phishingOnly)
	fmt.Println()

	// Check PhishGuard is running
	if err := checkHealth(*baseURL); err != nil {
		fmt.Printf("ERROR: PhishGuard not reachable at %s: %v\n", *baseURL, err)
		fmt.Println("\nMake sure PhishGuard is running:")
		fmt.Println("  go run cmd/phishguard/main.go")
		os.Exit(1)
	}
	fmt.Println("✓ PhishGuard is healthy")

	// Read corpus
	fmt.Printf("\nReading corpus from %s...\n", *csvPath)
	samples, err := readCorpusCSV(*csvPath, *limit, *phishingOnly)
	if err != nil {
		fmt.Printf("ERROR: Failed to read CSV: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✓ Loaded %d messages\n", len(samples))

	// Count phishing vs legitimate
	phishingCount := 0
	for _, s := range samples {
		if s.IsPhishing {
			phishingCount++
		}
	}
	fmt.Printf("  - Phishing:   %d (%.2f%%)\n", phishingCount, 100*float64(phishingCount)/float64(len(samples)))
	fmt.Printf("  - Legitimate: %d (%.2f%%)\n", len(samples)-phishingCount, 100*float64(len(samples)-phishingCount)/float64(len(samples)))

	// Run benchmark
	fmt.Printf("\nRunning benchmark with %d workers...\n", *workers)
	startTime := time.Now()
	metrics := runBenchmark(samples, *baseURL, *userID, *workers, *threshold, *verbose)
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

func readCorpusCSV(path string, limit int, phishingOnly bool) ([]Sample, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)

	// Read header
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	// Map column indices
	colIndex := make(map[string]int)
	for i, col := range header {
		colIndex[strings.ToLower(strings.TrimSpace(col))] = i
	}

	textCol, ok := colIndex["text"]
	if !ok {
		return nil, fmt.Errorf("CSV has no 'text' column")
	}
	labelCol, ok := colIndex["label"]
	if !ok {
		return nil, fmt.Errorf("CSV has no 'label' column")
	}

	var samples []Sample

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue // Skip malformed rows
		}

		text := record[textCol]
		if strings.TrimSpace(text) == "" {
			continue
		}

		isPhishing := record[labelCol] == "1"
		if phishingOnly && !isPhishing {
			continue
		}

		samples = append(samples, Sample{Text: text, IsPhishing: isPhishing})

		if limit > 0 && len(samples) >= limit {
			break
		}
	}

	return samples, nil
}

func runBenchmark(samples []Sample, baseURL, userID string, numWorkers, threshold int, verbose bool) *Metrics {
	metrics := &Metrics{}

	// Create work channel
	work := make(chan Sample, 100)
	var wg sync.WaitGroup

	// Start workers
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			client := &http.Client{Timeout: 10 * time.Second}

			for s := range work {
				start := time.Now()
				result, err := analyzeText(client, baseURL, userID, s.Text)
				elapsed := time.Since(start).Milliseconds()

				atomic.AddInt64(&metrics.ProcessingTimeMs, elapsed)
				atomic.AddInt64(&metrics.TotalProcessed, 1)

				if err != nil {
					atomic.AddInt64(&metrics.TotalErrors, 1)
					if verbose {
						fmt.Printf("ERROR: %v\n", err)
					}
					continue
				}

				// Track actual labels
				if s.IsPhishing {
					atomic.AddInt64(&metrics.TotalPhishing, 1)
				} else {
					atomic.AddInt64(&metrics.TotalLegit, 1)
				}

				// Calculate confusion matrix
				predicted := result.Result.RiskScore >= threshold
				actual := s.IsPhishing

				if predicted && actual {
					atomic.AddInt64(&metrics.TruePositives, 1)
				} else if predicted && !actual {
					atomic.AddInt64(&metrics.FalsePositives, 1)
				} else if !predicted && !actual {
					atomic.AddInt64(&metrics.TrueNegatives, 1)
				} else { // !predicted && actual
					atomic.AddInt64(&metrics.FalseNegatives, 1)
				}

				if verbose {
					status := "✓"
					if (predicted && !actual) || (!predicted && actual) {
						status = "✗"
					}
					preview := s.Text
					if len(preview) > 40 {
						preview = preview[:40]
					}
					fmt.Printf("%s %-40s | Phishing: %-5v | Score: %3d | Level: %s\n",
						status,
						preview,
						s.IsPhishing,
						result.Result.RiskScore,
						result.Result.ThreatLevel,
					)
				}
			}
		}()
	}

	// Send work
	for _, s := range samples {
		work <- s
	}
	close(work)

	// Wait for completion
	wg.Wait()

	return metrics
}

func analyzeText(client *http.Client, baseURL, userID, text string) (*AnalyzeResponse, error) {
	body, err := json.Marshal(AnalyzeRequest{InputText: text})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequest(http.MethodPost, baseURL+"/analyze", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-User-ID", userID)

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
	fmt.Println("\n╔═══════════════════════════════════════════════════════════════╗")
	fmt.Println("║                      BENCHMARK RESULTS                        ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════════╝")

	fmt.Printf("\n📊 DATASET STATISTICS\n")
	fmt.Printf("   Total Processed:  %d\n", m.TotalProcessed)
	fmt.Printf("   Total Phishing:   %d\n", m.TotalPhishing)
	fmt.Printf("   Total Legitimate: %d\n", m.TotalLegit)
	fmt.Printf("   Errors:           %d\n", m.TotalErrors)

	fmt.Printf("\n📈 CONFUSION MATRIX\n")
	fmt.Println("                        Predicted")
	fmt.Println("                    PHISH       SAFE")
	fmt.Println("              ┌──────────┬──────────┐")
	fmt.Printf("   Actual  P  │ %8d │ %8d │  (TP, FN)\n", m.TruePositives, m.FalseNegatives)
	fmt.Println("              ├──────────┼──────────┤")
	fmt.Printf("           L  │ %8d │ %8d │  (FP, TN)\n", m.FalsePositives, m.TrueNegatives)
	fmt.Println("              └──────────┴──────────┘")

	// Calculate metrics
	precision := float64(0)
	if m.TruePositives+m.FalsePositives > 0 {
		precision = float64(m.TruePositives) / float64(m.TruePositives+m.FalsePositives)
	}

	recall := float64(0)
	if m.TruePositives+m.FalseNegatives > 0 {
		recall = float64(m.TruePositives) / float64(m.TruePositives+m.FalseNegatives)
	}

	f1 := float64(0)
	if precision+recall > 0 {
		f1 = 2 * (precision * recall) / (precision + recall)
	}

	accuracy := float64(0)
	total := m.TruePositives + m.TrueNegatives + m.FalsePositives + m.FalseNegatives
	if total > 0 {
		accuracy = float64(m.TruePositives+m.TrueNegatives) / float64(total)
	}

	fmt.Printf("\n🎯 DETECTION METRICS\n")
	fmt.Printf("   Precision:  %.4f  (of flagged messages, how many were actual phishing)\n", precision)
	fmt.Printf("   Recall:     %.4f  (of phishing, how much did we catch)\n", recall)
	fmt.Printf("   F1-Score:   %.4f  (harmonic mean of precision & recall)\n", f1)
	fmt.Printf("   Accuracy:   %.4f  (overall correct predictions)\n", accuracy)

	// Detection rate analysis
	fmt.Printf("\n🔍 DETECTION ANALYSIS\n")
	if m.TotalPhishing > 0 {
		detectionRate := float64(m.TruePositives) / float64(m.TotalPhishing) * 100
		missRate := float64(m.FalseNegatives) / float64(m.TotalPhishing) * 100
		fmt.Printf("   Phishing Detected: %d / %d (%.2f%%)\n", m.TruePositives, m.TotalPhishing, detectionRate)
		fmt.Printf("   Phishing Missed:   %d / %d (%.2f%%) ⚠️\n", m.FalseNegatives, m.TotalPhishing, missRate)
	}
	if m.TotalLegit > 0 {
		falseAlarmRate := float64(m.FalsePositives) / float64(m.TotalLegit) * 100
		fmt.Printf("   False Alarms:      %d / %d (%.2f%%)\n", m.FalsePositives, m.TotalLegit, falseAlarmRate)
	}

	fmt.Printf("\n⏱️  PERFORMANCE\n")
	fmt.Printf("   Total Duration:   %v\n", duration.Round(time.Millisecond))
	if m.TotalProcessed > 0 {
		avgMs := float64(m.ProcessingTimeMs) / float64(m.TotalProcessed)
		tps := float64(m.TotalProcessed) / duration.Seconds()
		fmt.Printf("   Avg Latency:      %.2f ms\n", avgMs)
		fmt.Printf("   Throughput:       %.2f msg/sec\n", tps)
	}

	// Interpretation
	fmt.Printf("\n💡 INTERPRETATION\n")
	if recall >= 0.9 {
		fmt.Println("   ✅ Excellent recall - catching most phishing")
	} else if recall >= 0.7 {
		fmt.Println("   ⚠️  Good recall - but missing some phishing")
	} else if recall >= 0.5 {
		fmt.Println("   ⚠️  Moderate recall - significant phishing being missed")
	} else {
		fmt.Println("   ❌ Poor recall - most phishing is being missed!")
	}

	if precision >= 0.5 {
		fmt.Println("   ✅ Good precision - flags are meaningful")
	} else if precision >= 0.2 {
		fmt.Println("   ⚠️  Low precision - many false alarms")
	} else {
		fmt.Println("   ❌ Very low precision - mostly false alarms")
	}

	fmt.Println()
}
