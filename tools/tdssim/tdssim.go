// FilePath: tools/tdssim/tdssim.go
// tdssim simulates a TDS sensor pushing readings at the hub. Use it to
// exercise the pipeline without physical hardware:
//
//	go run ./tools/tdssim -scenario good -count 15 -interval 1s
package main

import (
	"flag"
	"fmt"
	"math"
	"math/rand"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
)

var scenarios = map[string][2]float64{
	"excellent": {50, 150},
	"good":      {150, 300},
	"fair":      {300, 500},
	"poor":      {500, 800},
}

type ingestResponse struct {
	OK           bool     `json:"ok"`
	Accepted     bool     `json:"accepted"`
	ReadingCount int      `json:"reading_count"`
	AvgTDSPpm    *float64 `json:"avg_tds_ppm"`
	Status       string   `json:"status"`
}

func main() {
	url := flag.String("url", "http://localhost:8080/ingest", "ingest endpoint")
	apiKey := flag.String("key", "changeme", "X-API-Key value")
	deviceID := flag.String("device", "device-1", "device id to report as")
	scenario := flag.String("scenario", "excellent", "water quality scenario: excellent, good, fair, poor")
	count := flag.Int("count", 15, "number of readings to send")
	interval := flag.Duration("interval", time.Second, "delay between readings")
	flag.Parse()

	bounds, ok := scenarios[*scenario]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown scenario %q\n", *scenario)
		os.Exit(1)
	}

	client := resty.New().
		SetTimeout(10 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-API-Key", *apiKey)

	fmt.Printf("Simulating %s water quality (%v-%v ppm), %d readings -> %s\n",
		*scenario, bounds[0], bounds[1], *count, *url)

	for i := 0; i < *count; i++ {
		tds := bounds[0] + rand.Float64()*(bounds[1]-bounds[0]) + (rand.Float64()-0.5)*20
		voltage := 3.3 + (rand.Float64()-0.5)*0.4
		raw := math.Round(1024 * voltage / 5.0)

		var result ingestResponse
		resp, err := client.R().
			SetBody(map[string]any{
				"device_id": *deviceID,
				"tds":       math.Round(tds*100) / 100,
				"voltage":   math.Round(voltage*1000) / 1000,
				"raw":       raw,
			}).
			SetResult(&result).
			Post(*url)
		if err != nil {
			fmt.Printf("[%d/%d] request failed: %v\n", i+1, *count, err)
			os.Exit(1)
		}
		if resp.IsError() {
			fmt.Printf("[%d/%d] rejected: %d %s\n", i+1, *count, resp.StatusCode(), resp.String())
			os.Exit(1)
		}

		avg := "n/a"
		if result.AvgTDSPpm != nil {
			avg = fmt.Sprintf("%.1f", *result.AvgTDSPpm)
		}
		fmt.Printf("[%d/%d] tds=%.1f accepted=%v count=%d avg=%s status=%s\n",
			i+1, *count, tds, result.Accepted, result.ReadingCount, avg, result.Status)

		if i < *count-1 {
			time.Sleep(*interval)
		}
	}
}
