// Command export builds report bundles from a combined case CSV and writes
// every API response as a static JSON file, so the analytics can be served
// from a plain file host without the API process. It uses the actual report
// assembly packages to ensure the exported output matches live API behavior.
//
// Usage:
//
//	go run ./cmd/export \
//	  -csv data/Kasus_DBD_Gabungan.csv \
//	  -out-dir frontend/public/api \
//	  -frozen-at 2024-12-31T00:00:00Z
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/dengueatlas/analytics-service/internal/adapter/csvsource"
	"github.com/dengueatlas/analytics-service/internal/domain"
	"github.com/dengueatlas/analytics-service/internal/model"
	"github.com/dengueatlas/analytics-service/internal/observability"
	"github.com/dengueatlas/analytics-service/internal/report"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	csvPath := flag.String("csv", "", "path to the combined case CSV file")
	outDir := flag.String("out-dir", "", "output directory for static JSON files")
	catalogPath := flag.String("catalog", "", "optional factor catalog YAML (defaults to the embedded catalog)")
	frozenAt := flag.String("frozen-at", "", "optional RFC 3339 timestamp to freeze bundle generation times")
	flag.Parse()

	if *csvPath == "" || *outDir == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -csv, -out-dir")
	}

	if *frozenAt != "" {
		at, err := time.Parse(time.RFC3339, *frozenAt)
		if err != nil {
			return fmt.Errorf("parsing -frozen-at: %w", err)
		}
		report.SetClock(clockwork.NewFakeClockAt(at))
		defer report.SetClock(nil)
	}

	catalog := report.DefaultCatalog()
	if *catalogPath != "" {
		var err error
		catalog, err = report.LoadCatalogFile(*catalogPath)
		if err != nil {
			return fmt.Errorf("loading catalog: %w", err)
		}
	}

	raw, err := csvsource.ReadFile(*csvPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", *csvPath, err)
	}

	rows, err := domain.EngineerFeatures(raw)
	if err != nil {
		return fmt.Errorf("engineering features: %w", err)
	}
	log.Printf("loaded %d rows from %s", len(rows), *csvPath)

	assembler := report.NewAssembler(catalog, func() model.Regressor {
		return model.NewRandomForest(model.DefaultForestConfig())
	}, observability.NewLogger("info", "text"), observability.NewMetrics())

	years := report.AvailableYears(rows)
	if len(years) == 0 {
		return fmt.Errorf("no usable rows in %s", *csvPath)
	}

	// The all-years bundle backs the unscoped endpoint files.
	all, err := assembler.Assemble(raw, 0)
	if err != nil {
		return fmt.Errorf("assembling all-years bundle: %w", err)
	}

	files := map[string]any{
		"index.json":             indexDocument(years),
		"report.json":            all,
		"monthly-results.json":   all.MonthlyResults,
		"regional-data.json":     all.RegionalData,
		"factor-summary.json":    all.FactorSummary,
		"model-info.json":        all.ModelInfo,
		"statistics.json":        report.Summarize(rows),
		"available-years.json":   map[string]any{"years": years, "default": years[len(years)-1]},
		"available-regions.json": map[string]any{"regions": report.AvailableRegions(rows, 0)},
	}

	for _, y := range years {
		bundle, err := assembler.Assemble(raw, y)
		if err != nil {
			log.Printf("warning: skipping year %d: %v", y, err)
			continue
		}
		suffix := "-" + strconv.Itoa(y) + ".json"
		files["report"+suffix] = bundle
		files["monthly-results"+suffix] = bundle.MonthlyResults
		files["regional-data"+suffix] = bundle.RegionalData
		files["available-regions"+suffix] = map[string]any{"regions": report.AvailableRegions(rows, y)}
	}

	for name, v := range files {
		if err := writeJSON(filepath.Join(*outDir, name), v); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
	}
	log.Printf("wrote %d files to %s", len(files), *outDir)
	return nil
}

// indexDocument describes the exported file set, mirroring the API root.
func indexDocument(years []int) map[string]any {
	return map[string]any{
		"message": "Dengue case analytics static export",
		"version": "1.0.0",
		"years":   years,
		"endpoints": []string{
			"/api/report",
			"/api/monthly-results",
			"/api/regional-data",
			"/api/factor-summary",
			"/api/model-info",
			"/api/statistics",
			"/api/available-years",
			"/api/available-regions",
		},
	}
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}
