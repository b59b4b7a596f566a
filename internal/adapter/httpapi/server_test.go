package httpapi_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dengueatlas/analytics-service/internal/adapter/httpapi"
	"github.com/dengueatlas/analytics-service/internal/domain"
	"github.com/dengueatlas/analytics-service/internal/report"
)

// mockSource serves canned bundles per year and a readiness error.
type mockSource struct {
	bundles  map[int]report.Bundle
	buildErr error
	readyErr error
}

func (m *mockSource) Bundle(year int) (report.Bundle, error) {
	if m.buildErr != nil {
		return report.Bundle{}, m.buildErr
	}
	return m.bundles[year], nil
}

func (m *mockSource) CheckReadiness(_ context.Context) error { return m.readyErr }

func fixtureBundle(year int) report.Bundle {
	return report.Bundle{
		ReportID: fmt.Sprintf("report-%d", year),
		Year:     year,
		MonthlyResults: []report.MonthlySummary{
			{Month: "January", Year: year, TotalCases: 40, MostInfluentialFactor: "Rainfall", RainfallMM: 150},
			{Month: "February", Year: year, TotalCases: 60, MostInfluentialFactor: "Rainfall", RainfallMM: 200},
		},
		ModelInfo: report.ModelInfo{ModelType: "Random Forest Regressor", TotalDataPoints: 4},
		RegionalData: []report.RegionalSummary{
			{RegionCode: "3201", Region: "Bogor", TotalCases: 30, DominantFactor: "Rainfall"},
		},
		FactorSummary: report.FactorSummary{
			Factors: []report.FactorDescriptor{{Name: "Rainfall", AvgImportance: 0.5, Description: "rain"}},
		},
	}
}

func fixtureRows() []domain.FeatureRow {
	return []domain.FeatureRow{
		{RegionCode: "3201", RegionName: "Bogor", Year: 2022, Month: 1, Rainfall: 10, Density: 1200, Cases: 5},
		{RegionCode: "3201", RegionName: "Bogor", Year: 2023, Month: 1, Rainfall: 20, Density: 1200, Cases: 7},
		{RegionCode: "3273", RegionName: "Bandung", Year: 2023, Month: 2, Rainfall: 30, Density: 15000, Cases: 9},
	}
}

func newTestServer(source *mockSource) *httpapi.Server {
	return httpapi.NewServer(":0", source, fixtureRows(), 2023, slog.New(slog.DiscardHandler))
}

func get(t *testing.T, srv *httpapi.Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	srv.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	rec := get(t, newTestServer(&mockSource{}), "/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyz(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		rec := get(t, newTestServer(&mockSource{}), "/readyz")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("not ready", func(t *testing.T) {
		rec := get(t, newTestServer(&mockSource{readyErr: fmt.Errorf("warming up")}), "/readyz")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "warming up", body["error"])
	})
}

func TestMetricsEndpoint(t *testing.T) {
	rec := get(t, newTestServer(&mockSource{}), "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestReportEndpoint(t *testing.T) {
	source := &mockSource{bundles: map[int]report.Bundle{
		2023: fixtureBundle(2023),
		2024: fixtureBundle(2024),
	}}
	srv := newTestServer(source)

	t.Run("default year", func(t *testing.T) {
		rec := get(t, srv, "/api/report")
		require.Equal(t, http.StatusOK, rec.Code)

		var bundle report.Bundle
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &bundle))
		assert.Equal(t, "report-2023", bundle.ReportID)
	})

	t.Run("explicit year", func(t *testing.T) {
		rec := get(t, srv, "/api/report?year=2024")
		require.Equal(t, http.StatusOK, rec.Code)

		var bundle report.Bundle
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &bundle))
		assert.Equal(t, "report-2024", bundle.ReportID)
	})

	t.Run("malformed year", func(t *testing.T) {
		rec := get(t, srv, "/api/report?year=twenty")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestMonthlyResults(t *testing.T) {
	source := &mockSource{bundles: map[int]report.Bundle{
		0:    fixtureBundle(0),
		2023: fixtureBundle(2023),
	}}
	srv := newTestServer(source)

	t.Run("list", func(t *testing.T) {
		rec := get(t, srv, "/api/monthly-results?year=2023")
		require.Equal(t, http.StatusOK, rec.Code)

		var results []report.MonthlySummary
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
		require.Len(t, results, 2)
		assert.Equal(t, 40, results[0].TotalCases)
	})

	t.Run("no year means all years", func(t *testing.T) {
		rec := get(t, srv, "/api/monthly-results")
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("by month, case-insensitive", func(t *testing.T) {
		rec := get(t, srv, "/api/monthly-results/february")
		require.Equal(t, http.StatusOK, rec.Code)

		var result report.MonthlySummary
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
		assert.Equal(t, "February", result.Month)
		assert.Equal(t, 60, result.TotalCases)
	})

	t.Run("unknown month", func(t *testing.T) {
		rec := get(t, srv, "/api/monthly-results/smarch")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestRegionalData(t *testing.T) {
	source := &mockSource{bundles: map[int]report.Bundle{0: fixtureBundle(0)}}
	rec := get(t, newTestServer(source), "/api/regional-data")
	require.Equal(t, http.StatusOK, rec.Code)

	var regions []report.RegionalSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &regions))
	require.Len(t, regions, 1)
	assert.Equal(t, "Bogor", regions[0].Region)
}

func TestFactorSummaryAndModelInfo(t *testing.T) {
	source := &mockSource{bundles: map[int]report.Bundle{0: fixtureBundle(0)}}
	srv := newTestServer(source)

	rec := get(t, srv, "/api/factor-summary")
	require.Equal(t, http.StatusOK, rec.Code)
	var summary report.FactorSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	require.Len(t, summary.Factors, 1)

	rec = get(t, srv, "/api/model-info")
	require.Equal(t, http.StatusOK, rec.Code)
	var info report.ModelInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, "Random Forest Regressor", info.ModelType)
}

func TestStatisticsAndDiscovery(t *testing.T) {
	srv := newTestServer(&mockSource{})

	t.Run("statistics", func(t *testing.T) {
		rec := get(t, srv, "/api/statistics")
		require.Equal(t, http.StatusOK, rec.Code)

		var stats report.Statistics
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
		assert.Equal(t, 3, stats.TotalRows)
		assert.Equal(t, 2, stats.Regions)
	})

	t.Run("available years", func(t *testing.T) {
		rec := get(t, srv, "/api/available-years")
		require.Equal(t, http.StatusOK, rec.Code)

		var body map[string][]int
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, []int{2022, 2023}, body["years"])
	})

	t.Run("available regions scoped by year", func(t *testing.T) {
		rec := get(t, srv, "/api/available-regions?year=2022")
		require.Equal(t, http.StatusOK, rec.Code)

		var body map[string][]report.RegionInfo
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Len(t, body["regions"], 1)
		assert.Equal(t, "3201", body["regions"][0].RegionCode)
	})
}

func TestBuildFailureMapping(t *testing.T) {
	t.Run("insufficient data", func(t *testing.T) {
		source := &mockSource{buildErr: &domain.InsufficientDataError{DistinctValues: 1}}
		rec := get(t, newTestServer(source), "/api/report")
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("other failures", func(t *testing.T) {
		source := &mockSource{buildErr: fmt.Errorf("boom")}
		rec := get(t, newTestServer(source), "/api/report")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
