package report

import (
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dengueatlas/analytics-service/internal/domain"
	"github.com/dengueatlas/analytics-service/internal/model"
	"github.com/dengueatlas/analytics-service/internal/observability"
)

func testAssembler() *Assembler {
	return NewAssembler(
		DefaultCatalog(),
		func() model.Regressor {
			return model.NewRandomForest(model.ForestConfig{Trees: 10, MaxDepth: 4, MinSamplesSplit: 2, Seed: 2})
		},
		slog.New(slog.DiscardHandler),
		observability.NewMetricsForTesting(),
	)
}

func rawColumns() []string {
	return []string{
		domain.ColRegionCode, domain.ColRegionName, domain.ColYear,
		domain.ColMonth, domain.ColRainfall, domain.ColDensity, domain.ColCases,
	}
}

// twoRegionTable is the 2-region, 2-month fixture with case counts
// 10, 20, 30, 40: January holds the rows with 10 and 30 cases.
func twoRegionTable() domain.RawTable {
	return domain.RawTable{
		Columns: rawColumns(),
		Rows: []domain.RawObservation{
			{RegionCode: "3201", RegionName: "Bogor", Year: "2023", Month: "1", Rainfall: "100", Density: "1200", Cases: "10"},
			{RegionCode: "3201", RegionName: "Bogor", Year: "2023", Month: "2", Rainfall: "150", Density: "1200", Cases: "20"},
			{RegionCode: "3273", RegionName: "Bandung", Year: "2023", Month: "1", Rainfall: "200", Density: "15000", Cases: "30"},
			{RegionCode: "3273", RegionName: "Bandung", Year: "2023", Month: "2", Rainfall: "250", Density: "15000", Cases: "40"},
		},
	}
}

func TestAssembler_Assemble(t *testing.T) {
	frozen := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(frozen))
	defer SetClock(nil)

	bundle, err := testAssembler().Assemble(twoRegionTable(), 2023)
	require.NoError(t, err)

	t.Run("monthly totals", func(t *testing.T) {
		require.Len(t, bundle.MonthlyResults, 2)
		january := bundle.MonthlyResults[0]
		assert.Equal(t, "January", january.Month)
		assert.Equal(t, 40, january.TotalCases, "January holds the 10-case and 30-case rows")
		assert.Equal(t, 60, bundle.MonthlyResults[1].TotalCases)
	})

	t.Run("regional view", func(t *testing.T) {
		require.Len(t, bundle.RegionalData, 2)
		assert.Equal(t, 30, bundle.RegionalData[0].TotalCases)
		assert.Equal(t, 70, bundle.RegionalData[1].TotalCases)
		assert.Equal(t, bundle.RegionalData[0].DominantFactor, bundle.RegionalData[1].DominantFactor)
	})

	t.Run("factor summary covers the candidate set", func(t *testing.T) {
		assert.Len(t, bundle.FactorSummary.Factors, len(domain.AllFeatures()))
	})

	t.Run("model info", func(t *testing.T) {
		assert.Equal(t, "Random Forest Regressor", bundle.ModelInfo.ModelType)
		assert.Equal(t, 4, bundle.ModelInfo.TotalDataPoints)
		assert.Equal(t, "2023-2023", bundle.ModelInfo.TrainingPeriod)
		assert.Len(t, bundle.ModelInfo.FeaturesUsed, len(domain.AllFeatures()))
	})

	t.Run("bundle metadata", func(t *testing.T) {
		assert.Equal(t, frozen, bundle.GeneratedAt)
		assert.Equal(t, 2023, bundle.Year)
		_, err := uuid.Parse(bundle.ReportID)
		assert.NoError(t, err)
	})
}

func TestAssembler_PropagatesDataFormatError(t *testing.T) {
	raw := domain.RawTable{
		Columns: []string{domain.ColRegionName, domain.ColCases},
		Rows:    []domain.RawObservation{{RegionName: "Bogor", Cases: "5"}},
	}

	_, err := testAssembler().Assemble(raw, 0)
	require.Error(t, err)

	var dfErr *domain.DataFormatError
	assert.ErrorAs(t, err, &dfErr)
}

func TestAssembler_PropagatesInsufficientData(t *testing.T) {
	raw := domain.RawTable{
		Columns: rawColumns(),
		Rows: []domain.RawObservation{
			{RegionCode: "3201", RegionName: "Bogor", Year: "2023", Month: "1", Rainfall: "10", Density: "1200", Cases: "5"},
			{RegionCode: "3201", RegionName: "Bogor", Year: "2023", Month: "2", Rainfall: "20", Density: "1200", Cases: "5"},
		},
	}

	_, err := testAssembler().Assemble(raw, 0)
	require.Error(t, err)

	var insufficientErr *domain.InsufficientDataError
	assert.ErrorAs(t, err, &insufficientErr)
}

func TestAssembler_EmptyScopeYieldsEmptyViews(t *testing.T) {
	bundle, err := testAssembler().Assemble(twoRegionTable(), 2019)
	require.NoError(t, err)

	assert.Empty(t, bundle.MonthlyResults)
	assert.Empty(t, bundle.RegionalData)
	assert.NotEmpty(t, bundle.FactorSummary.Factors, "the model still fits on the full table")
}
