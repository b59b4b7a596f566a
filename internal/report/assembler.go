package report

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dengueatlas/analytics-service/internal/domain"
	"github.com/dengueatlas/analytics-service/internal/model"
	"github.com/dengueatlas/analytics-service/internal/observability"
)

// Assembler composes the engineered features, the influence estimate, and
// the aggregated views into complete report bundles. It is stateless per
// call: every Assemble derives its own feature table and importance
// vector, so concurrent callers with different scopes never share state.
type Assembler struct {
	catalog      *Catalog
	newRegressor func() model.Regressor
	logger       *slog.Logger
	metrics      *observability.Metrics
}

// NewAssembler creates an Assembler. newRegressor is called once per
// bundle build to obtain a fresh regression capability.
func NewAssembler(catalog *Catalog, newRegressor func() model.Regressor, logger *slog.Logger, metrics *observability.Metrics) *Assembler {
	return &Assembler{
		catalog:      catalog,
		newRegressor: newRegressor,
		logger:       logger,
		metrics:      metrics,
	}
}

// Assemble builds one bundle for the given year scope (0 means all
// years). The estimator runs exactly once; the aggregators consume its
// importance vector read-only. Estimator failure propagates — there are
// no partial bundles.
func (a *Assembler) Assemble(raw domain.RawTable, year int) (Bundle, error) {
	start := time.Now()

	rows, err := domain.EngineerFeatures(raw)
	if err != nil {
		return Bundle{}, fmt.Errorf("engineer features: %w", err)
	}

	fitStart := time.Now()
	influence, err := model.EstimateInfluence(rows, domain.AllFeatures(), a.newRegressor())
	if err != nil {
		a.metrics.EstimatorErrors.Inc()
		return Bundle{}, fmt.Errorf("estimate influence: %w", err)
	}
	a.metrics.ModelFitDuration.Observe(time.Since(fitStart).Seconds())

	bundle := Bundle{
		ReportID:       uuid.NewString(),
		GeneratedAt:    clock.Now().UTC(),
		Year:           year,
		MonthlyResults: AggregateMonthly(rows, influence.Importances, year, a.catalog),
		ModelInfo:      modelInfo(influence),
		RegionalData:   AggregateRegional(rows, influence.Importances, year, a.catalog),
		FactorSummary:  CatalogFactors(influence.Importances, a.catalog),
	}

	a.metrics.ReportsBuilt.Inc()
	a.metrics.ReportBuildDuration.Observe(time.Since(start).Seconds())
	a.logger.Info("report bundle assembled",
		"report_id", bundle.ReportID,
		"year", year,
		"rows", len(rows),
		"monthly_entries", len(bundle.MonthlyResults),
		"regions", len(bundle.RegionalData),
	)
	return bundle, nil
}

func modelInfo(influence model.Influence) ModelInfo {
	features := make([]string, len(influence.FeaturesUsed))
	for i, f := range influence.FeaturesUsed {
		features[i] = string(f)
	}
	return ModelInfo{
		ModelType:            influence.ModelType,
		FeaturesUsed:         features,
		TrainingAccuracy:     influence.TrainScore,
		TestAccuracy:         influence.TestScore,
		CrossValidationScore: influence.TestScore,
		TotalDataPoints:      influence.DataPoints,
		TrainingPeriod:       fmt.Sprintf("%d-%d", influence.YearMin, influence.YearMax),
	}
}
