// Package report rolls the feature table and the fitted importance
// vector up into the monthly, regional, and factor views served to the
// frontend, and assembles them into the complete report bundle.
package report

import "time"

// MonthlySummary is one aggregated row per calendar month: case totals,
// covariate means, the three most influential factors, and a synthetic
// per-month accuracy figure.
//
// PredictionAccuracy is a bounded random perturbation of a fixed
// baseline. It is NOT a model metric and must never feed into sorting or
// comparisons; it only gives the monthly view a plausible per-month
// figure, and varies across runs.
type MonthlySummary struct {
	Month                 string  `json:"month"`
	Year                  int     `json:"year"`
	TotalCases            int     `json:"total_cases"`
	MostInfluentialFactor string  `json:"most_influential_factor"`
	FactorImportance      float64 `json:"factor_importance"`
	SecondaryFactor       string  `json:"secondary_factor"`
	SecondaryImportance   float64 `json:"secondary_importance"`
	TertiaryFactor        string  `json:"tertiary_factor"`
	TertiaryImportance    float64 `json:"tertiary_importance"`
	RainfallMM            float64 `json:"rainfall_mm"`
	PopulationDensity     float64 `json:"population_density"`
	PredictionAccuracy    float64 `json:"prediction_accuracy"`
}

// RegionalSummary is one aggregated row per region. DominantFactor is the
// global importance argmax and therefore identical for every region in a
// batch — a known simplification, not a per-region computation.
type RegionalSummary struct {
	RegionCode        string  `json:"region_code"`
	Region            string  `json:"region"`
	TotalCases        int     `json:"total_cases"`
	DominantFactor    string  `json:"dominant_factor"`
	FactorImportance  float64 `json:"factor_importance"`
	PopulationDensity float64 `json:"population_density"`
	AvgRainfall       float64 `json:"avg_rainfall"`
}

// FactorDescriptor joins one feature's importance with its display
// metadata.
type FactorDescriptor struct {
	Name          string  `json:"name"`
	AvgImportance float64 `json:"avg_importance"`
	Description   string  `json:"description"`
}

// FactorSummary is the ordered factor list, highest importance first.
type FactorSummary struct {
	Factors []FactorDescriptor `json:"factors"`
}

// ModelInfo carries the fit-quality metadata of the influence estimate.
type ModelInfo struct {
	ModelType            string   `json:"model_type"`
	FeaturesUsed         []string `json:"features_used"`
	TrainingAccuracy     float64  `json:"training_accuracy"`
	TestAccuracy         float64  `json:"test_accuracy"`
	CrossValidationScore float64  `json:"cross_validation_score"`
	TotalDataPoints      int      `json:"total_data_points"`
	TrainingPeriod       string   `json:"training_period"`
}

// Bundle is the complete output of one report build. Field names and
// nesting are the wire contract the serving layer preserves.
type Bundle struct {
	ReportID       string            `json:"report_id"`
	GeneratedAt    time.Time         `json:"generated_at"`
	Year           int               `json:"year,omitempty"`
	MonthlyResults []MonthlySummary  `json:"monthly_results"`
	ModelInfo      ModelInfo         `json:"model_info"`
	RegionalData   []RegionalSummary `json:"regional_data"`
	FactorSummary  FactorSummary     `json:"factor_summary"`
}
