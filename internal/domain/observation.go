package domain

import "sort"

// Canonical column names of the raw observation table. The CSV adapter
// maps source headers (Indonesian or English) onto these.
const (
	ColRegionCode = "region_code"
	ColRegionName = "region_name"
	ColYear       = "year"
	ColMonth      = "month"
	ColRainfall   = "rainfall_mm"
	ColDensity    = "population_density"
	ColCases      = "monthly_cases"
)

// RawObservation is one unvalidated input row. All cells are strings as
// they arrive from the source; coercion happens in EngineerFeatures.
type RawObservation struct {
	RegionCode string
	RegionName string
	Year       string
	Month      string
	Rainfall   string
	Density    string
	Cases      string
}

// RawTable is the unvalidated observation table together with the set of
// columns the source actually provided. Column presence is checked by
// EngineerFeatures; a struct field backed by an absent column is simply
// empty on every row.
type RawTable struct {
	Columns []string
	Rows    []RawObservation
}

// HasColumn reports whether the source table carried the named column.
func (t RawTable) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// FeatureRow is a coerced observation extended with the derived
// lag/rolling/interaction features. NaN marks a missing float value.
type FeatureRow struct {
	RegionCode string  `json:"region_code"`
	RegionName string  `json:"region_name"`
	Year       int     `json:"year"`
	Month      int     `json:"month"`
	Rainfall   float64 `json:"rainfall_mm"`
	Density    float64 `json:"population_density"`
	Cases      int     `json:"monthly_cases"`

	RainLag1     float64 `json:"rain_lag1"`
	Rain3MMean   float64 `json:"rain_3m_mean"`
	RainXDensity float64 `json:"rain_x_density"`
}

// Feature identifies a model feature. The set is closed: the catalog and
// the estimator are validated against AllFeatures rather than free-form
// string keys.
type Feature string

const (
	FeatureRainfall     Feature = "rainfall_mm"
	FeatureRainLag1     Feature = "rain_lag1"
	FeatureRain3MMean   Feature = "rain_3m_mean"
	FeatureDensity      Feature = "population_density"
	FeatureRainXDensity Feature = "rain_x_density"
	FeatureMonth        Feature = "month"
)

// AllFeatures returns the full candidate feature set in canonical order.
func AllFeatures() []Feature {
	return []Feature{
		FeatureRainfall,
		FeatureRainLag1,
		FeatureRain3MMean,
		FeatureDensity,
		FeatureRainXDensity,
		FeatureMonth,
	}
}

// FeatureValue extracts the named feature from the row. Unknown features
// return NaN.
func (r FeatureRow) FeatureValue(f Feature) float64 {
	switch f {
	case FeatureRainfall:
		return r.Rainfall
	case FeatureRainLag1:
		return r.RainLag1
	case FeatureRain3MMean:
		return r.Rain3MMean
	case FeatureDensity:
		return r.Density
	case FeatureRainXDensity:
		return r.RainXDensity
	case FeatureMonth:
		return float64(r.Month)
	default:
		return nan
	}
}

// ImportanceVector maps each feature to its non-negative relative weight
// from the fitted model. The map itself is unordered; consumers rank
// entries through Top or ArgMax, which apply the deterministic tie-break
// (descending weight, then ascending feature identifier).
type ImportanceVector map[Feature]float64

// FactorWeight is one ranked entry of an ImportanceVector.
type FactorWeight struct {
	Feature Feature
	Weight  float64
}

// Ranked returns all entries ordered by descending weight, ties broken by
// ascending feature identifier so repeated runs rank identically.
func (iv ImportanceVector) Ranked() []FactorWeight {
	ranked := make([]FactorWeight, 0, len(iv))
	for f, w := range iv {
		ranked = append(ranked, FactorWeight{Feature: f, Weight: w})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Weight != ranked[j].Weight {
			return ranked[i].Weight > ranked[j].Weight
		}
		return ranked[i].Feature < ranked[j].Feature
	})
	return ranked
}

// Top returns the n highest-weighted entries (fewer if the vector is
// smaller than n).
func (iv ImportanceVector) Top(n int) []FactorWeight {
	ranked := iv.Ranked()
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// ArgMax returns the single highest-weighted feature. The second return
// is false when the vector is empty.
func (iv ImportanceVector) ArgMax() (FactorWeight, bool) {
	ranked := iv.Ranked()
	if len(ranked) == 0 {
		return FactorWeight{}, false
	}
	return ranked[0], true
}
