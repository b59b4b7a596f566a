package report

import (
	"math"

	"github.com/dengueatlas/analytics-service/internal/domain"
)

// Fallback dominant factor reported when no importance vector is
// available.
const (
	fallbackDominantFeature    = domain.FeatureDensity
	fallbackDominantImportance = 0.60
)

// AggregateRegional rolls the feature table up to one summary per region
// present after the optional year filter (year 0 means all years).
// Grouping is by region code, not display name, and output order is the
// first-seen order of the scoped rows.
//
// The dominant factor is the single global importance argmax, so it is
// identical for every region in one batch.
func AggregateRegional(rows []domain.FeatureRow, importances domain.ImportanceVector, year int, catalog *Catalog) []RegionalSummary {
	scoped := filterByYear(rows, year)

	dominantName := catalog.DisplayName(fallbackDominantFeature)
	dominantWeight := fallbackDominantImportance
	if best, ok := importances.ArgMax(); ok {
		dominantName = catalog.DisplayName(best.Feature)
		dominantWeight = best.Weight
	}

	type regionAcc struct {
		name      string
		cases     int
		density   float64 // first non-missing value; density is constant per region
		rainSum   float64
		rainCount int
	}

	var order []string
	accs := make(map[string]*regionAcc)

	for _, row := range scoped {
		acc, ok := accs[row.RegionCode]
		if !ok {
			acc = &regionAcc{name: row.RegionName, density: math.NaN()}
			accs[row.RegionCode] = acc
			order = append(order, row.RegionCode)
		}
		acc.cases += row.Cases
		if math.IsNaN(acc.density) && !math.IsNaN(row.Density) {
			acc.density = row.Density
		}
		if !math.IsNaN(row.Rainfall) {
			acc.rainSum += row.Rainfall
			acc.rainCount++
		}
	}

	summaries := make([]RegionalSummary, 0, len(order))
	for _, code := range order {
		acc := accs[code]
		avgRain := math.NaN()
		if acc.rainCount > 0 {
			avgRain = acc.rainSum / float64(acc.rainCount)
		}
		summaries = append(summaries, RegionalSummary{
			RegionCode:        code,
			Region:            acc.name,
			TotalCases:        acc.cases,
			DominantFactor:    dominantName,
			FactorImportance:  dominantWeight,
			PopulationDensity: domain.FormatDensity(acc.density),
			AvgRainfall:       roundTo2(avgRain),
		})
	}
	return summaries
}
