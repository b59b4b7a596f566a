package report

import (
	"math"
	"math/rand"
	"time"

	"github.com/dengueatlas/analytics-service/internal/domain"
)

// Synthetic confidence parameters. The monthly view reports a
// plausible-looking accuracy of 0.80 ± 0.03; see MonthlySummary.
const (
	confidenceBaseline = 0.80
	confidenceJitter   = 0.03
)

// notApplicable labels factor slots that cannot be filled, either because
// fewer than three features exist or because no importance vector was
// supplied.
const notApplicable = "N/A"

// AggregateMonthly rolls the feature table up to one summary per calendar
// month present after the optional year filter (year 0 means all years).
// Months with zero matching rows are omitted entirely. Output is ordered
// January first and carries at most twelve entries.
//
// The importance vector may be nil, in which case all three factor slots
// report "N/A" with zero importance.
func AggregateMonthly(rows []domain.FeatureRow, importances domain.ImportanceVector, year int, catalog *Catalog) []MonthlySummary {
	scoped := filterByYear(rows, year)

	summaries := make([]MonthlySummary, 0, 12)
	for month := 1; month <= 12; month++ {
		var monthRows []domain.FeatureRow
		for _, row := range scoped {
			if row.Month == month {
				monthRows = append(monthRows, row)
			}
		}
		if len(monthRows) == 0 {
			continue
		}

		totalCases := 0
		for _, row := range monthRows {
			totalCases += row.Cases
		}

		summary := MonthlySummary{
			Month:              time.Month(month).String(),
			Year:               yearLabel(monthRows, year),
			TotalCases:         totalCases,
			RainfallMM:         roundTo2(meanSkipNaN(monthRows, func(r domain.FeatureRow) float64 { return r.Rainfall })),
			PopulationDensity:  domain.FormatDensity(meanSkipNaN(monthRows, func(r domain.FeatureRow) float64 { return r.Density })),
			PredictionAccuracy: syntheticConfidence(),
		}
		fillFactorSlots(&summary, importances, catalog)
		summaries = append(summaries, summary)
	}
	return summaries
}

// fillFactorSlots writes the top-3 factor fields in descending-importance
// order, padding missing slots with "N/A" and zero importance.
func fillFactorSlots(summary *MonthlySummary, importances domain.ImportanceVector, catalog *Catalog) {
	top := importances.Top(3)

	name := func(i int) string {
		if i < len(top) {
			return catalog.DisplayName(top[i].Feature)
		}
		return notApplicable
	}
	weight := func(i int) float64 {
		if i < len(top) {
			return top[i].Weight
		}
		return 0.0
	}

	summary.MostInfluentialFactor = name(0)
	summary.FactorImportance = weight(0)
	summary.SecondaryFactor = name(1)
	summary.SecondaryImportance = weight(1)
	summary.TertiaryFactor = name(2)
	summary.TertiaryImportance = weight(2)
}

// yearLabel is the filter year when one was supplied, otherwise the most
// frequent year among the month's rows (smallest wins a tie).
func yearLabel(rows []domain.FeatureRow, filterYear int) int {
	if filterYear != 0 {
		return filterYear
	}
	counts := make(map[int]int)
	for _, row := range rows {
		counts[row.Year]++
	}
	best, bestCount := 0, 0
	for y, c := range counts {
		if c > bestCount || (c == bestCount && y < best) {
			best, bestCount = y, c
		}
	}
	return best
}

// syntheticConfidence draws the per-month accuracy figure: the fixed
// baseline perturbed by up to ±confidenceJitter. Deliberately
// non-deterministic across runs.
func syntheticConfidence() float64 {
	return confidenceBaseline + (rand.Float64()*2-1)*confidenceJitter
}

func filterByYear(rows []domain.FeatureRow, year int) []domain.FeatureRow {
	if year == 0 {
		return rows
	}
	var scoped []domain.FeatureRow
	for _, row := range rows {
		if row.Year == year {
			scoped = append(scoped, row)
		}
	}
	return scoped
}

// meanSkipNaN averages the extracted values, excluding NaN entries from
// both the sum and the count. Returns NaN when nothing was observed.
func meanSkipNaN(rows []domain.FeatureRow, value func(domain.FeatureRow) float64) float64 {
	sum, count := 0.0, 0
	for _, row := range rows {
		v := value(row)
		if math.IsNaN(v) {
			continue
		}
		sum += v
		count++
	}
	if count == 0 {
		return math.NaN()
	}
	return sum / float64(count)
}

func roundTo2(v float64) float64 {
	if math.IsNaN(v) {
		return v
	}
	return math.Round(v*100) / 100
}
