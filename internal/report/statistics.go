package report

import (
	"sort"

	"github.com/dengueatlas/analytics-service/internal/domain"
)

// Statistics is a raw-data overview of the loaded feature table.
type Statistics struct {
	TotalRows        int     `json:"total_rows"`
	Regions          int     `json:"regions"`
	YearMin          int     `json:"year_min"`
	YearMax          int     `json:"year_max"`
	TotalCases       int     `json:"total_cases"`
	MeanMonthlyCases float64 `json:"mean_monthly_cases"`
	MaxMonthlyCases  int     `json:"max_monthly_cases"`
	AvailableYears   []int   `json:"available_years"`
}

// RegionInfo identifies one region present in the table.
type RegionInfo struct {
	RegionCode string `json:"region_code"`
	Region     string `json:"region"`
}

// Summarize computes the table-wide statistics view.
func Summarize(rows []domain.FeatureRow) Statistics {
	stats := Statistics{TotalRows: len(rows), AvailableYears: AvailableYears(rows)}

	regions := make(map[string]struct{})
	for i, row := range rows {
		regions[row.RegionCode] = struct{}{}
		stats.TotalCases += row.Cases
		if row.Cases > stats.MaxMonthlyCases {
			stats.MaxMonthlyCases = row.Cases
		}
		if i == 0 || row.Year < stats.YearMin {
			stats.YearMin = row.Year
		}
		if i == 0 || row.Year > stats.YearMax {
			stats.YearMax = row.Year
		}
	}
	stats.Regions = len(regions)
	if len(rows) > 0 {
		stats.MeanMonthlyCases = roundTo2(float64(stats.TotalCases) / float64(len(rows)))
	}
	return stats
}

// AvailableYears lists the distinct years in ascending order.
func AvailableYears(rows []domain.FeatureRow) []int {
	seen := make(map[int]struct{})
	for _, row := range rows {
		seen[row.Year] = struct{}{}
	}
	years := make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// AvailableRegions lists the distinct regions present after the optional
// year filter, in first-seen order.
func AvailableRegions(rows []domain.FeatureRow, year int) []RegionInfo {
	scoped := filterByYear(rows, year)
	seen := make(map[string]struct{})
	regions := make([]RegionInfo, 0)
	for _, row := range scoped {
		if _, ok := seen[row.RegionCode]; ok {
			continue
		}
		seen[row.RegionCode] = struct{}{}
		regions = append(regions, RegionInfo{RegionCode: row.RegionCode, Region: row.RegionName})
	}
	return regions
}
