package domain

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

var nan = math.NaN()

// requiredColumns are the identifying columns without which no ordering
// or grouping is possible. Their absence is a DataFormatError.
var requiredColumns = []string{ColRegionCode, ColYear, ColMonth}

// EngineerFeatures coerces the raw table, drops rows without a case count,
// sorts by (region code, year, month), and derives the lag, rolling-mean,
// and interaction features per region along the sorted order.
//
// The function is pure and idempotent: the same raw table always produces
// the same feature table. It returns a *DataFormatError when any of the
// identifying columns is absent from the source.
func EngineerFeatures(raw RawTable) ([]FeatureRow, error) {
	var missing []string
	for _, col := range requiredColumns {
		if !raw.HasColumn(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &DataFormatError{Missing: missing}
	}

	rows := coerceRows(raw.Rows)

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].RegionCode != rows[j].RegionCode {
			return rows[i].RegionCode < rows[j].RegionCode
		}
		if rows[i].Year != rows[j].Year {
			return rows[i].Year < rows[j].Year
		}
		return rows[i].Month < rows[j].Month
	})

	deriveRegionFeatures(rows)
	return rows, nil
}

// coerceRows converts raw string cells to typed values. Rows missing a
// usable case count, year, or month are discarded; other numeric fields
// coerce to NaN and are handled downstream.
func coerceRows(raw []RawObservation) []FeatureRow {
	rows := make([]FeatureRow, 0, len(raw))
	for _, obs := range raw {
		cases, ok := parseInt(obs.Cases)
		if !ok {
			continue
		}
		year, ok := parseInt(obs.Year)
		if !ok {
			continue
		}
		month, ok := parseInt(obs.Month)
		if !ok {
			continue
		}

		rainfall := parseFloatOrNaN(obs.Rainfall)
		density := parseFloatOrNaN(obs.Density)

		rows = append(rows, FeatureRow{
			RegionCode:   strings.TrimSpace(obs.RegionCode),
			RegionName:   strings.TrimSpace(obs.RegionName),
			Year:         year,
			Month:        month,
			Rainfall:     rainfall,
			Density:      density,
			Cases:        cases,
			RainXDensity: rainfall * density, // NaN if either operand is NaN
		})
	}
	return rows
}

// deriveRegionFeatures fills rain_lag1 and rain_3m_mean in place. Rows
// must already be sorted by (region code, year, month): both features are
// defined along each region's time sequence and never look ahead.
func deriveRegionFeatures(rows []FeatureRow) {
	for i := range rows {
		if i == 0 || rows[i].RegionCode != rows[i-1].RegionCode {
			rows[i].RainLag1 = nan
		} else {
			rows[i].RainLag1 = rows[i-1].Rainfall
		}

		// Trailing window: current row plus up to two prior rows of the
		// same region. NaN rainfall values are excluded from the mean;
		// an all-NaN window yields NaN.
		start := i - 2
		if start < 0 {
			start = 0
		}
		sum, count := 0.0, 0
		for j := start; j <= i; j++ {
			if rows[j].RegionCode != rows[i].RegionCode {
				continue
			}
			if math.IsNaN(rows[j].Rainfall) {
				continue
			}
			sum += rows[j].Rainfall
			count++
		}
		if count == 0 {
			rows[i].Rain3MMean = nan
		} else {
			rows[i].Rain3MMean = sum / float64(count)
		}
	}
}

// parseFloatOrNaN parses a cell as float64, returning NaN for empty or
// unparseable values.
func parseFloatOrNaN(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nan
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nan
	}
	return v
}

// parseInt parses a cell as an integer, tolerating float-formatted input
// like "12.0". Returns false for empty or unparseable values.
func parseInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) {
		return 0, false
	}
	return int(math.Round(v)), true
}
