// Package domain models regional dengue (DBD) surveillance data and the
// pure transformations applied to it before modeling and aggregation.
//
// # Data Source
//
// Input rows come from a combined district-level CSV, one row per
// (district, year, month), carrying the monthly case count alongside two
// environmental covariates: rainfall and population density. District
// codes are the stable BPS kabupaten/kota codes; display names may
// collide, so all grouping is done on the code.
//
// # Raw Table Conventions
//
// The CSV adapter delivers cells as raw strings. Numeric coercion happens
// here, in [EngineerFeatures]:
//
//	Rainfall, density:  unparseable or empty → NaN (missing, kept)
//	Case count:         unparseable or empty → row dropped (hard requirement)
//	Year, month:        unparseable → row dropped (rows without a usable
//	                    identity cannot be ordered or grouped)
//
// NaN is the missing-value marker on every float field. Downstream
// consumers (the influence estimator, the aggregators) are expected to
// skip or impute NaN, never to treat it as zero.
//
// # Derived Features
//
// After sorting by (district code, year, month) ascending, each row gains
// three derived fields computed per district along time:
//
//	rain_lag1       previous row's rainfall (NaN for a district's first row)
//	rain_3m_mean    mean rainfall over the current and up to two prior rows;
//	                the window shrinks at the start and never looks ahead
//	rain_x_density  rainfall × density (NaN if either operand is NaN)
//
// The calendar month is re-exposed as a feature in its own right to let
// the model pick up seasonality.
//
// # Density Formatting
//
// Density-like magnitudes are reported with three significant figures via
// [FormatDensity]: integers from 100 up, and 1–3 decimal places below
// that depending on scale. See the function doc for the exact bands.
package domain
