package domain

import (
	"fmt"
	"strings"
)

// DataFormatError reports that the raw table is missing required
// identifying columns. It is a fatal precondition failure: nothing in the
// pipeline retries it.
type DataFormatError struct {
	Missing []string
}

func (e *DataFormatError) Error() string {
	return fmt.Sprintf("raw table missing required columns: %s", strings.Join(e.Missing, ", "))
}

// InsufficientDataError reports a degenerate model fit: the target column
// carried fewer than two distinct values, so no influence estimate is
// possible. Surfaced to the caller rather than producing garbage
// importances.
type InsufficientDataError struct {
	DistinctValues int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data for model fit: %d distinct case-count value(s), need at least 2", e.DistinctValues)
}
