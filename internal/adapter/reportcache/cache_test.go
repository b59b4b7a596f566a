package reportcache

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dengueatlas/analytics-service/internal/domain"
	"github.com/dengueatlas/analytics-service/internal/observability"
	"github.com/dengueatlas/analytics-service/internal/report"
)

// countingBuilder fabricates bundles and counts builds per year.
type countingBuilder struct {
	builds map[int]int
	err    error
}

func (b *countingBuilder) Assemble(_ domain.RawTable, year int) (report.Bundle, error) {
	if b.err != nil {
		return report.Bundle{}, b.err
	}
	if b.builds == nil {
		b.builds = make(map[int]int)
	}
	b.builds[year]++
	return report.Bundle{ReportID: "bundle-" + strconv.Itoa(year), Year: year}, nil
}

func TestCache_BuildsOncePerScope(t *testing.T) {
	builder := &countingBuilder{}
	cache := New(builder, domain.RawTable{}, 4, observability.NewMetricsForTesting())

	first, err := cache.Bundle(2023)
	require.NoError(t, err)
	second, err := cache.Bundle(2023)
	require.NoError(t, err)

	assert.Equal(t, first.ReportID, second.ReportID)
	assert.Equal(t, 1, builder.builds[2023], "second request must be a cache hit")

	_, err = cache.Bundle(2024)
	require.NoError(t, err)
	assert.Equal(t, 1, builder.builds[2024], "distinct scopes build independently")
}

func TestCache_EvictsLeastRecentlyUsed(t *testing.T) {
	builder := &countingBuilder{}
	cache := New(builder, domain.RawTable{}, 2, observability.NewMetricsForTesting())

	_, err := cache.Bundle(2021)
	require.NoError(t, err)
	_, err = cache.Bundle(2022)
	require.NoError(t, err)

	// Touch 2021 so 2022 becomes the eviction candidate.
	_, err = cache.Bundle(2021)
	require.NoError(t, err)

	_, err = cache.Bundle(2023)
	require.NoError(t, err)

	_, err = cache.Bundle(2022)
	require.NoError(t, err)
	assert.Equal(t, 2, builder.builds[2022], "2022 was evicted and rebuilt")

	_, err = cache.Bundle(2021)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, builder.builds[2021], 1)
}

func TestCache_ErrorsNotCached(t *testing.T) {
	builder := &countingBuilder{err: errors.New("fit failed")}
	cache := New(builder, domain.RawTable{}, 2, observability.NewMetricsForTesting())

	_, err := cache.Bundle(2023)
	require.Error(t, err)

	builder.err = nil
	bundle, err := cache.Bundle(2023)
	require.NoError(t, err, "a failed build must not poison the scope")
	assert.Equal(t, "bundle-2023", bundle.ReportID)
}

func TestCache_Readiness(t *testing.T) {
	builder := &countingBuilder{}
	cache := New(builder, domain.RawTable{}, 2, observability.NewMetricsForTesting())

	require.Error(t, cache.CheckReadiness(context.Background()))

	_, err := cache.Bundle(2023)
	require.NoError(t, err)
	assert.NoError(t, cache.CheckReadiness(context.Background()))
}
