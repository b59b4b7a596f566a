package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dengueatlas/analytics-service/internal/domain"
)

func TestDefaultCatalog(t *testing.T) {
	catalog := DefaultCatalog()

	for _, f := range domain.AllFeatures() {
		assert.NotEmpty(t, catalog.DisplayName(f), "feature %s", f)
		assert.NotEqual(t, fallbackDescription, catalog.Description(f), "feature %s", f)
	}
	assert.Equal(t, "Rainfall", catalog.DisplayName(domain.FeatureRainfall))
	assert.Equal(t, "Population Density", catalog.DisplayName(domain.FeatureDensity))
}

func TestLoadCatalog_RejectsIncomplete(t *testing.T) {
	partial := []byte(`
factors:
  rainfall_mm:
    name: Rainfall
    description: rain
`)
	_, err := LoadCatalog(partial)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing entry")
}

func TestLoadCatalog_RejectsMalformedYAML(t *testing.T) {
	_, err := LoadCatalog([]byte("factors: [not a map"))
	require.Error(t, err)
}

func TestCatalog_UnknownFeaturePassthrough(t *testing.T) {
	catalog := DefaultCatalog()
	unknown := domain.Feature("humidity")

	assert.Equal(t, "humidity", catalog.DisplayName(unknown))
	assert.Equal(t, fallbackDescription, catalog.Description(unknown))
}

func TestCatalogFactors(t *testing.T) {
	catalog := DefaultCatalog()

	t.Run("ordered by descending importance", func(t *testing.T) {
		summary := CatalogFactors(testImportances(), catalog)
		require.Len(t, summary.Factors, 6)

		assert.Equal(t, "Rainfall", summary.Factors[0].Name)
		assert.Equal(t, 0.35, summary.Factors[0].AvgImportance)
		for i := 1; i < len(summary.Factors); i++ {
			assert.GreaterOrEqual(t, summary.Factors[i-1].AvgImportance, summary.Factors[i].AvgImportance)
		}
	})

	t.Run("unknown identifier joins with fallback metadata", func(t *testing.T) {
		summary := CatalogFactors(domain.ImportanceVector{
			domain.Feature("humidity"): 1.0,
		}, catalog)
		require.Len(t, summary.Factors, 1)
		assert.Equal(t, "humidity", summary.Factors[0].Name)
		assert.Equal(t, fallbackDescription, summary.Factors[0].Description)
	})

	t.Run("empty vector yields empty list", func(t *testing.T) {
		summary := CatalogFactors(nil, catalog)
		assert.Empty(t, summary.Factors)
	})
}
