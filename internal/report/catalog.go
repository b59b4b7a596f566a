package report

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dengueatlas/analytics-service/internal/domain"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

// fallbackDescription is reported for feature identifiers the catalog
// does not know.
const fallbackDescription = "description unavailable"

// factorMeta is the display metadata of one factor in the YAML catalog.
type factorMeta struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

type catalogFile struct {
	Factors map[domain.Feature]factorMeta `yaml:"factors"`
}

// Catalog maps feature identifiers to display names and descriptions.
// It is configuration, not logic: entries come from YAML and are
// validated at load time against the enumerated feature set, so a
// feature can never silently lose its display metadata.
type Catalog struct {
	entries map[domain.Feature]factorMeta
}

// LoadCatalog parses a YAML catalog and verifies every enumerated
// feature has an entry with a non-empty display name.
func LoadCatalog(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse factor catalog: %w", err)
	}
	for _, f := range domain.AllFeatures() {
		meta, ok := file.Factors[f]
		if !ok || meta.Name == "" {
			return nil, fmt.Errorf("factor catalog missing entry for feature %q", f)
		}
	}
	return &Catalog{entries: file.Factors}, nil
}

// LoadCatalogFile loads and validates a catalog from disk, for deployments
// that override the embedded defaults.
func LoadCatalogFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read factor catalog: %w", err)
	}
	return LoadCatalog(data)
}

// DefaultCatalog returns the embedded catalog. The embedded YAML is
// covered by tests, so a parse failure here is a programming error.
func DefaultCatalog() *Catalog {
	cat, err := LoadCatalog(defaultCatalogYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded factor catalog invalid: %v", err))
	}
	return cat
}

// DisplayName returns the factor's display name, or the raw identifier
// for unknown features.
func (c *Catalog) DisplayName(f domain.Feature) string {
	if meta, ok := c.entries[f]; ok && meta.Name != "" {
		return meta.Name
	}
	return string(f)
}

// Description returns the factor's description, or a fallback string for
// unknown features.
func (c *Catalog) Description(f domain.Feature) string {
	if meta, ok := c.entries[f]; ok && meta.Description != "" {
		return meta.Description
	}
	return fallbackDescription
}

// CatalogFactors joins the importance vector with the catalog, ordered by
// descending importance (ties by feature identifier). Unknown features
// pass through with their raw identifier as the display name.
func CatalogFactors(importances domain.ImportanceVector, catalog *Catalog) FactorSummary {
	ranked := importances.Ranked()
	factors := make([]FactorDescriptor, 0, len(ranked))
	for _, fw := range ranked {
		factors = append(factors, FactorDescriptor{
			Name:          catalog.DisplayName(fw.Feature),
			AvgImportance: fw.Weight,
			Description:   catalog.Description(fw.Feature),
		})
	}
	return FactorSummary{Factors: factors}
}
