// Package csvsource reads the combined district-level case CSV into the
// raw observation table. Header names are mapped onto the canonical
// column set; both the original Indonesian headers and their English
// equivalents are accepted.
package csvsource

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dengueatlas/analytics-service/internal/domain"
)

// headerSynonyms maps accepted source headers (lowercased) to canonical
// column names.
var headerSynonyms = map[string]string{
	"kode_kabupaten_kota": domain.ColRegionCode,
	"region_code":         domain.ColRegionCode,
	"nama_kabupaten_kota": domain.ColRegionName,
	"region_name":         domain.ColRegionName,
	"tahun":               domain.ColYear,
	"year":                domain.ColYear,
	"bulan":               domain.ColMonth,
	"month":               domain.ColMonth,
	"jumlah_curah_hujan":  domain.ColRainfall,
	"rainfall_mm":         domain.ColRainfall,
	"kepadatan_penduduk":  domain.ColDensity,
	"population_density":  domain.ColDensity,
	"kasus_bulanan":       domain.ColCases,
	"monthly_cases":       domain.ColCases,
}

// ReadFile loads the raw table from a CSV file.
func ReadFile(path string) (domain.RawTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.RawTable{}, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// Read parses CSV data into a RawTable. The first record is the header;
// unrecognized columns are ignored. Cell values pass through as raw
// strings — coercion and validation happen in domain.EngineerFeatures,
// which also reports absent identifying columns.
func Read(r io.Reader) (domain.RawTable, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // ragged rows tolerated; short rows read as empty cells

	header, err := reader.Read()
	if err != nil {
		return domain.RawTable{}, fmt.Errorf("read csv header: %w", err)
	}

	index := make(map[string]int) // canonical column → position
	var columns []string
	for i, name := range header {
		canonical, ok := headerSynonyms[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			continue
		}
		if _, dup := index[canonical]; dup {
			continue
		}
		index[canonical] = i
		columns = append(columns, canonical)
	}

	table := domain.RawTable{Columns: columns}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return domain.RawTable{}, fmt.Errorf("read csv record: %w", err)
		}

		cell := func(col string) string {
			i, ok := index[col]
			if !ok || i >= len(record) {
				return ""
			}
			return record[i]
		}
		table.Rows = append(table.Rows, domain.RawObservation{
			RegionCode: cell(domain.ColRegionCode),
			RegionName: cell(domain.ColRegionName),
			Year:       cell(domain.ColYear),
			Month:      cell(domain.ColMonth),
			Rainfall:   cell(domain.ColRainfall),
			Density:    cell(domain.ColDensity),
			Cases:      cell(domain.ColCases),
		})
	}
	return table, nil
}
