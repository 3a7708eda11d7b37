package builder

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/parquet-go/parquet-go"
)

// Row is one normalized dataset record before image resolution. Only the
// image reference is mandatory; text fields default to empty strings so the
// context template downstream stays fixed-shape.
type Row struct {
	ImageRef    string
	DisplayName string
	Category    string
	Description string
}

// imageColumnHints are matched case-insensitively as substrings to locate the
// image-reference column.
var imageColumnHints = []string{"image", "path", "filename"}

// ReadDataset loads catalog rows from a tabular file, dispatching on the file
// extension. CSV and parquet are supported.
func ReadDataset(path string) ([]Row, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return readCSV(path)
	case ".parquet":
		return readParquet(path)
	default:
		return nil, fmt.Errorf("unsupported dataset format %q (want .csv or .parquet)", filepath.Ext(path))
	}
}

// datasetColumns maps logical fields to column positions; -1 means absent.
type datasetColumns struct {
	image       int
	displayName int
	category    int
	description int
}

// resolveColumns locates the image-reference column by fuzzy name match and
// the optional text columns by normalized name. Fails fast when no image
// column exists, surfacing the available column names.
func resolveColumns(names []string) (datasetColumns, error) {
	cols := datasetColumns{image: -1, displayName: -1, category: -1, description: -1}
	for i, name := range names {
		if cols.image < 0 && isImageColumn(name) {
			cols.image = i
			continue
		}
		switch normalizeColumn(name) {
		case "displayname", "name":
			cols.displayName = i
		case "category":
			cols.category = i
		case "description":
			cols.description = i
		}
	}
	if cols.image < 0 {
		return cols, fmt.Errorf("no image column found; available columns: %s", strings.Join(names, ", "))
	}
	return cols, nil
}

func isImageColumn(name string) bool {
	lower := strings.ToLower(name)
	for _, hint := range imageColumnHints {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	return false
}

func normalizeColumn(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, " ", "")
	return strings.ReplaceAll(name, "_", "")
}

func readCSV(path string) ([]Row, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read dataset header: %w", err)
	}
	cols, err := resolveColumns(header)
	if err != nil {
		return nil, err
	}

	var rows []Row
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read dataset row %d: %w", len(rows)+1, err)
		}
		rows = append(rows, Row{
			ImageRef:    field(record, cols.image),
			DisplayName: field(record, cols.displayName),
			Category:    field(record, cols.category),
			Description: field(record, cols.description),
		})
	}
	return rows, nil
}

func field(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

// readParquet reads rows through the generic row API so arbitrary catalog
// schemas work: only leaf column names matter, same as CSV headers.
func readParquet(path string) ([]Row, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat dataset: %w", err)
	}
	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("open parquet: %w", err)
	}

	names := make([]string, 0, len(pf.Schema().Columns()))
	for _, colPath := range pf.Schema().Columns() {
		if len(colPath) > 0 {
			names = append(names, colPath[0])
		}
	}
	cols, err := resolveColumns(names)
	if err != nil {
		return nil, err
	}

	var rows []Row
	for _, rg := range pf.RowGroups() {
		reader := parquet.NewRowGroupReader(rg)
		buf := make([]parquet.Row, 256)
		for {
			n, readErr := reader.ReadRows(buf)
			for i := 0; i < n; i++ {
				rows = append(rows, parquetRowToRow(buf[i], cols))
			}
			if readErr != nil {
				if errors.Is(readErr, io.EOF) {
					break
				}
				return nil, fmt.Errorf("read parquet rows: %w", readErr)
			}
		}
	}
	return rows, nil
}

func parquetRowToRow(pr parquet.Row, cols datasetColumns) Row {
	var row Row
	for _, v := range pr {
		if v.IsNull() {
			continue
		}
		switch v.Column() {
		case cols.image:
			row.ImageRef = strings.TrimSpace(v.String())
		case cols.displayName:
			row.DisplayName = strings.TrimSpace(v.String())
		case cols.category:
			row.Category = strings.TrimSpace(v.String())
		case cols.description:
			row.Description = strings.TrimSpace(v.String())
		}
	}
	return row
}
