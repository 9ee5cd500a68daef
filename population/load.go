package population

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/xuri/excelize/v2"
)

// Column names of the cleaned population table.
const (
	ColumnISO3     = "ISO3_code"
	ColumnLocation = "Location"
	ColumnTime     = "Time"
	ColumnJanuary  = "TPopulation1Jan"
	ColumnJuly     = "TPopulation1July"
)

// Record is one raw input row. Population cells that are empty or
// unparsable are NaN.
type Record struct {
	ISO3     string
	Location string
	Year     int
	January  float64
	July     float64
}

// Load reads the table at path. Files ending in .xlsx are read from
// their first sheet, anything else is parsed as CSV. The columns
// listed in required must be present besides the identity columns.
func Load(path string, required ...string) ([]Record, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return loadXLSX(path, required)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	return LoadCSV(f, required...)
}

// LoadCSV parses CSV data from r.
func LoadCSV(r io.Reader, required ...string) ([]Record, error) {
	df := dataframe.ReadCSV(r, loadOptions()...)
	return recordsFromFrame(df, required)
}

func loadXLSX(path string, required []string) ([]Record, error) {
	wb, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("read %s: workbook has no sheets", path)
	}
	rows, err := wb.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("read sheet %q: no header row", sheets[0])
	}

	// GetRows trims trailing empty cells, the dataframe needs a rectangle.
	width := len(rows[0])
	for i, row := range rows {
		if len(row) < width {
			padded := make([]string, width)
			copy(padded, row)
			rows[i] = padded
		} else if len(row) > width {
			rows[i] = row[:width]
		}
	}

	return recordsFromFrame(dataframe.LoadRecords(rows, loadOptions()...), required)
}

func loadOptions() []dataframe.LoadOption {
	return []dataframe.LoadOption{
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.WithTypes(map[string]series.Type{
			ColumnTime:    series.Int,
			ColumnJanuary: series.Float,
			ColumnJuly:    series.Float,
		}),
	}
}

func recordsFromFrame(df dataframe.DataFrame, required []string) ([]Record, error) {
	if df.Err != nil {
		return nil, fmt.Errorf("parse input: %w", df.Err)
	}

	present := make(map[string]bool)
	for _, name := range df.Names() {
		present[name] = true
	}
	for _, name := range append([]string{ColumnISO3, ColumnLocation, ColumnTime}, required...) {
		if !present[name] {
			return nil, fmt.Errorf("parse input: missing column %q", name)
		}
	}

	years, err := df.Col(ColumnTime).Int()
	if err != nil {
		return nil, fmt.Errorf("parse column %s: %w", ColumnTime, err)
	}
	codes := df.Col(ColumnISO3).Records()
	names := df.Col(ColumnLocation).Records()
	jan := floatColumn(df, present, ColumnJanuary)
	july := floatColumn(df, present, ColumnJuly)

	records := make([]Record, df.Nrow())
	for i := range records {
		records[i] = Record{
			ISO3:     strings.TrimSpace(codes[i]),
			Location: strings.TrimSpace(names[i]),
			Year:     years[i],
			January:  jan[i],
			July:     july[i],
		}
	}
	return records, nil
}

// floatColumn returns the column values, or all NaN when the column is
// absent.
func floatColumn(df dataframe.DataFrame, present map[string]bool, name string) []float64 {
	if present[name] {
		return df.Col(name).Float()
	}
	out := make([]float64, df.Nrow())
	for i := range out {
		out[i] = nan
	}
	return out
}
