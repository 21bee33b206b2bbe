package importexport

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/xuri/excelize/v2"
)

// Format is the tabular encoding of an import or export stream.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat resolves a format hint, accepting file extensions and MIME
// suffixes.
func ParseFormat(hint string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(hint, ".")) {
	case "csv":
		return FormatCSV, nil
	case "xlsx":
		return FormatXLSX, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unsupported format %q", hint)
}

// Row is one decoded record. A key absent from the map means the column was
// unset for that row; an empty string means an explicitly empty value. Cell
// values from CSV/XLSX are always strings; JSON/YAML rows keep their native
// types.
type Row map[string]any

// Has reports whether the column was present, empty or not.
func (r Row) Has(column string) bool {
	_, ok := r[column]
	return ok
}

// String renders the cell as a string; unset and null cells render empty.
func (r Row) String(column string) string {
	v, ok := r[column]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// Dataset is an ordered set of columns and rows, the interchange form between
// file formats and the importer/exporter.
type Dataset struct {
	Columns []string
	Rows    []Row
}

const sheetName = "Sheet1"

// Decode parses a byte stream into a dataset. For the cell formats (CSV,
// XLSX) an empty cell is unset and the key is omitted; for the document
// formats (JSON, YAML) an explicit "" survives as an empty string.
func Decode(format Format, r io.Reader) (Dataset, error) {
	switch format {
	case FormatCSV:
		return decodeCSV(r)
	case FormatXLSX:
		return decodeXLSX(r)
	case FormatJSON:
		return decodeJSON(r)
	case FormatYAML:
		return decodeYAML(r)
	}
	return Dataset{}, fmt.Errorf("unsupported format %q", format)
}

// Encode writes the dataset in the requested format.
func Encode(format Format, w io.Writer, ds Dataset) error {
	switch format {
	case FormatCSV:
		return encodeCSV(w, ds)
	case FormatXLSX:
		return encodeXLSX(w, ds)
	case FormatJSON:
		return encodeJSON(w, ds)
	case FormatYAML:
		return encodeYAML(w, ds)
	}
	return fmt.Errorf("unsupported format %q", format)
}

func decodeCSV(r io.Reader) (Dataset, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return Dataset{}, err
	}
	raw = bytes.TrimPrefix(raw, []byte{0xEF, 0xBB, 0xBF})

	reader := csv.NewReader(bytes.NewReader(raw))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return Dataset{}, err
	}
	if len(records) == 0 {
		return Dataset{}, nil
	}

	ds := Dataset{Columns: records[0]}
	for _, record := range records[1:] {
		row := Row{}
		for i, cell := range record {
			if i >= len(ds.Columns) || cell == "" {
				continue
			}
			row[ds.Columns[i]] = cell
		}
		ds.Rows = append(ds.Rows, row)
	}
	return ds, nil
}

func decodeXLSX(r io.Reader) (Dataset, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Dataset{}, err
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	records, err := f.GetRows(sheet)
	if err != nil {
		return Dataset{}, err
	}
	if len(records) == 0 {
		return Dataset{}, nil
	}

	ds := Dataset{Columns: records[0]}
	for _, record := range records[1:] {
		row := Row{}
		for i, cell := range record {
			if i >= len(ds.Columns) || cell == "" {
				continue
			}
			row[ds.Columns[i]] = cell
		}
		ds.Rows = append(ds.Rows, row)
	}
	return ds, nil
}

func decodeJSON(r io.Reader) (Dataset, error) {
	var rows []map[string]any
	if err := json.NewDecoder(r).Decode(&rows); err != nil {
		return Dataset{}, err
	}
	return fromDocuments(rows), nil
}

func decodeYAML(r io.Reader) (Dataset, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return Dataset{}, err
	}
	var rows []map[string]any
	if err := yaml.Unmarshal(raw, &rows); err != nil {
		return Dataset{}, err
	}
	return fromDocuments(rows), nil
}

// fromDocuments builds the column list as the sorted union of keys; the
// document formats carry no column order of their own.
func fromDocuments(docs []map[string]any) Dataset {
	var ds Dataset
	seen := map[string]bool{}
	for _, doc := range docs {
		row := Row{}
		for k, v := range doc {
			row[k] = v
			seen[k] = true
		}
		ds.Rows = append(ds.Rows, row)
	}
	for k := range seen {
		ds.Columns = append(ds.Columns, k)
	}
	sort.Strings(ds.Columns)
	return ds
}

func encodeCSV(w io.Writer, ds Dataset) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(ds.Columns); err != nil {
		return err
	}
	for _, row := range ds.Rows {
		record := make([]string, len(ds.Columns))
		for i, column := range ds.Columns {
			record[i] = row.String(column)
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func encodeXLSX(w io.Writer, ds Dataset) error {
	f := excelize.NewFile()
	defer f.Close()

	header := make([]any, len(ds.Columns))
	for i, column := range ds.Columns {
		header[i] = column
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return err
	}

	for i, row := range ds.Rows {
		record := make([]any, len(ds.Columns))
		for j, column := range ds.Columns {
			record[j] = row.String(column)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetName, cell, &record); err != nil {
			return err
		}
	}
	return f.Write(w)
}

func encodeJSON(w io.Writer, ds Dataset) error {
	docs := toDocuments(ds)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(docs)
}

func encodeYAML(w io.Writer, ds Dataset) error {
	raw, err := yaml.Marshal(toDocuments(ds))
	if err != nil {
		return err
	}
	_, err = w.Write(raw)
	return err
}

func toDocuments(ds Dataset) []map[string]any {
	docs := make([]map[string]any, len(ds.Rows))
	for i, row := range ds.Rows {
		doc := map[string]any{}
		for _, column := range ds.Columns {
			if v, ok := row[column]; ok {
				doc[column] = v
			}
		}
		docs[i] = doc
	}
	return docs
}
