// Package importer is the CSV/XLS/XLSX bulk ingestion path. A file is
// validated as a whole (extension, header, required cells), persisted for
// audit, then applied row by row: each row either fully succeeds or fully
// rolls back, and one bad row never rolls back the others.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

var (
	ErrNoFile               = errors.New("No file uploaded.")
	ErrUnsupportedExtension = errors.New("Unsupported file type. Upload a .csv, .xls or .xlsx file.")
	ErrEmptyFile            = errors.New("Uploaded file is empty.")
)

// Schema declares the tabular contract of one importer
type Schema struct {
	Name     string
	Required []string
	Optional []string
}

// Row is one data row keyed by normalized header name
type Row struct {
	// Index is the zero-based data row index; the Excel-style row number
	// shown to users is Index+2 (header row counts).
	Index  int
	values map[string]string
}

// ExcelRow is the user-facing row number
func (r Row) ExcelRow() int {
	return r.Index + 2
}

// Get returns the trimmed cell value with null-likes replaced by ""
func (r Row) Get(col string) string {
	v := strings.TrimSpace(r.values[col])
	switch strings.ToLower(v) {
	case "nan", "none", "null":
		return ""
	}
	return v
}

// Int coerces a cell to int, defaulting to 0 on empty
func (r Row) Int(col string) (int, error) {
	v := r.Get(col)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid number in column '%s': %s", col, v)
	}
	return n, nil
}

// Float coerces a cell to float64, defaulting to 0 on empty
func (r Row) Float(col string) (float64, error) {
	v := r.Get(col)
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number in column '%s': %s", col, v)
	}
	return f, nil
}

// Date coerces a cell to a YYYY-MM-DD date; empty yields nil
func (r Row) Date(col string) (*time.Time, error) {
	v := r.Get(col)
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return nil, fmt.Errorf("invalid date in column '%s': %s (expected YYYY-MM-DD)", col, v)
	}
	return &t, nil
}

// Result accumulates per-row outcomes
type Result struct {
	Success int
	Failed  int
	Errors  []string
}

// Summary renders the human-readable outcome: the success count plus up to
// the first 10 row errors.
func (res *Result) Summary(noun string) string {
	parts := []string{fmt.Sprintf("Uploaded %d %s.", res.Success, noun)}
	limit := len(res.Errors)
	if limit > 10 {
		limit = 10
	}
	parts = append(parts, res.Errors[:limit]...)
	return strings.Join(parts, " ")
}

// Importer ingests tabular uploads
type Importer struct {
	uploadRoot string
}

// New constructs an Importer persisting originals under uploadRoot
func New(uploadRoot string) *Importer {
	return &Importer{uploadRoot: uploadRoot}
}

// Ingest validates the upload against the schema, persists the original
// file, then streams rows through apply. Top-level validation failures
// abort the whole file with zero rows applied; apply errors are recorded
// per row and ingestion continues.
func (im *Importer) Ingest(file *multipart.FileHeader, garageID int, schema Schema, apply func(Row) error) (*Result, string, error) {
	if file == nil || file.Size == 0 {
		if file == nil {
			return nil, "", ErrNoFile
		}
		return nil, "", ErrEmptyFile
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	switch ext {
	case ".csv", ".xls", ".xlsx":
	default:
		return nil, "", ErrUnsupportedExtension
	}

	savedPath, err := im.persistOriginal(file, garageID, schema.Name, ext)
	if err != nil {
		return nil, "", fmt.Errorf("persist uploaded file: %w", err)
	}

	// First pass validates the header and every required cell without
	// applying anything, so a structurally bad file ingests zero rows.
	// The header is checked as soon as it is read; a file with no rows at
	// all is empty, but a valid header with zero data rows ingests cleanly.
	sawHeader := false
	if err := forEachRow(savedPath, ext, func(header []string) error {
		sawHeader = true
		return checkHeader(header, schema)
	}, func(header []string, row Row) error {
		for _, col := range schema.Required {
			if row.Get(col) == "" {
				return fmt.Errorf("Row %d: missing value in required column '%s'", row.ExcelRow(), col)
			}
		}
		return nil
	}); err != nil {
		return nil, savedPath, err
	}
	if !sawHeader {
		return nil, savedPath, ErrEmptyFile
	}

	// Second pass applies rows independently.
	res := &Result{}
	if err := forEachRow(savedPath, ext, nil, func(header []string, row Row) error {
		if err := apply(row); err != nil {
			res.Failed++
			res.Errors = append(res.Errors, fmt.Sprintf("Row %d: %s", row.ExcelRow(), err.Error()))
		} else {
			res.Success++
		}
		return nil
	}); err != nil {
		return nil, savedPath, err
	}

	return res, savedPath, nil
}

// persistOriginal stores the uploaded file for audit under
// <root>/<importer>bulkuploadedfiles/garage_id_<gid>_<name>_<stamp><ext>
func (im *Importer) persistOriginal(file *multipart.FileHeader, garageID int, importerName, ext string) (string, error) {
	dir := filepath.Join(im.uploadRoot, importerName+"bulkuploadedfiles")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	base := sanitizeFilename(strings.TrimSuffix(filepath.Base(file.Filename), filepath.Ext(file.Filename)))
	stamp := time.Now().Format("20060102_150405")
	dest := filepath.Join(dir, fmt.Sprintf("garage_id_%d_%s_%s%s", garageID, base, stamp, ext))

	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	out, err := os.Create(dest)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		return "", err
	}
	return dest, nil
}

func sanitizeFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

func checkHeader(header []string, schema Schema) error {
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[h] = true
	}
	var missing []string
	for _, col := range schema.Required {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("Missing required columns: %s", strings.Join(missing, ", "))
	}
	return nil
}

// forEachRow streams data rows from a saved upload in original order,
// calling headerFn once on the normalized header when given. The whole
// frame is never held in memory; large files cost one row at a time.
func forEachRow(path, ext string, headerFn func(header []string) error, fn func(header []string, row Row) error) error {
	switch ext {
	case ".csv":
		return forEachCSVRow(path, headerFn, fn)
	case ".xls":
		return forEachLegacyExcelRow(path, headerFn, fn)
	}
	return forEachExcelRow(path, headerFn, fn)
}

func forEachCSVRow(path string, headerFn func(header []string) error, fn func(header []string, row Row) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	var header []string
	index := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("Could not parse the uploaded file: %v", err)
		}
		if header == nil {
			header = normalizeHeader(record)
			if headerFn != nil {
				if err := headerFn(header); err != nil {
					return err
				}
			}
			continue
		}
		if err := fn(header, makeRow(header, record, index)); err != nil {
			return err
		}
		index++
	}
}

func forEachExcelRow(path string, headerFn func(header []string) error, fn func(header []string, row Row) error) error {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return fmt.Errorf("Could not parse the uploaded file: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return ErrEmptyFile
	}

	rows, err := f.Rows(sheets[0])
	if err != nil {
		return fmt.Errorf("Could not parse the uploaded file: %v", err)
	}
	defer rows.Close()

	var header []string
	index := 0
	for rows.Next() {
		record, err := rows.Columns()
		if err != nil {
			return fmt.Errorf("Could not parse the uploaded file: %v", err)
		}
		if header == nil {
			header = normalizeHeader(record)
			if headerFn != nil {
				if err := headerFn(header); err != nil {
					return err
				}
			}
			continue
		}
		if err := fn(header, makeRow(header, record, index)); err != nil {
			return err
		}
		index++
	}
	return rows.Error()
}

// forEachLegacyExcelRow reads BIFF .xls workbooks, which excelize does not
// understand. The first sheet is streamed like the other formats.
func forEachLegacyExcelRow(path string, headerFn func(header []string) error, fn func(header []string, row Row) error) error {
	wb, err := xls.Open(path, "utf-8")
	if err != nil {
		return fmt.Errorf("Could not parse the uploaded file: %v", err)
	}

	sheet := wb.GetSheet(0)
	if sheet == nil {
		return ErrEmptyFile
	}

	var header []string
	index := 0
	for i := 0; i <= int(sheet.MaxRow); i++ {
		r := sheet.Row(i)
		if r == nil {
			continue
		}
		record := make([]string, 0, r.LastCol())
		for j := 0; j < r.LastCol(); j++ {
			record = append(record, r.Col(j))
		}
		if header == nil {
			header = normalizeHeader(record)
			if headerFn != nil {
				if err := headerFn(header); err != nil {
					return err
				}
			}
			continue
		}
		if err := fn(header, makeRow(header, record, index)); err != nil {
			return err
		}
		index++
	}
	return nil
}

func normalizeHeader(record []string) []string {
	out := make([]string, len(record))
	for i, h := range record {
		out[i] = strings.ToLower(strings.TrimSpace(h))
	}
	return out
}

func makeRow(header, record []string, index int) Row {
	values := make(map[string]string, len(header))
	for i, col := range header {
		if i < len(record) {
			values[col] = record[i]
		} else {
			values[col] = ""
		}
	}
	return Row{Index: index, values: values}
}
