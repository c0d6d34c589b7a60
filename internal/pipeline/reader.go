package pipeline

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrUnsupportedFormat indicates a file extension the reader set does not
// handle.
var ErrUnsupportedFormat = errors.New("unsupported input format")

// ChunkReader streams an input file in bounded row windows so peak memory
// stays proportional to the chunk size, not the file size.
type ChunkReader interface {
	// Headers returns the raw header row read when the file was opened.
	Headers() []string
	// Next returns up to limit data rows. It returns io.EOF after the last
	// row has been delivered.
	Next(limit int) ([][]string, error)
	// Skipped reports how many malformed lines Next has passed over so far.
	Skipped() int
	// Close releases the underlying file.
	Close() error
}

// OpenFile opens a chunked reader for path, dispatching on extension.
// Unreadable files, zero-byte files, and files whose header row cannot be
// parsed all fail here, which the pipeline treats as file-level skips.
func OpenFile(path string) (ChunkReader, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return openCSV(path)
	case ".xlsx":
		return openExcel(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

type csvChunkReader struct {
	file    *os.File
	reader  *csv.Reader
	headers []string
	skipped int
}

func openCSV(path string) (ChunkReader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	headers, err := reader.Read()
	if err != nil {
		file.Close()
		if err == io.EOF {
			return nil, fmt.Errorf("file is empty: %s", filepath.Base(path))
		}
		return nil, fmt.Errorf("failed to read header row: %w", err)
	}
	headers = stripBOM(headers)

	return &csvChunkReader{file: file, reader: reader, headers: headers}, nil
}

func (r *csvChunkReader) Headers() []string { return r.headers }

func (r *csvChunkReader) Next(limit int) ([][]string, error) {
	rows := make([][]string, 0, limit)
	for len(rows) < limit {
		record, err := r.reader.Read()
		if err == io.EOF {
			if len(rows) > 0 {
				return rows, nil
			}
			return nil, io.EOF
		}
		if err != nil {
			// A malformed line degrades to a skipped row, not a dead file.
			r.skipped++
			continue
		}
		rows = append(rows, record)
	}
	return rows, nil
}

func (r *csvChunkReader) Skipped() int { return r.skipped }

func (r *csvChunkReader) Close() error { return r.file.Close() }

type excelChunkReader struct {
	file    *excelize.File
	rows    *excelize.Rows
	headers []string
	skipped int
}

// openExcel finds the sheet whose first row looks like a data header and
// streams it row by row.
func openExcel(path string) (ChunkReader, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		f.Close()
		return nil, fmt.Errorf("workbook has no sheets: %s", filepath.Base(path))
	}

	for _, sheet := range sheets {
		rows, err := f.Rows(sheet)
		if err != nil {
			continue
		}
		if !rows.Next() {
			rows.Close()
			continue
		}
		headers, err := rows.Columns()
		if err != nil || !hasHeaderContent(headers) {
			rows.Close()
			continue
		}
		return &excelChunkReader{file: f, rows: rows, headers: headers}, nil
	}

	f.Close()
	return nil, fmt.Errorf("no sheet with a usable header row in %s", filepath.Base(path))
}

func (r *excelChunkReader) Headers() []string { return r.headers }

func (r *excelChunkReader) Next(limit int) ([][]string, error) {
	rows := make([][]string, 0, limit)
	for len(rows) < limit {
		if !r.rows.Next() {
			if len(rows) > 0 {
				return rows, nil
			}
			return nil, io.EOF
		}
		cells, err := r.rows.Columns()
		if err != nil {
			r.skipped++
			continue
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

func (r *excelChunkReader) Skipped() int { return r.skipped }

func (r *excelChunkReader) Close() error {
	r.rows.Close()
	return r.file.Close()
}

func hasHeaderContent(headers []string) bool {
	nonEmpty := 0
	for _, h := range headers {
		if strings.TrimSpace(h) != "" {
			nonEmpty++
		}
	}
	return nonEmpty >= 2
}

func stripBOM(headers []string) []string {
	if len(headers) > 0 {
		headers[0] = strings.TrimPrefix(headers[0], "\ufeff")
	}
	return headers
}
