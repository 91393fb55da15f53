// Package source reads a local CSV file as a lazy sequence of row chunks.
package source

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"os"
	"strings"

	"chunkstream/internal/domain"
)

// ErrNoHeader is returned when the source file is empty.
var ErrNoHeader = errors.New("source has no header row")

const utf8BOM = "\ufeff"

// CSVSource yields a CSV file as chunks of at most size data rows.
// Every call to Chunks reopens the file, so a sequence can be replayed from the start.
type CSVSource struct {
	path string
	size int
}

// NewCSVSource creates a source for the file at path with the given chunk size.
func NewCSVSource(path string, size int) *CSVSource {
	return &CSVSource{path: path, size: size}
}

// Path returns the configured file path.
func (s *CSVSource) Path() string { return s.path }

// Check verifies the source file exists and is a regular file.
func (s *CSVSource) Check() error {
	info, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &domain.SourceNotFoundError{Path: s.path}
		}
		return fmt.Errorf("stat source %s: %w", s.path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("source %s is a directory", s.path)
	}
	return nil
}

// Chunks returns the file as a finite sequence of chunks in file order.
// A non-nil error is always the last value yielded.
func (s *CSVSource) Chunks() iter.Seq2[*domain.Chunk, error] {
	return func(yield func(*domain.Chunk, error) bool) {
		if s.size <= 0 {
			yield(nil, domain.ErrValidation("chunk size must be positive, got %d", s.size))
			return
		}

		f, err := os.Open(s.path) //nolint:gosec // path is operator-controlled
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				yield(nil, &domain.SourceNotFoundError{Path: s.path})
				return
			}
			yield(nil, fmt.Errorf("open source %s: %w", s.path, err))
			return
		}
		defer f.Close() //nolint:errcheck

		r := csv.NewReader(f)
		// Rows are forwarded verbatim; no column-count validation.
		r.FieldsPerRecord = -1

		header, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				yield(nil, ErrNoHeader)
				return
			}
			yield(nil, fmt.Errorf("read header: %w", err))
			return
		}
		if len(header) > 0 {
			header[0] = strings.TrimPrefix(header[0], utf8BOM)
		}

		index := 0
		rows := make([][]string, 0, s.size)
		for {
			row, err := r.Read()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				yield(nil, fmt.Errorf("read chunk %d: %w", index, err))
				return
			}
			rows = append(rows, row)
			if len(rows) < s.size {
				continue
			}
			if !yield(&domain.Chunk{Index: index, Header: header, Rows: rows}, nil) {
				return
			}
			index++
			rows = make([][]string, 0, s.size)
		}
		if len(rows) > 0 {
			yield(&domain.Chunk{Index: index, Header: header, Rows: rows}, nil)
		}
	}
}

// EncodeCSV serializes a chunk as CSV text: the header row followed by the data rows.
func EncodeCSV(c *domain.Chunk) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := writeRecord(&buf, w, c.Header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	for i, row := range c.Rows {
		if err := writeRecord(&buf, w, row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("write rows: %w", err)
	}
	return buf.Bytes(), nil
}

// emptyFieldRecord encodes a record holding a single empty field. csv.Writer
// emits a blank line for it, which csv.Reader skips.
const emptyFieldRecord = "\"\"\n"

func writeRecord(buf *bytes.Buffer, w *csv.Writer, record []string) error {
	if len(record) == 1 && record[0] == "" {
		w.Flush()
		if err := w.Error(); err != nil {
			return err
		}
		buf.WriteString(emptyFieldRecord)
		return nil
	}
	return w.Write(record)
}
