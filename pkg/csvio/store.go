// pkg/csvio/store.go

// Package csvio reads the raw delimited extracts and persists cleaned
// tables. Raw files may arrive latin1-encoded or with a UTF-8 BOM on the
// first header; both are tolerated on read. Cleaned tables are written
// to a separate directory, never over the inputs, and a write is atomic:
// the file appears only after the full table has been serialized.
package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"

	"github.com/olist-analytics/olist-etl/pkg/model"
)

// utf8BOM is the byte-order mark some extracts carry on the first header
const utf8BOM = "\xef\xbb\xbf"

// Store resolves raw and clean file locations and performs table I/O
type Store struct {
	rawDir   string
	cleanDir string
	logger   *zap.Logger
}

// NewStore creates a Store rooted at the raw and clean directories. The
// clean directory is created if absent; the raw directory must exist.
func NewStore(rawDir, cleanDir string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	info, err := os.Stat(rawDir)
	if err != nil {
		return nil, fmt.Errorf("raw data directory unavailable: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("raw data path %s is not a directory", rawDir)
	}

	if err := os.MkdirAll(cleanDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create clean directory: %w", err)
	}

	return &Store{rawDir: rawDir, cleanDir: cleanDir, logger: logger}, nil
}

// ReadTable loads a raw extract into memory. Empty cells become explicit
// missing values; all other cells stay raw strings for the cleaners to
// coerce. An unreadable file or a short header is a structural defect
// and returns an error.
func (s *Store) ReadTable(name, filename string) (model.Table, error) {
	path := filepath.Join(s.rawDir, filename)

	data, err := os.ReadFile(path)
	if err != nil {
		return model.Table{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	text, err := decodeExtract(data)
	if err != nil {
		return model.Table{}, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return model.Table{}, fmt.Errorf("failed to read header of %s: %w", path, err)
	}
	header[0] = strings.TrimPrefix(header[0], utf8BOM)
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	table := model.NewTable(name, header)
	for {
		cells, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return model.Table{}, fmt.Errorf("failed to read row of %s: %w", path, err)
		}

		row := make(model.Record, len(header))
		for i, col := range header {
			if i >= len(cells) || cells[i] == "" {
				row[col] = model.Missing()
				continue
			}
			row[col] = model.String(cells[i])
		}
		table.Append(row)
	}

	s.logger.Info("Loaded raw table",
		zap.String("table", name),
		zap.String("file", filename),
		zap.Int("rows", table.Len()))

	return table, nil
}

// WriteTable persists a cleaned table under the clean directory with
// canonical cell text (timestamps as YYYY-MM-DD HH:MM:SS, missing as
// empty). The table is staged to a temporary file and renamed into
// place, so a failed run never leaves a partial output table.
func (s *Store) WriteTable(filename string, t model.Table) error {
	path := filepath.Join(s.cleanDir, filename)

	tmp, err := os.CreateTemp(s.cleanDir, filename+".*")
	if err != nil {
		return fmt.Errorf("failed to stage %s: %w", path, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	writer := csv.NewWriter(tmp)
	if err := writer.Write(t.Columns); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write header of %s: %w", path, err)
	}

	cells := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i, col := range t.Columns {
			cells[i] = row.Get(col).Text()
		}
		if err := writer.Write(cells); err != nil {
			tmp.Close()
			return fmt.Errorf("failed to write row of %s: %w", path, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to flush %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to finalize %s: %w", path, err)
	}

	s.logger.Info("Persisted cleaned table",
		zap.String("file", filename),
		zap.Int("rows", t.Len()))

	return nil
}

// decodeExtract returns the file content as UTF-8 text. Files that are
// not valid UTF-8 are assumed to be latin1, the encoding the historical
// exports used.
func decodeExtract(data []byte) (string, error) {
	if utf8.Valid(data) {
		return string(data), nil
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}
