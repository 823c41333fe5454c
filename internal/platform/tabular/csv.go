package tabular

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// CSVSource reads tables from <dir>/<name>.csv. Cell values are strings;
// numeric conversion is left to the caller.
type CSVSource struct {
	dir string
}

// NewCSVSource returns a source over the CSV files in dir.
func NewCSVSource(dir string) *CSVSource {
	return &CSVSource{dir: dir}
}

// Table reads the CSV file for name.
func (s *CSVSource) Table(_ context.Context, name string) (*Table, error) {
	if strings.ContainsAny(name, `/\`) {
		return nil, fmt.Errorf("invalid table name %q", name)
	}
	path := filepath.Join(s.dir, name+".csv")
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("open %s: %w", path, ErrTableNotFound)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	values, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return FromValues(name, values)
}

const utf8BOM = "\ufeff"

// ReadCSV reads all records from r. Rows may have differing lengths and a
// leading UTF-8 byte order mark is ignored.
func ReadCSV(r io.Reader) ([][]any, error) {
	br := bufio.NewReader(r)
	if b, err := br.Peek(len(utf8BOM)); err == nil && string(b) == utf8BOM {
		br.Discard(len(utf8BOM))
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var values [][]any
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		row := make([]any, len(rec))
		for i, v := range rec {
			row[i] = v
		}
		values = append(values, row)
	}
	return values, nil
}
