package fetcher

import (
	"context"
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"
)

// CSVOptions configures the CSV drop reader.
type CSVOptions struct {
	Delimiter  rune // default ','
	Comment    rune // comment character (0 = none)
	LazyQuotes bool
}

// ReadCSV decodes a CSV drop into raw records. The first row names the keys;
// each following row becomes one record. Headers and cells are trimmed, and
// blank cells are omitted so a missing value and an empty column read the
// same way downstream. Rows wider than the header keep only named columns.
// Empty input yields no records and no error.
func ReadCSV(ctx context.Context, r io.Reader, opts CSVOptions) ([]map[string]any, error) {
	reader := csv.NewReader(r)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	if opts.Comment != 0 {
		reader.Comment = opts.Comment
	}
	reader.LazyQuotes = opts.LazyQuotes
	reader.FieldsPerRecord = -1 // allow variable fields

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "csv: read header row")
	}

	keys := make([]string, len(header))
	for i, h := range header {
		keys[i] = strings.TrimSpace(h)
	}

	var records []map[string]any
	for {
		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "csv: context cancelled")
		}

		row, err := reader.Read()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return nil, eris.Wrap(err, "csv: read row")
		}

		if rec := rowRecord(keys, row); len(rec) > 0 {
			records = append(records, rec)
		}
	}
}

// rowRecord zips header keys with row cells into one raw record. Unnamed
// columns and blank cells are dropped; the first occurrence of a duplicated
// header wins.
func rowRecord(keys []string, cells []string) map[string]any {
	rec := make(map[string]any, len(keys))
	for i, key := range keys {
		if key == "" || i >= len(cells) {
			continue
		}
		val := strings.TrimSpace(cells[i])
		if val == "" {
			continue
		}
		if _, ok := rec[key]; ok {
			continue
		}
		rec[key] = val
	}
	return rec
}
