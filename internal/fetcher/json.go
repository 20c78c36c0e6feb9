package fetcher

import (
	"context"
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
)

// ReadJSON decodes a JSON drop holding an array of objects. Elements are
// decoded one at a time so large drops never need a second in-memory copy.
// Numbers decode as json.Number, which keeps opaque numeric identifiers in
// their exact written form. Empty input yields no records and no error.
func ReadJSON(ctx context.Context, r io.Reader) ([]map[string]any, error) {
	decoder := json.NewDecoder(r)
	decoder.UseNumber()

	tok, err := decoder.Token()
	if err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, eris.Wrap(err, "json: read opening token")
	}

	delim, ok := tok.(json.Delim)
	if !ok || delim != '[' {
		return nil, eris.Errorf("json: expected an array of records, got %v", tok)
	}

	var records []map[string]any
	for decoder.More() {
		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "json: context cancelled")
		}

		var rec map[string]any
		if err := decoder.Decode(&rec); err != nil {
			return nil, eris.Wrap(err, "json: decode record")
		}
		records = append(records, rec)
	}

	if _, err := decoder.Token(); err != nil && err != io.EOF {
		return nil, eris.Wrap(err, "json: read closing token")
	}

	return records, nil
}
