// Package fetcher retrieves and decodes raw lead batch drops. A drop is one
// scraper export reachable over http(s), ftp, or the local filesystem, laid
// out as a JSON array of objects, a CSV with a header row, or an XLSX sheet.
// Records come back as generic maps; canonicalization is the mapper's job.
package fetcher

import (
	"context"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/prospect-cli/internal/model"
)

// Format identifies a drop file layout.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// DetectFormat infers the drop layout from the reference's file extension.
// URL references are matched on their path, so query strings do not confuse
// the detection.
func DetectFormat(ref string) (Format, error) {
	path := ref
	if u, err := url.Parse(ref); err == nil && u.Path != "" {
		path = u.Path
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	}
	return "", eris.Errorf("fetcher: cannot infer format of %q (expected .json, .csv, or .xlsx)", ref)
}

// Opener retrieves drops by reference, dispatching on the scheme.
type Opener struct {
	http *HTTPFetcher
	ftp  *FTPFetcher
}

// NewOpener creates an Opener with the given transport options.
func NewOpener(httpOpts HTTPOptions, ftpOpts FTPOptions) *Opener {
	return &Opener{
		http: NewHTTPFetcher(httpOpts),
		ftp:  NewFTPFetcher(ftpOpts),
	}
}

// Open returns the referenced drop's contents. http(s) references go through
// the retrying rate-limited client, ftp references through an FTP session,
// and anything without a scheme is treated as a local path. The caller must
// close the returned ReadCloser.
func (o *Opener) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	u, err := url.Parse(ref)
	if err != nil {
		u = &url.URL{Path: ref}
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return o.http.Download(ctx, ref)
	case "ftp":
		return o.ftp.Download(ctx, ref)
	case "", "file":
		path := ref
		if u.Scheme != "" {
			path = u.Path
		}
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrap(err, "fetcher: open local drop")
		}
		return f, nil
	default:
		return nil, eris.Errorf("fetcher: unsupported scheme %q in %s", u.Scheme, ref)
	}
}

// BatchOptions configures decoding of one drop.
type BatchOptions struct {
	Format Format // empty = infer from the reference
	CSV    CSVOptions
	XLSX   XLSXOptions
}

// ReadBatch opens the referenced drop and decodes it into raw records tagged
// with the source. The record maps carry exactly what the drop carried.
func (o *Opener) ReadBatch(ctx context.Context, source, ref string, opts BatchOptions) (*model.RawBatch, error) {
	format := opts.Format
	if format == "" {
		detected, err := DetectFormat(ref)
		if err != nil {
			return nil, err
		}
		format = detected
	}

	rc, err := o.Open(ctx, ref)
	if err != nil {
		return nil, err
	}
	defer rc.Close() //nolint:errcheck

	var records []map[string]any
	switch format {
	case FormatJSON:
		records, err = ReadJSON(ctx, rc)
	case FormatCSV:
		records, err = ReadCSV(ctx, rc, opts.CSV)
	case FormatXLSX:
		records, err = ReadXLSX(ctx, rc, opts.XLSX)
	default:
		return nil, eris.Errorf("fetcher: unknown format %q", format)
	}
	if err != nil {
		return nil, err
	}

	return &model.RawBatch{Source: source, Records: records}, nil
}
