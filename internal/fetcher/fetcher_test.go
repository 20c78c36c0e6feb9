package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOpener() *Opener {
	return NewOpener(
		HTTPOptions{UserAgent: "test-agent", Timeout: 5 * time.Second, MaxRetries: 2},
		FTPOptions{Timeout: 5 * time.Second},
	)
}

func writeTestDrop(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		ref     string
		want    Format
		wantErr bool
	}{
		{ref: "leads.json", want: FormatJSON},
		{ref: "/data/drops/export.csv", want: FormatCSV},
		{ref: "salesnav.xlsx", want: FormatXLSX},
		{ref: "LEADS.JSON", want: FormatJSON},
		{ref: "https://drops.acme.example/acme/leads.json?token=abc", want: FormatJSON},
		{ref: "ftp://drops.acme.example/exports/leads.csv", want: FormatCSV},
		{ref: "notes.txt", wantErr: true},
		{ref: "no-extension", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			got, err := DetectFormat(tt.ref)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "cannot infer format")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOpen_LocalPath(t *testing.T) {
	path := writeTestDrop(t, "leads.csv", "email\nava@acme.io\n")

	o := newTestOpener()
	rc, err := o.Open(context.Background(), path)
	require.NoError(t, err)
	defer rc.Close() //nolint:errcheck

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "email\nava@acme.io\n", string(data))
}

func TestOpen_FileScheme(t *testing.T) {
	path := writeTestDrop(t, "leads.json", `[]`)

	o := newTestOpener()
	rc, err := o.Open(context.Background(), "file://"+path)
	require.NoError(t, err)
	defer rc.Close() //nolint:errcheck

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestOpen_LocalMissing(t *testing.T) {
	o := newTestOpener()
	_, err := o.Open(context.Background(), filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open local drop")
}

func TestOpen_HTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("remote drop"))
	}))
	defer srv.Close()

	o := newTestOpener()
	rc, err := o.Open(context.Background(), srv.URL+"/drop.csv")
	require.NoError(t, err)
	defer rc.Close() //nolint:errcheck

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "remote drop", string(data))
}

func TestOpen_UnsupportedScheme(t *testing.T) {
	o := newTestOpener()
	_, err := o.Open(context.Background(), "s3://bucket/leads.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported scheme")
}

func TestReadBatch_JSONFile(t *testing.T) {
	path := writeTestDrop(t, "leads.json",
		`[{"email": "ava@acme.io", "organization": {"name": "Acme"}}]`)

	o := newTestOpener()
	batch, err := o.ReadBatch(context.Background(), "apollo", path, BatchOptions{})
	require.NoError(t, err)

	assert.Equal(t, "apollo", batch.Source)
	require.Len(t, batch.Records, 1)
	assert.Equal(t, "ava@acme.io", batch.Records[0]["email"])
}

func TestReadBatch_CSVFile(t *testing.T) {
	path := writeTestDrop(t, "leads.csv", "email,firstName\nava@acme.io,Ava\nnoah@bolt.dev,Noah\n")

	o := newTestOpener()
	batch, err := o.ReadBatch(context.Background(), "salesnav", path, BatchOptions{})
	require.NoError(t, err)

	assert.Equal(t, "salesnav", batch.Source)
	require.Len(t, batch.Records, 2)
	assert.Equal(t, "Noah", batch.Records[1]["firstName"])
}

func TestReadBatch_XLSXFile(t *testing.T) {
	path := createTestXLSX(t, []testSheet{{
		name: "Leads",
		rows: [][]string{{"email"}, {"ava@acme.io"}},
	}})

	o := newTestOpener()
	batch, err := o.ReadBatch(context.Background(), "snov", path, BatchOptions{})
	require.NoError(t, err)

	assert.Equal(t, "snov", batch.Source)
	require.Len(t, batch.Records, 1)
	assert.Equal(t, "ava@acme.io", batch.Records[0]["email"])
}

func TestReadBatch_FormatOverride(t *testing.T) {
	// The drop has no telling extension; the caller knows it is CSV.
	path := writeTestDrop(t, "drop.dat", "email\nava@acme.io\n")

	o := newTestOpener()
	batch, err := o.ReadBatch(context.Background(), "apollo", path, BatchOptions{Format: FormatCSV})
	require.NoError(t, err)
	require.Len(t, batch.Records, 1)
	assert.Equal(t, "ava@acme.io", batch.Records[0]["email"])
}

func TestReadBatch_UnknownExtension(t *testing.T) {
	path := writeTestDrop(t, "drop.dat", "email\nava@acme.io\n")

	o := newTestOpener()
	_, err := o.ReadBatch(context.Background(), "apollo", path, BatchOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot infer format")
}

func TestReadBatch_HTTPJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"email": "ava@acme.io"}, {"email": "noah@bolt.dev"}]`)
	}))
	defer srv.Close()

	o := newTestOpener()
	batch, err := o.ReadBatch(context.Background(), "apollo", srv.URL+"/acme/leads.json", BatchOptions{})
	require.NoError(t, err)

	require.Len(t, batch.Records, 2)
	assert.Equal(t, "noah@bolt.dev", batch.Records[1]["email"])
}

func TestReadBatch_FTPCSV(t *testing.T) {
	ftpSrv := newMiniFTPServer(t, map[string]string{
		"/exports/leads.csv": "email\nava@acme.io\n",
	})
	defer ftpSrv.close()

	o := newTestOpener()
	ref := fmt.Sprintf("ftp://%s/exports/leads.csv", ftpSrv.addr())
	batch, err := o.ReadBatch(context.Background(), "apollo", ref, BatchOptions{})
	require.NoError(t, err)

	require.Len(t, batch.Records, 1)
	assert.Equal(t, "ava@acme.io", batch.Records[0]["email"])
}

func TestReadBatch_DecodeError(t *testing.T) {
	path := writeTestDrop(t, "leads.json", `{"not": "an array"}`)

	o := newTestOpener()
	_, err := o.ReadBatch(context.Background(), "apollo", path, BatchOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected an array")
}
