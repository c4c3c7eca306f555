package filesink

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"path"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hawthorn-data/sheetland/table"
)

func TestDestinationKey(t *testing.T) {
	now := time.Date(2023, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name  string
		req   WriteRequest
		codec Codec
		want  string
	}{
		{
			name:  "csv uncompressed",
			req:   WriteRequest{Folder: "data", Filename: "extract", Format: FormatCSV},
			codec: CodecNone,
			want:  "data/extract_2023_01_02_03_04_05.csv",
		},
		{
			name:  "csv zipped",
			req:   WriteRequest{Folder: "data", Filename: "extract", Format: FormatCSV},
			codec: CodecZip,
			want:  "data/extract_2023_01_02_03_04_05.csv.zip",
		},
		{
			name:  "parquet uncompressed",
			req:   WriteRequest{Folder: "data", Filename: "extract", Format: FormatParquet},
			codec: CodecNone,
			want:  "data/extract_2023_01_02_03_04_05.parquet",
		},
		{
			name:  "parquet snappy",
			req:   WriteRequest{Folder: "data", Filename: "extract", Format: FormatParquet},
			codec: CodecSnappy,
			want:  "data/extract_2023_01_02_03_04_05.parquet.snappy",
		},
		{
			name:  "defaults",
			req:   WriteRequest{Format: FormatCSV},
			codec: CodecNone,
			want:  "data/filename_2023_01_02_03_04_05.csv",
		},
		{
			name:  "nested folder",
			req:   WriteRequest{Folder: "landing/sheets/daily", Filename: "extract", Format: FormatParquet},
			codec: CodecSnappy,
			want:  "landing/sheets/daily/extract_2023_01_02_03_04_05.parquet.snappy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, destinationKey(tt.req, tt.codec, now))
		})
	}
}

func TestDestinationKeyUniqueness(t *testing.T) {
	req := WriteRequest{Folder: "data", Filename: "extract", Format: FormatCSV}
	t0 := time.Date(2023, 1, 2, 3, 4, 5, 0, time.UTC)
	t1 := t0.Add(time.Second)

	require.NotEqual(t, destinationKey(req, CodecNone, t0), destinationKey(req, CodecNone, t1))
}

func TestParseFormat(t *testing.T) {
	require.Equal(t, FormatCSV, ParseFormat("csv"))
	require.Equal(t, FormatParquet, ParseFormat("parquet"))
	require.Equal(t, FormatParquet, ParseFormat("anything-else"))
	require.Equal(t, FormatParquet, ParseFormat(""))
}

func TestWriteRequestValidate(t *testing.T) {
	require.NoError(t, WriteRequest{Folder: "data"}.Validate())
	require.Error(t, WriteRequest{Folder: "/data"}.Validate())
}

// memoryStore captures uploads for assertions.
type memoryStore struct {
	keys    []string
	objects map[string][]byte
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: make(map[string][]byte)}
}

func (s *memoryStore) Upload(ctx context.Context, key string, r io.Reader) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.keys = append(s.keys, key)
	s.objects[key] = b
	return nil
}

func (s *memoryStore) URI(key string) string {
	return "s3://" + path.Join("test-bucket", key)
}

func TestWriteCsvRoundTrip(t *testing.T) {
	store := newMemoryStore()
	in := table.Table{
		Fields: []string{"a", "b"},
		Rows:   [][]string{{"1", "2"}, {"3", "4"}},
	}

	uri, err := Write(context.Background(), store, in, WriteRequest{
		Folder:   "data",
		Filename: "extract",
		Format:   FormatCSV,
	})
	require.NoError(t, err)
	require.Len(t, store.keys, 1)
	require.True(t, strings.HasPrefix(uri, "s3://test-bucket/data/extract_"))
	require.True(t, strings.HasSuffix(uri, ".csv"))

	r := csv.NewReader(bytes.NewReader(store.objects[store.keys[0]]))
	r.Comma = '\t'
	got, err := r.ReadAll()
	require.NoError(t, err)
	require.Equal(t, [][]string{{"a", "b"}, {"1", "2"}, {"3", "4"}}, got)
}

func TestWriteKeyExtensions(t *testing.T) {
	in := table.Table{Fields: []string{"a"}, Rows: [][]string{{"1"}}}

	tests := []struct {
		name       string
		format     Format
		compress   bool
		wantSuffix string
	}{
		{name: "csv compressed", format: FormatCSV, compress: true, wantSuffix: ".csv.zip"},
		{name: "csv plain", format: FormatCSV, compress: false, wantSuffix: ".csv"},
		{name: "parquet compressed", format: FormatParquet, compress: true, wantSuffix: ".parquet.snappy"},
		{name: "parquet plain", format: FormatParquet, compress: false, wantSuffix: ".parquet"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemoryStore()
			uri, err := Write(context.Background(), store, in, WriteRequest{
				Format:   tt.format,
				Compress: tt.compress,
			})
			require.NoError(t, err)
			require.Len(t, store.keys, 1)
			require.True(t, strings.HasSuffix(uri, tt.wantSuffix), "uri %q should end with %q", uri, tt.wantSuffix)
			require.NotEmpty(t, store.objects[store.keys[0]])
		})
	}
}

func TestWriteEmptyTable(t *testing.T) {
	for _, format := range []Format{FormatCSV, FormatParquet} {
		t.Run(format.String(), func(t *testing.T) {
			store := newMemoryStore()
			_, err := Write(context.Background(), store, table.Table{}, WriteRequest{Format: format})
			require.NoError(t, err)
			require.Len(t, store.keys, 1)
		})
	}
}
