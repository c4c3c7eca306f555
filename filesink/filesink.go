// Package filesink computes destination object keys and serializes tables to
// object storage in one of the supported output formats.
package filesink

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	enc "github.com/hawthorn-data/sheetland/stream-encode"
	"github.com/hawthorn-data/sheetland/table"
)

const (
	defaultFolder   = "data"
	defaultFilename = "filename"

	// timestampLayout renders the object creation time at second granularity,
	// so successive runs never overwrite one another.
	timestampLayout = "2006_01_02_15_04_05"
)

type Format int

const (
	FormatCSV Format = iota
	FormatParquet
)

// ParseFormat maps the output_format parameter onto a Format. Only "csv"
// selects CSV; every other value falls through to parquet, which matches the
// historical behavior of this job. A value that is neither "csv" nor
// "parquet" is accepted but logged as suspect.
func ParseFormat(s string) Format {
	switch s {
	case "csv":
		return FormatCSV
	case "parquet":
		return FormatParquet
	default:
		log.WithField("outputFormat", s).Warn("unrecognized output format, defaulting to parquet")
		return FormatParquet
	}
}

func (f Format) String() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatParquet:
		return "parquet"
	default:
		panic(fmt.Sprintf("unknown format: %d", int(f)))
	}
}

func (f Format) extension() string {
	return "." + f.String()
}

type Codec int

const (
	CodecNone Codec = iota
	CodecZip
	CodecSnappy
)

// defaultCodecs is the compression policy: each format has a single default
// codec applied when compression is requested.
var defaultCodecs = map[Format]Codec{
	FormatCSV:     CodecZip,
	FormatParquet: CodecSnappy,
}

func (c Codec) extension() string {
	switch c {
	case CodecNone:
		return ""
	case CodecZip:
		return ".zip"
	case CodecSnappy:
		return ".snappy"
	default:
		panic(fmt.Sprintf("unknown codec: %d", int(c)))
	}
}

// WriteRequest carries the destination parameters for a single write.
type WriteRequest struct {
	Folder   string
	Filename string
	Format   Format
	Compress bool
}

func (r WriteRequest) Validate() error {
	if strings.HasPrefix(r.Folder, "/") {
		return fmt.Errorf("folder %q cannot start with /", r.Folder)
	}
	return nil
}

// destinationKey computes the object key for a write: folder and filename
// joined as a path, the timestamp appended to the filename with an
// underscore, then the format extension and the codec extension when
// compression applies.
func destinationKey(r WriteRequest, codec Codec, now time.Time) string {
	folder := r.Folder
	if folder == "" {
		folder = defaultFolder
	}
	filename := r.Filename
	if filename == "" {
		filename = defaultFilename
	}

	key := path.Join(folder, filename) + "_" + now.Format(timestampLayout)
	key += r.Format.extension()
	key += codec.extension()

	return key
}

func newEncoder(r WriteRequest, codec Codec, fields []string, w io.WriteCloser, key string) (enc.StreamEncoder, error) {
	switch r.Format {
	case FormatCSV:
		opts := []enc.CsvOption{enc.WithCsvDelimiter('\t')}
		if codec == CodecZip {
			opts = append(opts, enc.WithCsvZipArchive(strings.TrimSuffix(path.Base(key), ".zip")))
		}
		return enc.NewCsvEncoder(w, fields, opts...)
	case FormatParquet:
		opts := []enc.ParquetOption{}
		if codec == CodecSnappy {
			opts = append(opts, enc.WithParquetCompression(enc.Snappy))
		}
		return enc.NewParquetEncoder(w, fields, opts...), nil
	default:
		return nil, fmt.Errorf("unknown format: %d", int(r.Format))
	}
}

// Write serializes t per the request and uploads it as a single object,
// returning the destination URI. The upload is streamed: encoded bytes flow
// through a pipe into the store while rows are encoded.
func Write(ctx context.Context, store Store, t table.Table, r WriteRequest) (string, error) {
	if err := r.Validate(); err != nil {
		return "", err
	}

	codec := CodecNone
	if r.Compress {
		codec = defaultCodecs[r.Format]
	}

	key := destinationKey(r, codec, time.Now())
	uri := store.URI(key)

	pr, pw := io.Pipe()
	var group errgroup.Group

	group.Go(func() error {
		log.WithField("uri", uri).Info("started uploading file")
		if err := store.Upload(ctx, key, pr); err != nil {
			pr.CloseWithError(err)
			return fmt.Errorf("uploading file: %w", err)
		}
		log.WithField("uri", uri).Info("finished uploading file")

		return nil
	})

	fail := func(err error) (string, error) {
		pw.CloseWithError(err)
		group.Wait()
		return "", err
	}

	encoder, err := newEncoder(r, codec, t.Fields, pw, key)
	if err != nil {
		return fail(err)
	}

	for _, row := range t.Rows {
		if err := encoder.Encode(row); err != nil {
			return fail(fmt.Errorf("encoding row: %w", err))
		}
	}

	if err := encoder.Close(); err != nil {
		return fail(fmt.Errorf("closing encoder: %w", err))
	} else if err := group.Wait(); err != nil {
		return "", err
	}

	return uri, nil
}
