package stream_encode

import (
	"archive/zip"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
)

const csvCompressionLevel = flate.BestSpeed

type csvConfig struct {
	skipHeaders bool
	delimiter   rune
	zipEntry    string
}

// CsvEncoder writes rows of string values as delimited text. With
// WithCsvZipArchive the output stream is a zip archive containing the
// delimited file as its single entry.
type CsvEncoder struct {
	cfg           csvConfig
	fields        []string
	csv           *csv.Writer
	cwc           *countingWriteCloser
	zip           *zip.Writer
	headerWritten bool
}

type CsvOption func(*csvConfig)

func WithCsvSkipHeaders() CsvOption {
	return func(cfg *csvConfig) {
		cfg.skipHeaders = true
	}
}

func WithCsvDelimiter(r rune) CsvOption {
	return func(cfg *csvConfig) {
		cfg.delimiter = r
	}
}

// WithCsvZipArchive wraps the output in a zip archive with a single entry
// named entryName.
func WithCsvZipArchive(entryName string) CsvOption {
	return func(cfg *csvConfig) {
		cfg.zipEntry = entryName
	}
}

func NewCsvEncoder(w io.WriteCloser, fields []string, opts ...CsvOption) (*CsvEncoder, error) {
	var cfg csvConfig
	for _, o := range opts {
		o(&cfg)
	}

	cwc := &countingWriteCloser{w: w}

	var zw *zip.Writer
	var sink io.Writer = cwc
	if cfg.zipEntry != "" {
		zw = zip.NewWriter(cwc)
		zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
			return flate.NewWriter(out, csvCompressionLevel)
		})

		entry, err := zw.Create(cfg.zipEntry)
		if err != nil {
			return nil, fmt.Errorf("creating zip entry %q: %w", cfg.zipEntry, err)
		}
		sink = entry
	}

	csvw := csv.NewWriter(sink)
	if cfg.delimiter != 0 {
		csvw.Comma = cfg.delimiter
	}

	return &CsvEncoder{
		cfg:    cfg,
		csv:    csvw,
		cwc:    cwc,
		zip:    zw,
		fields: fields,
	}, nil
}

func (e *CsvEncoder) Encode(row []string) error {
	if err := e.writeHeader(); err != nil {
		return err
	}

	return e.csv.Write(row)
}

func (e *CsvEncoder) Written() int {
	return e.cwc.written
}

// Close flushes any pending output and closes the underlying writer. The
// header row is written here if no records were ever encoded, so that an
// empty table still produces a file with its column names.
func (e *CsvEncoder) Close() error {
	if err := e.writeHeader(); err != nil {
		return err
	}

	e.csv.Flush()
	if err := e.csv.Error(); err != nil {
		return fmt.Errorf("flushing csv writer: %w", err)
	}

	if e.zip != nil {
		if err := e.zip.Close(); err != nil {
			return fmt.Errorf("closing zip writer: %w", err)
		}
	}

	if err := e.cwc.Close(); err != nil {
		return fmt.Errorf("closing counting writer: %w", err)
	}

	return nil
}

func (e *CsvEncoder) writeHeader() error {
	if e.headerWritten || e.cfg.skipHeaders {
		return nil
	}
	e.headerWritten = true

	if len(e.fields) == 0 {
		return nil
	}

	if err := e.csv.Write(e.fields); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	return nil
}
