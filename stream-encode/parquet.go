package stream_encode

import (
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/schema"
)

// The default number of rows per row group in the generated parquet file.
// Configurable via WithParquetRowGroupRowLimit.
const defaultRowGroupRowLimit = 1_000_000

type ParquetCompression int

const (
	Uncompressed ParquetCompression = iota
	Snappy
	Gzip
)

type parquetConfig struct {
	compression      ParquetCompression
	rowGroupRowLimit int
}

// ParquetEncoder writes rows of string values as a parquet file where every
// column is an optional UTF8 column. Cells missing from the tail of a row are
// written as nulls.
type ParquetEncoder struct {
	cfg        parquetConfig
	fields     []string
	sinkWriter *file.Writer
	cwc        *countingWriteCloser

	// buffer contains rows pending to be written as the next row group.
	buffer [][]string
}

type ParquetOption func(*parquetConfig)

func WithParquetCompression(c ParquetCompression) ParquetOption {
	return func(cfg *parquetConfig) {
		cfg.compression = c
	}
}

func WithParquetRowGroupRowLimit(n int) ParquetOption {
	return func(cfg *parquetConfig) {
		cfg.rowGroupRowLimit = n
	}
}

func NewParquetEncoder(w io.WriteCloser, fields []string, opts ...ParquetOption) *ParquetEncoder {
	cfg := parquetConfig{
		compression:      Uncompressed,
		rowGroupRowLimit: defaultRowGroupRowLimit,
	}
	for _, o := range opts {
		o(&cfg)
	}

	nodes := make(schema.FieldList, 0, len(fields))
	for _, f := range fields {
		nodes = append(nodes, schema.Must(schema.NewPrimitiveNodeLogical(
			f,
			parquet.Repetitions.Optional,
			schema.StringLogicalType{},
			parquet.Types.ByteArray,
			-1,
			-1,
		)))
	}

	schemaRoot := schema.MustGroup(schema.NewGroupNode("schema", parquet.Repetitions.Required, nodes, -1))

	cwc := &countingWriteCloser{w: w}

	return &ParquetEncoder{
		cfg:        cfg,
		fields:     fields,
		sinkWriter: file.NewParquetWriter(cwc, schemaRoot, writerOpts(cfg)),
		cwc:        cwc,
	}
}

func writerOpts(cfg parquetConfig) file.WriteOption {
	propOpts := []parquet.WriterProperty{}

	switch cfg.compression {
	case Uncompressed:
		propOpts = append(propOpts, parquet.WithCompression(compress.Codecs.Uncompressed))
	case Snappy:
		propOpts = append(propOpts, parquet.WithCompression(compress.Codecs.Snappy))
	case Gzip:
		propOpts = append(propOpts, parquet.WithCompression(compress.Codecs.Gzip))
	default:
		panic(fmt.Sprintf("unknown compression setting: %d", cfg.compression))
	}

	return file.WithWriterProps(parquet.NewWriterProperties(propOpts...))
}

func (e *ParquetEncoder) Encode(row []string) error {
	e.buffer = append(e.buffer, row)

	if len(e.buffer) >= e.cfg.rowGroupRowLimit {
		if err := e.flushBuffer(); err != nil {
			return fmt.Errorf("encode flushing buffer based on row count: %w", err)
		}
	}

	return nil
}

func (e *ParquetEncoder) Written() int {
	return e.cwc.written
}

// Close flushes the buffered rows as a final row group and closes the output
// writer.
func (e *ParquetEncoder) Close() error {
	if err := e.flushBuffer(); err != nil {
		return fmt.Errorf("flushing buffer: %w", err)
	} else if err := e.sinkWriter.Close(); err != nil { // also closes the underlying io.WriteCloser
		return fmt.Errorf("closing sink: %w", err)
	}
	return nil
}

// flushBuffer writes the current buffered rows as a single row group,
// transposing them into per-column batches of byte array values.
func (e *ParquetEncoder) flushBuffer() error {
	if len(e.buffer) == 0 {
		return nil
	}

	rgWriter := e.sinkWriter.AppendRowGroup()

	for colIdx := range e.fields {
		cw, err := rgWriter.NextColumn()
		if err != nil {
			return fmt.Errorf("getting next column: %w", err)
		}

		vals := make([]parquet.ByteArray, 0, len(e.buffer))
		defLevels := make([]int16, 0, len(e.buffer))

		for _, row := range e.buffer {
			if colIdx >= len(row) {
				// Row is narrower than the header; the missing cell is null.
				defLevels = append(defLevels, 0)
				continue
			}

			vals = append(vals, parquet.ByteArray(row[colIdx]))
			defLevels = append(defLevels, 1)
		}

		bw, ok := cw.(*file.ByteArrayColumnChunkWriter)
		if !ok {
			return fmt.Errorf("unexpected column writer type: %T", cw)
		}

		if valuesWritten, err := bw.WriteBatch(vals, defLevels, nil); err != nil {
			return fmt.Errorf("writing batch of values: %w", err)
		} else if int(valuesWritten) != len(vals) {
			return fmt.Errorf("written %d values vs. %d values in vals", valuesWritten, len(vals))
		}

		if err := cw.Close(); err != nil {
			return fmt.Errorf("closing column writer: %w", err)
		}
	}

	if err := rgWriter.Close(); err != nil {
		return fmt.Errorf("closing row group writer: %w", err)
	}

	e.buffer = e.buffer[:0]

	return nil
}
