// Package stream_encode implements encoders that serialize rows of table
// data to a stream in a particular file format.
package stream_encode

// StreamEncoder encodes rows of data to a particular format, writing the
// result to a stream.
type StreamEncoder interface {
	Encode(row []string) error
	Written() int
	Close() error
}
