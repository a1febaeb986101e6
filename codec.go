package ordix

import (
	"encoding/binary"
	"fmt"

	"github.com/golang/snappy"
)

// Codec converts values to and from their storage bytes. Ordering is
// the comparator's job; a codec only needs to round-trip.
type Codec[T any] interface {
	Encode(v T) ([]byte, error)
	Decode(b []byte) (T, error)
}

// Int64Codec encodes int64 values as 8 big-endian bytes.
type Int64Codec struct{}

func (Int64Codec) Encode(v int64) ([]byte, error) {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(v))
	return b, nil
}

func (Int64Codec) Decode(b []byte) (int64, error) {
	if len(b) != 8 {
		return 0, fmt.Errorf("%w: int64 value is %d bytes", ErrCorruptRecord, len(b))
	}
	return int64(binary.BigEndian.Uint64(b)), nil
}

// StringCodec encodes strings as their raw bytes.
type StringCodec struct{}

func (StringCodec) Encode(v string) ([]byte, error) { return []byte(v), nil }

func (StringCodec) Decode(b []byte) (string, error) { return string(b), nil }

// BytesCodec passes byte slices through unchanged.
type BytesCodec struct{}

func (BytesCodec) Encode(v []byte) ([]byte, error) { return v, nil }

func (BytesCodec) Decode(b []byte) ([]byte, error) { return b, nil }

// NewSnappyCodec wraps another codec, compressing its output with
// snappy block encoding. Useful for large values; the on-disk record
// layout is unchanged since values are length-prefixed.
func NewSnappyCodec[T any](inner Codec[T]) Codec[T] {
	return snappyCodec[T]{inner: inner}
}

type snappyCodec[T any] struct {
	inner Codec[T]
}

func (c snappyCodec[T]) Encode(v T) ([]byte, error) {
	b, err := c.inner.Encode(v)
	if err != nil {
		return nil, err
	}
	return snappy.Encode(nil, b), nil
}

func (c snappyCodec[T]) Decode(b []byte) (T, error) {
	raw, err := snappy.Decode(nil, b)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}
	return c.inner.Decode(raw)
}
