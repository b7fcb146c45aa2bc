package format

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/klauspost/compress/flate"

	"github.com/quillfold/statekit/internal/buf"
)

// Leaf payloads come in two shapes, selected by the index record's kind tag:
// numeric slices are stored in a native array representation that round-trips
// element type and length exactly, and everything else goes through gob as an
// opaque blob. The split keeps bulk numeric state compact and lets a future
// reader in another toolchain at least recover the arrays.

func init() {
	// Concrete types that may travel inside a blob's interface value.
	// Basic types (string, bool, ints, floats and their slices) are
	// pre-registered by the gob runtime.
	gob.Register(time.Time{})
	gob.Register([]any{})
	gob.Register(map[string]any{})
}

// blobValue wraps an arbitrary value so gob transmits the concrete type tag
// alongside the data.
type blobValue struct {
	V any
}

// EncodeValue serializes value into its raw (uncompressed) payload form and
// reports the kind tag that must be recorded in the index.
func EncodeValue(value any) (Kind, []byte, error) {
	switch v := value.(type) {
	case []float64:
		raw := arrayHeader(DTypeF64, len(v))
		for _, e := range v {
			raw = AppendU64(raw, math.Float64bits(e))
		}
		return KindArray, raw, nil
	case []float32:
		raw := arrayHeader(DTypeF32, len(v))
		for _, e := range v {
			raw = AppendU32(raw, math.Float32bits(e))
		}
		return KindArray, raw, nil
	case []int64:
		raw := arrayHeader(DTypeI64, len(v))
		for _, e := range v {
			raw = AppendU64(raw, uint64(e))
		}
		return KindArray, raw, nil
	case []int32:
		raw := arrayHeader(DTypeI32, len(v))
		for _, e := range v {
			raw = AppendU32(raw, uint32(e))
		}
		return KindArray, raw, nil
	case []uint64:
		raw := arrayHeader(DTypeU64, len(v))
		for _, e := range v {
			raw = AppendU64(raw, e)
		}
		return KindArray, raw, nil
	case []uint8:
		raw := arrayHeader(DTypeU8, len(v))
		raw = append(raw, v...)
		return KindArray, raw, nil
	default:
		var buf bytes.Buffer
		if err := gob.NewEncoder(&buf).Encode(&blobValue{V: value}); err != nil {
			return 0, nil, fmt.Errorf("%w: %T (%v)", ErrValueType, value, err)
		}
		return KindBlob, buf.Bytes(), nil
	}
}

// DecodeValue reverses EncodeValue, dispatching on the recorded kind tag.
func DecodeValue(kind Kind, raw []byte) (any, error) {
	switch kind {
	case KindArray:
		return decodeArray(raw)
	case KindBlob:
		var bv blobValue
		if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&bv); err != nil {
			return nil, fmt.Errorf("format: decode blob: %w", err)
		}
		return bv.V, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrBadKind, kind)
	}
}

func arrayHeader(d DType, count int) []byte {
	raw := make([]byte, 0, arrayHeaderSize+count*d.elemSize())
	raw = append(raw, byte(d))
	raw = AppendU64(raw, uint64(count))
	return raw
}

func decodeArray(raw []byte) (any, error) {
	if len(raw) < arrayHeaderSize {
		return nil, ErrTruncated
	}
	d := DType(raw[0])
	count := int(ReadU64(raw, 1))
	size := d.elemSize()
	if size == 0 {
		return nil, fmt.Errorf("%w: %d", ErrBadDType, d)
	}
	data := raw[arrayHeaderSize:]
	end, err := buf.CheckListBounds(len(data), 0, count, size)
	if err != nil {
		return nil, fmt.Errorf("%w: array payload: %v", ErrTruncated, err)
	}
	if end != len(data) {
		return nil, fmt.Errorf("%w: array data is %d bytes, want %d",
			ErrTruncated, len(data), end)
	}
	switch d {
	case DTypeF64:
		out := make([]float64, count)
		for i := range out {
			out[i] = math.Float64frombits(ReadU64(data, i*8))
		}
		return out, nil
	case DTypeF32:
		out := make([]float32, count)
		for i := range out {
			out[i] = math.Float32frombits(ReadU32(data, i*4))
		}
		return out, nil
	case DTypeI64:
		out := make([]int64, count)
		for i := range out {
			out[i] = int64(ReadU64(data, i*8))
		}
		return out, nil
	case DTypeI32:
		out := make([]int32, count)
		for i := range out {
			out[i] = int32(ReadU32(data, i*4))
		}
		return out, nil
	case DTypeU64:
		out := make([]uint64, count)
		for i := range out {
			out[i] = ReadU64(data, i*8)
		}
		return out, nil
	case DTypeU8:
		out := make([]uint8, count)
		copy(out, data)
		return out, nil
	}
	return nil, fmt.Errorf("%w: %d", ErrBadDType, d)
}

// Compress stores raw per the requested compression level and returns the
// stored bytes with their codec tag. Level 0 stores verbatim.
func Compress(raw []byte, level int) ([]byte, Codec, error) {
	if level == 0 {
		return raw, CodecRaw, nil
	}
	var buf bytes.Buffer
	fw, err := flate.NewWriter(&buf, level)
	if err != nil {
		return nil, 0, fmt.Errorf("format: deflate level %d: %w", level, err)
	}
	if _, err := fw.Write(raw); err != nil {
		return nil, 0, err
	}
	if err := fw.Close(); err != nil {
		return nil, 0, err
	}
	return buf.Bytes(), CodecDeflate, nil
}

// Decompress recovers the raw payload bytes from their stored form.
func Decompress(stored []byte, codec Codec, rawSize int) ([]byte, error) {
	switch codec {
	case CodecRaw:
		return stored, nil
	case CodecDeflate:
		fr := flate.NewReader(bytes.NewReader(stored))
		defer fr.Close()
		raw := make([]byte, 0, rawSize)
		buf := bytes.NewBuffer(raw)
		if _, err := io.Copy(buf, fr); err != nil {
			return nil, fmt.Errorf("format: inflate: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrBadCodec, codec)
	}
}
