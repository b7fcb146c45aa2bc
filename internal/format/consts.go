// Package format houses the low-level codec for the SKST container file
// format. The goal is to keep the binary handling focused and independent
// from the public API so higher-level packages can orchestrate the data in a
// more ergonomic form.
//
// An SKST file is a hierarchical, named-group container:
//
//	[Header - 32 bytes] [payload cells ...] [index block]
//
// Payload cells are the raw (optionally deflated) bytes of each leaf entry,
// written sequentially after the header. The index block is a serialized
// pre-order walk of the group tree; every leaf record carries the absolute
// offset and size of its payload cell, so a reader can parse the structural
// skeleton without touching any payload, and later fetch a single value with
// one ReadAt.
package format

var (
	// Signature is the four-byte magic at the start of every container.
	// Layout:
	//   0x00  'S' 'K' 'S' 'T'
	Signature = []byte{'S', 'K', 'S', 'T'}
)

const (
	// Version is the current container format version.
	Version = 1

	// HeaderSize is the size of the fixed file header in bytes.
	HeaderSize = 32

	// Header field offsets.
	SignatureOffset   = 0x00 // 4 bytes
	VersionOffset     = 0x04 // 2 bytes
	FlagsOffset       = 0x06 // 2 bytes, reserved
	IndexOffsetOffset = 0x08 // 8 bytes, absolute offset of the index block
	IndexSizeOffset   = 0x10 // 8 bytes, index block size
	EntryCountOffset  = 0x18 // 8 bytes, number of leaf entries
)

// Kind tags an index record. Group records open a nested group terminated by
// an end marker; array and blob records are leaves.
type Kind uint8

const (
	KindGroup Kind = 1 // nested group (section)
	KindArray Kind = 2 // native numeric array payload
	KindBlob  Kind = 3 // opaque serialized payload
	kindEnd   Kind = 4 // closes the current group in the index stream
)

func (k Kind) String() string {
	switch k {
	case KindGroup:
		return "group"
	case KindArray:
		return "array"
	case KindBlob:
		return "blob"
	default:
		return "unknown"
	}
}

// Codec tags how a payload cell is stored on disk.
type Codec uint8

const (
	CodecRaw     Codec = 0 // payload stored verbatim
	CodecDeflate Codec = 1 // payload stored DEFLATE-compressed
)

// DType tags the element type of an array payload.
type DType uint8

const (
	DTypeF64 DType = 1
	DTypeF32 DType = 2
	DTypeI64 DType = 3
	DTypeI32 DType = 4
	DTypeU64 DType = 5
	DTypeU8  DType = 6
)

// elemSize returns the per-element byte size of a dtype, or 0 if unknown.
func (d DType) elemSize() int {
	switch d {
	case DTypeF64, DTypeI64, DTypeU64:
		return 8
	case DTypeF32, DTypeI32:
		return 4
	case DTypeU8:
		return 1
	default:
		return 0
	}
}

const (
	// DefaultCompressionLevel balances ratio and speed for typical state
	// payloads.
	DefaultCompressionLevel = 5

	// maxNameLen bounds a single group or leaf name.
	maxNameLen = 1 << 16

	// arrayHeaderSize is the fixed prefix of an array payload:
	// 1 byte dtype + 8 bytes element count.
	arrayHeaderSize = 9
)
