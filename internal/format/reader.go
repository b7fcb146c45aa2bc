package format

import (
	"fmt"
	"io"
	"os"

	"github.com/quillfold/statekit/internal/buf"
)

// File is an opened container. Only the header and index are held in memory;
// payload cells are fetched on demand with ReadValue.
type File struct {
	f    *os.File
	path string
	root *Entry

	entryCount uint64
	version    uint16
}

// Open reads the header and structural index of the container at path.
// No payload cell is touched.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	header := make([]byte, HeaderSize)
	if _, err := io.ReadFull(f, header); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: header: %v", ErrTruncated, err)
	}
	if string(header[SignatureOffset:SignatureOffset+4]) != string(Signature) {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %s", ErrSignatureMismatch, path)
	}
	version := ReadU16(header, VersionOffset)
	if version != Version {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}

	indexOff := ReadU64(header, IndexOffsetOffset)
	indexSize := ReadU64(header, IndexSizeOffset)
	entryCount := ReadU64(header, EntryCountOffset)

	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	end, ok := buf.AddOverflowSafe(int(indexOff), int(indexSize))
	if indexOff < HeaderSize || int(indexOff) < 0 || !ok || int64(end) > st.Size() {
		_ = f.Close()
		return nil, fmt.Errorf("%w: index block out of bounds", ErrTruncated)
	}

	indexBuf := make([]byte, indexSize)
	if _, err := f.ReadAt(indexBuf, int64(indexOff)); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: index: %v", ErrTruncated, err)
	}
	root, err := parseIndex(indexBuf)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	return &File{
		f:          f,
		path:       path,
		root:       root,
		entryCount: entryCount,
		version:    version,
	}, nil
}

// Path returns the path the container was opened from.
func (f *File) Path() string { return f.path }

// Root returns the root group of the structural index.
func (f *File) Root() *Entry { return f.root }

// EntryCount returns the number of leaf entries recorded in the header.
func (f *File) EntryCount() uint64 { return f.entryCount }

// Version returns the container format version.
func (f *File) Version() uint16 { return f.version }

// Lookup descends the index along segments.
func (f *File) Lookup(segments []string) (*Entry, error) {
	return f.root.Lookup(segments)
}

// ReadStored returns the payload cell of a leaf entry exactly as stored
// on disk, without decompression.
func (f *File) ReadStored(e *Entry) ([]byte, error) {
	if e.IsGroup() {
		return nil, fmt.Errorf("format: %q is a group, not a leaf", e.Name)
	}
	stored := make([]byte, e.StoredSize)
	if _, err := f.f.ReadAt(stored, int64(e.Offset)); err != nil {
		return nil, fmt.Errorf("format: read payload of %q: %w", e.Name, err)
	}
	return stored, nil
}

// ReadValue fetches, decompresses, and decodes the value of a leaf entry.
func (f *File) ReadValue(e *Entry) (any, error) {
	stored, err := f.ReadStored(e)
	if err != nil {
		return nil, err
	}
	raw, err := Decompress(stored, e.Codec, int(e.RawSize))
	if err != nil {
		return nil, err
	}
	return DecodeValue(e.Kind, raw)
}

// Close releases the underlying file handle.
func (f *File) Close() error {
	if f.f == nil {
		return nil
	}
	err := f.f.Close()
	f.f = nil
	return err
}
