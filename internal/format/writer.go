package format

import (
	"fmt"
	"os"
)

// Writer builds a new container and swaps it into place atomically on
// Finish, using the write-to-temp-and-rename pattern so a crash mid-write
// never leaves a half-written file under the target path.
type Writer struct {
	f     *os.File
	tmp   string
	path  string
	root  *Entry
	off   uint64
	level int
}

// NewWriter starts a container destined for path. Payloads are stored with
// the given DEFLATE level; level 0 disables compression, a negative level
// selects the default.
func NewWriter(path string, level int) (*Writer, error) {
	if level < 0 {
		level = DefaultCompressionLevel
	}
	if level > 9 {
		return nil, fmt.Errorf("format: compression level %d out of range", level)
	}
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	// Placeholder header, patched on Finish.
	if _, err := f.Write(make([]byte, HeaderSize)); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return nil, err
	}
	return &Writer{
		f:     f,
		tmp:   tmp,
		path:  path,
		root:  newGroup(""),
		off:   HeaderSize,
		level: level,
	}, nil
}

// Group ensures the group at segments exists, creating ancestors on demand.
// Useful for recording empty sections; PutValue creates groups implicitly.
func (w *Writer) Group(segments []string) error {
	cur := w.root
	for _, seg := range segments {
		var err error
		cur, err = cur.group(seg)
		if err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) parentGroup(segments []string) (*Entry, string, error) {
	if len(segments) == 0 {
		return nil, "", fmt.Errorf("format: empty entry path")
	}
	cur := w.root
	for _, seg := range segments[:len(segments)-1] {
		var err error
		cur, err = cur.group(seg)
		if err != nil {
			return nil, "", err
		}
	}
	return cur, segments[len(segments)-1], nil
}

// PutValue encodes value and appends it as the leaf entry at segments.
// Writing the same path twice keeps the last payload.
func (w *Writer) PutValue(segments []string, value any) error {
	kind, raw, err := EncodeValue(value)
	if err != nil {
		return err
	}
	stored, codec, err := Compress(raw, w.level)
	if err != nil {
		return err
	}
	return w.putCell(segments, kind, codec, stored, uint32(len(raw)))
}

// PutStored appends an already-encoded payload cell, preserving its kind,
// codec, and raw size. Used to carry entries between container generations
// without a decode/encode round trip.
func (w *Writer) PutStored(segments []string, kind Kind, codec Codec, stored []byte, rawSize uint32) error {
	return w.putCell(segments, kind, codec, stored, rawSize)
}

func (w *Writer) putCell(segments []string, kind Kind, codec Codec, stored []byte, rawSize uint32) error {
	for _, seg := range segments {
		if len(seg) == 0 || len(seg) >= maxNameLen {
			return fmt.Errorf("format: bad entry name %q", seg)
		}
	}
	parent, name, err := w.parentGroup(segments)
	if err != nil {
		return err
	}
	if _, err := w.f.Write(stored); err != nil {
		return err
	}
	parent.add(&Entry{
		Name:       name,
		Kind:       kind,
		Codec:      codec,
		Offset:     w.off,
		StoredSize: uint32(len(stored)),
		RawSize:    rawSize,
	})
	w.off += uint64(len(stored))
	return nil
}

// Finish writes the index block, patches the header, syncs, and renames the
// temp file over the target path. The Writer is unusable afterwards.
func (w *Writer) Finish() error {
	index := encodeIndex(w.root)
	if _, err := w.f.Write(index); err != nil {
		w.discard()
		return err
	}

	header := make([]byte, HeaderSize)
	copy(header[SignatureOffset:], Signature)
	PutU16(header, VersionOffset, Version)
	PutU64(header, IndexOffsetOffset, w.off)
	PutU64(header, IndexSizeOffset, uint64(len(index)))
	PutU64(header, EntryCountOffset, w.root.leafCount())
	if _, err := w.f.WriteAt(header, 0); err != nil {
		w.discard()
		return err
	}

	if err := w.f.Sync(); err != nil {
		w.discard()
		return err
	}
	if err := w.f.Close(); err != nil {
		_ = os.Remove(w.tmp)
		w.f = nil
		return err
	}
	w.f = nil
	return os.Rename(w.tmp, w.path)
}

// Abort discards the partially written container.
func (w *Writer) Abort() {
	w.discard()
}

func (w *Writer) discard() {
	if w.f != nil {
		_ = w.f.Close()
		w.f = nil
	}
	_ = os.Remove(w.tmp)
}
