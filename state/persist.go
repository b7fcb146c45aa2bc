package state

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/quillfold/statekit/internal/format"
	"github.com/quillfold/statekit/mapping"
)

// SaveOptions controls Save behavior.
type SaveOptions struct {
	// RotateN is the number of previous container generations to keep as
	// numbered siblings ("file.1" .. "file.N"). Zero keeps none.
	RotateN int

	// CompressionLevel is the DEFLATE level for payload cells. Zero selects
	// the format default (5); a negative level stores payloads verbatim.
	CompressionLevel int
}

// LoadOptions controls Load behavior. The zero value is the default mode:
// lazy, raising on I/O failure.
type LoadOptions struct {
	// Eager resolves every value immediately instead of deferring reads to
	// first access.
	Eager bool

	// Tolerant swallows I/O failures (missing or unreadable container),
	// leaving the state as loaded so far. Intended for best-effort state
	// restoration at startup.
	Tolerant bool
}

// Load binds the state to the container at filename and reads its structural
// skeleton: every group and entry name is read eagerly, with values left
// unloaded unless Eager is set. Previous contents and pending changes are
// discarded. An empty filename reuses the previously bound one.
func (s *State) Load(filename string, opts LoadOptions) error {
	if filename == "" {
		filename = s.filename
	}
	if filename == "" {
		return ErrNoFile
	}

	s.m = mapping.New()
	s.changed = make(map[string]struct{})
	s.filename = filename
	s.lazy = !opts.Eager
	s.raiseIOErr = !opts.Tolerant

	f, err := format.Open(filename)
	if err != nil {
		if s.raiseIOErr {
			return s.ioError("load", filename, err)
		}
		s.log.Debug("tried to load state but failed", "file", filename, "error", err)
		return nil
	}
	defer f.Close()

	s.log.Info("loading state", "file", filename, "lazy", s.lazy)
	return walkEntries(f.Root(), nil, func(segs []string, e *format.Entry) error {
		key := strings.Join(segs, mapping.Separator)
		if !opts.Eager {
			return s.m.Set(key, unloaded)
		}
		v, err := f.ReadValue(e)
		if err != nil {
			if s.raiseIOErr {
				return s.ioError("load", filename, err)
			}
			s.log.Debug("leaving value unloaded", "key", key, "error", err)
			return s.m.Set(key, unloaded)
		}
		return s.m.Set(key, v)
	})
}

// Save persists the state to the container at filename, rotating previous
// generations first. Unchanged on-disk entries are carried over untouched,
// tombstoned keys are purged from both the container and memory, and the
// changed set is cleared only on success.
func (s *State) Save(filename string, opts SaveOptions) error {
	if !s.NeedSaving() {
		s.log.Debug("state does not need saving")
		return nil
	}
	if err := s.doRollover(filename, opts.RotateN); err != nil {
		return s.ioError("rotate", filename, err)
	}
	s.log.Debug("saving state", "file", filename)

	level := opts.CompressionLevel
	if level < 0 {
		level = 0
	} else if level == 0 {
		level = format.DefaultCompressionLevel
	}
	w, err := format.NewWriter(filename, level)
	if err != nil {
		return s.ioError("save", filename, err)
	}

	// Existing content under the target path: entries absent from memory are
	// carried over verbatim, matching append semantics.
	var target *format.File
	if f, err := format.Open(filename); err == nil {
		target = f
		defer target.Close()
	} else if !errors.Is(err, fs.ErrNotExist) {
		w.Abort()
		return s.ioError("save", filename, err)
	}

	// Source for values that were never pulled into memory.
	lazySrc := target
	if s.lazy && s.filename != "" && s.filename != filename {
		f, err := format.Open(s.filename)
		if err != nil {
			w.Abort()
			return s.ioError("save", filename, err)
		}
		defer f.Close()
		lazySrc = f
	}

	if target != nil {
		err := walkEntries(target.Root(), nil, func(segs []string, e *format.Entry) error {
			if s.hasNode(strings.Join(segs, mapping.Separator)) {
				return nil
			}
			stored, err := target.ReadStored(e)
			if err != nil {
				return err
			}
			return w.PutStored(segs, e.Kind, e.Codec, stored, e.RawSize)
		})
		if err != nil {
			w.Abort()
			return s.ioError("save", filename, err)
		}
	}

	var tombstones []string
	err = s.m.Walk(func(key string, value any) error {
		segs := strings.Split(key, mapping.Separator)
		switch value.(type) {
		case deletedLeaf:
			tombstones = append(tombstones, key)
			return nil
		case unloadedLeaf:
			// The on-disk copy is authoritative; carry it without decoding.
			if lazySrc == nil {
				s.log.Debug("no source for unloaded value, skipping", "key", key)
				return nil
			}
			e, err := lazySrc.Lookup(segs)
			if err != nil {
				s.log.Debug("unloaded value missing from source, skipping", "key", key)
				return nil
			}
			stored, err := lazySrc.ReadStored(e)
			if err != nil {
				return err
			}
			return w.PutStored(segs, e.Kind, e.Codec, stored, e.RawSize)
		default:
			return w.PutValue(segs, value)
		}
	})
	if err != nil {
		w.Abort()
		return s.ioError("save", filename, err)
	}
	if err := w.Finish(); err != nil {
		return s.ioError("save", filename, err)
	}

	for _, key := range tombstones {
		_ = s.m.Delete(key)
	}
	s.changed = make(map[string]struct{})
	return nil
}

// doRollover shifts numbered backups up one slot and moves the current file
// to ".1". When the state is lazily bound to the very file being rotated,
// the current file is copied instead of moved so in-flight lazy reads stay
// valid.
func (s *State) doRollover(filename string, rotateN int) error {
	if rotateN <= 0 {
		return nil
	}
	for i := rotateN - 1; i >= 1; i-- {
		sfn := fmt.Sprintf("%s.%d", filename, i)
		dfn := fmt.Sprintf("%s.%d", filename, i+1)
		if !fileExists(sfn) {
			continue
		}
		if err := os.Remove(dfn); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		if err := os.Rename(sfn, dfn); err != nil {
			return err
		}
	}
	dfn := filename + ".1"
	if err := os.Remove(dfn); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if !fileExists(filename) {
		return nil
	}
	if s.lazy && s.filename == filename {
		return copyFile(filename, dfn)
	}
	return os.Rename(filename, dfn)
}

// lazyLoad reads the single value for key from the backing container and
// stores it in memory. Loading is not a fresh write, so key is removed from
// the changed set.
func (s *State) lazyLoad(key string) (any, error) {
	if s.filename == "" {
		return nil, &Error{Kind: ErrKindNotFound, Msg: fmt.Sprintf("state: key %q not found", key)}
	}
	segs, err := mapping.SplitKey(key)
	if err != nil {
		return nil, wrapMapping(err)
	}

	f, err := format.Open(s.filename)
	if err != nil {
		return nil, s.loadFailure(key, err)
	}
	defer f.Close()

	e, err := f.Lookup(segs)
	if err != nil {
		return nil, &Error{
			Kind: ErrKindNotFound,
			Msg:  fmt.Sprintf("state: key %q not found", key),
			Err:  err,
		}
	}
	if e.IsGroup() {
		if err := s.materialize(key); err != nil {
			return nil, err
		}
		return s.Sub(key), nil
	}

	v, err := f.ReadValue(e)
	if err != nil {
		return nil, s.loadFailure(key, err)
	}
	if err := s.m.Set(key, v); err != nil {
		return nil, wrapMapping(err)
	}
	delete(s.changed, key)
	return v, nil
}

// loadFailure applies the per-load error mode: propagate the I/O failure, or
// translate it to not-found in fail-soft mode.
func (s *State) loadFailure(key string, err error) error {
	if s.raiseIOErr {
		return s.ioError("load", s.filename, err)
	}
	s.log.Debug("tried to load state but failed", "file", s.filename, "error", err)
	return &Error{
		Kind: ErrKindNotFound,
		Msg:  fmt.Sprintf("state: could not load key %q from file %q", key, s.filename),
		Err:  err,
	}
}

// materialize resolves every unloaded leaf below prefix ("" for the whole
// tree) so callers see a fully loaded subtree.
func (s *State) materialize(prefix string) error {
	var pending []string
	_ = s.m.Walk(func(key string, value any) error {
		if _, ok := value.(unloadedLeaf); !ok {
			return nil
		}
		if prefix != "" && key != prefix && !strings.HasPrefix(key, prefix+mapping.Separator) {
			return nil
		}
		pending = append(pending, key)
		return nil
	})
	if len(pending) == 0 {
		return nil
	}

	f, err := format.Open(s.filename)
	if err != nil {
		if s.raiseIOErr {
			return s.ioError("load", s.filename, err)
		}
		s.log.Debug("tried to load state but failed", "file", s.filename, "error", err)
		return nil
	}
	defer f.Close()

	for _, key := range pending {
		segs := strings.Split(key, mapping.Separator)
		e, err := f.Lookup(segs)
		if err != nil {
			s.log.Debug("unloaded value missing from container", "key", key)
			continue
		}
		v, err := f.ReadValue(e)
		if err != nil {
			if s.raiseIOErr {
				return s.ioError("load", s.filename, err)
			}
			s.log.Debug("could not materialize value", "key", key, "error", err)
			continue
		}
		if err := s.m.Set(key, v); err != nil {
			return wrapMapping(err)
		}
		delete(s.changed, key)
	}
	return nil
}

// hasNode reports whether key resolves to any leaf in memory, including
// markers.
func (s *State) hasNode(key string) bool {
	v, err := s.m.Get(key)
	if err != nil {
		return false
	}
	_, isSection := v.(*mapping.Section)
	return !isSection
}

func (s *State) ioError(op, filename string, err error) error {
	return &Error{
		Kind: ErrKindIO,
		Msg:  fmt.Sprintf("state: cannot %s state file %q", op, filename),
		Err:  err,
	}
}

func walkEntries(e *format.Entry, prefix []string, fn func([]string, *format.Entry) error) error {
	for _, c := range e.Children() {
		segs := append(prefix[:len(prefix):len(prefix)], c.Name)
		if c.IsGroup() {
			if err := walkEntries(c, segs, fn); err != nil {
				return err
			}
			continue
		}
		if err := fn(segs, c); err != nil {
			return err
		}
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
