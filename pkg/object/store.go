package object

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/afero"
)

// Store is a content-addressed object store with a 2-character fan-out
// directory layout: objects/ab/cdef0123...
type Store struct {
	fs   afero.Fs
	root string
}

// NewStore creates a Store rooted at the given directory on the OS
// filesystem. The objects/ subdirectory is created lazily on first write.
func NewStore(root string) *Store {
	return NewStoreFS(afero.NewOsFs(), root)
}

// NewStoreFS creates a Store rooted at root on an arbitrary filesystem.
func NewStoreFS(fs afero.Fs, root string) *Store {
	return &Store{fs: fs, root: root}
}

// objectPath returns the filesystem path for a given hash.
func (s *Store) objectPath(h Hash) string {
	return filepath.Join(s.root, "objects", string(h[:2]), string(h[2:]))
}

// Has reports whether the store contains an object with the given hash.
func (s *Store) Has(h Hash) bool {
	if !ValidHash(string(h)) {
		return false
	}
	_, err := s.fs.Stat(s.objectPath(h))
	return err == nil
}

// Write stores an object and returns its content hash. The on-disk format
// is "kind len\0content". Writes are atomic: data is written to a temp
// file and then renamed into place.
func (s *Store) Write(kind Kind, data []byte) (Hash, error) {
	if !ValidKind(kind) {
		return "", fmt.Errorf("object write: unknown kind %q", kind)
	}
	h := HashObject(kind, data)

	// Fast path: already exists.
	if s.Has(h) {
		return h, nil
	}

	raw := append(envelopeHeader(kind, len(data)), data...)

	dir := filepath.Join(s.root, "objects", string(h[:2]))
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("object write mkdir: %w: %w", ErrIOFailure, err)
	}

	// Atomic write via temp + rename.
	tmp, err := afero.TempFile(s.fs, dir, ".tmp-*")
	if err != nil {
		return "", fmt.Errorf("object write tmpfile: %w: %w", ErrIOFailure, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		s.fs.Remove(tmpName)
		return "", fmt.Errorf("object write: %w: %w", ErrIOFailure, err)
	}
	if err := tmp.Close(); err != nil {
		s.fs.Remove(tmpName)
		return "", fmt.Errorf("object write close: %w: %w", ErrIOFailure, err)
	}

	if err := s.fs.Rename(tmpName, s.objectPath(h)); err != nil {
		s.fs.Remove(tmpName)
		return "", fmt.Errorf("object write rename: %w: %w", ErrIOFailure, err)
	}

	return h, nil
}

// Read retrieves an object by hash, returning its kind and raw content.
//
// Read panics with *HashMismatchError if the stored bytes do not hash to h.
func (s *Store) Read(h Hash) (Kind, []byte, error) {
	if !ValidHash(string(h)) {
		return "", nil, fmt.Errorf("object read %q: %w", h, ErrObjectNotFound)
	}
	raw, err := afero.ReadFile(s.fs, s.objectPath(h))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil, fmt.Errorf("object read %s: %w", h, ErrObjectNotFound)
		}
		return "", nil, fmt.Errorf("object read %s: %w: %w", h, ErrIOFailure, err)
	}

	// Parse envelope: "kind len\0content"
	nulIdx := bytes.IndexByte(raw, 0)
	if nulIdx < 0 {
		return "", nil, fmt.Errorf("object read %s: %w", h, corruptf("invalid format (no NUL)"))
	}
	header := string(raw[:nulIdx])
	content := raw[nulIdx+1:]

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 {
		return "", nil, fmt.Errorf("object read %s: %w", h, corruptf("invalid header %q", header))
	}
	kind := Kind(parts[0])
	if !ValidKind(kind) {
		return "", nil, fmt.Errorf("object read %s: %w", h, corruptf("unknown kind %q", kind))
	}
	length, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", nil, fmt.Errorf("object read %s: %w", h, corruptf("invalid length %q", parts[1]))
	}
	if len(content) != length {
		return "", nil, fmt.Errorf("object read %s: %w", h, corruptf("length mismatch (header=%d, actual=%d)", length, len(content)))
	}

	if got := HashObject(kind, content); got != h {
		panic(&HashMismatchError{Want: h, Got: got})
	}

	return kind, content, nil
}

// ResolvePrefix expands an abbreviated hash to the single stored object it
// identifies. Full hashes are returned as-is when present.
func (s *Store) ResolvePrefix(prefix string) (Hash, error) {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if len(prefix) < 4 || len(prefix) > 64 || !isLowerHex(prefix) {
		return "", fmt.Errorf("resolve %q: %w", prefix, ErrObjectNotFound)
	}
	if len(prefix) == 64 {
		if s.Has(Hash(prefix)) {
			return Hash(prefix), nil
		}
		return "", fmt.Errorf("resolve %q: %w", prefix, ErrObjectNotFound)
	}

	dir := filepath.Join(s.root, "objects", prefix[:2])
	infos, err := afero.ReadDir(s.fs, dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("resolve %q: %w", prefix, ErrObjectNotFound)
		}
		return "", fmt.Errorf("resolve %q: %w: %w", prefix, ErrIOFailure, err)
	}

	var matches []Hash
	for _, info := range infos {
		full := prefix[:2] + info.Name()
		if info.IsDir() || !ValidHash(full) {
			continue
		}
		if strings.HasPrefix(full, prefix) {
			matches = append(matches, Hash(full))
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("resolve %q: %w", prefix, ErrObjectNotFound)
	case 1:
		return matches[0], nil
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i] < matches[j] })
	return "", fmt.Errorf("resolve %q: %w (%d candidates)", prefix, ErrAmbiguousHash, len(matches))
}

// ---------------------------------------------------------------------------
// Typed convenience methods
// ---------------------------------------------------------------------------

// WriteObject serializes and stores any object.
func (s *Store) WriteObject(obj Object) (Hash, error) {
	return s.Write(obj.Kind(), Encode(obj))
}

// ReadObject reads and decodes any object.
func (s *Store) ReadObject(h Hash) (Object, error) {
	kind, data, err := s.Read(h)
	if err != nil {
		return nil, err
	}
	obj, err := Decode(kind, data)
	if err != nil {
		return nil, fmt.Errorf("object %s: %w", h, err)
	}
	return obj, nil
}

func (s *Store) readKind(h Hash, want Kind) ([]byte, error) {
	kind, data, err := s.Read(h)
	if err != nil {
		return nil, err
	}
	if kind != want {
		return nil, &TypeMismatchError{Hash: h, Got: kind, Want: want}
	}
	return data, nil
}

// WriteBlob serializes and stores a Blob.
func (s *Store) WriteBlob(b *Blob) (Hash, error) {
	return s.Write(KindBlob, MarshalBlob(b))
}

// ReadBlob reads and deserializes a Blob.
func (s *Store) ReadBlob(h Hash) (*Blob, error) {
	data, err := s.readKind(h, KindBlob)
	if err != nil {
		return nil, err
	}
	return UnmarshalBlob(data)
}

// WriteTree serializes and stores a Tree.
func (s *Store) WriteTree(tr *Tree) (Hash, error) {
	return s.Write(KindTree, MarshalTree(tr))
}

// ReadTree reads and deserializes a Tree.
func (s *Store) ReadTree(h Hash) (*Tree, error) {
	data, err := s.readKind(h, KindTree)
	if err != nil {
		return nil, err
	}
	tr, err := UnmarshalTree(data)
	if err != nil {
		return nil, fmt.Errorf("object %s: %w", h, err)
	}
	return tr, nil
}

// WriteCommit serializes and stores a Commit.
func (s *Store) WriteCommit(c *Commit) (Hash, error) {
	return s.Write(KindCommit, MarshalCommit(c))
}

// ReadCommit reads and deserializes a Commit.
func (s *Store) ReadCommit(h Hash) (*Commit, error) {
	data, err := s.readKind(h, KindCommit)
	if err != nil {
		return nil, err
	}
	c, err := UnmarshalCommit(data)
	if err != nil {
		return nil, fmt.Errorf("object %s: %w", h, err)
	}
	return c, nil
}
