package object

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
)

func TestHashObjectEnvelope(t *testing.T) {
	data := []byte("hello")
	h1 := HashObject(KindBlob, data)
	if len(h1) != 64 {
		t.Errorf("Hash length: got %d, want 64", len(h1))
	}

	// Same kind+data => same hash
	if h2 := HashObject(KindBlob, data); h1 != h2 {
		t.Error("HashObject not deterministic")
	}

	// Different kind => different hash
	if h3 := HashObject(KindCommit, data); h1 == h3 {
		t.Error("Different kinds should produce different hashes")
	}
}

func TestHashObjectKnownVector(t *testing.T) {
	// sha256("blob 5\x00hello")
	const want = Hash("8aec4e4876f854f688d0ebfc8f37598f38e5fd6903cccc850ca36591175aeb60")
	if got := HashObject(KindBlob, []byte("hello")); got != want {
		t.Errorf("HashObject(blob, hello) = %s, want %s", got, want)
	}
	// sha256("tree 0\x00")
	if EmptyTreeHash != Hash("6ef19b41225c5369f1c104d45d8d85efa9b057b53b14b4b9b939dd74decc5321") {
		t.Errorf("EmptyTreeHash = %s", EmptyTreeHash)
	}
}

func tempStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	return NewStore(dir)
}

func memStore(t *testing.T) (*Store, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	return NewStoreFS(fs, "/repo/.gitelle"), fs
}

func TestStoreWriteRead(t *testing.T) {
	s := tempStore(t)
	data := []byte("hello world")
	h, err := s.Write(KindBlob, data)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if len(h) != 64 {
		t.Errorf("Hash length: got %d, want 64", len(h))
	}

	gotKind, gotData, err := s.Read(h)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if gotKind != KindBlob {
		t.Errorf("Kind: got %q, want %q", gotKind, KindBlob)
	}
	if !bytes.Equal(gotData, data) {
		t.Errorf("Data: got %q, want %q", gotData, data)
	}
}

func TestStoreWriteIdempotent(t *testing.T) {
	s, _ := memStore(t)
	payloads := [][]byte{nil, []byte(""), []byte("a"), []byte("line\nline\x00binary")}
	for _, p := range payloads {
		h1, err := s.Write(KindBlob, p)
		if err != nil {
			t.Fatalf("Write(%q): %v", p, err)
		}
		h2, err := s.Write(KindBlob, p)
		if err != nil {
			t.Fatalf("second Write(%q): %v", p, err)
		}
		if h1 != h2 {
			t.Errorf("Write(%q) twice: %s != %s", p, h1, h2)
		}
		_, got, err := s.Read(h1)
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		if !bytes.Equal(got, p) {
			t.Errorf("round trip: got %q, want %q", got, p)
		}
	}
}

func TestStoreOnDiskFormat(t *testing.T) {
	s, fs := memStore(t)
	h, err := s.Write(KindBlob, []byte("hello"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	path := filepath.Join("/repo/.gitelle", "objects", string(h[:2]), string(h[2:]))
	raw, err := afero.ReadFile(fs, path)
	if err != nil {
		t.Fatalf("ReadFile(%s): %v", path, err)
	}
	if want := "blob 5\x00hello"; string(raw) != want {
		t.Errorf("on-disk bytes = %q, want %q", raw, want)
	}
}

func TestStoreReadMissing(t *testing.T) {
	s, _ := memStore(t)
	_, _, err := s.Read(HashObject(KindBlob, []byte("never written")))
	if !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("Read missing: err = %v, want ErrObjectNotFound", err)
	}
	if s.Has(HashObject(KindBlob, []byte("never written"))) {
		t.Error("Has reported a missing object")
	}
}

func TestStoreReadCorruptEnvelope(t *testing.T) {
	s, fs := memStore(t)
	h := HashObject(KindBlob, []byte("x"))
	path := filepath.Join("/repo/.gitelle", "objects", string(h[:2]), string(h[2:]))
	if err := afero.WriteFile(fs, path, []byte("no nul here"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	_, _, err := s.Read(h)
	if !errors.Is(err, ErrCorruptObject) {
		t.Fatalf("Read corrupt: err = %v, want ErrCorruptObject", err)
	}
}

func TestStoreReadHashMismatchPanics(t *testing.T) {
	s, fs := memStore(t)
	h, err := s.Write(KindBlob, []byte("original"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	path := filepath.Join("/repo/.gitelle", "objects", string(h[:2]), string(h[2:]))
	if err := afero.WriteFile(fs, path, []byte("blob 8\x00tampered"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("Read of tampered object did not panic")
		}
		mismatch, ok := r.(*HashMismatchError)
		if !ok {
			t.Fatalf("panic value %T, want *HashMismatchError", r)
		}
		if mismatch.Want != h {
			t.Errorf("Want = %s, want %s", mismatch.Want, h)
		}
	}()
	s.Read(h)
}

func TestStoreTypedReadMismatch(t *testing.T) {
	s, _ := memStore(t)
	h, err := s.WriteBlob(&Blob{Data: []byte("not a tree")})
	if err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}
	_, err = s.ReadTree(h)
	var tm *TypeMismatchError
	if !errors.As(err, &tm) {
		t.Fatalf("ReadTree(blob): err = %v, want *TypeMismatchError", err)
	}
	if tm.Got != KindBlob || tm.Want != KindTree {
		t.Errorf("TypeMismatchError = %+v", tm)
	}
}

func TestStoreResolvePrefix(t *testing.T) {
	s, _ := memStore(t)
	h, err := s.WriteBlob(&Blob{Data: []byte("prefix me")})
	if err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}

	got, err := s.ResolvePrefix(string(h[:10]))
	if err != nil {
		t.Fatalf("ResolvePrefix: %v", err)
	}
	if got != h {
		t.Errorf("ResolvePrefix = %s, want %s", got, h)
	}

	got, err = s.ResolvePrefix(strings.ToUpper(string(h[:12])))
	if err != nil || got != h {
		t.Errorf("ResolvePrefix(upper) = %s, %v", got, err)
	}

	if _, err := s.ResolvePrefix("abc"); !errors.Is(err, ErrObjectNotFound) {
		t.Errorf("short prefix: err = %v, want ErrObjectNotFound", err)
	}
	if _, err := s.ResolvePrefix("zzzzzzzz"); !errors.Is(err, ErrObjectNotFound) {
		t.Errorf("non-hex prefix: err = %v, want ErrObjectNotFound", err)
	}
}

func TestStoreObjectVariant(t *testing.T) {
	s, _ := memStore(t)
	objs := []Object{
		&Blob{Data: []byte("blob data")},
		&Tree{Entries: []TreeEntry{{Name: "a", Mode: TreeModeFile, Kind: KindBlob, Hash: HashObject(KindBlob, nil)}}},
		&Commit{TreeHash: EmptyTreeHash, Author: "a", Timestamp: 1, Message: "m"},
	}
	for _, obj := range objs {
		h, err := s.WriteObject(obj)
		if err != nil {
			t.Fatalf("WriteObject(%s): %v", obj.Kind(), err)
		}
		got, err := s.ReadObject(h)
		if err != nil {
			t.Fatalf("ReadObject(%s): %v", obj.Kind(), err)
		}
		if got.Kind() != obj.Kind() {
			t.Errorf("Kind = %s, want %s", got.Kind(), obj.Kind())
		}
		if !bytes.Equal(Encode(got), Encode(obj)) {
			t.Errorf("%s: re-encoding differs", obj.Kind())
		}
	}
}
