package object

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// Blob
// ---------------------------------------------------------------------------

// MarshalBlob serializes a Blob to raw bytes (identity).
func MarshalBlob(b *Blob) []byte {
	out := make([]byte, len(b.Data))
	copy(out, b.Data)
	return out
}

// UnmarshalBlob deserializes raw bytes into a Blob.
func UnmarshalBlob(data []byte) (*Blob, error) {
	out := make([]byte, len(data))
	copy(out, data)
	return &Blob{Data: out}, nil
}

// ---------------------------------------------------------------------------
// Tree
// ---------------------------------------------------------------------------

// MarshalTree serializes a Tree. Entries are sorted by Name (byte-wise) for
// deterministic output. Each entry is NUL-terminated:
//
//	<mode> <kind> <hash> <name>\0
func MarshalTree(tr *Tree) []byte {
	sorted := make([]TreeEntry, len(tr.Entries))
	copy(sorted, tr.Entries)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})

	var buf bytes.Buffer
	for _, e := range sorted {
		fmt.Fprintf(&buf, "%s %s %s %s", entryMode(e), entryKind(e), e.Hash, e.Name)
		buf.WriteByte(0)
	}
	return buf.Bytes()
}

func entryMode(e TreeEntry) string {
	if e.Kind == KindTree {
		return TreeModeDir
	}
	if strings.TrimSpace(e.Mode) == "" {
		return TreeModeFile
	}
	return e.Mode
}

func entryKind(e TreeEntry) Kind {
	if e.Kind == "" {
		return KindBlob
	}
	return e.Kind
}

// UnmarshalTree parses a Tree from its serialized form. Anything that would
// not re-encode to the same bytes is rejected.
func UnmarshalTree(data []byte) (*Tree, error) {
	tr := &Tree{}
	rest := data
	for len(rest) > 0 {
		nul := bytes.IndexByte(rest, 0)
		if nul < 0 {
			return nil, corruptf("tree: entry %q is not NUL-terminated", rest)
		}
		line := string(rest[:nul])
		rest = rest[nul+1:]

		entry, err := parseTreeEntry(line)
		if err != nil {
			return nil, err
		}
		if n := len(tr.Entries); n > 0 && tr.Entries[n-1].Name >= entry.Name {
			return nil, corruptf("tree: entry %q out of order or duplicated", entry.Name)
		}
		tr.Entries = append(tr.Entries, entry)
	}
	return tr, nil
}

func parseTreeEntry(line string) (TreeEntry, error) {
	parts := strings.SplitN(line, " ", 4)
	if len(parts) != 4 {
		return TreeEntry{}, corruptf("tree: malformed entry %q", line)
	}
	mode, kind, hash, name := parts[0], Kind(parts[1]), parts[2], parts[3]

	switch mode {
	case TreeModeDir:
		if kind != KindTree {
			return TreeEntry{}, corruptf("tree: entry %q: mode %s with kind %s", name, mode, kind)
		}
	case TreeModeFile, TreeModeExecutable:
		if kind != KindBlob {
			return TreeEntry{}, corruptf("tree: entry %q: mode %s with kind %s", name, mode, kind)
		}
	default:
		return TreeEntry{}, corruptf("tree: entry %q: unknown mode %q", name, mode)
	}
	if !ValidHash(hash) {
		return TreeEntry{}, corruptf("tree: entry %q: bad hash %q", name, hash)
	}
	if name == "" || name == "." || name == ".." || strings.Contains(name, "/") {
		return TreeEntry{}, corruptf("tree: bad entry name %q", name)
	}
	return TreeEntry{Name: name, Mode: mode, Kind: kind, Hash: Hash(hash)}, nil
}

// ---------------------------------------------------------------------------
// Commit
// ---------------------------------------------------------------------------

// MarshalCommit serializes a Commit:
//
//	tree H
//	parent H     (optional)
//	author A
//	timestamp T
//	signature S  (optional)
//
//	message
func MarshalCommit(c *Commit) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "tree %s\n", c.TreeHash)
	if c.Parent != "" {
		fmt.Fprintf(&buf, "parent %s\n", c.Parent)
	}
	fmt.Fprintf(&buf, "author %s\n", c.Author)
	fmt.Fprintf(&buf, "timestamp %d\n", c.Timestamp)
	if strings.TrimSpace(c.Signature) != "" {
		fmt.Fprintf(&buf, "signature %s\n", c.Signature)
	}
	buf.WriteByte('\n')
	buf.WriteString(c.Message)
	return buf.Bytes()
}

// commitHeaderOrder fixes the position of every header key; decoding enforces
// it so a decoded commit re-encodes to the same bytes.
var commitHeaderOrder = map[string]int{
	"tree":      0,
	"parent":    1,
	"author":    2,
	"timestamp": 3,
	"signature": 4,
}

// UnmarshalCommit parses a Commit from its serialized form.
func UnmarshalCommit(data []byte) (*Commit, error) {
	idx := bytes.Index(data, []byte("\n\n"))
	if idx < 0 {
		return nil, corruptf("commit: missing header/message separator")
	}
	header := string(data[:idx])
	message := string(data[idx+2:])

	c := &Commit{Message: message}
	seen := make(map[string]bool, len(commitHeaderOrder))
	last := -1
	for _, line := range strings.Split(header, "\n") {
		key, val, ok := strings.Cut(line, " ")
		if !ok {
			return nil, corruptf("commit: malformed header line %q", line)
		}
		pos, known := commitHeaderOrder[key]
		if !known {
			return nil, corruptf("commit: unknown header key %q", key)
		}
		if seen[key] || pos < last {
			return nil, corruptf("commit: header %q repeated or out of order", key)
		}
		seen[key] = true
		last = pos

		switch key {
		case "tree":
			if !ValidHash(val) {
				return nil, corruptf("commit: bad tree hash %q", val)
			}
			c.TreeHash = Hash(val)
		case "parent":
			if !ValidHash(val) {
				return nil, corruptf("commit: bad parent hash %q", val)
			}
			c.Parent = Hash(val)
		case "author":
			c.Author = val
		case "timestamp":
			ts, err := strconv.ParseInt(val, 10, 64)
			if err != nil {
				return nil, corruptf("commit: bad timestamp %q", val)
			}
			c.Timestamp = ts
		case "signature":
			c.Signature = val
		}
	}
	for _, required := range []string{"tree", "author", "timestamp"} {
		if !seen[required] {
			return nil, corruptf("commit: missing %s header", required)
		}
	}
	return c, nil
}

// ---------------------------------------------------------------------------
// Variant-level encode/decode
// ---------------------------------------------------------------------------

// Encode returns the canonical payload for any object.
func Encode(obj Object) []byte {
	switch o := obj.(type) {
	case *Blob:
		return MarshalBlob(o)
	case *Tree:
		return MarshalTree(o)
	case *Commit:
		return MarshalCommit(o)
	}
	panic(fmt.Sprintf("object: unknown object type %T", obj))
}

// Decode parses payload as an object of the given kind.
func Decode(kind Kind, payload []byte) (Object, error) {
	switch kind {
	case KindBlob:
		return UnmarshalBlob(payload)
	case KindTree:
		return UnmarshalTree(payload)
	case KindCommit:
		return UnmarshalCommit(payload)
	}
	return nil, corruptf("unknown object kind %q", kind)
}
