package object

// Hash is a 64-character hex-encoded SHA-256 digest.
type Hash string

// Kind identifies the kind of object stored.
type Kind string

const (
	KindBlob   Kind = "blob"
	KindTree   Kind = "tree"
	KindCommit Kind = "commit"
)

const (
	// Tree mode constants compatible with Git's canonical mode strings.
	TreeModeDir        = "40000"
	TreeModeFile       = "100644"
	TreeModeExecutable = "100755"
)

// Object is one of *Blob, *Tree or *Commit. The set is closed: only types in
// this package implement it, so a type switch over Object is exhaustive.
type Object interface {
	Kind() Kind
	isObject()
}

// Blob holds raw file data.
type Blob struct {
	Data []byte
}

func (*Blob) Kind() Kind { return KindBlob }
func (*Blob) isObject()  {}

// TreeEntry is one entry in a tree object. Kind is KindBlob for files and
// KindTree for subdirectories.
type TreeEntry struct {
	Name string
	Mode string
	Kind Kind
	Hash Hash
}

// IsDir reports whether the entry names a subtree.
func (e TreeEntry) IsDir() bool {
	return e.Kind == KindTree
}

// Tree holds a sorted list of tree entries.
type Tree struct {
	Entries []TreeEntry // sorted by Name
}

func (*Tree) Kind() Kind { return KindTree }
func (*Tree) isObject()  {}

// Commit points to a tree with lineage and metadata. Parent is empty for a
// root commit.
type Commit struct {
	TreeHash  Hash
	Parent    Hash
	Author    string
	Timestamp int64
	Signature string
	Message   string
}

func (*Commit) Kind() Kind { return KindCommit }
func (*Commit) isObject()  {}

// ValidKind reports whether k is one of the three object kinds.
func ValidKind(k Kind) bool {
	switch k {
	case KindBlob, KindTree, KindCommit:
		return true
	}
	return false
}
