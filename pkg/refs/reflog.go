package refs

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/odvcencio/gitelle/pkg/object"
	"github.com/spf13/afero"
)

// ZeroHash stands in for "no commit" in reflog records.
const ZeroHash = object.Hash("0000000000000000000000000000000000000000000000000000000000000000")

// ReflogEntry is one recorded change of a ref.
type ReflogEntry struct {
	Ref       string
	OldHash   object.Hash
	NewHash   object.Hash
	Timestamp int64
	Reason    string
}

// now is replaced in tests.
var now = time.Now

func (s *Store) appendReflog(ref string, oldHash, newHash object.Hash, reason string) error {
	if oldHash == "" {
		oldHash = ZeroHash
	}
	if newHash == "" {
		newHash = ZeroHash
	}
	reason = strings.ReplaceAll(strings.TrimSpace(reason), "\n", " ")
	if reason == "" {
		reason = "update"
	}

	logPath := filepath.Join(s.dir, "logs", filepath.FromSlash(ref))
	if err := s.fs.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return fmt.Errorf("reflog mkdir: %w: %w", object.ErrIOFailure, err)
	}
	f, err := s.fs.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("reflog open: %w: %w", object.ErrIOFailure, err)
	}
	defer f.Close()

	line := fmt.Sprintf("%s %s %d %s\n", oldHash, newHash, now().Unix(), reason)
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("reflog write: %w: %w", object.ErrIOFailure, err)
	}
	return nil
}

// Reflog returns up to limit entries for ref, newest first. ref may be "" or
// "HEAD", a branch name, or a full "refs/..." name. A limit of zero or less
// returns every entry.
func (s *Store) Reflog(ref string, limit int) ([]ReflogEntry, error) {
	name := reflogName(ref)
	data, err := afero.ReadFile(s.fs, filepath.Join(s.dir, "logs", filepath.FromSlash(name)))
	if err != nil {
		if isNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read reflog: %w: %w", object.ErrIOFailure, err)
	}

	var entries []ReflogEntry
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		parts := strings.SplitN(strings.TrimSpace(sc.Text()), " ", 4)
		if len(parts) < 4 {
			continue
		}
		ts, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil {
			continue
		}
		entries = append(entries, ReflogEntry{
			Ref:       name,
			OldHash:   object.Hash(parts[0]),
			NewHash:   object.Hash(parts[1]),
			Timestamp: ts,
			Reason:    parts[3],
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read reflog: %w", err)
	}

	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func reflogName(ref string) string {
	ref = strings.TrimSpace(ref)
	switch {
	case ref == "" || ref == headFile:
		return headFile
	case strings.HasPrefix(ref, "refs/"):
		return ref
	}
	return branchPath(ref)
}
