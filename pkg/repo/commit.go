package repo

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/odvcencio/gitelle/pkg/object"
	"github.com/odvcencio/gitelle/pkg/refs"
	"go.uber.org/zap"
)

// CommitSigner signs canonical commit payload bytes and returns an encoded
// signature string to be persisted in Commit.Signature.
type CommitSigner func(payload []byte) (string, error)

// commitTime is replaced in tests.
var commitTime = time.Now

// Commit creates a new commit from the index.
//
//  1. Read the index
//  2. BuildTree from the index
//  3. Resolve HEAD to get the parent commit (if any)
//  4. Refuse when the tree is unchanged
//  5. Write the commit
//  6. Advance the current branch, or HEAD itself when detached
func (r *Repo) Commit(message, author string) (object.Hash, error) {
	return r.CommitWithSigner(message, author, nil)
}

// CommitWithSigner creates a new commit and signs it when signer is provided.
func (r *Repo) CommitWithSigner(message, author string, signer CommitSigner) (object.Hash, error) {
	if strings.TrimSpace(message) == "" {
		return "", fmt.Errorf("commit: %w", ErrEmptyMessage)
	}
	author, err := r.resolveAuthor(author)
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}

	// 1. Read the index.
	idx, err := r.ReadIndex()
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}

	// 2. Build tree from the index.
	treeHash, err := object.BuildTree(r.Store, idx.TreeFiles())
	if err != nil {
		return "", fmt.Errorf("commit: build tree: %w", err)
	}

	// 3. Resolve HEAD to get the parent; none before the first commit.
	parentHash, parent, err := r.headCommit()
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}

	// 4. Nothing changed since HEAD.
	if parent == nil && idx.Len() == 0 {
		return "", fmt.Errorf("commit: %w", ErrNothingToCommit)
	}
	if parent != nil && parent.TreeHash == treeHash {
		return "", fmt.Errorf("commit: %w", ErrNothingToCommit)
	}

	c := &object.Commit{
		TreeHash:  treeHash,
		Parent:    parentHash,
		Author:    author,
		Timestamp: commitTime().Unix(),
		Message:   message,
	}
	if signer != nil {
		signature, err := signer(object.CommitSigningPayload(c))
		if err != nil {
			return "", fmt.Errorf("commit: sign commit: %w", err)
		}
		c.Signature = signature
	}

	// 5. Write the commit.
	commitHash, err := r.Store.WriteCommit(c)
	if err != nil {
		return "", fmt.Errorf("commit: write commit: %w", err)
	}

	// 6. Advance the ref.
	head, err := r.Refs.Head()
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	reason := "commit: " + subject(message)
	if parent == nil {
		reason = "commit (initial): " + subject(message)
	}
	if head.Symbolic {
		if err := r.Refs.UpdateBranch(head.Target, commitHash, reason); err != nil {
			return "", fmt.Errorf("commit: %w", err)
		}
	} else if err := r.Refs.SetHead(refs.Direct(commitHash), reason); err != nil {
		return "", fmt.Errorf("commit: update detached HEAD: %w", err)
	}

	r.log.Debug("commit",
		zap.String("hash", string(commitHash)),
		zap.String("tree", string(treeHash)),
		zap.String("parent", string(parentHash)),
	)
	return commitHash, nil
}

// resolveAuthor falls back to the configured user, then $USER, then
// "unknown".
func (r *Repo) resolveAuthor(author string) (string, error) {
	author = strings.TrimSpace(author)
	if strings.ContainsAny(author, "\r\n") {
		return "", fmt.Errorf("%w: %q", ErrInvalidAuthor, author)
	}
	if author != "" {
		return author, nil
	}
	cfg, err := r.ReadConfig()
	if err != nil {
		return "", err
	}
	if id := cfg.User.Identity(); id != "" {
		return id, nil
	}
	if u := strings.TrimSpace(os.Getenv("USER")); u != "" && !strings.ContainsAny(u, "\r\n") {
		return u, nil
	}
	return "unknown", nil
}

// subject returns the first line of a commit message.
func subject(message string) string {
	first, _, _ := strings.Cut(strings.TrimSpace(message), "\n")
	return strings.TrimSpace(first)
}

// LogEntry is one commit in a history listing.
type LogEntry struct {
	Hash   object.Hash
	Commit *object.Commit
}

// Subject returns the first line of the commit message.
func (e LogEntry) Subject() string { return subject(e.Commit.Message) }

// Log walks the commit history starting from start, following parent links,
// returning up to limit commits newest first. An empty start means HEAD; a
// limit of zero or less means no limit.
func (r *Repo) Log(start object.Hash, limit int) ([]LogEntry, error) {
	if start == "" {
		h, _, err := r.headCommit()
		if err != nil {
			return nil, fmt.Errorf("log: %w", err)
		}
		if h == "" {
			return nil, nil
		}
		start = h
	}

	var entries []LogEntry
	current := start
	for current != "" && (limit <= 0 || len(entries) < limit) {
		c, err := r.Store.ReadCommit(current)
		if err != nil {
			if errors.Is(err, object.ErrObjectNotFound) && len(entries) > 0 {
				break
			}
			return nil, fmt.Errorf("log: read commit %s: %w", current.Short(), err)
		}
		entries = append(entries, LogEntry{Hash: current, Commit: c})
		current = c.Parent
	}
	return entries, nil
}
