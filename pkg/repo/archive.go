package repo

import (
	"archive/tar"
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/odvcencio/gitelle/pkg/object"
	"go.uber.org/zap"
)

// Archive writes the tree of rev as a zstd-compressed tar stream to w. File
// entries carry the commit timestamp and the permissions of their mode. An
// empty rev means HEAD.
func (r *Repo) Archive(w io.Writer, rev string) error {
	if rev == "" {
		rev = "HEAD"
	}
	h, err := r.ResolveCommit(rev)
	if err != nil {
		return fmt.Errorf("archive: %w", err)
	}
	c, err := r.Store.ReadCommit(h)
	if err != nil {
		return fmt.Errorf("archive: %w", err)
	}

	enc, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("archive: zstd: %w", err)
	}
	if err := r.writeTar(enc, c); err != nil {
		enc.Close()
		return fmt.Errorf("archive: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("archive: zstd: %w", err)
	}
	return nil
}

func (r *Repo) writeTar(w io.Writer, c *object.Commit) error {
	tw := tar.NewWriter(w)
	mtime := time.Unix(c.Timestamp, 0).UTC()
	n := 0
	for f, err := range object.WalkTree(r.Store, c.TreeHash) {
		if err != nil {
			return err
		}
		b, err := r.Store.ReadBlob(f.Hash)
		if err != nil {
			return fmt.Errorf("read %q: %w", f.Path, err)
		}
		hdr := &tar.Header{
			Typeflag: tar.TypeReg,
			Name:     f.Path,
			Mode:     0o644,
			Size:     int64(len(b.Data)),
			ModTime:  mtime,
			Format:   tar.FormatPAX,
		}
		if object.NormalizeFileMode(f.Mode) == object.TreeModeExecutable {
			hdr.Mode = 0o755
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return fmt.Errorf("tar header %q: %w", f.Path, err)
		}
		if _, err := tw.Write(b.Data); err != nil {
			return fmt.Errorf("tar write %q: %w", f.Path, err)
		}
		n++
	}
	if err := tw.Close(); err != nil {
		return fmt.Errorf("tar close: %w", err)
	}
	r.log.Debug("archive", zap.String("tree", string(c.TreeHash)), zap.Int("files", n))
	return nil
}
