package organizer

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"syscall"

	"github.com/joseph-ayodele/pdf-agent/internal/common"
)

// DefaultMaxCollisions bounds the suffix counter.
const DefaultMaxCollisions = 10000

// Committer moves a source file to its organized path without ever replacing
// an existing file.
type Committer struct {
	logger        *slog.Logger
	maxCollisions int
	link          func(oldname, newname string) error
}

// CommitterOption customizes a Committer.
type CommitterOption func(*Committer)

// WithLinkFunc replaces os.Link. Tests use it to simulate cross-device moves.
func WithLinkFunc(link func(oldname, newname string) error) CommitterOption {
	return func(c *Committer) { c.link = link }
}

func WithMaxCollisions(n int) CommitterOption {
	return func(c *Committer) {
		if n > 0 {
			c.maxCollisions = n
		}
	}
}

func NewCommitter(logger *slog.Logger, opts ...CommitterOption) *Committer {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Committer{logger: logger, maxCollisions: DefaultMaxCollisions, link: os.Link}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Commit moves src into dest.Dir under the first free candidate name and
// returns the final path. On failure the source is left untouched and any
// partially created destination is removed.
func (c *Committer) Commit(src string, dest OrganizedPath) (string, error) {
	if err := os.MkdirAll(dest.Dir, 0o755); err != nil {
		return "", common.MoveError("create destination folder", err)
	}

	final, err := c.place(src, dest)
	switch {
	case err == nil:
		if rerr := os.Remove(src); rerr != nil {
			c.rollback(final)
			return "", common.MoveError("remove source after link", rerr)
		}
		c.logger.Debug("organizer.commit.linked", "src", src, "dst", final)
		return final, nil
	case linkUnsupported(err):
		c.logger.Debug("organizer.commit.copy_fallback", "src", src, "dir", dest.Dir, "reason", err)
		return c.copyCommit(src, dest)
	default:
		return "", common.MoveError(fmt.Sprintf("link %s into %s", filepath.Base(src), dest.Dir), err)
	}
}

// place hard-links from under the first candidate name that is still free.
func (c *Committer) place(from string, dest OrganizedPath) (string, error) {
	for n := 0; n <= c.maxCollisions; n++ {
		cand := filepath.Join(dest.Dir, dest.Candidate(n))
		if samePath(from, cand) {
			continue
		}
		err := c.link(from, cand)
		if err == nil {
			return cand, nil
		}
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		return "", err
	}
	return "", fmt.Errorf("no free name for %s after %d candidates", dest.Filename, c.maxCollisions+1)
}

// reserve claims the first free candidate with O_EXCL and renames tmp over
// the reservation. Used where hard links are unavailable.
func (c *Committer) reserve(tmp string, dest OrganizedPath) (string, error) {
	for n := 0; n <= c.maxCollisions; n++ {
		cand := filepath.Join(dest.Dir, dest.Candidate(n))
		f, err := os.OpenFile(cand, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", err
		}
		_ = f.Close()
		if err := os.Rename(tmp, cand); err != nil {
			_ = os.Remove(cand)
			return "", err
		}
		return cand, nil
	}
	return "", fmt.Errorf("no free name for %s after %d candidates", dest.Filename, c.maxCollisions+1)
}

func (c *Committer) copyCommit(src string, dest OrganizedPath) (string, error) {
	tmp, err := copyToTemp(src, dest.Dir)
	if err != nil {
		return "", common.MoveError("copy into destination folder", err)
	}
	defer func() { _ = os.Remove(tmp) }()

	final, err := c.place(tmp, dest)
	if err != nil && linkUnsupported(err) {
		final, err = c.reserve(tmp, dest)
	}
	if err != nil {
		return "", common.MoveError(fmt.Sprintf("place copy of %s into %s", filepath.Base(src), dest.Dir), err)
	}
	if err := os.Remove(src); err != nil {
		c.rollback(final)
		return "", common.MoveError("remove source after copy", err)
	}
	c.logger.Debug("organizer.commit.copied", "src", src, "dst", final)
	return final, nil
}

func (c *Committer) rollback(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		c.logger.Error("organizer.commit.rollback_failed", "path", path, "error", err)
	}
}

func copyToTemp(src, dir string) (string, error) {
	in, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer in.Close()

	out, err := os.CreateTemp(dir, ".pdf-agent-*.tmp")
	if err != nil {
		return "", err
	}
	tmp := out.Name()
	fail := func(err error) (string, error) {
		_ = out.Close()
		_ = os.Remove(tmp)
		return "", err
	}
	if _, err := io.Copy(out, in); err != nil {
		return fail(err)
	}
	if err := out.Sync(); err != nil {
		return fail(err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(tmp)
		return "", err
	}
	return tmp, nil
}

// linkUnsupported reports errors after which copying is the way forward:
// different filesystems, or a filesystem without hard links.
func linkUnsupported(err error) bool {
	return errors.Is(err, syscall.EXDEV) ||
		errors.Is(err, syscall.EPERM) ||
		errors.Is(err, syscall.ENOTSUP) ||
		errors.Is(err, syscall.EOPNOTSUPP) ||
		errors.Is(err, syscall.EMLINK)
}

func samePath(a, b string) bool {
	aa, err1 := filepath.Abs(a)
	bb, err2 := filepath.Abs(b)
	return err1 == nil && err2 == nil && aa == bb
}
