// Package fsio copies files between the host and a volume, verifying every
// copy with a BLAKE3 digest.
package fsio

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/desertwitch/nachosfs/internal/directory"
	"github.com/desertwitch/nachosfs/internal/openfile"
	"github.com/zeebo/blake3"
)

const tmpSuffix = ".nachosfs"

type fsProvider interface {
	Create(path string, size int, kind directory.Kind) error
	Open(path string) (*openfile.Handle, error)
	Remove(path string) error
}

type osProvider interface {
	Open(name string) (*os.File, error)
	OpenFile(name string, flag int, perm os.FileMode) (*os.File, error)
	Remove(name string) error
	Rename(oldpath, newpath string) error
	Stat(name string) (os.FileInfo, error)
}

type Handler struct {
	FSHandler fsProvider
	OSHandler osProvider
}

func NewHandler(fsHandler fsProvider, osHandler osProvider) *Handler {
	return &Handler{
		FSHandler: fsHandler,
		OSHandler: osHandler,
	}
}

//nolint:containedctx
type contextReader struct {
	ctx    context.Context
	reader io.Reader
}

func (cr *contextReader) Read(p []byte) (int, error) {
	select {
	case <-cr.ctx.Done():
		return 0, context.Canceled
	default:
		return cr.reader.Read(p)
	}
}

// CopyIn creates fsPath with the size of the host file at hostPath and
// copies the content over. The copy is read back from the volume and its
// digest compared against the source; on any failure fsPath is removed.
func (h *Handler) CopyIn(ctx context.Context, hostPath string, fsPath string) (int64, error) {
	var transferComplete bool

	info, err := h.OSHandler.Stat(hostPath)
	if err != nil {
		return 0, fmt.Errorf("(fsio-copyin) failed to stat src: %w", err)
	}

	if !info.Mode().IsRegular() {
		return 0, fmt.Errorf("(fsio-copyin) %w: %s", ErrNotRegular, hostPath)
	}

	srcFile, err := h.OSHandler.Open(hostPath)
	if err != nil {
		return 0, fmt.Errorf("(fsio-copyin) failed to open src: %w", err)
	}
	defer srcFile.Close()

	if err := h.FSHandler.Create(fsPath, int(info.Size()), directory.KindFile); err != nil {
		return 0, fmt.Errorf("(fsio-copyin) failed to create dst: %w", err)
	}
	defer func() {
		if !transferComplete {
			if err := h.FSHandler.Remove(fsPath); err != nil {
				slog.Warn("Failed to remove incomplete copy", "path", fsPath, "err", err)
			}
		}
	}()

	dstFile, err := h.FSHandler.Open(fsPath)
	if err != nil {
		return 0, fmt.Errorf("(fsio-copyin) failed to open dst: %w", err)
	}

	srcHasher := blake3.New()
	ctxReader := &contextReader{
		ctx:    ctx,
		reader: io.TeeReader(srcFile, srcHasher),
	}

	n, err := io.Copy(dstFile, ctxReader)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return n, fmt.Errorf("(fsio-copyin) canceled: %w", err)
		}

		return n, fmt.Errorf("(fsio-copyin) failed to copy: %w", err)
	}

	dstHasher := blake3.New()
	if _, err := io.Copy(dstHasher, &contextReader{ctx: ctx, reader: io.NewSectionReader(dstFile, 0, dstFile.Length())}); err != nil {
		return n, fmt.Errorf("(fsio-copyin) failed to read back dst: %w", err)
	}

	if err := compareDigests(srcHasher, dstHasher); err != nil {
		return n, fmt.Errorf("(fsio-copyin) %w", err)
	}

	transferComplete = true

	slog.Debug("Copied file into volume", "src", hostPath, "dst", fsPath, "size", n)

	return n, nil
}

// CopyOut copies fsPath to a temporary file next to hostPath, compares the
// digest of the written file against the volume and renames it into place.
// An existing hostPath is never overwritten.
func (h *Handler) CopyOut(ctx context.Context, fsPath string, hostPath string) (int64, error) {
	var transferComplete bool

	srcFile, err := h.FSHandler.Open(fsPath)
	if err != nil {
		return 0, fmt.Errorf("(fsio-copyout) failed to open src: %w", err)
	}

	tmpPath := hostPath + tmpSuffix
	defer func() {
		if !transferComplete {
			h.OSHandler.Remove(tmpPath) //nolint:errcheck
		}
	}()

	dstFile, err := h.OSHandler.OpenFile(tmpPath, os.O_CREATE|os.O_RDWR|os.O_EXCL, 0o644) //nolint:mnd
	if err != nil {
		return 0, fmt.Errorf("(fsio-copyout) failed to open dst: %w", err)
	}
	defer dstFile.Close()

	srcHasher := blake3.New()
	ctxReader := &contextReader{
		ctx:    ctx,
		reader: io.TeeReader(io.NewSectionReader(srcFile, 0, srcFile.Length()), srcHasher),
	}

	n, err := io.Copy(dstFile, ctxReader)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return n, fmt.Errorf("(fsio-copyout) canceled: %w", err)
		}

		return n, fmt.Errorf("(fsio-copyout) failed to copy: %w", err)
	}

	if err := dstFile.Sync(); err != nil {
		return n, fmt.Errorf("(fsio-copyout) failed to sync dst: %w", err)
	}

	dstHasher := blake3.New()
	if _, err := io.Copy(dstHasher, io.NewSectionReader(dstFile, 0, n)); err != nil {
		return n, fmt.Errorf("(fsio-copyout) failed to read back dst: %w", err)
	}

	if err := compareDigests(srcHasher, dstHasher); err != nil {
		return n, fmt.Errorf("(fsio-copyout) %w", err)
	}

	if _, err := h.OSHandler.Stat(hostPath); err == nil {
		return n, fmt.Errorf("(fsio-copyout) %w", ErrRenameExists)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return n, fmt.Errorf("(fsio-copyout) failed to stat (pre rename existence): %w", err)
	}

	if err := h.OSHandler.Rename(tmpPath, hostPath); err != nil {
		return n, fmt.Errorf("(fsio-copyout) failed to rename tmp file to dst file: %w", err)
	}

	transferComplete = true

	slog.Debug("Copied file out of volume", "src", fsPath, "dst", hostPath, "size", n)

	return n, nil
}

func compareDigests(src, dst *blake3.Hasher) error {
	srcChecksum := hex.EncodeToString(src.Sum(nil))
	dstChecksum := hex.EncodeToString(dst.Sum(nil))

	if srcChecksum != dstChecksum {
		return fmt.Errorf("%w: %s (src) != %s (dst)", ErrHashMismatch, srcChecksum, dstChecksum)
	}

	return nil
}
