package writer

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// AtomicFile is written under a temporary name and published on Commit, so
// readers never observe a partial result.
// A file destination is published by renaming the temp file into place; a
// stream destination (stdout) receives a copy of the spooled temp file.
type AtomicFile struct {
	path string
	dst  io.Writer // nil for file destinations
	tmp  *os.File
	done bool

	published bool // a file destination was renamed into place
}

// CreateAtomic starts a new atomic write of path
func CreateAtomic(path string) (*AtomicFile, error) {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}

	tmp, err := os.CreateTemp(dir, "."+base+".tmp-*")
	if err != nil {
		return nil, err
	}

	return &AtomicFile{path: path, tmp: tmp}, nil
}

// CreateSpool starts a write that is held in a temp file and copied to dst on Commit
func CreateSpool(dst io.Writer) (*AtomicFile, error) {
	tmp, err := os.CreateTemp("", "tabular-spool-*")
	if err != nil {
		return nil, err
	}

	return &AtomicFile{path: Stdout, dst: dst, tmp: tmp}, nil
}

func (a *AtomicFile) Write(p []byte) (int, error) {
	return a.tmp.Write(p)
}

// Commit publishes everything written so far
func (a *AtomicFile) Commit() error {
	if a.done {
		return nil
	}
	a.done = true

	if a.dst != nil {
		return a.copyOut()
	}

	if err := a.tmp.Sync(); err != nil {
		a.cleanup()
		return fmt.Errorf("failed to sync temp file for %s: %w", a.path, err)
	}
	if err := a.tmp.Close(); err != nil {
		os.Remove(a.tmp.Name())
		return fmt.Errorf("failed to close temp file for %s: %w", a.path, err)
	}

	// Atomic replace
	if err := os.Rename(a.tmp.Name(), a.path); err != nil {
		os.Remove(a.tmp.Name())
		return fmt.Errorf("failed to rename temp file to %s: %w", a.path, err)
	}
	a.published = true

	slog.Debug("output committed", slog.String("path", a.path))
	return nil
}

func (a *AtomicFile) copyOut() error {
	defer a.cleanup()

	if _, err := a.tmp.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to rewind spool file: %w", err)
	}
	n, err := io.Copy(a.dst, a.tmp)
	if err != nil {
		return fmt.Errorf("failed to copy spooled output: %w", err)
	}

	slog.Debug("output committed", slog.String("path", a.path), slog.Int64("bytes", n))
	return nil
}

// Abort discards everything written so far; the destination is left untouched
func (a *AtomicFile) Abort() error {
	if a.done {
		return nil
	}
	a.done = true
	return a.cleanup()
}

// Retract removes a file destination that Commit already published.
// Streams cannot be retracted.
func (a *AtomicFile) Retract() error {
	if !a.published {
		return nil
	}
	a.published = false
	if err := os.Remove(a.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	slog.Debug("output retracted", slog.String("path", a.path))
	return nil
}

func (a *AtomicFile) cleanup() error {
	a.tmp.Close()
	if err := os.Remove(a.tmp.Name()); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
