//go:build linux
// +build linux

package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"
)

// dirLock is an advisory exclusive lock on the store directory. It is the
// guard against two processes opening the same directory; the engine does
// not arbitrate concurrent multi-process access beyond this.
type dirLock struct {
	file *os.File
	path string
}

func acquireLock(dir string) (*dirLock, error) {
	path := filepath.Join(dir, "LOCK")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, err
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %s", ErrStoreLocked, dir)
	}

	// Record the holder's instance id for diagnostics.
	if err := f.Truncate(0); err == nil {
		fmt.Fprintln(f, uuid.New().String())
	}
	return &dirLock{file: f, path: path}, nil
}

func (l *dirLock) release() error {
	if l.file == nil {
		return nil
	}
	os.Remove(l.path)
	_ = unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
	err := l.file.Close()
	l.file = nil
	return err
}
