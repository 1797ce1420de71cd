//go:build !linux
// +build !linux

package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// dirLock without flock support: best effort through an exclusively created
// lock file. A crashed holder leaves the file behind, so a stale lock has to
// be removed by hand.
type dirLock struct {
	file *os.File
	path string
}

func acquireLock(dir string) (*dirLock, error) {
	path := filepath.Join(dir, "LOCK")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0644)
	if err != nil {
		if os.IsExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrStoreLocked, dir)
		}
		return nil, err
	}
	fmt.Fprintln(f, uuid.New().String())
	return &dirLock{file: f, path: path}, nil
}

func (l *dirLock) release() error {
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	os.Remove(l.path)
	l.file = nil
	return err
}
