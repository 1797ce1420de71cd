//go:build !linux
// +build !linux

package segment

import (
	"bufio"
	"os"
)

func (s *Segment) openWritable() error {
	flags := os.O_CREATE | os.O_RDWR | os.O_APPEND
	f, err := os.OpenFile(s.path, flags, 0644)
	if err != nil {
		return err
	}
	s.file = f
	s.writer = bufio.NewWriter(f)
	return nil
}
