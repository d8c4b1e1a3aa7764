// Package syscalls provides the host operating system calls used by the
// host copy, behind small provider interfaces that tests can replace.
package syscalls

import (
	"os"
)

type RealOS struct{}

func (RealOS) Remove(name string) error {
	return os.Remove(name)
}

func (RealOS) Open(name string) (*os.File, error) {
	return os.Open(name)
}

func (RealOS) OpenFile(name string, flag int, perm os.FileMode) (*os.File, error) {
	return os.OpenFile(name, flag, perm)
}

func (RealOS) Stat(name string) (os.FileInfo, error) {
	return os.Stat(name)
}

func (RealOS) Rename(oldpath, newpath string) error {
	return os.Rename(oldpath, newpath)
}
