//go:build unix

package pagemap

import (
	"os"

	"golang.org/x/sys/unix"
)

const (
	// NoFile is the descriptor used for anonymous mappings.
	NoFile = -1

	// Protection flags for [Mapper.Map] and [Mapper.MapDevice].
	ProtRead  = unix.PROT_READ
	ProtWrite = unix.PROT_WRITE

	// Mapping flags for [Mapper.Map] and [Mapper.MapDevice].
	// MapAnonymous requests memory without a backing file.
	MapShared    = unix.MAP_SHARED
	MapPrivate   = unix.MAP_PRIVATE
	MapAnonymous = unix.MAP_ANON
)

type defaultMapper struct{}

func (defaultMapper) PageSize() int {
	return unix.Getpagesize()
}

func (defaultMapper) Map(fd int, offset int64, length, prot, flags int) ([]byte, error) {
	b, err := unix.Mmap(fd, offset, length, prot, flags)
	if err != nil {
		return nil, os.NewSyscallError("mmap", err)
	}
	return b, nil
}

func (m defaultMapper) MapDevice(name string, offset int64, length, prot, flags int) ([]byte, error) {
	f, err := os.OpenFile(name, os.O_RDWR|os.O_SYNC, 0)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return m.Map(int(f.Fd()), offset, length, prot, flags)
}

func (defaultMapper) Unmap(b []byte) error {
	if err := unix.Munmap(b); err != nil {
		return os.NewSyscallError("munmap", err)
	}
	return nil
}
