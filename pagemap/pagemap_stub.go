//go:build !unix

package pagemap

import (
	"errors"
	"os"
)

const (
	// NoFile is the descriptor used for anonymous mappings.
	NoFile = -1

	// Protection flags for [Mapper.Map] and [Mapper.MapDevice].
	ProtRead  = 0x1
	ProtWrite = 0x2

	// Mapping flags for [Mapper.Map] and [Mapper.MapDevice].
	// MapAnonymous requests memory without a backing file.
	MapShared    = 0x1
	MapPrivate   = 0x2
	MapAnonymous = 0x20
)

type mmapUnsupportedError struct{}

func (mmapUnsupportedError) Error() string {
	return "mmap is not supported on this platform"
}

func (mmapUnsupportedError) Is(target error) bool {
	return target == errors.ErrUnsupported
}

type defaultMapper struct{}

func (defaultMapper) PageSize() int {
	return os.Getpagesize()
}

func (defaultMapper) Map(_ int, _ int64, _, _, _ int) ([]byte, error) {
	return nil, mmapUnsupportedError{}
}

func (defaultMapper) MapDevice(_ string, _ int64, _, _, _ int) ([]byte, error) {
	return nil, mmapUnsupportedError{}
}

func (defaultMapper) Unmap(_ []byte) error {
	return mmapUnsupportedError{}
}
