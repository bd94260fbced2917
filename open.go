package mmio

import (
	"os"
	"syscall"
	"unsafe"

	"github.com/database64128/mmio-go/pagemap"
)

// Open maps the value of type T stored at offset in the file or device referred to by fd.
//
// offset need not be page-aligned: the mapping starts at the enclosing page
// boundary and the region points exactly at offset within it.
// prot and flags are passed to mmap(2) as is. prot should include both
// [pagemap.ProtRead] and [pagemap.ProtWrite] for the region to be useful.
// Use [pagemap.NoFile] together with [pagemap.MapAnonymous] for memory without a backing file.
//
// On failure, Open returns a nil region and the error from the OS.
// On platforms without mmap(2), the error matches [errors.ErrUnsupported].
func Open[T any](offset int64, fd, prot, flags int) (*Region[T], error) {
	return openWith[T](pagemap.Default, offset, func(aligned int64, length int) ([]byte, error) {
		return pagemap.Default.Map(fd, aligned, length, prot, flags)
	})
}

// Anonymous maps a zero-initialized value of type T in shared anonymous memory.
// The memory remains shared with child processes created after the call.
func Anonymous[T any]() (*Region[T], error) {
	return Open[T](0, pagemap.NoFile, pagemap.ProtRead|pagemap.ProtWrite, pagemap.MapAnonymous|pagemap.MapShared)
}

// openWith maps the page window covering T at offset using mapFn and wraps it in a region.
func openWith[T any](m pagemap.Mapper, offset int64, mapFn func(aligned int64, length int) ([]byte, error)) (*Region[T], error) {
	size := unsafe.Sizeof(*new(T))
	if size == 0 {
		return nil, os.NewSyscallError("mmap", syscall.EINVAL)
	}

	aligned, delta, length := pagemap.Window(offset, size, m.PageSize())
	b, err := mapFn(aligned, length)
	if err != nil {
		return nil, err
	}

	return &Region[T]{
		mapper:  m,
		mapping: b,
		ptr:     unsafe.Pointer(&b[delta]),
	}, nil
}
