// Package pagemap maps page-aligned windows of files, devices and anonymous memory.
//
// It is the only package in this module that talks to the operating system's
// memory-mapping primitives. The implementation is selected once per build:
// Unix systems get a real mmap(2)-backed [Mapper], everything else gets a stub
// whose operations fail with an error matching [errors.ErrUnsupported].
package pagemap

// Mapper maps and unmaps memory.
//
// Protection and flag values are passed to the OS verbatim.
type Mapper interface {
	// PageSize returns the page size of the running system.
	PageSize() int

	// Map maps length bytes of fd starting at the page-aligned offset.
	// Use [NoFile] with [MapAnonymous] for mappings without a backing file.
	Map(fd int, offset int64, length, prot, flags int) ([]byte, error)

	// MapDevice opens the named device special file for synchronous read-write access,
	// maps length bytes at the page-aligned offset, and closes the file.
	// The mapping stays valid after the file is closed.
	MapDevice(name string, offset int64, length, prot, flags int) ([]byte, error)

	// Unmap removes a mapping returned by Map or MapDevice.
	Unmap(b []byte) error
}

// Default is the mapper for the running platform.
var Default Mapper = defaultMapper{}

// Window computes the page-aligned mapping that covers size bytes at offset.
//
// aligned is offset rounded down to a multiple of pageSize, delta is the distance
// from aligned to offset, and length is delta + size.
// pageSize must be a power of two.
func Window(offset int64, size uintptr, pageSize int) (aligned int64, delta, length int) {
	aligned = offset &^ int64(pageSize-1)
	delta = int(offset - aligned)
	length = delta + int(size)
	return
}
