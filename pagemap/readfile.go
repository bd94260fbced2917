package pagemap

import (
	"errors"
	"io"
	"os"
	"unsafe"
)

// ReadFile maps the named file into memory for reading.
// On success, it returns the mapped data as a byte slice or a string,
// and a function that unmaps the data.
//
// If the platform cannot map files, the file is read into memory instead
// and the returned close function does nothing.
func ReadFile[T ~[]byte | ~string](name string) (data T, close func() error, err error) {
	return readFileWith[T](Default, name)
}

func readFileWith[T ~[]byte | ~string](m Mapper, name string) (data T, close func() error, err error) {
	f, err := os.Open(name)
	if err != nil {
		return
	}
	defer f.Close()

	fs, err := f.Stat()
	if err != nil {
		return
	}

	size := fs.Size()
	if size == 0 {
		return data, func() error { return nil }, nil
	}

	b, err := m.Map(int(f.Fd()), 0, int(size), ProtRead, MapShared)
	if err != nil {
		if errors.Is(err, errors.ErrUnsupported) {
			return readFileFallback[T](f, size)
		}
		return
	}

	return *(*T)(unsafe.Pointer(&b)), func() error { return m.Unmap(b) }, nil
}

func readFileFallback[T ~[]byte | ~string](f *os.File, size int64) (data T, close func() error, err error) {
	b := make([]byte, size)
	if _, err = io.ReadFull(f, b); err != nil {
		return
	}
	return *(*T)(unsafe.Pointer(&b)), func() error { return nil }, nil
}
