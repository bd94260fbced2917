//go:build unix

package mmio

import (
	"bytes"
	"errors"
	"os"
	"testing"

	"github.com/database64128/mmio-go/pagemap"
)

type deviceRegisters struct {
	Ctrl   uint32
	Status uint32
	Data   [8]byte
}

func TestAnonymousZeroInitialized(t *testing.T) {
	r, err := Anonymous[deviceRegisters]()
	if err != nil {
		t.Fatal(err)
	}
	defer r.Release()

	if got := r.Read(); got != (deviceRegisters{}) {
		t.Errorf("r.Read() = %+v, want zero value", got)
	}
}

func testAnonymousWriteRead[T comparable](t *testing.T, values ...T) {
	t.Helper()
	r, err := Anonymous[T]()
	if err != nil {
		t.Fatal(err)
	}
	defer r.Release()

	for _, v := range values {
		r.Write(v)
		if got := r.Read(); got != v {
			t.Errorf("r.Read() after r.Write(%v) = %v", v, got)
		}
	}
}

func TestAnonymousWriteRead(t *testing.T) {
	testAnonymousWriteRead[uint8](t, 0x5a, 0xff, 0)
	testAnonymousWriteRead[uint16](t, 0xbeef, 1)
	testAnonymousWriteRead[uint32](t, 0xdeadbeef, 0x80000000)
	testAnonymousWriteRead[uint64](t, 0x0123456789abcdef, 0)
	testAnonymousWriteRead[float32](t, 1.5, -0.25)
	testAnonymousWriteRead(t,
		deviceRegisters{Ctrl: 1, Status: 2, Data: [8]byte{1, 2, 3, 4, 5, 6, 7, 8}},
		deviceRegisters{},
	)
}

func TestOpenInvalid(t *testing.T) {
	for _, c := range []struct {
		name  string
		fd    int
		prot  int
		flags int
	}{
		{"BadDescriptor", -2, pagemap.ProtRead | pagemap.ProtWrite, pagemap.MapShared},
		{"NoBackingFileWithoutAnonymous", pagemap.NoFile, pagemap.ProtRead | pagemap.ProtWrite, pagemap.MapShared},
	} {
		t.Run(c.name, func(t *testing.T) {
			r, err := Open[uint32](0, c.fd, c.prot, c.flags)
			if err == nil {
				r.Release()
				t.Fatal("Open() error = nil, want non-nil")
			}
			if r != nil {
				t.Errorf("Open() = %v, want nil", r)
			}
			var se *os.SyscallError
			if !errors.As(err, &se) {
				t.Errorf("Open() error = %v, want *os.SyscallError", err)
			}
		})
	}
}

func TestOpenFile(t *testing.T) {
	pageSize := pagemap.Default.PageSize()

	f, err := os.CreateTemp(t.TempDir(), "mmio_OpenFile_test")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	content := make([]byte, 2*pageSize)
	for i := range content {
		content[i] = byte(i * 7)
	}
	if _, err = f.Write(content); err != nil {
		t.Fatal(err)
	}

	offset := int64(pageSize + 3)
	r, err := Open[[4]byte](offset, int(f.Fd()), pagemap.ProtRead|pagemap.ProtWrite, pagemap.MapShared)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Release()

	got := r.Read()
	if !bytes.Equal(got[:], content[offset:offset+4]) {
		t.Errorf("r.Read() = %v, want %v", got, content[offset:offset+4])
	}
	if delta := r.Addr() - r.base(); delta != 3 {
		t.Errorf("region points %d bytes into its page, want 3", delta)
	}

	r.Write([4]byte{0xca, 0xfe, 0xba, 0xbe})
	onDisk := make([]byte, 4)
	if _, err = f.ReadAt(onDisk, offset); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(onDisk, []byte{0xca, 0xfe, 0xba, 0xbe}) {
		t.Errorf("file content = %v, want cafebabe", onDisk)
	}
}

func TestOpenFileSurvivesClose(t *testing.T) {
	name := t.TempDir() + "/counter"
	if err := os.WriteFile(name, make([]byte, 8), 0644); err != nil {
		t.Fatal(err)
	}
	f, err := os.OpenFile(name, os.O_RDWR, 0)
	if err != nil {
		t.Fatal(err)
	}
	r, err := Open[uint64](0, int(f.Fd()), pagemap.ProtRead|pagemap.ProtWrite, pagemap.MapShared)
	f.Close()
	if err != nil {
		t.Fatal(err)
	}
	defer r.Release()

	r.Write(99)
	if got := r.Read(); got != 99 {
		t.Errorf("r.Read() = %d, want 99", got)
	}
}

func TestPhysicalMemoryUncheckedUnprivileged(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("running as root, /dev/mem may be accessible")
	}

	r, err := PhysicalMemoryUnchecked[uint32](0)
	if err == nil {
		r.Release()
		t.Fatal("PhysicalMemoryUnchecked() error = nil, want non-nil")
	}
	if r != nil {
		t.Errorf("PhysicalMemoryUnchecked() = %v, want nil", r)
	}
}

func TestAnonymousBorrowSameAddress(t *testing.T) {
	r, err := Anonymous[uint32]()
	if err != nil {
		t.Fatal(err)
	}
	defer r.Release()

	v := r.Borrow()
	if v.Addr() != r.Addr() {
		t.Errorf("v.Addr() = %#x, want %#x", v.Addr(), r.Addr())
	}
	*v.Pointer() = 0x1234
	if got := r.Read(); got != 0x1234 {
		t.Errorf("r.Read() = %#x, want 0x1234", got)
	}
}
