package pagemap

import (
	"errors"
	"fmt"
	"os"
	"testing"
)

func TestWindow(t *testing.T) {
	for _, c := range []struct {
		offset      int64
		size        uintptr
		pageSize    int
		wantAligned int64
		wantDelta   int
		wantLength  int
	}{
		{0, 4, 4096, 0, 0, 4},
		{4, 4, 4096, 0, 4, 8},
		{4095, 1, 4096, 0, 4095, 4096},
		{4095, 4, 4096, 0, 4095, 4099},
		{4096, 8, 4096, 4096, 0, 8},
		{0x3f200004, 4, 4096, 0x3f200000, 4, 8},
		{0x3f200004, 4, 16384, 0x3f200000, 4, 8},
		{0x10007, 2, 65536, 0x10000, 7, 9},
	} {
		aligned, delta, length := Window(c.offset, c.size, c.pageSize)
		if aligned != c.wantAligned || delta != c.wantDelta || length != c.wantLength {
			t.Errorf("Window(%#x, %d, %d) = %#x, %d, %d; want %#x, %d, %d",
				c.offset, c.size, c.pageSize, aligned, delta, length, c.wantAligned, c.wantDelta, c.wantLength)
		}
	}
}

func TestWindowAdjacentPages(t *testing.T) {
	const pageSize = 4096
	for _, k := range []int64{0, 1, 100, 4095, 8191, 123456} {
		a0, d0, _ := Window(k, 4, pageSize)
		a1, d1, _ := Window(k+pageSize, 4, pageSize)
		if a1-a0 != pageSize {
			t.Errorf("k = %d: aligned offsets differ by %d; want %d", k, a1-a0, pageSize)
		}
		if d0 != int(k%pageSize) || d1 != d0 {
			t.Errorf("k = %d: deltas = %d, %d; want %d", k, d0, d1, k%pageSize)
		}
	}
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "pagemap_ReadFile_test")
	if err != nil {
		t.Fatal(err)
	}
	name := f.Name()
	_, err = f.WriteString(content)
	f.Close()
	if err != nil {
		t.Fatal(err)
	}
	return name
}

func TestReadFile(t *testing.T) {
	name := writeTempFile(t, "10.0.0.0/8\n")

	data, close, err := ReadFile[string](name)
	if err != nil {
		t.Fatal(err)
	}
	if data != "10.0.0.0/8\n" {
		t.Errorf("Expected file content %q, got %q", "10.0.0.0/8\n", data)
	}

	if err = close(); err != nil {
		t.Fatal(err)
	}
}

func TestReadFileEmpty(t *testing.T) {
	name := writeTempFile(t, "")

	data, close, err := ReadFile[[]byte](name)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 0 {
		t.Errorf("len(data) = %d, want 0", len(data))
	}
	if err = close(); err != nil {
		t.Fatal(err)
	}
}

type unsupportedMapper struct {
	calls int
}

var errUnsupportedMapper = fmt.Errorf("test mapper: %w", errors.ErrUnsupported)

func (m *unsupportedMapper) PageSize() int { return 4096 }

func (m *unsupportedMapper) Map(_ int, _ int64, _, _, _ int) ([]byte, error) {
	m.calls++
	return nil, errUnsupportedMapper
}

func (m *unsupportedMapper) MapDevice(_ string, _ int64, _, _, _ int) ([]byte, error) {
	m.calls++
	return nil, errUnsupportedMapper
}

func (m *unsupportedMapper) Unmap(_ []byte) error {
	m.calls++
	return errUnsupportedMapper
}

func TestReadFileFallback(t *testing.T) {
	name := writeTempFile(t, "fallback")

	var m unsupportedMapper
	data, close, err := readFileWith[[]byte](&m, name)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "fallback" {
		t.Errorf("Expected file content %q, got %q", "fallback", data)
	}
	if err = close(); err != nil {
		t.Fatal(err)
	}
	if m.calls != 1 {
		t.Errorf("m.calls = %d, want 1", m.calls)
	}
}

func TestReadFileNotExist(t *testing.T) {
	if _, _, err := ReadFile[string]("/nonexistent/pagemap/test"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("ReadFile() error = %v, want %v", err, os.ErrNotExist)
	}
}
