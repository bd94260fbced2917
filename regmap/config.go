package regmap

import (
	"errors"
	"fmt"
	"os"
	"unsafe"

	"github.com/database64128/mmio-go"
	"github.com/database64128/mmio-go/jsonhelper"
	"github.com/database64128/mmio-go/pagemap"
	"go.uber.org/zap"
)

// Register sources.
const (
	// SourceAnonymous backs the register with shared anonymous memory.
	// Useful for testing register maps without hardware.
	SourceAnonymous = "anonymous"

	// SourceFile maps the register from a file, such as a sysfs PCI resource file.
	SourceFile = "file"

	// SourceDevMem maps the register from physical memory through /dev/mem.
	SourceDevMem = "devmem"
)

// RegisterConfig is the configuration for a single register.
type RegisterConfig struct {
	// Name identifies the register in the map. Names must be unique.
	Name string `json:"name"`

	// Source is one of "anonymous", "file" or "devmem".
	Source string `json:"source"`

	// Path is the file to map. Only used by the "file" source.
	Path string `json:"path,omitempty"`

	// Offset is the byte offset of the register in the source.
	// For "devmem", this is the physical address.
	// Must be zero for "anonymous".
	Offset jsonhelper.Uint64 `json:"offset"`

	// Width is the register width in bits: 8, 16, 32 or 64.
	Width int `json:"width"`

	// ReadOnly rejects writes to the register.
	ReadOnly bool `json:"readOnly,omitempty"`
}

// Config is the configuration for a register map.
type Config []RegisterConfig

var (
	// ErrDuplicateName is returned when two registers share a name.
	ErrDuplicateName = errors.New("duplicate register name")

	// ErrPastEndOfFile is returned when a file-backed register extends past the end of its file.
	// Touching such a register would kill the process with SIGBUS.
	ErrPastEndOfFile = errors.New("register extends past end of file")
)

// Validate checks the configuration without mapping anything.
func (c Config) Validate() error {
	seen := make(map[string]struct{}, len(c))
	for i := range c {
		rc := &c[i]
		if rc.Name == "" {
			return fmt.Errorf("register %d: empty name", i)
		}
		if _, ok := seen[rc.Name]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateName, rc.Name)
		}
		seen[rc.Name] = struct{}{}

		switch rc.Width {
		case 8, 16, 32, 64:
		default:
			return fmt.Errorf("register %q: invalid width %d", rc.Name, rc.Width)
		}

		if rc.Offset.Value()%uint64(rc.Width/8) != 0 {
			return fmt.Errorf("register %q: offset %#x is not aligned to %d bytes", rc.Name, rc.Offset.Value(), rc.Width/8)
		}

		switch rc.Source {
		case SourceAnonymous:
			if rc.Offset != 0 {
				return fmt.Errorf("register %q: anonymous source does not take an offset", rc.Name)
			}
		case SourceDevMem:
		case SourceFile:
			if rc.Path == "" {
				return fmt.Errorf("register %q: file source requires a path", rc.Name)
			}
		default:
			return fmt.Errorf("register %q: unknown source %q", rc.Name, rc.Source)
		}
	}
	return nil
}

// Open validates the configuration and maps every register.
// If any register fails to map, the ones already mapped are released.
func (c Config) Open(logger *zap.Logger) (*Map, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	m := &Map{
		logger:    logger,
		registers: make(map[string]*register, len(c)),
		names:     make([]string, 0, len(c)),
	}

	for i := range c {
		rc := &c[i]
		cell, err := rc.open()
		if err != nil {
			m.Close()
			return nil, fmt.Errorf("failed to map register %q: %w", rc.Name, err)
		}
		m.registers[rc.Name] = &register{config: *rc, cell: cell}
		m.names = append(m.names, rc.Name)
		logger.Debug("Mapped register",
			zap.String("register", rc.Name),
			zap.String("source", rc.Source),
			zap.Uint64("offset", rc.Offset.Value()),
			zap.Int("width", rc.Width),
			zap.Object("region", cell),
		)
	}

	return m, nil
}

func (rc *RegisterConfig) open() (cell, error) {
	switch rc.Width {
	case 8:
		return openCell[uint8](rc)
	case 16:
		return openCell[uint16](rc)
	case 32:
		return openCell[uint32](rc)
	default:
		return openCell[uint64](rc)
	}
}

func openCell[T uint8 | uint16 | uint32 | uint64](rc *RegisterConfig) (cell, error) {
	var (
		r   *mmio.Region[T]
		err error
	)
	offset := int64(rc.Offset.Value())
	if offset < 0 {
		return nil, fmt.Errorf("offset %#x out of range", rc.Offset.Value())
	}

	switch rc.Source {
	case SourceAnonymous:
		r, err = mmio.Anonymous[T]()
	case SourceDevMem:
		r, err = mmio.PhysicalMemoryUnchecked[T](offset)
	case SourceFile:
		var f *os.File
		f, err = os.OpenFile(rc.Path, os.O_RDWR, 0)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		var fi os.FileInfo
		fi, err = f.Stat()
		if err != nil {
			return nil, err
		}
		if end := offset + int64(unsafe.Sizeof(*new(T))); fi.Mode().IsRegular() && end > fi.Size() {
			return nil, fmt.Errorf("%w: %s: register ends at %#x, file size is %#x", ErrPastEndOfFile, rc.Path, end, fi.Size())
		}

		r, err = mmio.Open[T](offset, int(f.Fd()), pagemap.ProtRead|pagemap.ProtWrite, pagemap.MapShared)
	}
	if err != nil {
		return nil, err
	}
	return typedCell[T]{r}, nil
}
