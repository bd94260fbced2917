// Package regmap exposes a configured set of memory-mapped registers by name.
//
// Unlike the regions it is built on, a [Map] is safe for concurrent use:
// all register accesses, including read-modify-write updates, are serialized
// by a single mutex. This only protects against other users of the same Map,
// not against the hardware or other processes.
package regmap

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"

	"github.com/database64128/mmio-go"
	"github.com/database64128/mmio-go/jsonhelper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"lukechampine.com/blake3"
)

var (
	ErrRegisterNotFound = errors.New("register not found")
	ErrReadOnly         = errors.New("register is read-only")
	ErrValueOverflow    = errors.New("value does not fit in register")
	ErrClosed           = errors.New("register map is closed")
)

type cell interface {
	zapcore.ObjectMarshaler
	load() uint64
	store(v uint64)
	update(f func(uint64) uint64)
	release()
}

type typedCell[T uint8 | uint16 | uint32 | uint64] struct {
	*mmio.Region[T]
}

func (c typedCell[T]) load() uint64 {
	return uint64(c.Read())
}

func (c typedCell[T]) store(v uint64) {
	c.Write(T(v))
}

func (c typedCell[T]) update(f func(uint64) uint64) {
	c.ReadModifyWrite(func(v T) T {
		return T(f(uint64(v)))
	})
}

func (c typedCell[T]) release() {
	c.Release()
}

type register struct {
	config RegisterConfig
	cell   cell
}

func (r *register) checkValue(v uint64) error {
	if r.config.Width < 64 && v>>r.config.Width != 0 {
		return fmt.Errorf("%w: %#x exceeds %d bits", ErrValueOverflow, v, r.config.Width)
	}
	return nil
}

// Map is a set of named registers.
type Map struct {
	logger    *zap.Logger
	mu        sync.Mutex
	closed    bool
	registers map[string]*register
	names     []string
}

// Names returns the register names in configuration order.
func (m *Map) Names() []string {
	return append([]string(nil), m.names...)
}

// RegisterConfig returns the configuration of the named register.
func (m *Map) RegisterConfig(name string) (RegisterConfig, bool) {
	r, ok := m.registers[name]
	if !ok {
		return RegisterConfig{}, false
	}
	return r.config, true
}

func (m *Map) lookup(name string) (*register, error) {
	if m.closed {
		return nil, ErrClosed
	}
	r, ok := m.registers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrRegisterNotFound, name)
	}
	return r, nil
}

// Read returns the current value of the named register.
func (m *Map) Read(name string) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, err := m.lookup(name)
	if err != nil {
		return 0, err
	}
	return r.cell.load(), nil
}

// Write stores v into the named register.
func (m *Map) Write(name string, v uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, err := m.lookup(name)
	if err != nil {
		return err
	}
	if r.config.ReadOnly {
		return fmt.Errorf("%w: %q", ErrReadOnly, name)
	}
	if err = r.checkValue(v); err != nil {
		return err
	}
	r.cell.store(v)

	m.logger.Debug("Wrote register", zap.String("register", name), zap.Uint64("value", v))
	return nil
}

// Update sets the bits in setBits and clears the bits in clearBits of the named
// register, and returns the value before and after the update.
// Bits present in both end up set.
func (m *Map) Update(name string, setBits, clearBits uint64) (oldValue, newValue uint64, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, err := m.lookup(name)
	if err != nil {
		return 0, 0, err
	}
	if r.config.ReadOnly {
		return 0, 0, fmt.Errorf("%w: %q", ErrReadOnly, name)
	}
	if err = r.checkValue(setBits); err != nil {
		return 0, 0, err
	}
	if err = r.checkValue(clearBits); err != nil {
		return 0, 0, err
	}

	r.cell.update(func(v uint64) uint64 {
		oldValue = v
		newValue = v&^clearBits | setBits
		return newValue
	})

	m.logger.Debug("Updated register",
		zap.String("register", name),
		zap.Uint64("oldValue", oldValue),
		zap.Uint64("newValue", newValue),
	)
	return oldValue, newValue, nil
}

// Value is the state of a register at a point in time.
type Value struct {
	Name     string            `json:"name"`
	Value    jsonhelper.Uint64 `json:"value"`
	Width    int               `json:"width"`
	ReadOnly bool              `json:"readOnly"`
}

// Snapshot holds the values of all registers read under a single lock.
type Snapshot struct {
	Registers []Value `json:"registers"`

	// Digest is the hex-encoded BLAKE3-256 hash of the register names, widths and values.
	// Equal digests mean no register changed between snapshots.
	Digest string `json:"digest"`
}

// Snapshot reads every register.
func (m *Map) Snapshot() (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return Snapshot{}, ErrClosed
	}

	values := make([]Value, len(m.names))
	b := make([]byte, 0, 64*len(m.names))
	for i, name := range m.names {
		r := m.registers[name]
		v := r.cell.load()
		values[i] = Value{
			Name:     name,
			Value:    jsonhelper.Uint64(v),
			Width:    r.config.Width,
			ReadOnly: r.config.ReadOnly,
		}
		b = append(b, name...)
		b = append(b, 0, byte(r.config.Width))
		b = binary.LittleEndian.AppendUint64(b, v)
	}

	sum := blake3.Sum256(b)
	return Snapshot{
		Registers: values,
		Digest:    hex.EncodeToString(sum[:]),
	}, nil
}

// Close releases all register mappings. Later operations return [ErrClosed].
func (m *Map) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	m.closed = true
	for _, r := range m.registers {
		r.cell.release()
	}
}
