// Package mmio maps a typed value stored in physical or anonymous memory
// into the process and reads and writes it with volatile semantics.
//
// A [Region] owns exactly one memory mapping. Construct one with [Open],
// [Anonymous] or [PhysicalMemoryUnchecked], and release it with
// [Region.Release], typically deferred right after construction:
//
//	r, err := mmio.Anonymous[uint32]()
//	if err != nil {
//		return err
//	}
//	defer r.Release()
//	r.Write(0x80000000)
//
// Regions do no locking. Any mutual exclusion between goroutines, processes or
// hardware touching the same memory is up to the caller.
package mmio

import (
	"reflect"
	"unsafe"

	"github.com/database64128/mmio-go/pagemap"
	"github.com/database64128/mmio-go/volatile"
)

// Version is the current version of mmio-go.
const Version = "0.1.0"

// Region is an owned memory mapping holding one value of type T.
//
// The zero value is an unmapped region. A mapped region returns to the
// unmapped state on [Region.Release] or [Region.Move] and is never mapped again.
type Region[T any] struct {
	mapper pagemap.Mapper

	// mapping is the page-aligned window returned by the mapper.
	// It is retained as is so that release unmaps exactly what was mapped.
	mapping []byte

	// ptr points at the value inside mapping. nil iff the region is unmapped.
	ptr unsafe.Pointer

	// epoch is bumped whenever outstanding views must be invalidated.
	epoch uint64
}

// Mapped returns whether r currently owns a mapping.
func (r *Region[T]) Mapped() bool {
	return r != nil && r.ptr != nil
}

// Addr returns the address of the value, or 0 if r is unmapped.
func (r *Region[T]) Addr() uintptr {
	if !r.Mapped() {
		return 0
	}
	return uintptr(r.ptr)
}

// Read performs a volatile load of the value.
//
// Read returns the zero value if r is unmapped.
func (r *Region[T]) Read() (v T) {
	if !r.Mapped() {
		return
	}
	return volatile.Load((*T)(r.ptr))
}

// Write performs a volatile store of v.
//
// Write does nothing if r is unmapped.
func (r *Region[T]) Write(v T) {
	if !r.Mapped() {
		return
	}
	volatile.Store((*T)(r.ptr), v)
}

// ReadModifyWrite reads the value, passes it to f, and writes back the result.
//
// This is NOT atomic. Anything that changes the value between the read and
// the write, be it another goroutine, another process or the hardware itself,
// is lost. Guard the region with a lock if that matters.
func (r *Region[T]) ReadModifyWrite(f func(T) T) {
	if !r.Mapped() {
		return
	}
	r.Write(f(r.Read()))
}

// Release unmaps the region. It is safe to call Release on an unmapped or nil
// region, and to call it more than once.
//
// Errors from the OS are ignored: there is nothing useful a caller can do
// about a failed munmap(2) of a mapping it will never touch again.
func (r *Region[T]) Release() {
	if !r.Mapped() {
		return
	}
	_ = r.mapper.Unmap(r.mapping)
	r.mapping = nil
	r.ptr = nil
	r.epoch++
}

// Move transfers the mapping to a new region and leaves r unmapped.
// Views borrowed from r are invalidated.
//
// Moving an unmapped region returns an unmapped region.
func (r *Region[T]) Move() *Region[T] {
	if !r.Mapped() {
		return &Region[T]{}
	}
	nr := &Region[T]{
		mapper:  r.mapper,
		mapping: r.mapping,
		ptr:     r.ptr,
	}
	r.mapping = nil
	r.ptr = nil
	r.epoch++
	return nr
}

// Scoped opens a region, passes it to f, and releases it when f returns or panics.
// If open fails, f is not called and the error is returned.
func Scoped[T any](open func() (*Region[T], error), f func(*Region[T]) error) error {
	r, err := open()
	if err != nil {
		return err
	}
	defer r.Release()
	return f(r)
}

// typeName returns the name of T for diagnostics.
func typeName[T any]() string {
	return reflect.TypeFor[T]().String()
}
