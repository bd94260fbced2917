package mmio

import (
	"unsafe"

	"github.com/database64128/mmio-go/volatile"
)

// View is a non-owning reference to the value of a [Region].
//
// SAFETY: a view is only valid until its region is released, moved, or
// borrowed again. Go cannot enforce this. Never store a view in a struct,
// global variable or channel, and never let it escape the block that called
// [Region.Borrow]. Using a view after its region was released touches
// unmapped memory and crashes the process. [View.Valid] can detect misuse in
// tests, but is no substitute for keeping views short-lived.
type View[T any] struct {
	ptr    unsafe.Pointer
	region *Region[T]
	epoch  uint64
}

// Borrow returns a view of the value in r without transferring ownership.
// Views obtained earlier from r become invalid.
//
// Borrowing an unmapped region returns a view whose pointer is nil.
func (r *Region[T]) Borrow() View[T] {
	if !r.Mapped() {
		return View[T]{}
	}
	r.epoch++
	return View[T]{
		ptr:    r.ptr,
		region: r,
		epoch:  r.epoch,
	}
}

// Pointer returns the value's address as *T.
func (v View[T]) Pointer() *T {
	return (*T)(v.ptr)
}

// UnsafePointer returns the value's address as an [unsafe.Pointer].
func (v View[T]) UnsafePointer() unsafe.Pointer {
	return v.ptr
}

// Addr returns the value's address.
func (v View[T]) Addr() uintptr {
	return uintptr(v.ptr)
}

// Valid reports whether the region that produced v still backs it.
func (v View[T]) Valid() bool {
	return v.ptr != nil && v.region.ptr == v.ptr && v.region.epoch == v.epoch
}

// Read performs a volatile load through the view.
func (v View[T]) Read() T {
	return volatile.Load((*T)(v.ptr))
}

// Write performs a volatile store through the view.
func (v View[T]) Write(val T) {
	volatile.Store((*T)(v.ptr), val)
}
