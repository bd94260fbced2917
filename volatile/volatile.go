// Package volatile implements loads and stores that always reach memory.
//
// Go has no volatile qualifier. Every access here goes through either
// sync/atomic or a function the compiler is not allowed to inline, so repeated
// reads of the same address are never merged, cached in a register, or dropped,
// and stores are never elided. This is what memory-mapped device registers and
// memory shared with other processes need.
//
// Accesses are not bounds- or alignment-checked beyond choosing a code path.
// A value whose size is 1, 2, 4 or 8 bytes and which is naturally aligned is
// accessed with a single instruction. Any other value is copied byte by byte
// and may be observed torn by concurrent writers.
package volatile

import (
	"sync/atomic"
	"unsafe"
)

// Load reads the value at p.
func Load[T any](p *T) (v T) {
	src := unsafe.Pointer(p)
	dst := unsafe.Pointer(&v)
	size := unsafe.Sizeof(v)
	addr := uintptr(src)

	switch {
	case size == 1:
		*(*uint8)(dst) = load8((*uint8)(src))
	case size == 2 && addr%2 == 0:
		u := load16((*uint16)(src))
		*(*[2]byte)(dst) = *(*[2]byte)(unsafe.Pointer(&u))
	case size == 4 && addr%4 == 0:
		u := atomic.LoadUint32((*uint32)(src))
		*(*[4]byte)(dst) = *(*[4]byte)(unsafe.Pointer(&u))
	case size == 8 && addr%8 == 0:
		u := atomic.LoadUint64((*uint64)(src))
		*(*[8]byte)(dst) = *(*[8]byte)(unsafe.Pointer(&u))
	default:
		for i := uintptr(0); i < size; i++ {
			*(*uint8)(unsafe.Add(dst, i)) = load8((*uint8)(unsafe.Add(src, i)))
		}
	}
	return
}

// Store writes v to p.
func Store[T any](p *T, v T) {
	dst := unsafe.Pointer(p)
	src := unsafe.Pointer(&v)
	size := unsafe.Sizeof(v)
	addr := uintptr(dst)

	switch {
	case size == 1:
		store8((*uint8)(dst), *(*uint8)(src))
	case size == 2 && addr%2 == 0:
		var u uint16
		*(*[2]byte)(unsafe.Pointer(&u)) = *(*[2]byte)(src)
		store16((*uint16)(dst), u)
	case size == 4 && addr%4 == 0:
		var u uint32
		*(*[4]byte)(unsafe.Pointer(&u)) = *(*[4]byte)(src)
		atomic.StoreUint32((*uint32)(dst), u)
	case size == 8 && addr%8 == 0:
		var u uint64
		*(*[8]byte)(unsafe.Pointer(&u)) = *(*[8]byte)(src)
		atomic.StoreUint64((*uint64)(dst), u)
	default:
		for i := uintptr(0); i < size; i++ {
			store8((*uint8)(unsafe.Add(dst, i)), *(*uint8)(unsafe.Add(src, i)))
		}
	}
}

//go:noinline
func load8(p *uint8) uint8 {
	return *p
}

//go:noinline
func load16(p *uint16) uint16 {
	return *p
}

//go:noinline
func store8(p *uint8, v uint8) {
	*p = v
}

//go:noinline
func store16(p *uint16, v uint16) {
	*p = v
}
