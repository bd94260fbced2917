package mmio

import (
	"fmt"
	"strconv"
	"strings"
	"unsafe"

	"go.uber.org/zap/zapcore"
)

func (r *Region[T]) base() uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(r.mapping)))
}

// String implements [fmt.Stringer].
func (r *Region[T]) String() string {
	if !r.Mapped() {
		return "mmio.Region[" + typeName[T]() + "]{unmapped}"
	}
	return "mmio.Region[" + typeName[T]() + "]{addr: 0x" + strconv.FormatUint(uint64(r.Addr()), 16) +
		", base: 0x" + strconv.FormatUint(uint64(r.base()), 16) +
		", length: " + strconv.Itoa(len(r.mapping)) + "}"
}

// Format implements [fmt.Formatter].
//
// The %x and %X verbs format the value's address in hexadecimal, with a 0x
// prefix when the # flag is set. %v and %s use [Region.String].
// As with any type, %p formats the address of the *Region itself.
func (r *Region[T]) Format(f fmt.State, verb rune) {
	switch verb {
	case 'x', 'X':
		s := strconv.FormatUint(uint64(r.Addr()), 16)
		if f.Flag('#') {
			s = "0x" + s
		}
		if verb == 'X' {
			s = strings.ToUpper(s)
		}
		f.Write([]byte(s))
	case 'v', 's':
		f.Write([]byte(r.String()))
	default:
		fmt.Fprintf(f, "%%!%c(mmio.Region=%s)", verb, r.String())
	}
}

// MarshalLogObject implements [zapcore.ObjectMarshaler].
func (r *Region[T]) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("type", typeName[T]())
	enc.AddBool("mapped", r.Mapped())
	if r.Mapped() {
		enc.AddUintptr("addr", r.Addr())
		enc.AddUintptr("base", r.base())
		enc.AddInt("length", len(r.mapping))
	}
	return nil
}
