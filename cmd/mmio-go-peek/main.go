// mmio-go-peek reads or writes a single register in physical memory or in a mapped file,
// and prints the value it read in hexadecimal.

package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/database64128/mmio-go"
	"github.com/database64128/mmio-go/pagemap"
)

var (
	addr  = flag.String("addr", "", "Physical address or file offset of the register. Accepts 0x-prefixed hex.")
	width = flag.Int("width", 32, "Register width in bits: 8, 16, 32 or 64.")
	file  = flag.String("file", "", "Map the register from this file instead of /dev/mem.")
	write = flag.String("write", "", "Write this value to the register after reading it. Accepts 0x-prefixed hex.")
)

func main() {
	flag.Parse()

	if *addr == "" {
		fmt.Fprintln(os.Stderr, "Specify the register address with -addr.")
		flag.Usage()
		os.Exit(1)
	}

	offset, err := strconv.ParseUint(*addr, 0, 63)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Invalid address:", err)
		os.Exit(1)
	}

	var value *uint64
	if *write != "" {
		v, err := strconv.ParseUint(*write, 0, *width)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Invalid value:", err)
			os.Exit(1)
		}
		value = &v
	}

	v, err := peek(*file, int64(offset), *width, value)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to access register:", err)
		os.Exit(1)
	}

	fmt.Printf("0x%0*x\n", *width/4, v)
}

// peek reads the register at offset and writes value to it if value is not nil.
// It returns the value read before any write.
func peek(path string, offset int64, width int, value *uint64) (uint64, error) {
	switch width {
	case 8:
		return peekWidth[uint8](path, offset, value)
	case 16:
		return peekWidth[uint16](path, offset, value)
	case 32:
		return peekWidth[uint32](path, offset, value)
	case 64:
		return peekWidth[uint64](path, offset, value)
	default:
		return 0, fmt.Errorf("invalid width: %d", width)
	}
}

func peekWidth[T uint8 | uint16 | uint32 | uint64](path string, offset int64, value *uint64) (v uint64, err error) {
	open := func() (*mmio.Region[T], error) {
		if path == "" {
			return mmio.PhysicalMemoryUnchecked[T](offset)
		}
		f, err := os.OpenFile(path, os.O_RDWR, 0)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return mmio.Open[T](offset, int(f.Fd()), pagemap.ProtRead|pagemap.ProtWrite, pagemap.MapShared)
	}

	err = mmio.Scoped(open, func(r *mmio.Region[T]) error {
		v = uint64(r.Read())
		if value != nil {
			r.Write(T(*value))
		}
		return nil
	})
	return v, err
}
