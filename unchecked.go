package mmio

import "github.com/database64128/mmio-go/pagemap"

// PhysicalMemoryDevice is the device special file exposing physical memory.
const PhysicalMemoryDevice = "/dev/mem"

// PhysicalMemoryUnchecked maps the value of type T at physical address offset
// through [PhysicalMemoryDevice].
//
// This hands out raw hardware. Nothing checks that offset is a real device
// register, or that T matches the register's size and layout. Getting either
// wrong can hang or corrupt the machine. Reading or writing some registers has
// side effects of its own.
//
// The device is opened with O_RDWR|O_SYNC and closed again before returning.
// Opening it usually requires root or CAP_SYS_RAWIO, and kernels built with
// CONFIG_STRICT_DEVMEM refuse most of RAM. All of these failures are returned
// as errors.
func PhysicalMemoryUnchecked[T any](offset int64) (*Region[T], error) {
	return openWith[T](pagemap.Default, offset, func(aligned int64, length int) ([]byte, error) {
		return pagemap.Default.MapDevice(PhysicalMemoryDevice, aligned, length, pagemap.ProtRead|pagemap.ProtWrite, pagemap.MapShared)
	})
}
