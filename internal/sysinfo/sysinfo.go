package sysinfo

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/v3/mem"
)

// AvailableMemory reports the bytes the kernel considers available for new
// allocations.
func AvailableMemory() (uint64, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, errors.Wrap(err, "failed to read memory stats")
	}
	return vm.Available, nil
}

// Fits reports whether need bytes fit in the available memory.
func Fits(need uint64) (bool, uint64, error) {
	avail, err := AvailableMemory()
	if err != nil {
		return false, 0, err
	}
	return need <= avail, avail, nil
}

func HumanBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
