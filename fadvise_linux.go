//go:build linux

package groupdata

import (
	"os"

	"golang.org/x/sys/unix"
)

// adviseSequential hints to the kernel that the file will be read
// sequentially. Applied before reading back layout snapshots.
// Best-effort: errors are silently ignored.
func adviseSequential(file *os.File, size int64) {
	_ = unix.Fadvise(int(file.Fd()), 0, size, unix.FADV_SEQUENTIAL)
}
