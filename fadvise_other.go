//go:build !linux

package groupdata

import "os"

// adviseSequential is a no-op on non-Linux platforms.
// FADV_SEQUENTIAL is Linux-specific.
func adviseSequential(file *os.File, size int64) {
	// No-op
}
