//go:build unix

package platform

import (
	"os"
	"syscall"
)

// ID returns the device and inode behind info.
//
//nolint:unconvert,gosec // Stat_t field widths vary by platform
func ID(info os.FileInfo) (FileID, bool) {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return FileID{}, false
	}
	return FileID{Dev: uint64(st.Dev), Ino: uint64(st.Ino)}, true
}
