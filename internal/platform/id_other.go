//go:build !unix

package platform

import "os"

// ID is unavailable without Unix stat data; callers lose loop detection.
func ID(_ os.FileInfo) (FileID, bool) {
	return FileID{}, false
}
