// Package platform wraps the OS-specific calls the hashing pipeline uses:
// read-ahead hints and file identity.
package platform

// FileID identifies a file independently of the path used to reach it.
type FileID struct {
	Dev uint64
	Ino uint64
}
