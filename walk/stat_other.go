//go:build !linux

package walk

import "io/fs"

// createdEpoch falls back to modification time on platforms without a
// straightforward creation-time syscall field available here.
func createdEpoch(info fs.FileInfo) int64 {
	return info.ModTime().Unix()
}
