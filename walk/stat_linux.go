//go:build linux

package walk

import (
	"io/fs"
	"syscall"
)

// createdEpoch returns the best available approximation of a file's
// creation time. Linux has no portable creation-time field in struct
// stat; ctim (last status change) is the closest available signal and is
// what most Linux indexing tools fall back to.
func createdEpoch(info fs.FileInfo) int64 {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return info.ModTime().Unix()
	}
	return int64(st.Ctim.Sec)
}
