//go:build unix && !darwin && !netbsd

package consolidate

import (
	"os"
	"syscall"
	"time"
)

// statTimes returns the access and modification times for info.
func statTimes(info os.FileInfo) (atime, mtime time.Time) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok || stat == nil {
		return info.ModTime(), info.ModTime()
	}

	return time.Unix(int64(stat.Atim.Sec), int64(stat.Atim.Nsec)), info.ModTime()
}
