//go:build unix

package inodemap

import (
	"os"
	"syscall"

	"github.com/pkg/errors"
)

// Stat extracts device, inode, link count and allocated size from an
// os.FileInfo. Allocated size is the space the inode actually consumes on
// disk (st_blocks are 512-byte units regardless of the filesystem block
// size), which is what reclaimed-byte accounting must use.
func Stat(info os.FileInfo) (StatInfo, error) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok || stat == nil {
		return StatInfo{}, errors.Errorf("no stat info for: %s", info.Name())
	}

	return StatInfo{
		Dev:           uint64(stat.Dev),
		Ino:           uint64(stat.Ino),
		Nlink:         uint64(stat.Nlink),
		Size:          info.Size(),
		AllocatedSize: uint64(stat.Blocks) * 512,
		Mtime:         info.ModTime(),
	}, nil
}
