package inodemap

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relink-tools/relink/pkg/digest"
)

func TestDevice_SizeSieve(t *testing.T) {
	dev := New().Device(1)

	// first inode of a size: hashing deferred
	jobs := dev.ObserveFile("/data/a", StatInfo{Ino: 1, Nlink: 1, Size: 100})
	assert.Empty(t, jobs)

	// second inode of the same size flips the entry to ambiguous and
	// schedules the retroactive hash of the first inode as well
	jobs = dev.ObserveFile("/data/b", StatInfo{Ino: 2, Nlink: 1, Size: 100})
	require.Len(t, jobs, 2)
	assert.Equal(t, HashJob{Ino: 1, Path: "/data/a"}, jobs[0])
	assert.Equal(t, HashJob{Ino: 2, Path: "/data/b"}, jobs[1])

	// once ambiguous, later inodes of that size hash directly
	jobs = dev.ObserveFile("/data/c", StatInfo{Ino: 3, Nlink: 1, Size: 100})
	require.Len(t, jobs, 1)
	assert.Equal(t, HashJob{Ino: 3, Path: "/data/c"}, jobs[0])

	// an unrelated size starts its own unique entry
	jobs = dev.ObserveFile("/data/d", StatInfo{Ino: 4, Nlink: 1, Size: 50})
	assert.Empty(t, jobs)
}

func TestDevice_HardlinkedPathsNeverRescheduled(t *testing.T) {
	dev := New().Device(1)

	jobs := dev.ObserveFile("/data/a", StatInfo{Ino: 1, Nlink: 2, Size: 100})
	assert.Empty(t, jobs)

	// a second path to a known inode only appends, even if other inodes of
	// the same size have since made it ambiguous
	dev.ObserveFile("/data/b", StatInfo{Ino: 2, Nlink: 1, Size: 100})
	jobs = dev.ObserveFile("/data/a-link", StatInfo{Ino: 1, Nlink: 2, Size: 100})
	assert.Empty(t, jobs)

	rec := dev.Inode(1)
	require.NotNil(t, rec)
	assert.Equal(t, []string{"/data/a", "/data/a-link"}, rec.Files)
}

func TestDevice_DuplicatePathsAppendedOnce(t *testing.T) {
	dev := New().Device(1)

	dev.ObserveFile("/data/a", StatInfo{Ino: 1, Nlink: 1, Size: 10})
	dev.ObserveFile("/data/a", StatInfo{Ino: 1, Nlink: 1, Size: 10})

	assert.Equal(t, []string{"/data/a"}, dev.Inode(1).Files)
}

func TestDevice_Groups(t *testing.T) {
	dev := New().Device(1)

	dev.ObserveFile("/data/a", StatInfo{Ino: 1, Nlink: 1, Size: 100})
	dev.ObserveFile("/data/b", StatInfo{Ino: 2, Nlink: 1, Size: 100})
	dev.ObserveFile("/data/c", StatInfo{Ino: 3, Nlink: 1, Size: 100})

	var sumA, sumB digest.Value
	sumA[0] = 0x01
	sumB[0] = 0x02

	dev.AddDigest(1, sumA)
	dev.AddDigest(3, sumA)
	dev.AddDigest(2, sumB)

	groups := dev.Groups()
	require.Len(t, groups, 2)

	// ordered by digest, members ordered by inode number
	assert.Equal(t, sumA, groups[0].Digest)
	require.Len(t, groups[0].Inodes, 2)
	assert.Equal(t, uint64(1), groups[0].Inodes[0].Ino)
	assert.Equal(t, uint64(3), groups[0].Inodes[1].Ino)

	assert.Equal(t, sumB, groups[1].Digest)
	require.Len(t, groups[1].Inodes, 1)
	assert.Equal(t, uint64(2), groups[1].Inodes[0].Ino)
}

func TestDevice_VisitTracker(t *testing.T) {
	dev := New().Device(1)

	assert.True(t, dev.MarkDirVisited(42))
	assert.False(t, dev.MarkDirVisited(42))
	assert.True(t, dev.MarkDirVisited(43))
}

func TestDatabase_DevicesSortedAndIsolated(t *testing.T) {
	db := New()

	devB := db.Device(2)
	devA := db.Device(1)
	assert.Same(t, devA, db.Device(1))

	devA.ObserveFile("/a", StatInfo{Ino: 1, Nlink: 1, Size: 10})
	devB.ObserveFile("/b", StatInfo{Ino: 1, Nlink: 1, Size: 10})

	// same inode number on different devices stays two records
	devices := db.Devices()
	require.Len(t, devices, 2)
	assert.Equal(t, uint64(1), devices[0].ID)
	assert.Equal(t, uint64(2), devices[1].ID)
	assert.Equal(t, []string{"/a"}, devices[0].Inode(1).Files)
	assert.Equal(t, []string{"/b"}, devices[1].Inode(1).Files)
}

func TestDatabase_Summary(t *testing.T) {
	db := New()

	now := time.Now()
	db.Device(1).ObserveFile("/a", StatInfo{Ino: 1, Nlink: 2, Size: 10, Mtime: now})
	db.Device(1).ObserveFile("/a-link", StatInfo{Ino: 1, Nlink: 2, Size: 10, Mtime: now})
	db.Device(2).ObserveFile("/b", StatInfo{Ino: 9, Nlink: 1, Size: 20, Mtime: now})

	devices, inodes, paths := db.Summary()
	assert.Equal(t, 2, devices)
	assert.Equal(t, 2, inodes)
	assert.Equal(t, 3, paths)
}
