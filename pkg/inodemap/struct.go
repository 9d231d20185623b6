package inodemap

import (
	"sync"
	"time"

	"github.com/scylladb/go-set/u64set"
	"github.com/sirupsen/logrus"

	"github.com/relink-tools/relink/pkg/digest"
)

// StatInfo carries the filesystem metadata classification depends on.
type StatInfo struct {
	Dev           uint64
	Ino           uint64
	Nlink         uint64
	Size          int64
	AllocatedSize uint64
	Mtime         time.Time
}

// Inode is the per-inode record: metadata captured at discovery time plus
// every discovered path resolving to it. Paths are appended during the scan
// phase only; consolidation treats the record as read-only.
type Inode struct {
	Ino           uint64
	Mtime         time.Time
	Nlink         uint64
	AllocatedSize uint64
	Files         []string
}

// HashJob is a deferred digest computation scheduled by the size sieve.
type HashJob struct {
	Ino  uint64
	Path string
}

// sieve entry states. The only allowed transition is unique -> ambiguous,
// which is what guarantees each inode is hashed at most once.
type sieveState int

const (
	sieveUnique sieveState = iota + 1
	sieveAmbiguous
)

type sieveEntry struct {
	state sieveState
	ino   uint64
}

// Device bundles the four per-device structures. Hardlinks never cross
// devices, so the Device is the unit of isolation for the whole pipeline.
type Device struct {
	ID uint64

	mu          sync.Mutex
	inodes      map[uint64]*Inode
	sizes       map[int64]*sieveEntry
	groups      map[digest.Value]*u64set.Set
	visitedDirs *u64set.Set
}

// Database maps device ids to their bundles. It is populated by the scan
// phase and read-only afterwards; nothing is persisted between runs.
type Database struct {
	mu      sync.Mutex
	devices map[uint64]*Device
	log     *logrus.Entry
}
