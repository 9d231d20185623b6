package inodemap

import (
	"sort"

	"github.com/scylladb/go-set/u64set"

	"github.com/relink-tools/relink/pkg/digest"
	"github.com/relink-tools/relink/pkg/logger"
)

func New() *Database {
	return &Database{
		devices: make(map[uint64]*Device),
		log:     logger.GetLogger("inodemap"),
	}
}

// Device returns the bundle for dev, creating it on first sight.
func (db *Database) Device(dev uint64) *Device {
	db.mu.Lock()
	defer db.mu.Unlock()

	if d, exists := db.devices[dev]; exists {
		return d
	}

	d := &Device{
		ID:          dev,
		inodes:      make(map[uint64]*Inode),
		sizes:       make(map[int64]*sieveEntry),
		groups:      make(map[digest.Value]*u64set.Set),
		visitedDirs: u64set.New(),
	}
	db.devices[dev] = d

	db.log.Tracef("Tracking new device: %d", dev)
	return d
}

// Devices returns all per-device bundles ordered by device id, so
// consolidation output is stable across runs.
func (db *Database) Devices() []*Device {
	db.mu.Lock()
	defer db.mu.Unlock()

	devices := make([]*Device, 0, len(db.devices))
	for _, d := range db.devices {
		devices = append(devices, d)
	}

	sort.Slice(devices, func(i, j int) bool {
		return devices[i].ID < devices[j].ID
	})

	return devices
}

// Summary returns inode and path counts across all devices.
func (db *Database) Summary() (devices int, inodes int, paths int) {
	db.mu.Lock()
	defer db.mu.Unlock()

	devices = len(db.devices)
	for _, d := range db.devices {
		d.mu.Lock()
		inodes += len(d.inodes)
		for _, rec := range d.inodes {
			paths += len(rec.Files)
		}
		d.mu.Unlock()
	}

	return devices, inodes, paths
}

// MarkDirVisited records a directory inode as entered. It returns false if
// the directory was already visited, in which case the caller must not
// descend into it again.
func (d *Device) MarkDirVisited(ino uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.visitedDirs.Has(ino) {
		return false
	}

	d.visitedDirs.Add(ino)
	return true
}

// ObserveFile classifies one discovered regular file and returns the hash
// jobs it triggers. The returned jobs must be executed by the caller
// (outside the device lock) and committed via AddDigest.
//
// An inode is scheduled for hashing at most once: either directly, when its
// size is already ambiguous, or retroactively, when a second inode of the
// same size flips the sieve entry from unique to ambiguous.
func (d *Device) ObserveFile(path string, meta StatInfo) []HashJob {
	d.mu.Lock()
	defer d.mu.Unlock()

	if rec, known := d.inodes[meta.Ino]; known {
		// hardlink to an already seen inode, identical content by
		// definition, never rehashed
		rec.addPath(path)
		return nil
	}

	rec := &Inode{
		Ino:           meta.Ino,
		Mtime:         meta.Mtime,
		Nlink:         meta.Nlink,
		AllocatedSize: meta.AllocatedSize,
	}
	rec.addPath(path)
	d.inodes[meta.Ino] = rec

	entry, seen := d.sizes[meta.Size]
	if !seen {
		d.sizes[meta.Size] = &sieveEntry{state: sieveUnique, ino: meta.Ino}
		return nil
	}

	if entry.state == sieveUnique {
		first := d.inodes[entry.ino]
		entry.state = sieveAmbiguous

		return []HashJob{
			{Ino: first.Ino, Path: first.Files[0]},
			{Ino: meta.Ino, Path: path},
		}
	}

	return []HashJob{{Ino: meta.Ino, Path: path}}
}

// AddDigest inserts an inode into the content group for sum.
func (d *Device) AddDigest(ino uint64, sum digest.Value) {
	d.mu.Lock()
	defer d.mu.Unlock()

	group, exists := d.groups[sum]
	if !exists {
		group = u64set.New()
		d.groups[sum] = group
	}

	group.Add(ino)
}

// Inode returns the record for ino, or nil if unknown.
func (d *Device) Inode(ino uint64) *Inode {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.inodes[ino]
}

// Group is a resolved content group: all inode records sharing one digest.
type Group struct {
	Digest digest.Value
	Inodes []*Inode
}

// Groups returns every content group ordered by digest, with member inodes
// ordered by inode number. Only meaningful once the scan phase is done.
func (d *Device) Groups() []Group {
	d.mu.Lock()
	defer d.mu.Unlock()

	groups := make([]Group, 0, len(d.groups))
	for sum, members := range d.groups {
		inos := members.List()
		sort.Slice(inos, func(i, j int) bool { return inos[i] < inos[j] })

		records := make([]*Inode, 0, len(inos))
		for _, ino := range inos {
			records = append(records, d.inodes[ino])
		}

		groups = append(groups, Group{Digest: sum, Inodes: records})
	}

	sort.Slice(groups, func(i, j int) bool {
		a, b := groups[i].Digest, groups[j].Digest
		for k := range a {
			if a[k] != b[k] {
				return a[k] < b[k]
			}
		}
		return false
	})

	return groups
}

func (i *Inode) addPath(path string) {
	// overlapping targets can surface the same path twice
	for _, existing := range i.Files {
		if existing == path {
			return
		}
	}

	i.Files = append(i.Files, path)
}
