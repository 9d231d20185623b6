package consolidate

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/relink-tools/relink/pkg/inodemap"
	"github.com/relink-tools/relink/pkg/logger"
)

type Options struct {
	// Output receives the per-group report (canonical path plus one
	// "<- path" line per relinked path). Defaults to os.Stdout.
	Output io.Writer
	// DryRun reports and accounts without touching the filesystem.
	DryRun bool
}

// GroupResult describes one consolidated content group.
type GroupResult struct {
	Canonical string
	Relinked  []string
	Reclaimed uint64
}

type Result struct {
	Groups         []GroupResult
	RelinkedPaths  int
	ReclaimedBytes uint64
}

// Run consolidates every content group with two or more member inodes down
// to a single inode via hardlinks. The database must be fully populated and
// is not mutated. Processing is strictly sequential: devices, then groups,
// then inodes, then paths; the canonical inode must stay stable while its
// group is being relinked.
func Run(db *inodemap.Database, opts Options) (*Result, error) {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	log := logger.GetLogger("consolidate")
	result := &Result{}

	for _, dev := range db.Devices() {
		for _, group := range dev.Groups() {
			if len(group.Inodes) < 2 {
				continue
			}

			gr, err := consolidateGroup(group, out, opts.DryRun, log)
			if err != nil {
				return nil, err
			}

			result.Groups = append(result.Groups, *gr)
			result.RelinkedPaths += len(gr.Relinked)
			result.ReclaimedBytes += gr.Reclaimed
		}
	}

	if opts.DryRun {
		log.WithField("reclaimable_space", humanize.IBytes(result.ReclaimedBytes)).
			Infof("Dry-run: would consolidate %d groups, relinking %d paths",
				len(result.Groups), result.RelinkedPaths)
	} else {
		log.WithField("reclaimed_space", humanize.IBytes(result.ReclaimedBytes)).
			Infof("Consolidated %d groups, relinked %d paths",
				len(result.Groups), result.RelinkedPaths)
	}

	return result, nil
}

func consolidateGroup(group inodemap.Group, out io.Writer, dryRun bool, log *logrus.Entry) (*GroupResult, error) {
	records := group.Inodes

	// normalize path order, then rank members: the most-linked inode is the
	// likeliest "real" copy and minimizes relink work; ties break on the
	// lexicographically smallest path so output is reproducible
	for _, rec := range records {
		sort.Strings(rec.Files)
	}
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Nlink != records[j].Nlink {
			return records[i].Nlink > records[j].Nlink
		}
		return records[i].Files[0] < records[j].Files[0]
	})

	canonical := records[0].Files[0]
	gr := &GroupResult{Canonical: canonical}

	fmt.Fprintln(out, canonical)

	minMtime := records[0].Mtime
	for _, rec := range records[1:] {
		if rec.Mtime.Before(minMtime) {
			minMtime = rec.Mtime
		}
	}

	// consolidation must never advance a file's visible mtime; the merged
	// file keeps the oldest timestamp observed in the group
	if !dryRun {
		if err := updateMtime(canonical, minMtime); err != nil {
			return nil, err
		}
	}

	for _, rec := range records[1:] {
		for _, path := range rec.Files {
			fmt.Fprintf(out, "<- %s\n", path)

			if dryRun {
				log.Debugf("Dry-run enabled, skipping relink: %q", path)
			} else if err := relink(canonical, path); err != nil {
				return nil, err
			}

			gr.Relinked = append(gr.Relinked, path)
		}

		// only count the inode's space as reclaimed when every hardlink to
		// it was discovered in the scanned trees; a link surviving outside
		// them keeps the underlying storage allocated
		if uint64(len(rec.Files)) == rec.Nlink {
			gr.Reclaimed += rec.AllocatedSize
		} else {
			log.Debugf("Inode %d has %d links but only %d discovered paths, space not reclaimed",
				rec.Ino, rec.Nlink, len(rec.Files))
		}
	}

	return gr, nil
}

// relink replaces path with a hardlink to canonical. The new link is
// created under a temporary name and renamed over path, so there is no
// window where path does not exist. The parent directory's mtime is
// restored afterwards since directory-entry mutation bumps it.
func relink(canonical, path string) error {
	dir := filepath.Dir(path)
	canonicalDir := filepath.Dir(canonical)

	dirInfo, err := os.Stat(dir)
	if err != nil {
		return errors.Wrapf(err, "stat directory: %s", dir)
	}

	canonicalDirInfo, err := os.Stat(canonicalDir)
	if err != nil {
		return errors.Wrapf(err, "stat directory: %s", canonicalDir)
	}

	dirMeta, err := inodemap.Stat(dirInfo)
	if err != nil {
		return errors.Wrapf(err, "stat directory: %s", dir)
	}

	canonicalDirMeta, err := inodemap.Stat(canonicalDirInfo)
	if err != nil {
		return errors.Wrapf(err, "stat directory: %s", canonicalDir)
	}

	if dirMeta.Dev != canonicalDirMeta.Dev {
		return errors.Errorf("cannot hardlink across devices: %s (dev %d) -> %s (dev %d)",
			path, dirMeta.Dev, canonical, canonicalDirMeta.Dev)
	}

	dirAtime, dirMtime := statTimes(dirInfo)

	tmp := filepath.Join(dir, fmt.Sprintf(".%s.relink.%d", filepath.Base(path), os.Getpid()))
	if err := os.Link(canonical, tmp); err != nil {
		return errors.Wrapf(err, "create hardlink: %s -> %s", tmp, canonical)
	}

	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrapf(err, "replace path with hardlink: %s", path)
	}

	if err := os.Chtimes(dir, dirAtime, dirMtime); err != nil {
		return errors.Wrapf(err, "restore directory mtime: %s", dir)
	}

	return nil
}

// updateMtime sets path's mtime, skipping the metadata write when the
// current value already matches.
func updateMtime(path string, mtime time.Time) error {
	info, err := os.Stat(path)
	if err != nil {
		return errors.Wrapf(err, "stat file: %s", path)
	}

	atime, current := statTimes(info)
	if current.Equal(mtime) {
		return nil
	}

	if err := os.Chtimes(path, atime, mtime); err != nil {
		return errors.Wrapf(err, "set file mtime: %s", path)
	}

	return nil
}
