package scanner

import (
	"io/fs"
	"os"

	"github.com/charlievieth/fastwalk"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/relink-tools/relink/pkg/config"
	"github.com/relink-tools/relink/pkg/digest"
	"github.com/relink-tools/relink/pkg/expression"
	"github.com/relink-tools/relink/pkg/inodemap"
	"github.com/relink-tools/relink/pkg/logger"
)

type Options struct {
	// Hasher overrides the content digest implementation (tests use a
	// counting wrapper). Defaults to digest.FromPath.
	Hasher digest.Hasher
	// Excludes are compiled filter expressions; a matching file is treated
	// as if it were not a regular file.
	Excludes []expression.CompiledExpression
	// Workers bounds fastwalk parallelism. 0 lets fastwalk decide.
	Workers int
}

// Scanner walks target trees and populates the Database. It performs no
// filesystem mutation; all of that belongs to the consolidate phase, which
// must only run once scanning has fully completed.
type Scanner struct {
	db       *inodemap.Database
	hash     digest.Hasher
	excludes []expression.CompiledExpression
	workers  int
	log      *logrus.Entry
}

func New(db *inodemap.Database, opts Options) *Scanner {
	hasher := opts.Hasher
	if hasher == nil {
		hasher = digest.FromPath
	}

	return &Scanner{
		db:       db,
		hash:     hasher,
		excludes: opts.Excludes,
		workers:  opts.Workers,
		log:      logger.GetLogger("scanner"),
	}
}

// Scan classifies every regular file reachable from targets. Any metadata,
// read or hash failure aborts the scan: a partially built database is not
// safe to consolidate.
func (s *Scanner) Scan(targets []string) error {
	conf := &fastwalk.Config{
		NumWorkers: s.workers,
	}

	for _, target := range targets {
		info, err := os.Lstat(target)
		if err != nil {
			return errors.Wrapf(err, "stat target: %s", target)
		}

		// a target may be a single regular file rather than a tree
		if info.Mode().IsRegular() {
			if err := s.classify(target, info); err != nil {
				return err
			}
			continue
		}

		if !info.IsDir() {
			s.log.Debugf("Skipping non-regular target: %q", target)
			continue
		}

		if err := fastwalk.Walk(conf, target, s.visit); err != nil {
			return errors.Wrapf(err, "walk target: %s", target)
		}
	}

	devices, inodes, paths := s.db.Summary()
	s.log.Infof("Scanned %d paths: %d inodes across %d devices", paths, inodes, devices)

	return nil
}

func (s *Scanner) visit(path string, d fs.DirEntry, err error) error {
	if err != nil {
		return errors.Wrapf(err, "read entry: %s", path)
	}

	info, err := d.Info()
	if err != nil {
		return errors.Wrapf(err, "read metadata: %s", path)
	}

	if info.IsDir() {
		meta, err := inodemap.Stat(info)
		if err != nil {
			return errors.Wrapf(err, "stat directory: %s", path)
		}

		// overlapping targets and bind mounts can route us into the same
		// directory inode more than once
		if !s.db.Device(meta.Dev).MarkDirVisited(meta.Ino) {
			s.log.Debugf("Already visited directory, skipping: %q", path)
			return fs.SkipDir
		}

		return nil
	}

	// symlinks, devices, sockets and the like are never candidates
	if !info.Mode().IsRegular() {
		return nil
	}

	return s.classify(path, info)
}

func (s *Scanner) classify(path string, info os.FileInfo) error {
	if len(s.excludes) > 0 {
		match, reason, err := expression.CheckFileSingleMatchWithReason(
			config.NewFile(path, info.Size(), info.ModTime()), s.excludes)
		if err != nil {
			return errors.Wrapf(err, "check exclude expressions: %s", path)
		}

		if match {
			s.log.Debugf("Excluded by expression %q: %q", reason, path)
			return nil
		}
	}

	meta, err := inodemap.Stat(info)
	if err != nil {
		return errors.Wrapf(err, "stat file: %s", path)
	}

	dev := s.db.Device(meta.Dev)

	// classification happens under the device lock; the expensive digest
	// work it schedules runs outside it
	for _, job := range dev.ObserveFile(path, meta) {
		sum, err := s.hash(job.Path)
		if err != nil {
			return errors.Wrapf(err, "hash file: %s", job.Path)
		}

		dev.AddDigest(job.Ino, sum)
	}

	return nil
}
