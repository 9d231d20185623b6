package config

import (
	"path/filepath"
	"time"
)

// File describes a filesystem entry as exposed to exclude expressions.
type File struct {
	Path         string
	Name         string
	Directory    string
	Ext          string
	Size         int64
	ModifiedTime time.Time
}

func NewFile(path string, size int64, modifiedTime time.Time) File {
	return File{
		Path:         path,
		Name:         filepath.Base(path),
		Directory:    filepath.Dir(path),
		Ext:          filepath.Ext(path),
		Size:         size,
		ModifiedTime: modifiedTime,
	}
}

// AgeDays returns the age of the file in days, usable from expressions.
func (f File) AgeDays() float64 {
	return time.Since(f.ModifiedTime).Hours() / 24
}
