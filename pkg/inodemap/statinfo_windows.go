package inodemap

import (
	"os"

	"github.com/pkg/errors"
)

func Stat(info os.FileInfo) (StatInfo, error) {
	return StatInfo{}, errors.New("hardlink deduplication is not supported on windows")
}
