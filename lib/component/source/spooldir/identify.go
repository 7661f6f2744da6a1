package spooldir

import (
	"os"
	"syscall"

	"github.com/pkg/errors"
)

//Identify follows a file across renames
type Identify struct {
	Device uint64
	Inode  uint64
}

type fileOffset struct {
	Identify
	Offset int64
}

func convertPathToIdentify(filePath string) (Identify, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		return Identify{}, err
	}
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return Identify{}, errors.Errorf("can't stat %s", filePath)
	}
	return convertStatToIdentify(stat), nil
}

func convertStatToIdentify(stat *syscall.Stat_t) Identify {
	return Identify{Device: uint64(stat.Dev), Inode: stat.Ino}
}
