package checkpoint

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

var ErrNotFound = errors.New("state not found")

//Store keeps the latest snapshot of each named component
type Store interface {
	Save(name string, data []byte) error
	Load(name string) ([]byte, error)
}

type fileStore struct {
	dir string
}

//NewFileStore stores one file per component under dir
func NewFileStore(dir string) (Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.WithMessagef(err, "can't create state dir %s", dir)
	}
	return &fileStore{dir: dir}, nil
}

func (f *fileStore) Save(name string, data []byte) error {
	tmp, err := os.CreateTemp(f.dir, "."+name+".*")
	if err != nil {
		return errors.WithMessagef(err, "can't create temp state file for %s", name)
	}
	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return errors.WithMessagef(err, "can't write state of %s", name)
	}
	if err = tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return errors.WithMessagef(err, "can't close state of %s", name)
	}
	return errors.WithMessagef(os.Rename(tmp.Name(), filepath.Join(f.dir, name)), "can't commit state of %s", name)
}

func (f *fileStore) Load(name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(f.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WithMessage(ErrNotFound, name)
		}
		return nil, errors.WithMessagef(err, "can't read state of %s", name)
	}
	return data, nil
}
