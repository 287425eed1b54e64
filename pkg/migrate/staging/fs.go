package staging

import (
	"context"
	"path"
	"path/filepath"

	"github.com/spf13/afero"
)

// FsStore : an upload folder on a filesystem the destination mounts as well.
// Files land in <upload_folder>/<user>/<user_folder>/<dir>, the destination
// sees them as <user_folder>/<dir>
type FsStore struct {
	fs         afero.Fs
	root       string
	userFolder string
}

func NewFsStore(fs afero.Fs, uploadFolder string, user string, userFolder string) *FsStore {
	return &FsStore{
		fs:         fs,
		root:       filepath.Join(uploadFolder, user),
		userFolder: userFolder,
	}
}

func (s *FsStore) dir(dir string) string {
	return filepath.Join(s.root, s.userFolder, dir)
}

func (s *FsStore) Write(ctx context.Context, dir string, name string, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target := s.dir(dir)
	if err := s.fs.MkdirAll(target, 0755); err != nil {
		return err
	}
	return afero.WriteFile(s.fs, filepath.Join(target, name), payload, 0644)
}

func (s *FsStore) Location(dir string) string {
	return path.Join(s.userFolder, filepath.ToSlash(dir))
}

func (s *FsStore) Remove(ctx context.Context, dir string) error {
	return s.fs.RemoveAll(s.dir(dir))
}
