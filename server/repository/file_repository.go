package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/ponyo877/pairchat/server/domain"
	"github.com/spf13/afero"
)

const tempSuffix = ".tmp"

// FileRepository keeps each image as a file in one directory. Writes land
// under a temporary name first so a reader never sees a partial file.
type FileRepository struct {
	fs afero.Fs
}

func NewFileRepository(base afero.Fs, dir string) (*FileRepository, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("storage directory is required")
	}
	if err := base.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create storage directory %s: %w", dir, err)
	}
	return &FileRepository{fs: afero.NewBasePathFs(base, dir)}, nil
}

func (r *FileRepository) SaveImage(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tmp := "." + name + tempSuffix
	if err := afero.WriteFile(r.fs, tmp, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := r.fs.Rename(tmp, name); err != nil {
		_ = r.fs.Remove(tmp)
		return fmt.Errorf("rename %s: %w", name, err)
	}
	return nil
}

func (r *FileRepository) GetImage(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(r.fs, name)
	if err != nil {
		if isNotExist(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

func (r *FileRepository) DeleteImage(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := r.fs.Remove(name); err != nil {
		if isNotExist(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("remove %s: %w", name, err)
	}
	return nil
}

// DeleteAllImages removes every file in the directory, including leftovers
// from writes that never completed.
func (r *FileRepository) DeleteAllImages(ctx context.Context) (int, error) {
	entries, err := afero.ReadDir(r.fs, ".")
	if err != nil {
		return 0, fmt.Errorf("list storage directory: %w", err)
	}
	deleted := 0
	var errs []error
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return deleted, err
		}
		if entry.IsDir() {
			continue
		}
		if err := r.fs.Remove(entry.Name()); err != nil && !isNotExist(err) {
			errs = append(errs, fmt.Errorf("remove %s: %w", entry.Name(), err))
			continue
		}
		deleted++
	}
	return deleted, errors.Join(errs...)
}

func (r *FileRepository) Close() error {
	return nil
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || os.IsNotExist(err)
}
