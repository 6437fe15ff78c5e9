package repository

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/ponyo877/pairchat/server/domain"
	"github.com/spf13/afero"
)

type imageRepository interface {
	SaveImage(ctx context.Context, name string, data []byte) error
	GetImage(ctx context.Context, name string) ([]byte, error)
	DeleteImage(ctx context.Context, name string) error
	DeleteAllImages(ctx context.Context) (int, error)
	Close() error
}

func setupRepositories(t *testing.T) map[string]imageRepository {
	t.Helper()

	fileRepo, err := NewFileRepository(afero.NewMemMapFs(), "/var/pairchat/temp")
	if err != nil {
		t.Fatalf("NewFileRepository() error = %v", err)
	}
	sqliteRepo, err := OpenSQLiteRepository(":memory:")
	if err != nil {
		t.Fatalf("OpenSQLiteRepository() error = %v", err)
	}
	t.Cleanup(func() {
		_ = sqliteRepo.Close()
	})

	return map[string]imageRepository{
		"file":   fileRepo,
		"sqlite": sqliteRepo,
	}
}

func TestImageRepository_SaveAndGet(t *testing.T) {
	for name, repo := range setupRepositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			data := []byte{0xFF, 0xD8, 0xFF, 0xE0, 1, 2, 3}

			if err := repo.SaveImage(ctx, "img-a.jpg", data); err != nil {
				t.Fatalf("SaveImage() error = %v", err)
			}
			got, err := repo.GetImage(ctx, "img-a.jpg")
			if err != nil {
				t.Fatalf("GetImage() error = %v", err)
			}
			if !bytes.Equal(got, data) {
				t.Errorf("GetImage() = %v, want %v", got, data)
			}
		})
	}
}

func TestImageRepository_NotFound(t *testing.T) {
	for name, repo := range setupRepositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if _, err := repo.GetImage(ctx, "img-missing.png"); !errors.Is(err, domain.ErrNotFound) {
				t.Errorf("GetImage() error = %v, want ErrNotFound", err)
			}
			if err := repo.DeleteImage(ctx, "img-missing.png"); !errors.Is(err, domain.ErrNotFound) {
				t.Errorf("DeleteImage() error = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestImageRepository_Delete(t *testing.T) {
	for name, repo := range setupRepositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if err := repo.SaveImage(ctx, "img-b.png", []byte("png")); err != nil {
				t.Fatalf("SaveImage() error = %v", err)
			}
			if err := repo.DeleteImage(ctx, "img-b.png"); err != nil {
				t.Fatalf("DeleteImage() error = %v", err)
			}
			if _, err := repo.GetImage(ctx, "img-b.png"); !errors.Is(err, domain.ErrNotFound) {
				t.Errorf("GetImage() after delete error = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestImageRepository_DeleteAll(t *testing.T) {
	for name, repo := range setupRepositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for _, n := range []string{"img-1.png", "img-2.gif", "img-3.webp"} {
				if err := repo.SaveImage(ctx, n, []byte(n)); err != nil {
					t.Fatalf("SaveImage(%s) error = %v", n, err)
				}
			}
			deleted, err := repo.DeleteAllImages(ctx)
			if err != nil {
				t.Fatalf("DeleteAllImages() error = %v", err)
			}
			if deleted != 3 {
				t.Errorf("deleted = %d, want 3", deleted)
			}
			if _, err := repo.GetImage(ctx, "img-2.gif"); !errors.Is(err, domain.ErrNotFound) {
				t.Errorf("GetImage() after purge error = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestFileRepository_DeleteAllRemovesLeftovers(t *testing.T) {
	base := afero.NewMemMapFs()
	if err := afero.WriteFile(base, "/temp/.img-stale.png.tmp", []byte("partial"), 0o600); err != nil {
		t.Fatalf("seed leftover: %v", err)
	}
	if err := afero.WriteFile(base, "/temp/unrelated.txt", []byte("x"), 0o600); err != nil {
		t.Fatalf("seed file: %v", err)
	}
	repo, err := NewFileRepository(base, "/temp")
	if err != nil {
		t.Fatalf("NewFileRepository() error = %v", err)
	}

	deleted, err := repo.DeleteAllImages(context.Background())
	if err != nil {
		t.Fatalf("DeleteAllImages() error = %v", err)
	}
	if deleted != 2 {
		t.Errorf("deleted = %d, want 2", deleted)
	}
	entries, err := afero.ReadDir(base, "/temp")
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("directory still has %d entries", len(entries))
	}
}

func TestFileRepository_RejectsEscapingNames(t *testing.T) {
	base := afero.NewMemMapFs()
	repo, err := NewFileRepository(base, "/temp")
	if err != nil {
		t.Fatalf("NewFileRepository() error = %v", err)
	}
	if _, err := repo.GetImage(context.Background(), "../secret"); err == nil {
		t.Errorf("GetImage(../secret) error = nil")
	}
}

func TestNewFileRepository_RequiresDir(t *testing.T) {
	if _, err := NewFileRepository(afero.NewMemMapFs(), " "); err == nil {
		t.Errorf("NewFileRepository() error = nil, want error")
	}
}
