package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/ponyo877/pairchat/server/domain"
)

const imagesSchema = `
	CREATE TABLE IF NOT EXISTS images (
		name TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		created_at TIMESTAMP NOT NULL
	)
`

// SQLiteRepository keeps image bytes as blobs in a single table.
type SQLiteRepository struct {
	db *sql.DB
}

func OpenSQLiteRepository(path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	// a single connection keeps ":memory:" databases shared and serializes writers
	db.SetMaxOpenConns(1)
	repo, err := NewSQLiteRepository(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

func NewSQLiteRepository(db *sql.DB) (*SQLiteRepository, error) {
	if _, err := db.Exec(imagesSchema); err != nil {
		return nil, fmt.Errorf("error creating images table: %w", err)
	}
	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) SaveImage(ctx context.Context, name string, data []byte) error {
	query := `INSERT INTO images (name, data, created_at) VALUES (?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, query, name, data, time.Now().UTC()); err != nil {
		return fmt.Errorf("error inserting image %s: %w", name, err)
	}
	return nil
}

func (r *SQLiteRepository) GetImage(ctx context.Context, name string) ([]byte, error) {
	query := `SELECT data FROM images WHERE name = ?`
	var data []byte
	if err := r.db.QueryRowContext(ctx, query, name).Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("error querying image %s: %w", name, err)
	}
	return data, nil
}

func (r *SQLiteRepository) DeleteImage(ctx context.Context, name string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM images WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("error deleting image %s: %w", name, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading affected rows: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) DeleteAllImages(ctx context.Context) (int, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM images`)
	if err != nil {
		return 0, fmt.Errorf("error deleting images: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("error reading affected rows: %w", err)
	}
	return int(affected), nil
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}
