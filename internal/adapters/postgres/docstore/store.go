package docstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/Overland-East-Bay/trip-journal-api/internal/adapters/postgres"
	"github.com/Overland-East-Bay/trip-journal-api/internal/ports/out/docstore"
)

// Schema is the single table backing the document tree. The root directory is implicit.
const Schema = `
CREATE TABLE IF NOT EXISTS documents (
	path       TEXT PRIMARY KEY,
	is_dir     BOOLEAN NOT NULL,
	body       BYTEA,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Store is a Postgres implementation of docstore.Store.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// EnsureSchema creates the documents table when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if s.pool == nil {
		return errors.New("nil postgres pool")
	}
	_, err := s.pool.Exec(ctx, Schema)
	return err
}

func (s *Store) Get(ctx context.Context, p string) ([]byte, error) {
	if s.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	clean, err := docstore.Clean(p)
	if err != nil {
		return nil, err
	}
	var body []byte
	err = s.pool.QueryRow(ctx, `SELECT body FROM documents WHERE path = $1 AND NOT is_dir`, clean).Scan(&body)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", docstore.ErrNotFound, clean)
		}
		return nil, err
	}
	return body, nil
}

func (s *Store) Put(ctx context.Context, p string, data []byte) error {
	if s.pool == nil {
		return errors.New("nil postgres pool")
	}
	clean, err := docstore.Clean(p)
	if err != nil {
		return err
	}
	if clean == "" {
		return fmt.Errorf("%w: root is a directory", docstore.ErrInvalidPath)
	}

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if err := requireDir(ctx, tx, docstore.Parent(clean)); err != nil {
			return fmt.Errorf("%w: parent of %s", err, clean)
		}
		tag, err := tx.Exec(ctx, `
			INSERT INTO documents (path, is_dir, body, updated_at)
			VALUES ($1, FALSE, $2, now())
			ON CONFLICT (path) DO UPDATE SET
				body = EXCLUDED.body,
				updated_at = EXCLUDED.updated_at
			WHERE NOT documents.is_dir
		`, clean, data)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: %s is a directory", docstore.ErrInvalidPath, clean)
		}
		return nil
	})
}

func (s *Store) Mkdir(ctx context.Context, p string) error {
	if s.pool == nil {
		return errors.New("nil postgres pool")
	}
	clean, err := docstore.Clean(p)
	if err != nil {
		return err
	}
	if clean == "" {
		return fmt.Errorf("%w: root", docstore.ErrAlreadyExists)
	}

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if err := requireDir(ctx, tx, docstore.Parent(clean)); err != nil {
			return fmt.Errorf("%w: parent of %s", err, clean)
		}
		_, err := tx.Exec(ctx, `INSERT INTO documents (path, is_dir) VALUES ($1, TRUE)`, clean)
		if err != nil {
			if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.UniqueViolationCode {
				return fmt.Errorf("%w: %s", docstore.ErrAlreadyExists, clean)
			}
			return err
		}
		return nil
	})
}

func requireDir(ctx context.Context, tx pgx.Tx, dir string) error {
	if dir == "" {
		return nil
	}
	var isDir bool
	err := tx.QueryRow(ctx, `SELECT is_dir FROM documents WHERE path = $1`, dir).Scan(&isDir)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return docstore.ErrNotFound
		}
		return err
	}
	if !isDir {
		return docstore.ErrNotFound
	}
	return nil
}

var _ docstore.Store = (*Store)(nil)
