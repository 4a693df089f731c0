package draft

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PGStore struct {
	DB *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{DB: db}
}

func (s *PGStore) Get(ctx context.Context, key string) (Record, error) {
	rec := Record{Key: key}
	err := s.DB.QueryRow(ctx, `
    SELECT doc, version, updated_at
    FROM employee_drafts
    WHERE owner_key = $1
  `, key).Scan(&rec.Doc, &rec.Version, &rec.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

func (s *PGStore) Put(ctx context.Context, key string, doc []byte, expectVersion int64) (Record, error) {
	rec := Record{Key: key, Doc: doc}
	var err error
	if expectVersion == 0 {
		err = s.DB.QueryRow(ctx, `
      INSERT INTO employee_drafts (owner_key, doc, version, updated_at)
      VALUES ($1, $2, 1, now())
      ON CONFLICT (owner_key) DO NOTHING
      RETURNING version, updated_at
    `, key, doc).Scan(&rec.Version, &rec.UpdatedAt)
	} else {
		err = s.DB.QueryRow(ctx, `
      UPDATE employee_drafts
      SET doc = $2, version = version + 1, updated_at = now()
      WHERE owner_key = $1 AND version = $3
      RETURNING version, updated_at
    `, key, doc, expectVersion).Scan(&rec.Version, &rec.UpdatedAt)
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrConflict
	}
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

func (s *PGStore) Delete(ctx context.Context, key string) error {
	_, err := s.DB.Exec(ctx, "DELETE FROM employee_drafts WHERE owner_key = $1", key)
	return err
}

func (s *PGStore) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.DB.Exec(ctx, "DELETE FROM employee_drafts WHERE updated_at < $1", cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
