package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/jask/mccheck/internal/database"
	"github.com/jask/mccheck/internal/database/repository"
	"github.com/jask/mccheck/internal/verification"
)

// SQLite is the local store backed by a migrated sqlite database.
type SQLite struct {
	repo *repository.VerificationRepo
}

func NewSQLite(db *sql.DB) *SQLite {
	return &SQLite{repo: repository.NewVerificationRepo(db)}
}

func (s *SQLite) ListAll(ctx context.Context) ([]verification.Record, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, wrap("list", err)
	}
	if rows == nil {
		rows = []verification.Record{}
	}
	return rows, nil
}

func (s *SQLite) Insert(ctx context.Context, rec verification.NewRecord) error {
	return wrap("insert", s.repo.Insert(ctx, uuid.NewString(), database.Now(), rec))
}

func (s *SQLite) Update(ctx context.Context, id string, ch verification.Changes) error {
	ok, err := s.repo.Update(ctx, id, ch)
	if err != nil {
		return wrap("update", err)
	}
	if !ok {
		return notFound("update")
	}
	return nil
}

func (s *SQLite) Delete(ctx context.Context, id string) error {
	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		return wrap("delete", err)
	}
	if !ok {
		return notFound("delete")
	}
	return nil
}
