package sqlxrepos

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/bossmaker/core/upload"
)

type uploadRepository struct {
	db sqlx.ExtContext
}

var _ upload.Repository = (*uploadRepository)(nil) // interface compliance check

func NewUploadRepository(db sqlx.ExtContext) *uploadRepository {
	return &uploadRepository{db: db}
}

func (repo uploadRepository) CreateUpload(ctx context.Context, rec upload.Record) (upload.Record, error) {
	rec.ID = uuid.New().String()
	query := `
INSERT INTO uploads (id, file_name, file_path, file_title, section_id, created_at, updated_at)
VALUES (:id, :file_name, :file_path, :file_title, :section_id, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, repo.db, query, rec); err != nil {
		return upload.Record{}, errors.Wrap(err, "inserting upload")
	}
	return rec, nil
}

func (repo uploadRepository) GetUploads(ctx context.Context, ids ...string) ([]upload.Record, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT * FROM uploads WHERE id IN (?)`, ids)
	if err != nil {
		return nil, errors.Wrap(err, "building uploads query")
	}
	recs := []upload.Record{}
	if err = sqlx.SelectContext(ctx, repo.db, &recs, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying uploads")
	}
	return recs, nil
}

func (repo uploadRepository) GetUploadsBySection(ctx context.Context, sectionID string) ([]upload.Record, error) {
	recs := []upload.Record{}
	if err := sqlx.SelectContext(ctx, repo.db, &recs, `SELECT * FROM uploads WHERE section_id = $1`, sectionID); err != nil {
		return nil, errors.Wrap(err, "querying uploads by section")
	}
	return recs, nil
}

func (repo uploadRepository) DeleteUploads(ctx context.Context, ids ...string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query, args, err := sqlx.In(`DELETE FROM uploads WHERE id IN (?)`, ids)
	if err != nil {
		return 0, errors.Wrap(err, "building delete query")
	}
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind(query), args...)
	if err != nil {
		return 0, errors.Wrap(err, "deleting uploads")
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}
