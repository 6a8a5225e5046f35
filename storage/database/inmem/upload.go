package inmemdb

import (
	"context"

	"github.com/google/uuid"

	"github.com/trezcool/bossmaker/core/upload"
)

type uploadRepository struct {
	db *uploadTable
}

var _ upload.Repository = (*uploadRepository)(nil) // interface compliance check

func NewUploadRepository(db *DB) *uploadRepository {
	return &uploadRepository{db: db.upload}
}

func (repo *uploadRepository) CreateUpload(ctx context.Context, rec upload.Record) (upload.Record, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	rec.ID = uuid.New().String()
	repo.db.table[rec.ID] = &rec
	return rec, nil
}

func (repo *uploadRepository) GetUploads(ctx context.Context, ids ...string) ([]upload.Record, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	recs := make([]upload.Record, 0, len(ids))
	for _, id := range ids {
		if rec, ok := repo.db.table[id]; ok {
			recs = append(recs, *rec)
		}
	}
	return recs, nil
}

func (repo *uploadRepository) GetUploadsBySection(ctx context.Context, sectionID string) ([]upload.Record, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	recs := make([]upload.Record, 0)
	for _, rec := range repo.db.table {
		if rec.SectionID == sectionID {
			recs = append(recs, *rec)
		}
	}
	return recs, nil
}

func (repo *uploadRepository) DeleteUploads(ctx context.Context, ids ...string) (int, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	var n int
	for _, id := range ids {
		if _, ok := repo.db.table[id]; ok {
			delete(repo.db.table, id)
			n++
		}
	}
	return n, nil
}
