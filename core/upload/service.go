package upload

import (
	"context"
	"mime/multipart"
	"path"
	"time"

	"github.com/pkg/errors"
)

var (
	// errors
	ErrNotFound = errors.New("no matching files found")
)

type (
	Repository interface {
		CreateUpload(ctx context.Context, rec Record) (Record, error)
		GetUploads(ctx context.Context, ids ...string) ([]Record, error)
		GetUploadsBySection(ctx context.Context, sectionID string) ([]Record, error)
		DeleteUploads(ctx context.Context, ids ...string) (int, error)
	}

	// FileStore persists uploaded files and hands back their generated names.
	FileStore interface {
		Save(folder string, fh *multipart.FileHeader) (storedName string, err error)
		// Remove deletes a stored file; removal of an absent file is not an error.
		Remove(relPath string) error
	}

	ServiceInterface interface {
		Create(ctx context.Context, folder string, fh *multipart.FileHeader) (Record, error)
		GetMany(ctx context.Context, ids ...string) ([]Record, error)
		Delete(ctx context.Context, ids ...string) (int, error)
		CloneForSection(ctx context.Context, srcSectionID, dstSectionID string) error
		RemoveRecord(ctx context.Context, id string) error
	}

	Service struct {
		repo  Repository
		store FileStore
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository, store FileStore) *Service {
	return &Service{repo: repo, store: store}
}

// Create stores the file under uploads/<folder>/ and records it.
func (svc *Service) Create(ctx context.Context, folder string, fh *multipart.FileHeader) (Record, error) {
	storedName, err := svc.store.Save(folder, fh)
	if err != nil {
		return Record{}, errors.Wrap(err, "storing file")
	}
	now := time.Now().UTC()
	rec := Record{
		FileName:  fh.Filename,
		FilePath:  path.Join("uploads", folder, storedName),
		FileTitle: storedName,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateUpload(ctx, rec)
}

func (svc *Service) GetMany(ctx context.Context, ids ...string) ([]Record, error) {
	return svc.repo.GetUploads(ctx, ids...)
}

// Delete removes the records' backing files from disk, then the records.
// Files already gone from disk are skipped silently.
func (svc *Service) Delete(ctx context.Context, ids ...string) (int, error) {
	recs, err := svc.repo.GetUploads(ctx, ids...)
	if err != nil {
		return 0, err
	}
	if len(recs) == 0 {
		return 0, ErrNotFound
	}
	for _, rec := range recs {
		_ = svc.store.Remove(rec.StoreRelPath())
	}
	delIDs := make([]string, len(recs))
	for i, rec := range recs {
		delIDs[i] = rec.ID
	}
	return svc.repo.DeleteUploads(ctx, delIDs...)
}

// RemoveRecord deletes a single record and its file.
func (svc *Service) RemoveRecord(ctx context.Context, id string) error {
	recs, err := svc.repo.GetUploads(ctx, id)
	if err != nil {
		return err
	}
	for _, rec := range recs {
		_ = svc.store.Remove(rec.StoreRelPath())
	}
	if len(recs) > 0 {
		_, err = svc.repo.DeleteUploads(ctx, id)
	}
	return err
}

// CloneForSection duplicates the source section's upload records under the
// destination section. The backing files are shared, not copied.
func (svc *Service) CloneForSection(ctx context.Context, srcSectionID, dstSectionID string) error {
	recs, err := svc.repo.GetUploadsBySection(ctx, srcSectionID)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	for _, rec := range recs {
		clone := Record{
			FileName:  rec.FileName,
			FilePath:  rec.FilePath,
			FileTitle: rec.FileTitle,
			SectionID: dstSectionID,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if _, err = svc.repo.CreateUpload(ctx, clone); err != nil {
			return err
		}
	}
	return nil
}
