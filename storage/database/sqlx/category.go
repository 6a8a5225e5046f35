package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/bossmaker/core/category"
	"github.com/trezcool/bossmaker/core/user"
)

type categoryRepository struct {
	db sqlx.ExtContext
}

var _ category.Repository = (*categoryRepository)(nil) // interface compliance check

func NewCategoryRepository(db sqlx.ExtContext) *categoryRepository {
	return &categoryRepository{db: db}
}

func (repo categoryRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return category.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

// categoryRow joins the assignee's name onto the category columns.
type categoryRow struct {
	category.Category
	AssigneeFirstName string `db:"assignee_first_name"`
	AssigneeLastName  string `db:"assignee_last_name"`
}

func (row categoryRow) toCategory() category.Category {
	cat := row.Category
	cat.Assignee = &user.Ref{ID: cat.AssigneeID, FirstName: row.AssigneeFirstName, LastName: row.AssigneeLastName}
	return cat
}

const categorySelect = `
SELECT c.id, c.name, c.is_active, c.is_deleted, c.created_by, c.assignee_id, c.created_at, c.updated_at,
       coalesce(u.first_name, '') AS assignee_first_name, coalesce(u.last_name, '') AS assignee_last_name
FROM categories c
LEFT JOIN users u ON u.id = c.assignee_id`

func (repo categoryRepository) CheckNameUniqueness(ctx context.Context, name, assigneeID string, excluded ...category.Category) error {
	query := `
SELECT EXISTS (
  SELECT 1 FROM categories
  WHERE lower(name) = lower($1) AND assignee_id = $2 AND NOT is_deleted AND id NOT IN (SELECT unnest($3::text[]))
)`
	ids := make([]string, 0, len(excluded))
	for _, cat := range excluded {
		ids = append(ids, cat.ID)
	}

	var exists bool
	if err := sqlx.GetContext(ctx, repo.db, &exists, query, name, assigneeID, pq.Array(ids)); err != nil {
		return errors.Wrap(err, "checking category uniqueness")
	}
	if exists {
		return category.ErrNameExists
	}
	return nil
}

func (repo categoryRepository) CreateCategory(ctx context.Context, cat category.Category) (category.Category, error) {
	cat.ID = uuid.New().String()
	query := `
INSERT INTO categories (id, name, is_active, is_deleted, created_by, assignee_id, created_at, updated_at)
VALUES (:id, :name, :is_active, :is_deleted, :created_by, :assignee_id, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, repo.db, query, cat); err != nil {
		return category.Category{}, errors.Wrap(err, "inserting category")
	}
	return cat, nil
}

func (repo categoryRepository) GetCategory(ctx context.Context, id string) (category.Category, error) {
	var row categoryRow
	query := categorySelect + ` WHERE c.id = $1 AND NOT c.is_deleted`
	if err := sqlx.GetContext(ctx, repo.db, &row, query, id); err != nil {
		return category.Category{}, repo.trapNoRowsErr(err, "getting category")
	}
	return row.toCategory(), nil
}

func (repo categoryRepository) FilterCategories(ctx context.Context, filter category.QueryFilter) ([]category.Category, int, error) {
	where := `
WHERE NOT c.is_deleted
  AND c.name ILIKE $1
  AND ($2 = '' OR c.created_by = $2)
  AND ($3 = '' OR c.assignee_id = $3)`
	search := "%" + filter.Search + "%"

	var total int
	countQuery := `SELECT count(*) FROM categories c ` + where
	if err := sqlx.GetContext(ctx, repo.db, &total, countQuery, search, filter.CreatedBy, filter.Assignee); err != nil {
		return nil, 0, errors.Wrap(err, "counting categories")
	}

	rows := []categoryRow{}
	query := categorySelect + where + ` ORDER BY c.created_at DESC LIMIT $4 OFFSET $5`
	offset := (filter.Page - 1) * filter.Limit
	if err := sqlx.SelectContext(ctx, repo.db, &rows, query, search, filter.CreatedBy, filter.Assignee, filter.Limit, offset); err != nil {
		return nil, 0, errors.Wrap(err, "filtering categories")
	}

	cats := make([]category.Category, 0, len(rows))
	for _, row := range rows {
		cats = append(cats, row.toCategory())
	}
	return cats, total, nil
}

func (repo categoryRepository) QueryCategoriesByUser(ctx context.Context, userID string) ([]category.Category, error) {
	rows := []categoryRow{}
	query := categorySelect + ` WHERE NOT c.is_deleted AND (c.created_by = $1 OR c.assignee_id = $1)`
	if err := sqlx.SelectContext(ctx, repo.db, &rows, query, userID); err != nil {
		return nil, errors.Wrap(err, "querying categories by user")
	}
	cats := make([]category.Category, 0, len(rows))
	for _, row := range rows {
		cats = append(cats, row.toCategory())
	}
	return cats, nil
}

func (repo categoryRepository) UpdateCategory(ctx context.Context, cat category.Category) (category.Category, error) {
	query := `
UPDATE categories
SET name = :name, is_active = :is_active, assignee_id = :assignee_id, updated_at = :updated_at
WHERE id = :id AND NOT is_deleted`
	res, err := sqlx.NamedExecContext(ctx, repo.db, query, cat)
	if err != nil {
		return category.Category{}, errors.Wrap(err, "updating category")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return category.Category{}, category.ErrNotFound
	}
	return cat, nil
}

func (repo categoryRepository) SetCategoryStatus(ctx context.Context, id string, active bool) error {
	res, err := repo.db.ExecContext(ctx, `UPDATE categories SET is_active = $1, updated_at = $2 WHERE id = $3 AND NOT is_deleted`, active, time.Now().UTC(), id)
	if err != nil {
		return errors.Wrap(err, "updating category status")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return category.ErrNotFound
	}
	return nil
}

func (repo categoryRepository) SoftDeleteCategory(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `UPDATE categories SET is_deleted = true, updated_at = $1 WHERE id = $2`, time.Now().UTC(), id)
	if err != nil {
		return errors.Wrap(err, "deleting category")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return category.ErrNotFound
	}
	return nil
}
