package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/trezcool/bossmaker/core/category"
)

type categoryRepository struct {
	db *categoryTable
}

var _ category.Repository = (*categoryRepository)(nil) // interface compliance check

func NewCategoryRepository(db *DB) *categoryRepository {
	return &categoryRepository{db: db.category}
}

func (repo *categoryRepository) query() []category.Category {
	cats := make([]category.Category, 0, len(repo.db.table))
	for _, cat := range repo.db.table {
		if !cat.IsDeleted {
			cats = append(cats, *cat)
		}
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i].CreatedAt.After(cats[j].CreatedAt) })
	return cats
}

func (repo *categoryRepository) CheckNameUniqueness(ctx context.Context, name, assigneeID string, excluded ...category.Category) error {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	excludedIDs := make(map[string]bool, len(excluded))
	for _, cat := range excluded {
		excludedIDs[cat.ID] = true
	}
	for _, cat := range repo.query() {
		if strings.EqualFold(cat.Name, name) && cat.AssigneeID == assigneeID && !excludedIDs[cat.ID] {
			return category.ErrNameExists
		}
	}
	return nil
}

func (repo *categoryRepository) CreateCategory(ctx context.Context, cat category.Category) (category.Category, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	cat.ID = uuid.New().String()
	repo.db.table[cat.ID] = &cat
	return cat, nil
}

func (repo *categoryRepository) GetCategory(ctx context.Context, id string) (category.Category, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if cat, ok := repo.db.table[id]; ok && !cat.IsDeleted {
		return *cat, nil
	}
	return category.Category{}, category.ErrNotFound
}

func (repo *categoryRepository) FilterCategories(ctx context.Context, filter category.QueryFilter) ([]category.Category, int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	matches := make([]category.Category, 0)
	for _, cat := range repo.query() {
		if filter.CreatedBy != "" && cat.CreatedBy != filter.CreatedBy {
			continue
		}
		if filter.Assignee != "" && cat.AssigneeID != filter.Assignee {
			continue
		}
		if filter.Search != "" && !matchesSearch(filter.Search, cat.Name) {
			continue
		}
		matches = append(matches, cat)
	}

	total := len(matches)
	start := (filter.Page - 1) * filter.Limit
	if start >= total {
		return []category.Category{}, total, nil
	}
	end := start + filter.Limit
	if end > total {
		end = total
	}
	return matches[start:end], total, nil
}

func (repo *categoryRepository) QueryCategoriesByUser(ctx context.Context, userID string) ([]category.Category, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	cats := make([]category.Category, 0)
	for _, cat := range repo.query() {
		if cat.CreatedBy == userID || cat.AssigneeID == userID {
			cats = append(cats, cat)
		}
	}
	return cats, nil
}

func (repo *categoryRepository) UpdateCategory(ctx context.Context, cat category.Category) (category.Category, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if existing, ok := repo.db.table[cat.ID]; !ok || existing.IsDeleted {
		return category.Category{}, category.ErrNotFound
	}
	repo.db.table[cat.ID] = &cat
	return cat, nil
}

func (repo *categoryRepository) SetCategoryStatus(ctx context.Context, id string, active bool) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	cat, ok := repo.db.table[id]
	if !ok || cat.IsDeleted {
		return category.ErrNotFound
	}
	cat.IsActive = active
	return nil
}

func (repo *categoryRepository) SoftDeleteCategory(ctx context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	cat, ok := repo.db.table[id]
	if !ok {
		return category.ErrNotFound
	}
	cat.IsDeleted = true
	return nil
}
