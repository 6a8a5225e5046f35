package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/bossmaker/core/user"
)

const (
	userInsertQuery = `
INSERT INTO users (id, first_name, last_name, email, password, role, mobile_no, dob, profile_image, is_active, created_by, permissions, created_at, updated_at)
VALUES (:id, :first_name, :last_name, :email, :password, :role, :mobile_no, :dob, :profile_image, :is_active, :created_by, :permissions, :created_at, :updated_at)`

	userUpdateQuery = `
UPDATE users
SET first_name = :first_name, last_name = :last_name, email = :email, password = :password,
    role = :role, mobile_no = :mobile_no, dob = :dob, profile_image = :profile_image,
    is_active = :is_active, permissions = :permissions, updated_at = :updated_at
WHERE id = :id`
)

type userRepository struct {
	db sqlx.ExtContext
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db sqlx.ExtContext) *userRepository {
	return &userRepository{db: db}
}

// trapNoRowsErr maps psql "no rows" err to user.ErrNotFound
func (repo userRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return user.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo userRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...user.User) error {
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE lower(email) = lower($1) AND id NOT IN (SELECT unnest($2::text[])))`
	ids := make([]string, 0, len(excludedUsers))
	for _, u := range excludedUsers {
		ids = append(ids, u.ID)
	}

	var exists bool
	if err := sqlx.GetContext(ctx, repo.db, &exists, query, email, pq.Array(ids)); err != nil {
		return errors.Wrap(err, "checking email uniqueness")
	}
	if exists {
		return user.ErrEmailExists
	}
	return nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.ID = uuid.New().String()
	if _, err := sqlx.NamedExecContext(ctx, repo.db, userInsertQuery, usr); err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	var (
		usr   user.User
		query string
		arg   string
	)
	switch {
	case filter.ID != "":
		query, arg = `SELECT * FROM users WHERE id = $1`, filter.ID
	case filter.Email != "":
		query, arg = `SELECT * FROM users WHERE lower(email) = lower($1)`, filter.Email
	default:
		return user.User{}, user.ErrNotFound
	}
	if err := sqlx.GetContext(ctx, repo.db, &usr, query, arg); err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "getting user")
	}
	return usr, nil
}

func (repo userRepository) GetUsersByID(ctx context.Context, ids ...string) ([]user.User, error) {
	users := []user.User{}
	if len(ids) == 0 {
		return users, nil
	}
	query, args, err := sqlx.In(`SELECT * FROM users WHERE id IN (?)`, ids)
	if err != nil {
		return nil, errors.Wrap(err, "building users query")
	}
	if err = sqlx.SelectContext(ctx, repo.db, &users, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying users by id")
	}
	return users, nil
}

func (repo userRepository) FilterUsers(ctx context.Context, filter user.QueryFilter) ([]user.User, int, error) {
	where := `WHERE role = $1 AND created_by = $2
  AND (first_name ILIKE $3 OR last_name ILIKE $3 OR email ILIKE $3)`
	search := "%" + filter.Search + "%"

	var total int
	if err := sqlx.GetContext(ctx, repo.db, &total, `SELECT count(*) FROM users `+where, filter.Role, filter.CreatedBy, search); err != nil {
		return nil, 0, errors.Wrap(err, "counting users")
	}

	users := []user.User{}
	query := `SELECT * FROM users ` + where + ` ORDER BY created_at DESC LIMIT $4 OFFSET $5`
	offset := (filter.Page - 1) * filter.Limit
	if err := sqlx.SelectContext(ctx, repo.db, &users, query, filter.Role, filter.CreatedBy, search, filter.Limit, offset); err != nil {
		return nil, 0, errors.Wrap(err, "filtering users")
	}
	return users, total, nil
}

func (repo userRepository) QueryUsersByCreator(ctx context.Context, createdBy string, role user.Role) ([]user.User, error) {
	users := []user.User{}
	query := `SELECT * FROM users WHERE created_by = $1 AND role = $2 ORDER BY created_at DESC`
	if err := sqlx.SelectContext(ctx, repo.db, &users, query, createdBy, role); err != nil {
		return nil, errors.Wrap(err, "querying users by creator")
	}
	return users, nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	res, err := sqlx.NamedExecContext(ctx, repo.db, userUpdateQuery, usr)
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}

func (repo userRepository) SetUserStatus(ctx context.Context, id string, active bool) error {
	res, err := repo.db.ExecContext(ctx, `UPDATE users SET is_active = $1, updated_at = $2 WHERE id = $3`, active, time.Now().UTC(), id)
	if err != nil {
		return errors.Wrap(err, "updating user status")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.ErrNotFound
	}
	return nil
}

func (repo userRepository) SetStatusByCreator(ctx context.Context, createdBy string, role user.Role, active bool) error {
	query := `UPDATE users SET is_active = $1, updated_at = $2 WHERE created_by = $3 AND role = $4`
	if _, err := repo.db.ExecContext(ctx, query, active, time.Now().UTC(), createdBy, role); err != nil {
		return errors.Wrap(err, "updating users status by creator")
	}
	return nil
}

func (repo userRepository) DeleteUsersByID(ctx context.Context, ids ...string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query, args, err := sqlx.In(`DELETE FROM users WHERE id IN (?)`, ids)
	if err != nil {
		return 0, errors.Wrap(err, "building delete query")
	}
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind(query), args...)
	if err != nil {
		return 0, errors.Wrap(err, "deleting users")
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}
