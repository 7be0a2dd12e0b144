package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/SudaisX/DB-Project/internal/domain"
	"github.com/SudaisX/DB-Project/pkg/database"
	apperrors "github.com/SudaisX/DB-Project/pkg/errors"
)

const userColumns = `id, name, email, password_hash, is_admin, created_at, updated_at`

const (
	insertUserSQL = `
		INSERT INTO users (id, name, email, password_hash, is_admin, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	selectUserByIDSQL    = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	selectUserByEmailSQL = `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`
	selectUsersSQL       = `SELECT ` + userColumns + ` FROM users ORDER BY created_at, id`
	updateUserSQL        = `
		UPDATE users
		SET name = $1, email = $2, password_hash = $3, is_admin = $4, updated_at = $5
		WHERE id = $6`
	deleteUserSQL = `DELETE FROM users WHERE id = $1`
)

// UserRepository implements repository.UserRepository using PostgreSQL.
type UserRepository struct {
	db database.DBTX
}

// NewUserRepository creates a new PostgreSQL-backed user repository.
func NewUserRepository(db database.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user into the database.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) (err error) {
	ctx, end := database.TraceQuery(ctx, "users.Create", insertUserSQL)
	defer func() { end(err) }()

	_, err = r.db.Exec(ctx, insertUserSQL,
		u.ID, u.Name, u.Email, u.PasswordHash, u.IsAdmin, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return apperrors.AlreadyExists("user", "email", u.Email)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by id.
func (r *UserRepository) GetByID(ctx context.Context, id string) (_ *domain.User, err error) {
	ctx, end := database.TraceQuery(ctx, "users.GetByID", selectUserByIDSQL)
	defer func() { end(err) }()

	u, err := scanUser(r.db.QueryRow(ctx, selectUserByIDSQL, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("user", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return u, nil
}

// GetByEmail retrieves a user by email, ignoring case.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (_ *domain.User, err error) {
	ctx, end := database.TraceQuery(ctx, "users.GetByEmail", selectUserByEmailSQL)
	defer func() { end(err) }()

	u, err := scanUser(r.db.QueryRow(ctx, selectUserByEmailSQL, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

// List returns every user.
func (r *UserRepository) List(ctx context.Context) (_ []domain.User, err error) {
	ctx, end := database.TraceQuery(ctx, "users.List", selectUsersSQL)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, selectUsersSQL)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := []domain.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

// Update overwrites the mutable fields of u.
func (r *UserRepository) Update(ctx context.Context, u *domain.User) (err error) {
	ctx, end := database.TraceQuery(ctx, "users.Update", updateUserSQL)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, updateUserSQL,
		u.Name, u.Email, u.PasswordHash, u.IsAdmin, u.UpdatedAt, u.ID,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return apperrors.AlreadyExists("user", "email", u.Email)
		}
		return fmt.Errorf("update user: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("user", u.ID)
	}
	return nil
}

// Delete removes a user. orders.user_id is ON DELETE RESTRICT, so a user who
// owns orders cannot be removed.
func (r *UserRepository) Delete(ctx context.Context, id string) (err error) {
	ctx, end := database.TraceQuery(ctx, "users.Delete", deleteUserSQL)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, deleteUserSQL, id)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return apperrors.Conflict("user still has orders and cannot be removed")
		}
		return fmt.Errorf("delete user: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("user", id)
	}
	return nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.IsAdmin, &u.CreatedAt, &u.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &u, nil
}
