package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/pkg/errors"

	"github.com/Cheertaboi/storefront-service/internal/models"
)

type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

const userColumns = `id, first_name, last_name, email, password_hash, role, blocked, created_at`

func (r *UserRepo) one(ctx context.Context, query string, args ...interface{}) (*models.User, error) {
	var u models.User
	err := conn(ctx, r.db).QueryRowContext(ctx, query, args...).Scan(
		&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash, &u.Role, &u.Blocked, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "get user")
	}
	return &u, nil
}

// Create stores the user; emails are unique case-insensitively.
func (r *UserRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	var created models.User
	err := conn(ctx, r.db).QueryRowContext(ctx, `
		INSERT INTO users (first_name, last_name, email, password_hash, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+userColumns,
		u.FirstName, u.LastName, strings.ToLower(u.Email), u.PasswordHash, u.Role,
	).Scan(&created.ID, &created.FirstName, &created.LastName, &created.Email, &created.PasswordHash,
		&created.Role, &created.Blocked, &created.CreatedAt)
	if err != nil {
		return nil, conflictOr(err, "email_taken", "an account with this email already exists", "create user")
	}
	return &created, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.one(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, strings.ToLower(email))
}

func (r *UserRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.one(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}
