package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/doculens/doculens-api/internal/apperr"
	"github.com/doculens/doculens-api/internal/models"
)

const userColumns = `id, email, name, password_hash, is_active, created_at`

type UserRepository interface {
	CreateUser(ctx context.Context, email, name, password string) (models.User, error)
	AuthenticateUser(ctx context.Context, email, password string) (models.User, error)
	GetUserByID(ctx context.Context, userID string) (models.User, error)
}

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) CreateUser(ctx context.Context, email, name, password string) (models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return models.User{}, apperr.ErrInvalidArgument
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, errors.Wrap(err, "hash password")
	}

	const query = `
		INSERT INTO users (id, email, name, password_hash, is_active, created_at)
		VALUES ($1, $2, $3, $4, TRUE, NOW())
		RETURNING ` + userColumns

	row := r.db.QueryRowContext(ctx, query, uuid.NewString(), email, models.DisplayName(name, email), string(hash))
	return scanUser(row)
}

func (r *userRepository) AuthenticateUser(ctx context.Context, email, password string) (models.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, strings.ToLower(strings.TrimSpace(email))))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, errors.New("invalid credentials")
		}
		return models.User{}, errors.Wrap(err, "authenticate user")
	}
	if !user.IsActive {
		return models.User{}, errors.New("user is inactive")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.User{}, errors.New("invalid credentials")
	}
	return user, nil
}

func (r *userRepository) GetUserByID(ctx context.Context, userID string) (models.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, apperr.ErrNotFound
		}
		return models.User{}, errors.Wrap(err, "get user")
	}
	return user, nil
}

func scanUser(scanner rowScanner) (models.User, error) {
	var user models.User
	if err := scanner.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.PasswordHash,
		&user.IsActive,
		&user.CreatedAt,
	); err != nil {
		return models.User{}, err
	}
	return user, nil
}
