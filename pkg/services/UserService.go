package services

import (
	"context"
	"fmt"
	"time"

	"github.com/adampresley/galleria/pkg/models"
	"github.com/rfberaldo/sqlz"
)

type UserServicer interface {
	GetAll() ([]models.User, error)
	GetUserByEmailAndPassword(email, password string) (*models.User, error)
	GetUserByID(userID uint) (*models.User, error)
}

type UserServiceConfig struct {
	DB *sqlz.DB
}

type UserService struct {
	db *sqlz.DB
}

func NewUserService(config UserServiceConfig) UserService {
	return UserService{
		db: config.DB,
	}
}

func (s UserService) GetAll() ([]models.User, error) {
	var (
		err   error
		users []models.User
	)

	sql := `
SELECT
   u.id
   , u.created_at
   , u.updated_at
   , u.deleted_at
   , u.email
   , u.password
   , u.name
FROM users AS u
WHERE 1=1
   AND u.deleted_at IS NULL
ORDER BY u.name
`

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err = s.db.Query(ctx, &users, sql); err != nil {
		return nil, fmt.Errorf("error querying for all users: %w", err)
	}

	return users, nil
}

func (s UserService) GetUserByEmailAndPassword(email, password string) (*models.User, error) {
	var (
		err error
	)

	result := &models.User{}

	sql := `
SELECT
   u.id
   , u.created_at
   , u.updated_at
   , u.deleted_at
   , u.email
   , u.password
   , u.name
FROM users AS u
WHERE 1=1
   AND u.deleted_at IS NULL
   AND u.email=?
   AND u.password=?
   `

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err = s.db.QueryRow(ctx, result, sql, email, password); err != nil {
		if sqlz.IsNotFound(err) {
			return nil, models.ErrUserNotFound
		}

		return nil, fmt.Errorf("error querying for user by email and password: %w", err)
	}

	return result, nil
}

func (s UserService) GetUserByID(userID uint) (*models.User, error) {
	var (
		err error
	)

	result := &models.User{}

	sql := `
SELECT
   u.id
   , u.created_at
   , u.updated_at
   , u.deleted_at
   , u.email
   , u.password
   , u.name
FROM users AS u
WHERE 1=1
   AND u.deleted_at IS NULL
   AND u.id=?
   `

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err = s.db.QueryRow(ctx, result, sql, userID); err != nil {
		if sqlz.IsNotFound(err) {
			return nil, models.ErrUserNotFound
		}

		return nil, fmt.Errorf("error querying for user %d: %w", userID, err)
	}

	return result, nil
}
