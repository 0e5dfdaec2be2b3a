// Package users handles user accounts and credential checks.
package users

import (
	"context"

	"github.com/filedrop/filedrop/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByLogin(ctx context.Context, userName string) (*models.User, error)
}
