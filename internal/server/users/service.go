package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/filedrop/filedrop/internal/common"
	"github.com/filedrop/filedrop/internal/server/auth"
	"github.com/filedrop/filedrop/internal/server/config"
	"github.com/filedrop/filedrop/internal/server/models"
	"golang.org/x/crypto/bcrypt"
)

// AuthResult is returned to a successfully logged-in client.
type AuthResult struct {
	AccessToken string
	UserID      string
	UserName    string
}

type Service struct {
	repo                        Repository
	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration
}

func NewService(repo Repository, cfg *config.Config) *Service {
	return &Service{
		repo:                        repo,
		jwtSecret:                   []byte(cfg.SecretKey),
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
	}
}

func (s *Service) Register(ctx context.Context, username, password string) (*models.User, error) {

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		UserName:     username,
		PasswordHash: hash,
	}

	user, err = s.repo.Create(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	return user, nil
}

// Login verifies the credentials and mints an access token. Unknown user and
// wrong password produce the same ErrorUnauthorized.
func (s *Service) Login(ctx context.Context, userName, password string) (*AuthResult, error) {

	user, err := s.repo.GetUserByLogin(ctx, userName)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}

	if bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)) != nil {
		return nil, common.ErrorUnauthorized
	}

	accessToken, err := auth.GenerateToken(user.ID, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, common.ErrorInternal
	}

	return &AuthResult{AccessToken: accessToken, UserID: user.ID, UserName: user.UserName}, nil
}

// VerifyToken resolves a bearer token to the user id it was minted for.
func (s *Service) VerifyToken(tokenString string) (string, error) {
	return auth.GetUserIDFromToken(tokenString, s.jwtSecret)
}
