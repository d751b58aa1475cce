package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/stemsi/quizprep-backend/internal/model"
	"github.com/stemsi/quizprep-backend/internal/repository"
)

// AdminStore is the admin persistence used by AdminService.
type AdminStore interface {
	GetByID(ctx context.Context, id int) (*model.Admin, error)
	GetByEmail(ctx context.Context, email string) (*model.Admin, error)
	Create(ctx context.Context, admin *model.Admin) error
	TouchLogin(ctx context.Context, id int) (time.Time, error)
}

// AdminService handles admin accounts and login.
type AdminService struct {
	adminRepo AdminStore
	auth      *AuthService
}

// NewAdminService creates a new AdminService.
func NewAdminService(adminRepo AdminStore, auth *AuthService) *AdminService {
	return &AdminService{adminRepo: adminRepo, auth: auth}
}

// GetByID retrieves an admin by ID.
func (s *AdminService) GetByID(ctx context.Context, id int) (*model.Admin, error) {
	return s.adminRepo.GetByID(ctx, id)
}

// Login checks credentials and issues a token.
func (s *AdminService) Login(ctx context.Context, email, password string) (*model.AdminLoginResponse, error) {
	if err := s.auth.CheckLoginAllowed(ctx, email); err != nil {
		return nil, err
	}

	admin, err := s.adminRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if repository.IsNotFound(err) {
			_ = s.auth.RecordFailedLogin(ctx, email)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get admin: %w", err)
	}

	if err := s.auth.CheckPassword(admin.PasswordHash, password); err != nil {
		_ = s.auth.RecordFailedLogin(ctx, email)
		return nil, err
	}
	_ = s.auth.ClearFailedLogins(ctx, email)

	token, err := s.auth.GenerateAdminToken(admin.ID)
	if err != nil {
		return nil, err
	}
	// last_login_at is informational; a failed touch does not fail the login.
	if at, err := s.adminRepo.TouchLogin(ctx, admin.ID); err == nil {
		admin.LastLoginAt = &at
	}
	return &model.AdminLoginResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(s.auth.TokenTTL()).UTC(),
		Admin:     *admin,
	}, nil
}

// Create hashes the password and stores a new admin.
func (s *AdminService) Create(ctx context.Context, name, email, password string) (*model.Admin, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" || email == "" {
		return nil, errors.New("name and email are required")
	}
	if len(password) < 6 {
		return nil, ErrPasswordTooShort
	}

	hash, err := s.auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	admin := &model.Admin{Name: name, Email: email, PasswordHash: hash}
	if err := s.adminRepo.Create(ctx, admin); err != nil {
		return nil, err
	}
	return admin, nil
}
