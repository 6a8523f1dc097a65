package services

import (
	"context"
	"errors"
	"strings"

	"github.com/gebeta-app/gebeta/app/models"
	"github.com/gebeta-app/gebeta/app/repositories"
	"github.com/gebeta-app/gebeta/pkg/apperror"
	"github.com/gebeta-app/gebeta/pkg/auth"
	"github.com/gebeta-app/gebeta/pkg/rbac"
)

type RegisterInput struct {
	Name        string `json:"name" validate:"required,min=2,max=100"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
	PhoneNumber string `json:"phoneNumber" validate:"nullable,phone"`
	Role        string `json:"role" validate:"nullable,in=user|restaurant_owner"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthService handles email and password accounts.
type AuthService struct {
	users repositories.UserRepository
}

func NewAuthService(users repositories.UserRepository) *AuthService {
	return &AuthService{users: users}
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	role := in.Role
	if role != models.RoleRestaurantOwner {
		role = models.RoleUser
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	user := &models.User{
		Name:     strings.TrimSpace(in.Name),
		Email:    &email,
		Password: hash,
		Role:     role,
	}
	if phone := strings.TrimSpace(in.PhoneNumber); phone != "" {
		user.PhoneNumber = &phone
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, apperror.Validation("Email or phone number already registered")
		}
		return nil, apperror.Internal(err)
	}
	return s.session(user)
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	user, err := s.users.FindByEmail(ctx, strings.TrimSpace(in.Email))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperror.Authentication("Invalid email or password")
		}
		return nil, apperror.Internal(err)
	}
	if user.Password == "" || !auth.CheckPassword(user.Password, in.Password) {
		return nil, apperror.Authentication("Invalid email or password")
	}
	if !user.Active() {
		return nil, apperror.Authentication(deactivatedMessage)
	}
	return s.session(user)
}

// Me returns the authenticated user.
func (s *AuthService) Me(ctx context.Context, actor rbac.Actor) (*models.User, error) {
	if actor.IsAnonymous() {
		return nil, apperror.Authentication("Authentication required")
	}
	user, err := s.users.FindByID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperror.Authentication("User no longer exists")
		}
		return nil, apperror.Internal(err)
	}
	if !user.Active() {
		return nil, apperror.Authentication(deactivatedMessage)
	}
	return user, nil
}

func (s *AuthService) session(user *models.User) (*AuthResult, error) {
	token, err := auth.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return &AuthResult{Token: token, User: user}, nil
}
