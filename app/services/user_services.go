package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gebeta-app/gebeta/app/models"
	"github.com/gebeta-app/gebeta/app/repositories"
	"github.com/gebeta-app/gebeta/pkg/apperror"
	"github.com/gebeta-app/gebeta/pkg/orm"
	"github.com/gebeta-app/gebeta/pkg/rbac"
)

// ProfileInput is what a user may change on their own account. Absent
// fields are left alone.
type ProfileInput struct {
	Name        *string `json:"name" validate:"nullable,min=2,max=100"`
	Email       *string `json:"email" validate:"nullable,email"`
	PhoneNumber *string `json:"phoneNumber" validate:"nullable,phone"`
}

// AdminUserInput is what an admin may change on any account.
type AdminUserInput struct {
	Name            *string `json:"name" validate:"nullable,min=2,max=100"`
	Email           *string `json:"email" validate:"nullable,email"`
	PhoneNumber     *string `json:"phoneNumber" validate:"nullable,phone"`
	Role            *string `json:"role" validate:"nullable,in=user|restaurant_owner|admin"`
	IsPhoneVerified *bool   `json:"isPhoneVerified"`
	Active          *bool   `json:"active"`
}

type UserQuery struct {
	Search string
	Role   string
	Page   int
	Limit  int
}

// deactivatedMessage answers every sign-in attempt on a deactivated account.
const deactivatedMessage = "This account has been deactivated"

type UserService struct {
	users repositories.UserRepository
	now   Clock
}

func NewUserService(users repositories.UserRepository) *UserService {
	return &UserService{users: users, now: time.Now}
}

// WithClock replaces the time source.
func (s *UserService) WithClock(now Clock) *UserService {
	s.now = now
	return s
}

// Profile returns the actor's own account.
func (s *UserService) Profile(ctx context.Context, actor rbac.Actor) (*models.User, error) {
	if actor.IsAnonymous() {
		return nil, apperror.Authentication("Authentication required")
	}
	return s.Get(ctx, actor.ID)
}

func (s *UserService) UpdateProfile(ctx context.Context, actor rbac.Actor, in ProfileInput) (*models.User, error) {
	user, err := s.Profile(ctx, actor)
	if err != nil {
		return nil, err
	}
	applyProfile(user, in)
	return s.save(ctx, user)
}

// Deactivate closes the actor's account. The row is kept so orders and
// reviews still resolve; the account can no longer sign in.
func (s *UserService) Deactivate(ctx context.Context, actor rbac.Actor) error {
	user, err := s.Profile(ctx, actor)
	if err != nil {
		return err
	}
	if !user.Active() {
		return nil
	}
	user.DeactivatedAt = ptr(s.now())
	_, err = s.save(ctx, user)
	return err
}

func (s *UserService) List(ctx context.Context, q UserQuery) ([]models.User, orm.Pagination, error) {
	rows, p, err := s.users.List(ctx, repositories.UserFilter{
		Search: strings.TrimSpace(q.Search),
		Role:   q.Role,
		Page:   q.Page,
		Limit:  q.Limit,
	})
	if err != nil {
		return nil, orm.Pagination{}, apperror.Internal(err)
	}
	return rows, p, nil
}

func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "User")
	}
	return user, nil
}

func (s *UserService) Update(ctx context.Context, id uint, in AdminUserInput) (*models.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	applyProfile(user, ProfileInput{Name: in.Name, Email: in.Email, PhoneNumber: in.PhoneNumber})
	if in.Role != nil {
		user.Role = *in.Role
	}
	if in.IsPhoneVerified != nil {
		user.IsPhoneVerified = *in.IsPhoneVerified
	}
	if in.Active != nil {
		switch {
		case *in.Active:
			user.DeactivatedAt = nil
		case user.Active():
			user.DeactivatedAt = ptr(s.now())
		}
	}
	return s.save(ctx, user)
}

// Delete removes an account for good. Admins cannot delete themselves.
func (s *UserService) Delete(ctx context.Context, actor rbac.Actor, id uint) error {
	if actor.ID == id {
		return apperror.Validation("You cannot delete your own account")
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return lookup(err, "User")
	}
	return nil
}

func (s *UserService) save(ctx context.Context, user *models.User) (*models.User, error) {
	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, apperror.Validation("Email or phone number already registered")
		}
		return nil, apperror.Internal(err)
	}
	return user, nil
}

// applyProfile copies the present fields. A new phone number has to be
// verified again.
func applyProfile(user *models.User, in ProfileInput) {
	if in.Name != nil {
		user.Name = strings.TrimSpace(*in.Name)
	}
	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		user.Email = &email
	}
	if in.PhoneNumber != nil {
		phone := strings.TrimSpace(*in.PhoneNumber)
		if phone != user.Phone() {
			user.IsPhoneVerified = false
		}
		user.PhoneNumber = &phone
	}
}
