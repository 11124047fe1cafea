package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rongwang/litigation-tracker/internal/models"
	"github.com/rongwang/litigation-tracker/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func (s *DefaultService) CurrentUser(ctx context.Context, id models.Identity) (*models.User, error) {
	if err := id.Require(models.PermRead); err != nil {
		return nil, err
	}

	var user *models.User
	err := s.read(ctx, func(ctx context.Context) error {
		var err error
		user, err = s.repo.GetUser(ctx, id.Username)
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *DefaultService) ChangePassword(ctx context.Context, id models.Identity, current, next string) error {
	if err := id.Require(models.PermRead); err != nil {
		return err
	}

	hashed, err := s.hashPassword(next)
	if err != nil {
		return err
	}

	err = s.withRetry(ctx, "change_password", func(ctx context.Context) error {
		_, err := s.repo.UpdateUser(ctx, id.Username, s.timestamp(), func(u *models.User, _ int) error {
			if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(current)) != nil {
				return ErrInvalidCredentials
			}
			u.PasswordHash = hashed
			return nil
		})
		return err
	})
	if err != nil {
		return err
	}

	s.logger.Info("password changed", zap.String("username", id.Username))
	return nil
}

func (s *DefaultService) CreateUser(ctx context.Context, id models.Identity, req models.CreateUserRequest) (*models.User, error) {
	if err := id.Require(models.PermAdmin); err != nil {
		return nil, err
	}

	username := strings.TrimSpace(req.Username)
	if username == "" {
		return nil, invalidInput("username is required")
	}
	role := models.Role(req.Role)
	if !role.Valid() {
		return nil, invalidInput("unknown role %q", req.Role)
	}

	user, err := s.createUser(ctx, username, req.Password, role, req.FullName, req.Email)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user created",
		zap.String("username", user.Username),
		zap.String("role", string(user.Role)),
		zap.String("by", id.Username))
	return user, nil
}

func (s *DefaultService) createUser(ctx context.Context, username, password string, role models.Role, fullName, email string) (*models.User, error) {
	// Hash the password
	hashed, err := s.hashPassword(password)
	if err != nil {
		return nil, err
	}

	now := s.timestamp()
	user := &models.User{
		Username:     username,
		FullName:     fullName,
		Email:        email,
		PasswordHash: hashed,
		Role:         role,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	sctx, cancel := s.storeContext(ctx)
	defer cancel()

	// Conflict here is a taken username, not a lost race worth retrying
	if err := s.repo.CreateUser(sctx, user, MaxUsers); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateUsername, username)
		}
		return nil, translate(err)
	}
	return user, nil
}

func (s *DefaultService) ListUsers(ctx context.Context, id models.Identity) ([]models.User, error) {
	if err := id.Require(models.PermAdmin); err != nil {
		return nil, err
	}

	var users []models.User
	err := s.read(ctx, func(ctx context.Context) error {
		var err error
		users, err = s.repo.ListUsers(ctx)
		return err
	})
	return users, err
}

// removesActiveAdmin reports whether going from before to after takes an
// active admin away.
func removesActiveAdmin(before, after models.User) bool {
	wasAdmin := before.Active && before.Role == models.RoleAdmin
	isAdmin := after.Active && after.Role == models.RoleAdmin
	return wasAdmin && !isAdmin
}

func (s *DefaultService) updateUser(
	ctx context.Context,
	op string,
	username string,
	edit func(u *models.User),
) (*models.User, error) {
	var updated *models.User
	err := s.withRetry(ctx, op, func(ctx context.Context) error {
		var err error
		updated, err = s.repo.UpdateUser(ctx, username, s.timestamp(), func(u *models.User, activeAdmins int) error {
			before := *u
			edit(u)
			if removesActiveAdmin(before, *u) && activeAdmins <= 1 {
				return ErrLastAdminProtected
			}
			return nil
		})
		return err
	})
	if errors.Is(err, ErrNotFound) {
		return nil, notFound("user", username)
	}
	return updated, err
}

func (s *DefaultService) SetUserActive(ctx context.Context, id models.Identity, username string, active bool) (*models.User, error) {
	return s.UpdateUser(ctx, id, username, models.UserUpdate{Active: &active})
}

func (s *DefaultService) SetUserRole(ctx context.Context, id models.Identity, username string, role models.Role) (*models.User, error) {
	return s.UpdateUser(ctx, id, username, models.UserUpdate{Role: &role})
}

// UpdateUser applies every field of upd in one store transaction, so a
// rejected field leaves the account untouched.
func (s *DefaultService) UpdateUser(ctx context.Context, id models.Identity, username string, upd models.UserUpdate) (*models.User, error) {
	if err := id.Require(models.PermAdmin); err != nil {
		return nil, err
	}
	if upd.Role != nil && !upd.Role.Valid() {
		return nil, invalidInput("unknown role %q", *upd.Role)
	}
	if upd.Active == nil && upd.Role == nil {
		return nil, invalidInput("nothing to update")
	}

	user, err := s.updateUser(ctx, "update_user", username, func(u *models.User) {
		if upd.Active != nil {
			u.Active = *upd.Active
		}
		if upd.Role != nil {
			u.Role = *upd.Role
		}
	})
	if err != nil {
		return nil, err
	}

	fields := []zap.Field{zap.String("username", username), zap.String("by", id.Username)}
	if upd.Active != nil {
		fields = append(fields, zap.Bool("active", *upd.Active))
	}
	if upd.Role != nil {
		fields = append(fields, zap.String("role", string(*upd.Role)))
	}
	s.logger.Info("user updated", fields...)
	return user, nil
}

// DeleteUser removes an account that never authored a record. Accounts
// with history have to be deactivated instead.
func (s *DefaultService) DeleteUser(ctx context.Context, id models.Identity, username string) error {
	if err := id.Require(models.PermAdmin); err != nil {
		return err
	}
	if username == id.Username {
		return invalidInput("cannot delete your own account")
	}

	err := s.withRetry(ctx, "delete_user", func(ctx context.Context) error {
		return s.repo.DeleteUser(ctx, username, func(u *models.User, activeAdmins int) error {
			if u.Active && u.Role == models.RoleAdmin && activeAdmins <= 1 {
				return ErrLastAdminProtected
			}
			return nil
		})
	})
	switch {
	case errors.Is(err, ErrNotFound):
		return notFound("user", username)
	case errors.Is(err, repository.ErrReferenced):
		return fmt.Errorf("%s: %w", username, ErrUserHasRecords)
	case err != nil:
		return err
	}

	s.logger.Info("user deleted", zap.String("username", username), zap.String("by", id.Username))
	return nil
}

func (s *DefaultService) ResetPassword(ctx context.Context, id models.Identity, username, newPassword string) error {
	if err := id.Require(models.PermAdmin); err != nil {
		return err
	}

	hashed, err := s.hashPassword(newPassword)
	if err != nil {
		return err
	}

	_, err = s.updateUser(ctx, "reset_password", username, func(u *models.User) {
		u.PasswordHash = hashed
	})
	if err != nil {
		return err
	}

	s.logger.Info("password reset", zap.String("username", username), zap.String("by", id.Username))
	return nil
}

// EnsureDefaultAdmin seeds an admin account when no users exist yet.
// It reports whether an account was created.
func (s *DefaultService) EnsureDefaultAdmin(ctx context.Context, username, password string) (bool, error) {
	var count int
	err := s.read(ctx, func(ctx context.Context) error {
		var err error
		count, err = s.repo.CountUsers(ctx)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("error counting users: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	if _, err := s.createUser(ctx, username, password, models.RoleAdmin, "Administrator", ""); err != nil {
		// Another process seeded it first
		if errors.Is(err, ErrDuplicateUsername) {
			return false, nil
		}
		return false, err
	}

	s.logger.Warn("seeded default admin account; change its password", zap.String("username", username))
	return true, nil
}
