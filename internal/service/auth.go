package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rongwang/litigation-tracker/internal/models"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Authentication methods
func (s *DefaultService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	// Get the user
	var user *models.User
	err := s.read(ctx, func(ctx context.Context) error {
		var err error
		user, err = s.repo.GetUser(ctx, req.Username)
		return err
	})
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("error getting user: %w", err)
	}

	hash := s.dummyHash
	if user != nil {
		hash = []byte(user.PasswordHash)
	}

	// Verify password. Always runs, even for unknown users.
	passwordErr := bcrypt.CompareHashAndPassword(hash, []byte(req.Password))

	switch {
	case user == nil:
		return nil, s.loginFailed(req.Username, "unknown_user")
	case passwordErr != nil:
		return nil, s.loginFailed(req.Username, "bad_password")
	case !user.Active:
		return nil, s.loginFailed(req.Username, "inactive")
	}

	// Generate JWT token
	token, err := s.generateJWT(user)
	if err != nil {
		return nil, fmt.Errorf("error generating token: %w", err)
	}

	s.metrics.LoginAttempt("success")
	s.logger.Info("login", zap.String("username", user.Username))

	return &models.AuthResponse{
		Status:    "success",
		Username:  user.Username,
		Role:      user.Role,
		Token:     token,
		ExpiresIn: int(s.tokenDuration.Seconds()),
	}, nil
}

// loginFailed records the reason internally; callers only ever see ErrInvalidCredentials.
func (s *DefaultService) loginFailed(username, reason string) error {
	s.metrics.LoginAttempt("failure")
	s.logger.Info("login failed", zap.String("username", username), zap.String("reason", reason))
	return ErrInvalidCredentials
}

// Authenticate verifies a bearer token and resolves the caller. The role is
// read from the user record so role changes and deactivation apply at once.
func (s *DefaultService) Authenticate(ctx context.Context, tokenString string) (models.Identity, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Validate the signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return s.jwtSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return models.Identity{}, ErrUnauthenticated
	}

	username, err := token.Claims.GetSubject()
	if err != nil || username == "" {
		return models.Identity{}, ErrUnauthenticated
	}

	var user *models.User
	err = s.read(ctx, func(ctx context.Context) error {
		var err error
		user, err = s.repo.GetUser(ctx, username)
		return err
	})
	if errors.Is(err, ErrNotFound) {
		return models.Identity{}, ErrUnauthenticated
	}
	if err != nil {
		return models.Identity{}, fmt.Errorf("error getting user: %w", err)
	}
	if !user.Active {
		return models.Identity{}, ErrUnauthenticated
	}

	return models.Identity{Username: user.Username, Role: user.Role}, nil
}

// Helper methods
func (s *DefaultService) generateJWT(user *models.User) (string, error) {
	now := s.now()
	expirationTime := now.Add(s.tokenDuration)

	claims := jwt.MapClaims{
		"sub":  user.Username, // subject
		"role": string(user.Role),
		"exp":  expirationTime.Unix(),
		"iat":  now.Unix(), // issued at
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

func (s *DefaultService) hashPassword(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", invalidInput("password must be at least %d characters", MinPasswordLength)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("error hashing password: %w", err)
	}
	return string(hashed), nil
}
