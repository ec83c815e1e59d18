package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"elevex/internal/entities"
	"elevex/internal/repository"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// UserStore is the account persistence the auth flow needs.
type UserStore interface {
	Create(ctx context.Context, u entities.User) error
	GetByEmail(ctx context.Context, email string) (entities.User, error)
	GetByID(ctx context.Context, id string) (entities.User, error)
}

// Claims is the JWT payload issued at login.
type Claims struct {
	UserID  string `json:"user_id"`
	IsAdmin bool   `json:"is_admin"`
	jwt.RegisteredClaims
}

// AuthUsecase handles registration, login and token verification.
type AuthUsecase struct {
	users  UserStore
	secret []byte
	expiry time.Duration
}

func NewAuthUsecase(users UserStore, secret string, expiry time.Duration) *AuthUsecase {
	return &AuthUsecase{users: users, secret: []byte(secret), expiry: expiry}
}

// Register creates an account on the free plan and returns it.
func (a *AuthUsecase) Register(ctx context.Context, name, company, email, password string) (entities.User, error) {
	if _, err := a.users.GetByEmail(ctx, email); err == nil {
		return entities.User{}, fmt.Errorf("email %q already registered", email)
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return entities.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return entities.User{}, fmt.Errorf("hash password: %w", err)
	}
	u := entities.User{
		ID:           uuid.NewString(),
		Name:         name,
		Company:      company,
		Email:        email,
		PasswordHash: string(hash),
		Plan:         "free",
		Status:       entities.StatusActive,
		JoinedAt:     time.Now().UTC(),
	}
	if err := a.users.Create(ctx, u); err != nil {
		return entities.User{}, err
	}
	return u, nil
}

// Login verifies credentials and issues a signed token.
func (a *AuthUsecase) Login(ctx context.Context, email, password string) (entities.User, string, error) {
	u, err := a.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		return entities.User{}, "", ErrInvalidCredentials
	}
	if err != nil {
		return entities.User{}, "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return entities.User{}, "", ErrInvalidCredentials
	}
	token, err := a.issue(u.ID, u.IsAdmin, a.expiry)
	if err != nil {
		return entities.User{}, "", err
	}
	return u, token, nil
}

// Verify parses a token and loads the account behind it.
func (a *AuthUsecase) Verify(ctx context.Context, tokenString string) (entities.User, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		return entities.User{}, ErrInvalidCredentials
	}
	return a.users.GetByID(ctx, claims.UserID)
}

func (a *AuthUsecase) issue(userID string, isAdmin bool, ttl time.Duration) (string, error) {
	claims := Claims{
		UserID:  userID,
		IsAdmin: isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
