package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"example.com/storefront/internal/model"
	"example.com/storefront/internal/store"
)

type AuthService interface {
	Register(ctx context.Context, userName, email, password string) (model.User, error)
	Login(ctx context.Context, email, password string) (string, model.User, error) // returns JWT
	ParseToken(token string) (string, error)                                       // returns userID

	ListUsers(ctx context.Context) ([]model.User, error)
	GetUser(ctx context.Context, id string) (model.User, error)
	UpdateUser(ctx context.Context, id, userName, email string) (model.User, error)
	DeleteUser(ctx context.Context, id string) error
}

type AuthConfig struct {
	Secret []byte
	TTL    time.Duration
}

type authService struct {
	users    store.Users
	cfg      AuthConfig
	log      *zap.Logger
	validate *validator.Validate
	now      func() time.Time
}

func NewAuthService(users store.Users, cfg AuthConfig, log *zap.Logger) AuthService {
	if cfg.TTL <= 0 {
		cfg.TTL = time.Hour
	}
	return &authService{users: users, cfg: cfg, log: log, validate: validator.New(), now: time.Now}
}

type sessionClaims struct {
	Type string `json:"typ"`
	jwt.RegisteredClaims
}

func (a *authService) checkEmail(email string) error {
	if err := a.validate.Var(email, "required,email"); err != nil {
		return ErrInvalidEmail
	}
	return nil
}

// ---------------------------------------------------
// Register
// ---------------------------------------------------

func (a *authService) Register(ctx context.Context, userName, email, password string) (model.User, error) {
	email = strings.TrimSpace(email)
	if err := a.checkEmail(email); err != nil {
		return model.User{}, err
	}
	if password == "" {
		return model.User{}, ErrEmptyPassword
	}

	_, err := a.users.UserByEmail(ctx, email)
	if err == nil {
		return model.User{}, ErrEmailTaken
	}
	if !errors.Is(err, store.ErrNotFound) {
		return model.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return model.User{}, err
	}
	now := a.now()
	u := model.User{
		ID:           uuid.NewString(),
		UserName:     strings.TrimSpace(userName),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := a.users.CreateUser(ctx, &u); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return model.User{}, ErrEmailTaken
		}
		return model.User{}, err
	}
	a.log.Info("user registered", zap.String("user_id", u.ID))
	return u, nil
}

// ---------------------------------------------------
// Login
// ---------------------------------------------------

func (a *authService) Login(ctx context.Context, email, password string) (string, model.User, error) {
	u, err := a.users.UserByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, store.ErrNotFound) {
		return "", model.User{}, ErrUserNotFound
	}
	if err != nil {
		return "", model.User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", model.User{}, ErrBadPassword
	}

	now := a.now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		Type: "session",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.cfg.TTL)),
		},
	})
	token, err := t.SignedString(a.cfg.Secret)
	if err != nil {
		return "", model.User{}, err
	}
	return token, u, nil
}

// ---------------------------------------------------
// ParseToken
// ---------------------------------------------------

func (a *authService) ParseToken(token string) (string, error) {
	var claims sessionClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return a.cfg.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(a.now))
	if err != nil {
		return "", ErrInvalidToken
	}
	if claims.Type != "session" || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// ---------------------------------------------------
// Users
// ---------------------------------------------------

func (a *authService) ListUsers(ctx context.Context) ([]model.User, error) {
	us, err := a.users.ListUsers(ctx)
	if us == nil && err == nil {
		us = []model.User{}
	}
	return us, err
}

func (a *authService) GetUser(ctx context.Context, id string) (model.User, error) {
	u, err := a.users.UserByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return model.User{}, ErrUserNotFound
	}
	return u, err
}

func (a *authService) UpdateUser(ctx context.Context, id, userName, email string) (model.User, error) {
	existing, err := a.GetUser(ctx, id)
	if err != nil {
		return model.User{}, err
	}
	if userName = strings.TrimSpace(userName); userName != "" {
		existing.UserName = userName
	}
	if email = strings.TrimSpace(email); email != "" {
		if err := a.checkEmail(email); err != nil {
			return model.User{}, err
		}
		existing.Email = email
	}
	existing.UpdatedAt = a.now()

	if err := a.users.UpdateUser(ctx, &existing); err != nil {
		switch {
		case errors.Is(err, store.ErrDuplicate):
			return model.User{}, ErrEmailTaken
		case errors.Is(err, store.ErrNotFound):
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, err
	}
	return a.GetUser(ctx, id)
}

func (a *authService) DeleteUser(ctx context.Context, id string) error {
	err := a.users.DeleteUser(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrUserNotFound
	}
	return err
}
