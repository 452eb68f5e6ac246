package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/linemk/order-shop/internal/domain/models"
	security "github.com/linemk/order-shop/internal/jwt"
	"github.com/linemk/order-shop/internal/storage"
)

// стартовый баланс нового пользователя
var initialBalance = decimal.New(10000, -2) // 100.00

type AuthService struct {
	log      *slog.Logger
	userRepo storage.UserStorage
	tokenTTL time.Duration
}

func NewAuthService(log *slog.Logger, userRepo storage.UserStorage, tokenTTL time.Duration) *AuthService {
	return &AuthService{
		log:      log,
		userRepo: userRepo,
		tokenTTL: tokenTTL,
	}
}

type AuthServiceInterface interface {
	Register(ctx context.Context, name, email, password string) (string, *models.User, error)
	Login(ctx context.Context, email, password string) (string, *models.User, error)
}

// Register создаёт нового пользователя со стартовым балансом.
// Пароль хэшируется через bcrypt (который автоматически добавляет соль),
// после чего сразу выдаётся JWT-токен, чтобы клиенту не требовался отдельный вход.
func (a *AuthService) Register(ctx context.Context, name, email, password string) (string, *models.User, error) {
	const op = "auth.Register"
	logger := a.log.With(
		slog.String("op", op),
		slog.String("email", email),
	)
	logger.Info("registering user")

	// Проверяем, не занят ли email
	if _, err := a.userRepo.GetUserByEmail(ctx, email); err == nil {
		logger.Warn("user already exists")
		return "", nil, fmt.Errorf("%s: %w", op, ErrUserAlreadyExists)
	} else if !errors.Is(err, storage.ErrUserNotFound) {
		logger.Error("failed to check user", slog.Any("error", err))
		return "", nil, fmt.Errorf("%s: failed to check user: %w", op, err)
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("failed to hash password", slog.Any("error", err))
		return "", nil, fmt.Errorf("%s: failed to hash password: %w", op, err)
	}

	newUser := &models.User{
		Name:     name,
		Email:    email,
		PassHash: passHash,
		Balance:  initialBalance,
	}
	user, err := a.userRepo.CreateUser(ctx, newUser)
	if err != nil {
		logger.Error("failed to create user", slog.Any("error", err))
		return "", nil, fmt.Errorf("%s: failed to create user: %w", op, err)
	}

	token, err := security.NewToken(ctx, user, a.tokenTTL)
	if err != nil {
		logger.Error("failed to generate token", slog.Any("error", err))
		return "", nil, fmt.Errorf("%s: failed to generate token: %w", op, err)
	}

	logger.Info("user registered successfully", slog.Int64("userID", user.ID))
	return token, user, nil
}

// Login осуществляет аутентификацию пользователя: введённый пароль
// сравнивается с сохранённым хэшированным значением, после чего генерируется
// JWT-токен (секрет для подписи берется из переменной окружения).
// Неизвестный email и неверный пароль наружу неразличимы.
func (a *AuthService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	const op = "auth.Login"
	logger := a.log.With(
		slog.String("op", op),
		slog.String("email", email),
	)
	logger.Info("checking user")

	user, err := a.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			logger.Warn("user not found")
			return "", nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}
		logger.Error("failed to get user", slog.Any("error", err))
		return "", nil, fmt.Errorf("%s: failed to get user: %w", op, err)
	}

	if err := bcrypt.CompareHashAndPassword(user.PassHash, []byte(password)); err != nil {
		logger.Warn("invalid password")
		return "", nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	token, err := security.NewToken(ctx, user, a.tokenTTL)
	if err != nil {
		logger.Error("failed to generate token", slog.Any("error", err))
		return "", nil, fmt.Errorf("%s: failed to generate token: %w", op, err)
	}

	logger.Info("user logged in successfully", slog.Int64("userID", user.ID))
	return token, user, nil
}
