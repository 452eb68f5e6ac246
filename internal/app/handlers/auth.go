package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/linemk/order-shop/internal/domain/models"
	"github.com/linemk/order-shop/internal/service"
)

// RegisterRequest представляет структуру запроса регистрации с тегами валидации
type RegisterRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// LoginRequest представляет структуру запроса для аутентификации
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UserPayload — публичное представление пользователя (без хэша пароля).
type UserPayload struct {
	ID      int64           `json:"id"`
	Name    string          `json:"name"`
	Email   string          `json:"email"`
	Balance decimal.Decimal `json:"balance"`
}

// AuthResponse представляет структуру ответа с JWT-токеном и пользователем
type AuthResponse struct {
	Token string      `json:"token"`
	User  UserPayload `json:"user"`
}

var validate = validator.New()

func userPayload(user *models.User) UserPayload {
	return UserPayload{
		ID:      user.ID,
		Name:    user.Name,
		Email:   user.Email,
		Balance: user.Balance,
	}
}

// RegisterHandler – HTTP-обработчик регистрации, POST /api/auth/register.
func RegisterHandler(log *slog.Logger, authService service.AuthServiceInterface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.RegisterHandler"
		logger := log.With(slog.String("op", op))

		var req RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		// Валидация структуры запроса с использованием validator
		if err := validate.Struct(req); err != nil {
			logger.Error("invalid request: validation error", slog.Any("error", err))
			writeError(w, http.StatusBadRequest, "Validation error")
			return
		}

		token, user, err := authService.Register(r.Context(), req.Name, req.Email, req.Password)
		if err != nil {
			if errors.Is(err, service.ErrUserAlreadyExists) {
				logger.Warn("user already exists")
				writeError(w, http.StatusBadRequest, "User already exists")
				return
			}
			logger.Error("registration failed", slog.Any("error", err))
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		resp := AuthResponse{Token: token, User: userPayload(user)}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			logger.Error("failed to encode response", slog.Any("error", err))
		}
	}
}

// LoginHandler – HTTP-обработчик для аутентификации, POST /api/auth/login.
func LoginHandler(log *slog.Logger, authService service.AuthServiceInterface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.LoginHandler"
		logger := log.With(slog.String("op", op))

		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		if err := validate.Struct(req); err != nil {
			logger.Error("invalid request: validation error", slog.Any("error", err))
			writeError(w, http.StatusBadRequest, "Validation error")
			return
		}

		token, user, err := authService.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			if errors.Is(err, service.ErrInvalidCredentials) {
				logger.Warn("invalid credentials")
				writeError(w, http.StatusUnauthorized, "Invalid credentials")
				return
			}
			logger.Error("login failed", slog.Any("error", err))
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		resp := AuthResponse{Token: token, User: userPayload(user)}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			logger.Error("failed to encode response", slog.Any("error", err))
		}
	}
}
