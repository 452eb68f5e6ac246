package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/linemk/order-shop/internal/service"
)

// ErrorResponse — единый формат ошибок наружу.
type ErrorResponse struct {
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Message: message})
}

// statusForOrderError сопоставляет бизнес-ошибку движка заказов с внешним
// статусом и сообщением. Сопоставление зафиксировано для совместимости;
// ошибки хранилища наружу не детализируются.
func statusForOrderError(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrProductNotFound):
		return http.StatusNotFound, "Product not found"
	case errors.Is(err, service.ErrUserNotFound):
		return http.StatusNotFound, "User not found"
	case errors.Is(err, service.ErrInvalidQuantity):
		return http.StatusBadRequest, "Quantity must be a positive integer"
	case errors.Is(err, service.ErrInsufficientStock):
		return http.StatusBadRequest, "Not enough stock available"
	case errors.Is(err, service.ErrInsufficientBalance):
		return http.StatusBadRequest, "Insufficient balance"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}
