package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/linemk/order-shop/internal/jwt/jwtmiddleware"
	"github.com/linemk/order-shop/internal/service"
)

// CreateOrderRequest представляет входной JSON для покупки товара.
type CreateOrderRequest struct {
	ProductID int64 `json:"productId" validate:"required"`
	Quantity  int   `json:"quantity" validate:"required,gt=0"`
}

// OrderPayload — заказ в ответе API.
type OrderPayload struct {
	ID         int64           `json:"id"`
	UserID     int64           `json:"userId"`
	ProductID  int64           `json:"productId"`
	Quantity   int             `json:"quantity"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// CreateOrderResponse — ответ при успешной покупке: заказ и баланс после списания.
type CreateOrderResponse struct {
	Order   OrderPayload    `json:"order"`
	Balance decimal.Decimal `json:"balance"`
}

// OrderHistoryItem — элемент истории заказов.
type OrderHistoryItem struct {
	ID          int64           `json:"id"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	TotalPrice  decimal.Decimal `json:"totalPrice"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// CreateOrderHandler обрабатывает запрос POST /api/orders.
// Обработчик проверяет только форму запроса; проверки остатка и баланса
// целиком живут в сервисе заказов.
func CreateOrderHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CreateOrderHandler"
		logger := log.With(slog.String("op", op))

		var req CreateOrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		if err := validate.Struct(req); err != nil {
			logger.Error("invalid request: validation error", slog.Any("error", err))
			writeError(w, http.StatusBadRequest, "Quantity must be a positive integer")
			return
		}

		// Извлекаем userID из контекста (установленный JWT middleware)
		userID, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("userID not found in context")
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		placed, err := orderService.PlaceOrder(r.Context(), userID, req.ProductID, req.Quantity)
		if err != nil {
			status, message := statusForOrderError(err)
			if status == http.StatusInternalServerError {
				logger.Error("failed to place order", slog.Any("error", err))
			} else {
				logger.Warn("order rejected", slog.Any("error", err))
			}
			writeError(w, status, message)
			return
		}

		resp := CreateOrderResponse{
			Order: OrderPayload{
				ID:         placed.Order.ID,
				UserID:     placed.Order.UserID,
				ProductID:  placed.Order.ProductID,
				Quantity:   placed.Order.Quantity,
				TotalPrice: placed.Order.TotalPrice,
				CreatedAt:  placed.Order.CreatedAt,
			},
			Balance: placed.Balance,
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			logger.Error("failed to encode response", slog.Any("error", err))
		}
	}
}

// ListOrdersHandler обрабатывает запрос GET /api/orders:
// история заказов пользователя от новых к старым.
func ListOrdersHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ListOrdersHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("userID not found in context")
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		orders, err := orderService.ListOrders(r.Context(), userID)
		if err != nil {
			logger.Error("failed to list orders", slog.Any("error", err))
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		items := make([]OrderHistoryItem, 0, len(orders))
		for _, order := range orders {
			items = append(items, OrderHistoryItem{
				ID:          order.ID,
				ProductName: order.ProductName,
				Quantity:    order.Quantity,
				TotalPrice:  order.TotalPrice,
				CreatedAt:   order.CreatedAt,
			})
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(items); err != nil {
			logger.Error("failed to encode response", slog.Any("error", err))
		}
	}
}
