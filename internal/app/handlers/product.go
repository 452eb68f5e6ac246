package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/linemk/order-shop/internal/service"
)

// ProductPayload — товар каталога в ответе API.
type ProductPayload struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
}

// CreateProductRequest представляет входной JSON для добавления товара.
type CreateProductRequest struct {
	Name        string          `json:"name" validate:"required"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock" validate:"gte=0"`
}

// ProductsHandler обрабатывает запрос GET /api/products — весь каталог.
func ProductsHandler(log *slog.Logger, productService service.ProductService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ProductsHandler"
		logger := log.With(slog.String("op", op))

		products, err := productService.ListProducts(r.Context())
		if err != nil {
			logger.Error("failed to list products", slog.Any("error", err))
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		payload := make([]ProductPayload, 0, len(products))
		for _, product := range products {
			payload = append(payload, ProductPayload{
				ID:          product.ID,
				Name:        product.Name,
				Description: product.Description,
				Price:       product.Price,
				Stock:       product.Stock,
			})
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			logger.Error("failed to encode response", slog.Any("error", err))
		}
	}
}

// CreateProductHandler обрабатывает запрос POST /api/products.
func CreateProductHandler(log *slog.Logger, productService service.ProductService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CreateProductHandler"
		logger := log.With(slog.String("op", op))

		var req CreateProductRequest
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

		// validator не умеет decimal, цену проверяем отдельно
		if !req.Price.IsPositive() {
			logger.Error("invalid request: non-positive price")
			writeError(w, http.StatusBadRequest, "Price must be positive")
			return
		}

		product, err := productService.CreateProduct(r.Context(), req.Name, req.Description, req.Price, req.Stock)
		if err != nil {
			logger.Error("failed to create product", slog.Any("error", err))
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		resp := ProductPayload{
			ID:          product.ID,
			Name:        product.Name,
			Description: product.Description,
			Price:       product.Price,
			Stock:       product.Stock,
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			logger.Error("failed to encode response", slog.Any("error", err))
		}
	}
}
