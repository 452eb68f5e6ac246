package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/linemk/order-shop/internal/domain/models"
	"github.com/linemk/order-shop/internal/storage"
)

// ProductService определяет интерфейс для работы с каталогом.
type ProductService interface {
	ListProducts(ctx context.Context) ([]*models.Product, error)
	CreateProduct(ctx context.Context, name, description string, price decimal.Decimal, stock int) (*models.Product, error)
}

type productService struct {
	log         *slog.Logger
	productRepo storage.ProductStorage
}

func NewProductService(log *slog.Logger, productRepo storage.ProductStorage) ProductService {
	return &productService{
		log:         log,
		productRepo: productRepo,
	}
}

func (s *productService) ListProducts(ctx context.Context) ([]*models.Product, error) {
	const op = "service.ProductService.ListProducts"

	products, err := s.productRepo.GetProducts(ctx)
	if err != nil {
		s.log.Error("failed to list products", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return products, nil
}

func (s *productService) CreateProduct(ctx context.Context, name, description string, price decimal.Decimal, stock int) (*models.Product, error) {
	const op = "service.ProductService.CreateProduct"
	logger := s.log.With(slog.String("op", op), slog.String("name", name))

	product := &models.Product{
		Name:        name,
		Description: description,
		Price:       price,
		Stock:       stock,
	}
	created, err := s.productRepo.CreateProduct(ctx, product)
	if err != nil {
		logger.Error("failed to create product", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	logger.Info("product created", slog.Int64("productID", created.ID))
	return created, nil
}
