package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/linemk/order-shop/internal/domain/models"
	"github.com/linemk/order-shop/internal/storage"
)

// OrderService осуществляет покупку товара и отдаёт историю заказов.
type OrderService interface {
	PlaceOrder(ctx context.Context, userID, productID int64, quantity int) (*PlacedOrder, error)
	ListOrders(ctx context.Context, userID int64) ([]*models.Order, error)
}

// PlacedOrder — результат успешной покупки: созданный заказ и баланс
// пользователя после списания, чтобы клиенту не требовалось второе чтение.
type PlacedOrder struct {
	Order   *models.Order
	Balance decimal.Decimal
}

type orderService struct {
	log         *slog.Logger
	db          *sql.DB
	userRepo    storage.UserStorage
	productRepo storage.ProductStorage
	orderRepo   storage.OrderStorage
}

func NewOrderService(log *slog.Logger, db *sql.DB, userRepo storage.UserStorage, productRepo storage.ProductStorage, orderRepo storage.OrderStorage) OrderService {
	return &orderService{
		log:         log,
		db:          db,
		userRepo:    userRepo,
		productRepo: productRepo,
		orderRepo:   orderRepo,
	}
}

// PlaceOrder осуществляет покупку товара в одной транзакции.
// Порядок шагов фиксированный: товар (остаток) проверяется раньше пользователя
// (баланса), поэтому запрос, не проходящий обе проверки, всегда получает
// ErrInsufficientStock. Обе строки блокируются в порядке товар -> пользователь.
// Если что-то идет не так, транзакция откатывается без частичных эффектов.
func (s *orderService) PlaceOrder(ctx context.Context, userID, productID int64, quantity int) (*PlacedOrder, error) {
	const op = "service.OrderService.PlaceOrder"
	logger := s.log.With(
		slog.String("op", op),
		slog.Int64("userID", userID),
		slog.Int64("productID", productID),
		slog.Int("quantity", quantity),
	)

	// Количество валидируется на границе, но движок перепроверяет сам.
	if quantity <= 0 {
		logger.Warn("non-positive quantity rejected")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidQuantity)
	}

	logger.Info("starting purchase transaction")

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("failed to begin transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}

	// Получаем товар с блокировкой строки через транзакцию
	product, err := s.productRepo.LockProductByIDTx(ctx, tx, productID)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		if errors.Is(err, storage.ErrProductNotFound) {
			logger.Warn("product not found")
			return nil, fmt.Errorf("%s: %w", op, ErrProductNotFound)
		}
		logger.Error("failed to get product", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get product: %w", op, err)
	}

	// Проверяем остаток; количество, равное остатку, допустимо
	if product.Stock < quantity {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Warn("insufficient stock", slog.Int("stock", product.Stock))
		return nil, fmt.Errorf("%s: %w", op, ErrInsufficientStock)
	}

	// Итоговая сумма считается в точной десятичной арифметике
	totalPrice := product.Price.Mul(decimal.NewFromInt(int64(quantity)))

	// Получаем пользователя с блокировкой строки через транзакцию
	user, err := s.userRepo.LockUserByIDTx(ctx, tx, userID)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		if errors.Is(err, storage.ErrUserNotFound) {
			logger.Warn("user not found")
			return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}
		logger.Error("failed to get user", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get user: %w", op, err)
	}

	// Проверяем, достаточно ли средств; сумма, равная балансу, допустима
	if user.Balance.LessThan(totalPrice) {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Warn("insufficient balance",
			slog.String("balance", user.Balance.String()),
			slog.String("totalPrice", totalPrice.String()))
		return nil, fmt.Errorf("%s: %w", op, ErrInsufficientBalance)
	}

	// Создаем заказ
	order, err := s.orderRepo.CreateOrderTx(ctx, tx, userID, productID, quantity, totalPrice)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Error("failed to create order", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to create order: %w", op, err)
	}

	// Списываем остаток товара
	if err := s.productRepo.DecrementStockTx(ctx, tx, productID, quantity); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		// Защитное условие в UPDATE: при гонке списание не проходит
		if errors.Is(err, storage.ErrInsufficientStock) {
			logger.Warn("stock changed under concurrent purchase")
			return nil, fmt.Errorf("%s: %w", op, ErrInsufficientStock)
		}
		logger.Error("failed to decrement stock", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to decrement stock: %w", op, err)
	}

	// Списываем сумму с баланса пользователя
	newBalance, err := s.userRepo.DecrementBalanceTx(ctx, tx, userID, totalPrice)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		if errors.Is(err, storage.ErrInsufficientBalance) {
			logger.Warn("balance changed under concurrent purchase")
			return nil, fmt.Errorf("%s: %w", op, ErrInsufficientBalance)
		}
		logger.Error("failed to decrement balance", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to decrement balance: %w", op, err)
	}

	// Коммит транзакции
	if err := tx.Commit(); err != nil {
		logger.Error("failed to commit transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	order.ProductName = product.Name

	logger.Info("purchase completed successfully",
		slog.Int64("orderID", order.ID),
		slog.String("totalPrice", totalPrice.String()))
	return &PlacedOrder{Order: order, Balance: newBalance}, nil
}

// ListOrders возвращает историю заказов пользователя от новых к старым.
// Чтение идёт вне транзакции: консистентность истории обеспечивается тем,
// что заказы неизменяемы после коммита.
func (s *orderService) ListOrders(ctx context.Context, userID int64) ([]*models.Order, error) {
	const op = "service.OrderService.ListOrders"
	s.log.Info("listing orders", slog.String("op", op), slog.Int64("userID", userID))

	orders, err := s.orderRepo.GetOrdersByUserID(ctx, userID)
	if err != nil {
		s.log.Error("failed to get orders", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get orders: %w", op, err)
	}
	return orders, nil
}
