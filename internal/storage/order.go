package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/linemk/order-shop/internal/domain/models"
)

// OrderStorage описывает методы для работы с заказами.
type OrderStorage interface {
	// CreateOrderTx вставляет новый заказ в таблицу orders внутри транзакции
	// и возвращает его вместе со сгенерированными id и временем создания.
	CreateOrderTx(ctx context.Context, tx *sql.Tx, userID, productID int64, quantity int, totalPrice decimal.Decimal) (*models.Order, error)
	// GetOrdersByUserID возвращает заказы пользователя, с JOIN для получения имени товара,
	// отсортированные от новых к старым.
	GetOrdersByUserID(ctx context.Context, userID int64) ([]*models.Order, error)
}

// orderRepository — конкретная реализация OrderStorage.
type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository создаёт новый репозиторий заказов.
func NewOrderRepository(db *sql.DB) OrderStorage {
	return &orderRepository{db: db}
}

func (r *orderRepository) CreateOrderTx(ctx context.Context, tx *sql.Tx, userID, productID int64, quantity int, totalPrice decimal.Decimal) (*models.Order, error) {
	order := &models.Order{
		UserID:     userID,
		ProductID:  productID,
		Quantity:   quantity,
		TotalPrice: totalPrice,
	}
	query := `INSERT INTO orders (user_id, product_id, quantity, total_price, created_at)
	          VALUES ($1, $2, $3, $4, NOW())
	          RETURNING id, created_at`
	if err := tx.QueryRowContext(ctx, query, userID, productID, quantity, totalPrice).
		Scan(&order.ID, &order.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	return order, nil
}

func (r *orderRepository) GetOrdersByUserID(ctx context.Context, userID int64) ([]*models.Order, error) {
	query := `
		SELECT o.id, o.user_id, o.product_id, p.name, o.quantity, o.total_price, o.created_at
		FROM orders o
		JOIN products p ON o.product_id = p.id
		WHERE o.user_id = $1
		ORDER BY o.created_at DESC, o.id DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		order := &models.Order{}
		if err := rows.Scan(&order.ID, &order.UserID, &order.ProductID, &order.ProductName, &order.Quantity, &order.TotalPrice, &order.CreatedAt); err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return orders, nil
}
