package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/linemk/order-shop/internal/domain/models"
)

var (
	ErrProductNotFound = errors.New("product not found")
	// ErrInsufficientStock возвращается защитным условием списания остатка
	// (stock >= $1 в UPDATE не сработал).
	ErrInsufficientStock = errors.New("not enough stock")
)

// ProductStorage описывает методы для работы с таблицей товаров.
type ProductStorage interface {
	// GetProducts возвращает весь каталог.
	GetProducts(ctx context.Context) ([]*models.Product, error)
	// CreateProduct добавляет новый товар в каталог.
	CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error)
	// LockProductByIDTx читает товар с блокировкой строки (FOR UPDATE NOWAIT).
	LockProductByIDTx(ctx context.Context, tx *sql.Tx, id int64) (*models.Product, error)
	// DecrementStockTx уменьшает остаток на стороне БД.
	DecrementStockTx(ctx context.Context, tx *sql.Tx, id int64, quantity int) error
}

// productRepository — конкретная реализация ProductStorage.
type productRepository struct {
	db *sql.DB
}

// NewProductRepository создаёт новый репозиторий товаров.
func NewProductRepository(db *sql.DB) ProductStorage {
	return &productRepository{db: db}
}

func (r *productRepository) GetProducts(ctx context.Context) ([]*models.Product, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, name, description, price, stock FROM products ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []*models.Product
	for rows.Next() {
		product := &models.Product{}
		if err := rows.Scan(&product.ID, &product.Name, &product.Description, &product.Price, &product.Stock); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *productRepository) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	err := r.db.QueryRowContext(ctx,
		"INSERT INTO products (name, description, price, stock) VALUES ($1, $2, $3, $4) RETURNING id",
		product.Name, product.Description, product.Price, product.Stock,
	).Scan(&product.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return product, nil
}

func (r *productRepository) LockProductByIDTx(ctx context.Context, tx *sql.Tx, id int64) (*models.Product, error) {
	product := &models.Product{}

	row := tx.QueryRowContext(ctx,
		"SELECT id, name, description, price, stock FROM products WHERE id = $1 FOR UPDATE NOWAIT", id)
	if err := row.Scan(&product.ID, &product.Name, &product.Description, &product.Price, &product.Stock); err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == "55P03" { // lock
				return nil, fmt.Errorf("product row is locked, please try again: %w", err)
			}
		}
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return product, nil
}

// Остаток списывается относительным UPDATE с условием stock >= $1:
// два конкурентных заказа не могут увести остаток в минус.
func (r *productRepository) DecrementStockTx(ctx context.Context, tx *sql.Tx, id int64, quantity int) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE products SET stock = stock - $1, updated_at = NOW() WHERE id = $2 AND stock >= $1",
		quantity, id)
	if err != nil {
		return fmt.Errorf("failed to decrement stock: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrInsufficientStock
	}
	return nil
}
