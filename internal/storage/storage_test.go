package storage_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/linemk/order-shop/internal/storage"
)

func TestGetUserByID_Success(t *testing.T) {
	// Создаем sqlmock для эмуляции базы данных.
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewUserRepository(db)
	ctx := context.Background()
	userID := int64(1)

	// Подготавливаем ожидаемые строки результата.
	rows := sqlmock.NewRows([]string{"id", "name", "email", "pass_hash", "balance"}).
		AddRow(userID, "Test User", "test@example.com", []byte("hashed-password"), "100.00")

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, email, pass_hash, balance FROM users WHERE id = $1")).
		WithArgs(userID).WillReturnRows(rows)

	user, err := repo.GetUserByID(ctx, userID)
	assert.NoError(t, err, "Expected no error when user is found")
	assert.Equal(t, userID, user.ID)
	assert.Equal(t, "Test User", user.Name)
	assert.Equal(t, "test@example.com", user.Email)
	assert.Equal(t, []byte("hashed-password"), user.PassHash)
	assert.True(t, user.Balance.Equal(decimal.RequireFromString("100.00")), "Balance should be 100.00")

	// Проверяем, что все ожидания sqlmock выполнены.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUserByID_NoRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewUserRepository(db)
	ctx := context.Background()
	userID := int64(2)

	// Эмулируем ситуацию, когда запрос возвращает 0 строк.
	rows := sqlmock.NewRows([]string{"id", "name", "email", "pass_hash", "balance"})
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, email, pass_hash, balance FROM users WHERE id = $1")).
		WithArgs(userID).WillReturnRows(rows)

	_, err = repo.GetUserByID(ctx, userID)
	assert.ErrorIs(t, err, storage.ErrUserNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUserByEmail_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewUserRepository(db)
	ctx := context.Background()

	rows := sqlmock.NewRows([]string{"id", "name", "email", "pass_hash", "balance"}).
		AddRow(int64(5), "Buyer", "buyer@example.com", []byte("hash"), "42.50")

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, email, pass_hash, balance FROM users WHERE email = $1")).
		WithArgs("buyer@example.com").WillReturnRows(rows)

	user, err := repo.GetUserByEmail(ctx, "buyer@example.com")
	assert.NoError(t, err)
	assert.Equal(t, int64(5), user.ID)
	assert.True(t, user.Balance.Equal(decimal.RequireFromString("42.50")))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDecrementBalanceTx_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewUserRepository(db)
	ctx := context.Background()

	mock.ExpectBegin()
	amount := decimal.RequireFromString("20.00")
	rows := sqlmock.NewRows([]string{"balance"}).AddRow("80.00")
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE users SET balance = balance - $1, updated_at = NOW()")).
		WithArgs(amount, int64(1)).WillReturnRows(rows)

	tx, err := db.BeginTx(ctx, nil)
	assert.NoError(t, err)

	newBalance, err := repo.DecrementBalanceTx(ctx, tx, 1, amount)
	assert.NoError(t, err)
	assert.True(t, newBalance.Equal(decimal.RequireFromString("80.00")), "Balance after decrement should be 80.00")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDecrementBalanceTx_InsufficientBalance(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewUserRepository(db)
	ctx := context.Background()

	mock.ExpectBegin()
	amount := decimal.RequireFromString("999.00")
	// Защитное условие balance >= $1 не пропустило списание: 0 строк.
	rows := sqlmock.NewRows([]string{"balance"})
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE users SET balance = balance - $1, updated_at = NOW()")).
		WithArgs(amount, int64(1)).WillReturnRows(rows)

	tx, err := db.BeginTx(ctx, nil)
	assert.NoError(t, err)

	_, err = repo.DecrementBalanceTx(ctx, tx, 1, amount)
	assert.ErrorIs(t, err, storage.ErrInsufficientBalance)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLockProductByIDTx_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewProductRepository(db)
	ctx := context.Background()

	mock.ExpectBegin()
	rows := sqlmock.NewRows([]string{"id", "name", "description", "price", "stock"}).
		AddRow(int64(1), "Wireless Mouse", "2.4GHz wireless mouse", "20.00", 100)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, description, price, stock FROM products WHERE id = $1 FOR UPDATE NOWAIT")).
		WithArgs(int64(1)).WillReturnRows(rows)

	tx, err := db.BeginTx(ctx, nil)
	assert.NoError(t, err)

	product, err := repo.LockProductByIDTx(ctx, tx, 1)
	assert.NoError(t, err)
	assert.Equal(t, "Wireless Mouse", product.Name)
	assert.True(t, product.Price.Equal(decimal.RequireFromString("20.00")))
	assert.Equal(t, 100, product.Stock)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLockProductByIDTx_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewProductRepository(db)
	ctx := context.Background()

	mock.ExpectBegin()
	rows := sqlmock.NewRows([]string{"id", "name", "description", "price", "stock"})
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, description, price, stock FROM products WHERE id = $1 FOR UPDATE NOWAIT")).
		WithArgs(int64(404)).WillReturnRows(rows)

	tx, err := db.BeginTx(ctx, nil)
	assert.NoError(t, err)

	_, err = repo.LockProductByIDTx(ctx, tx, 404)
	assert.ErrorIs(t, err, storage.ErrProductNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDecrementStockTx_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewProductRepository(db)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE products SET stock = stock - $1, updated_at = NOW() WHERE id = $2 AND stock >= $1")).
		WithArgs(2, int64(1)).WillReturnResult(sqlmock.NewResult(0, 1))

	tx, err := db.BeginTx(ctx, nil)
	assert.NoError(t, err)

	err = repo.DecrementStockTx(ctx, tx, 1, 2)
	assert.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDecrementStockTx_InsufficientStock(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewProductRepository(db)
	ctx := context.Background()

	mock.ExpectBegin()
	// Защитное условие stock >= $1 не пропустило списание: 0 строк.
	mock.ExpectExec(regexp.QuoteMeta("UPDATE products SET stock = stock - $1, updated_at = NOW() WHERE id = $2 AND stock >= $1")).
		WithArgs(5, int64(1)).WillReturnResult(sqlmock.NewResult(0, 0))

	tx, err := db.BeginTx(ctx, nil)
	assert.NoError(t, err)

	err = repo.DecrementStockTx(ctx, tx, 1, 5)
	assert.ErrorIs(t, err, storage.ErrInsufficientStock)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrderTx_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewOrderRepository(db)
	ctx := context.Background()

	createdAt := time.Now()
	totalPrice := decimal.RequireFromString("20.00")

	mock.ExpectBegin()
	rows := sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(7), createdAt)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO orders (user_id, product_id, quantity, total_price, created_at)")).
		WithArgs(int64(1), int64(2), 2, totalPrice).WillReturnRows(rows)

	tx, err := db.BeginTx(ctx, nil)
	assert.NoError(t, err)

	order, err := repo.CreateOrderTx(ctx, tx, 1, 2, 2, totalPrice)
	assert.NoError(t, err)
	assert.Equal(t, int64(7), order.ID)
	assert.Equal(t, int64(1), order.UserID)
	assert.Equal(t, int64(2), order.ProductID)
	assert.Equal(t, 2, order.Quantity)
	assert.True(t, order.TotalPrice.Equal(totalPrice))
	assert.Equal(t, createdAt, order.CreatedAt)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrdersByUserID_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewOrderRepository(db)
	ctx := context.Background()
	userID := int64(1)

	now := time.Now()
	// Новые заказы идут первыми — порядок гарантирует ORDER BY в запросе.
	rows := sqlmock.NewRows([]string{"id", "user_id", "product_id", "name", "quantity", "total_price", "created_at"}).
		AddRow(int64(2), userID, int64(10), "4K Monitor", 1, "30.00", now).
		AddRow(int64(1), userID, int64(11), "Wireless Mouse", 2, "40.00", now.Add(-time.Hour))

	mock.ExpectQuery("SELECT o.id, o.user_id, o.product_id, p.name, o.quantity, o.total_price, o.created_at").
		WithArgs(userID).WillReturnRows(rows)

	orders, err := repo.GetOrdersByUserID(ctx, userID)
	assert.NoError(t, err)
	assert.Len(t, orders, 2)
	assert.Equal(t, "4K Monitor", orders[0].ProductName)
	assert.True(t, orders[0].TotalPrice.Equal(decimal.RequireFromString("30.00")))
	assert.Equal(t, "Wireless Mouse", orders[1].ProductName)
	assert.Equal(t, 2, orders[1].Quantity)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrdersByUserID_Empty(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewOrderRepository(db)
	ctx := context.Background()

	rows := sqlmock.NewRows([]string{"id", "user_id", "product_id", "name", "quantity", "total_price", "created_at"})
	mock.ExpectQuery("SELECT o.id, o.user_id, o.product_id, p.name, o.quantity, o.total_price, o.created_at").
		WithArgs(int64(9)).WillReturnRows(rows)

	orders, err := repo.GetOrdersByUserID(ctx, 9)
	assert.NoError(t, err)
	assert.Empty(t, orders)

	assert.NoError(t, mock.ExpectationsWereMet())
}
