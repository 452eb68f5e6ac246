package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/linemk/order-shop/internal/domain/models"
)

var (
	ErrUserNotFound = errors.New("user not found")
	// ErrInsufficientBalance возвращается защитным условием списания, если
	// баланс оказался меньше суммы (balance >= $1 в UPDATE не сработал).
	ErrInsufficientBalance = errors.New("insufficient balance")
)

type UserStorage interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	// LockUserByIDTx читает пользователя с блокировкой строки (FOR UPDATE NOWAIT).
	LockUserByIDTx(ctx context.Context, tx *sql.Tx, id int64) (*models.User, error)
	// DecrementBalanceTx списывает сумму с баланса на стороне БД и возвращает баланс после списания.
	DecrementBalanceTx(ctx context.Context, tx *sql.Tx, id int64, amount decimal.Decimal) (decimal.Decimal, error)
}

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *userRepository {
	return &userRepository{db: db}
}

// получение уже существующего пользователя
func (r *userRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user := &models.User{}
	row := r.db.QueryRowContext(ctx, "SELECT id, name, email, pass_hash, balance FROM users WHERE email = $1", email)
	if err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PassHash, &user.Balance); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (r *userRepository) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		"INSERT INTO users (name, email, pass_hash, balance) VALUES ($1, $2, $3, $4) RETURNING id",
		user.Name, user.Email, user.PassHash, user.Balance,
	).Scan(&id)
	if err != nil {
		return nil, err
	}
	user.ID = id
	return user, nil
}

func (r *userRepository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	user := &models.User{}
	row := r.db.QueryRowContext(ctx, "SELECT id, name, email, pass_hash, balance FROM users WHERE id = $1", id)
	if err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PassHash, &user.Balance); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (r *userRepository) LockUserByIDTx(ctx context.Context, tx *sql.Tx, id int64) (*models.User, error) {
	user := &models.User{}

	row := tx.QueryRowContext(ctx, "SELECT id, name, email, pass_hash, balance FROM users WHERE id = $1 FOR UPDATE NOWAIT", id)
	if err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PassHash, &user.Balance); err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == "55P03" { // lock
				return nil, fmt.Errorf("user row is locked, please try again: %w", err)
			}
		}
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// Списание считается на стороне БД: условие balance >= $1 не даёт балансу
// уйти в минус, даже если строка каким-то образом не была заблокирована.
func (r *userRepository) DecrementBalanceTx(ctx context.Context, tx *sql.Tx, id int64, amount decimal.Decimal) (decimal.Decimal, error) {
	var balance decimal.Decimal
	row := tx.QueryRowContext(ctx,
		`UPDATE users SET balance = balance - $1, updated_at = NOW()
		 WHERE id = $2 AND balance >= $1
		 RETURNING balance`,
		amount, id)
	if err := row.Scan(&balance); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Decimal{}, ErrInsufficientBalance
		}
		return decimal.Decimal{}, fmt.Errorf("failed to decrement balance: %w", err)
	}
	return balance, nil
}
