package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// User представляет пользователя магазина
type User struct {
	ID        int64
	Name      string
	Email     string // уникальный, используется для входа
	PassHash  []byte
	Balance   decimal.Decimal // денежный баланс, NUMERIC(10,2) в БД, не бывает отрицательным
	CreatedAt time.Time
	UpdatedAt time.Time
}
