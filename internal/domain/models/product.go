package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product представляет товар каталога, доступный для покупки
type Product struct {
	ID          int64
	Name        string
	Description string
	Price       decimal.Decimal // цена за единицу, строго положительная
	Stock       int             // остаток на складе, не бывает отрицательным
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
