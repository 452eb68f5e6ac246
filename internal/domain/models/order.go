package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order представляет заказ, созданный при покупке товара.
// Заказы неизменяемы: после создания строка не обновляется и не удаляется.
type Order struct {
	ID          int64
	UserID      int64
	ProductID   int64
	ProductName string // имя товара; заполняется через JOIN с таблицей products
	Quantity    int
	TotalPrice  decimal.Decimal // цена за единицу * количество на момент покупки
	CreatedAt   time.Time
}
