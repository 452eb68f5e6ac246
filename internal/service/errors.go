package service

import "errors"

// Закрытый набор бизнес-ошибок. Обработчики сопоставляют их со статусами
// ответов через errors.Is; любая ошибка вне набора считается ошибкой
// хранилища и наружу не детализируется.
var (
	ErrProductNotFound     = errors.New("product not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrInvalidQuantity     = errors.New("quantity must be positive")
	ErrInsufficientStock   = errors.New("not enough stock available")
	ErrInsufficientBalance = errors.New("insufficient balance")

	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)
