package storerrors

import "errors"

var (
	ErrBookNotFound     = errors.New("book does not exist")
	ErrEmptyBooksList   = errors.New("empty books list")
	ErrCartItemNotFound = errors.New("cart item not found")
	ErrOrderNotFound    = errors.New("order does not exist")
	ErrCustomerNotFound = errors.New("customer does not exist")
	ErrUserExists       = errors.New("user already exists")
	ErrUserNotFound     = errors.New("user not found")
	ErrInvalidPassword  = errors.New("invalid password")
	ErrStockExhausted   = errors.New("not enough books in stock")
	ErrEmptyCart        = errors.New("cart is empty")
)
