package models

import (
	"errors"
	"time"
)

var (
	ErrMissingBID      = errors.New("book id is required")
	ErrMissingUID      = errors.New("user id is required")
	ErrBadQuantity     = errors.New("quantity must be at least 1")
	ErrMissingCustomer = errors.New("order has no customer reference")
	ErrNoOrderLines    = errors.New("order has no lines")
	ErrTotalMismatch   = errors.New("order total does not match its lines")
)

type Book struct {
	BID           string `json:"bid,omitempty"`
	Title         string `json:"title" validate:"required,min=2"`
	TitleFr       string `json:"title_fr"`
	Description   string `json:"description"`
	DescriptionFr string `json:"description_fr"`
	Genre         string `json:"genre"`
	GenreFr       string `json:"genre_fr"`
	Publisher     string `json:"publisher"`
	Year          int    `json:"year"`
	Price         int64  `json:"price" validate:"gte=0"`
	Stock         int    `json:"stock" validate:"gte=0"`
	Active        bool   `json:"active"`
	Featured      bool   `json:"featured"`
	CoverURL      string `json:"cover_url,omitempty"`
}

// TitleIn returns the title for the given language, falling back to the
// default when no translation is present.
func (b Book) TitleIn(lang string) string {
	if lang == "fr" && b.TitleFr != "" {
		return b.TitleFr
	}
	return b.Title
}

func (b Book) DescriptionIn(lang string) string {
	if lang == "fr" && b.DescriptionFr != "" {
		return b.DescriptionFr
	}
	return b.Description
}

func (b Book) GenreIn(lang string) string {
	if lang == "fr" && b.GenreFr != "" {
		return b.GenreFr
	}
	return b.Genre
}

type CartItem struct {
	ItemID   string `json:"iid,omitempty"`
	UID      string `json:"uid,omitempty"`
	BID      string `json:"bid"`
	Quantity int    `json:"quantity"`
}

func (ci CartItem) Validate() error {
	if ci.UID == "" {
		return ErrMissingUID
	}
	if ci.BID == "" {
		return ErrMissingBID
	}
	if ci.Quantity < 1 {
		return ErrBadQuantity
	}
	return nil
}

// CartLine is a cart item joined with the display fields of its book.
type CartLine struct {
	ItemID   string `json:"iid"`
	BID      string `json:"bid"`
	Title    string `json:"title"`
	TitleFr  string `json:"title_fr"`
	Price    int64  `json:"price"`
	Stock    int    `json:"stock"`
	CoverURL string `json:"cover_url,omitempty"`
	Quantity int    `json:"quantity"`
}

type Order struct {
	OID           string        `json:"oid,omitempty"`
	Number        string        `json:"number"`
	CustomerID    string        `json:"customer_id"`
	UID           string        `json:"uid"`
	Total         int64         `json:"total"`
	FirstName     string        `json:"first_name"`
	LastName      string        `json:"last_name"`
	Email         string        `json:"email"`
	Phone         string        `json:"phone,omitempty"`
	Address       string        `json:"address"`
	City          string        `json:"city"`
	PostalCode    string        `json:"postal_code,omitempty"`
	Country       string        `json:"country"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	Status        OrderStatus   `json:"status"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	Notes         string        `json:"notes,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
}

type OrderItem struct {
	OID       string `json:"oid,omitempty"`
	BID       string `json:"bid"`
	Title     string `json:"title"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
	Total     int64  `json:"total"`
}

// ValidateOrder checks the cross-record invariants before the order and its
// lines cross the storage boundary.
func ValidateOrder(o Order, items []OrderItem) error {
	if o.CustomerID == "" {
		return ErrMissingCustomer
	}
	if len(items) == 0 {
		return ErrNoOrderLines
	}
	var sum int64
	for _, it := range items {
		if it.Quantity < 1 {
			return ErrBadQuantity
		}
		sum += it.Total
	}
	if sum != o.Total {
		return ErrTotalMismatch
	}
	return nil
}

type Customer struct {
	CID        string `json:"cid,omitempty"`
	UID        string `json:"uid"`
	FirstName  string `json:"first_name" validate:"required"`
	LastName   string `json:"last_name" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Phone      string `json:"phone"`
	Address    string `json:"address" validate:"required"`
	City       string `json:"city" validate:"required"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country" validate:"required"`
}

type User struct {
	UID   string `json:"uuid,omitempty"`
	Email string `json:"email" validate:"required,email"`
	Pass  string `json:"pass" validate:"required,min=8"`
	Role  string `json:"role"`
}

type AnalyticsEvent struct {
	EventID   string         `json:"event_id,omitempty"`
	Name      string         `json:"name"`
	SessionID string         `json:"session_id,omitempty"`
	UID       string         `json:"uid,omitempty"`
	Attrs     map[string]any `json:"attrs,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
