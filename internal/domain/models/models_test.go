package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hounsou/bookstore/internal/domain/models"
)

func TestFormatPrice(t *testing.T) {
	cases := map[int64]string{
		0:       "0 FCFA",
		500:     "500 FCFA",
		2500:    "2 500 FCFA",
		12500:   "12 500 FCFA",
		1250000: "1 250 000 FCFA",
	}
	for amount, want := range cases {
		assert.Equal(t, want, models.FormatPrice(amount))
	}
}

func TestParsePaymentMethod(t *testing.T) {
	for _, s := range []string{"card", "mtn_momo", "moov_money", "celtiis_cash"} {
		method, err := models.ParsePaymentMethod(s)
		assert.NoError(t, err)
		assert.Equal(t, models.PaymentMethod(s), method)
	}
	_, err := models.ParsePaymentMethod("paypal")
	assert.ErrorIs(t, err, models.ErrInvalidPaymentMethod)
}

func TestBilingualFallback(t *testing.T) {
	book := models.Book{Title: "Kingdom Gold", TitleFr: "L'or des rois", Genre: "History"}
	assert.Equal(t, "L'or des rois", book.TitleIn("fr"))
	assert.Equal(t, "Kingdom Gold", book.TitleIn("en"))
	// No French genre set: fall back to the default.
	assert.Equal(t, "History", book.GenreIn("fr"))
}

func TestValidateOrder(t *testing.T) {
	items := []models.OrderItem{
		{BID: "b1", Quantity: 2, UnitPrice: 25, Total: 50},
		{BID: "b2", Quantity: 1, UnitPrice: 30, Total: 30},
	}
	order := models.Order{CustomerID: "c1", Total: 80}
	assert.NoError(t, models.ValidateOrder(order, items))

	order.Total = 81
	assert.ErrorIs(t, models.ValidateOrder(order, items), models.ErrTotalMismatch)

	order.Total = 80
	assert.ErrorIs(t, models.ValidateOrder(models.Order{Total: 80}, items), models.ErrMissingCustomer)
	assert.ErrorIs(t, models.ValidateOrder(order, nil), models.ErrNoOrderLines)
}
