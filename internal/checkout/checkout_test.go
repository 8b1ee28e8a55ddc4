package checkout_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hounsou/bookstore/internal/cart"
	"github.com/hounsou/bookstore/internal/checkout"
	"github.com/hounsou/bookstore/internal/domain/models"
	"github.com/hounsou/bookstore/internal/storage"
	storerrors "github.com/hounsou/bookstore/internal/storage/errors"
)

type nopRecorder struct{}

func (nopRecorder) Record(string, string, string, map[string]any) {}

type captureHub struct {
	published []models.Order
}

func (h *captureHub) Publish(o models.Order) { h.published = append(h.published, o) }

func validForm() checkout.Form {
	return checkout.Form{
		FirstName:     "Ayaba",
		LastName:      "Hounsou",
		Email:         "ayaba@example.bj",
		Address:       "Rue 12.080",
		City:          "Cotonou",
		Country:       "Bénin",
		PaymentMethod: "mtn_momo",
	}
}

type fixture struct {
	ms      *storage.MemStorage
	cartMgr *cart.Manager
	hub     *captureHub
	builder *checkout.Builder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ms := storage.New()
	cartMgr := cart.New(ms, nopRecorder{})
	hub := &captureHub{}
	return &fixture{
		ms:      ms,
		cartMgr: cartMgr,
		hub:     hub,
		builder: checkout.New(ms, cartMgr, hub, nopRecorder{}),
	}
}

func (f *fixture) seed(t *testing.T, title string, price int64, stock int) string {
	t.Helper()
	bid, err := f.ms.SaveBook(models.Book{Title: title, Price: price, Stock: stock, Active: true})
	require.NoError(t, err)
	return bid
}

func TestPlaceOrderTotalsMatchCartSnapshot(t *testing.T) {
	f := newFixture(t)
	bidA := f.seed(t, "A", 25, 10)
	bidB := f.seed(t, "B", 30, 10)

	require.NoError(t, f.cartMgr.Add("u1", bidA, 2))
	require.NoError(t, f.cartMgr.Add("u1", bidB, 1))
	preTotal := f.cartMgr.TotalPrice("u1")

	order, err := f.builder.PlaceOrder("u1", validForm())
	require.NoError(t, err)

	assert.Equal(t, int64(80), order.Total)
	assert.Equal(t, preTotal, order.Total)
	assert.NotEmpty(t, order.Number)
	assert.Equal(t, models.OrderPending, order.Status)
	assert.Equal(t, models.PaymentStatusPending, order.PaymentStatus)

	_, items, err := f.ms.GetOrder(order.OID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	var lineSum int64
	totals := map[string]int64{}
	for _, it := range items {
		lineSum += it.Total
		totals[it.BID] = it.Total
	}
	assert.Equal(t, order.Total, lineSum)
	assert.Equal(t, int64(50), totals[bidA])
	assert.Equal(t, int64(30), totals[bidB])

	// Success clears the cart.
	assert.Empty(t, f.cartMgr.Snapshot("u1"))
	assert.Equal(t, int64(0), f.cartMgr.TotalPrice("u1"))

	// The notifier saw exactly this order.
	require.Len(t, f.hub.published, 1)
	assert.Equal(t, order.OID, f.hub.published[0].OID)
}

func TestOrderLinesKeepSnapshotPrices(t *testing.T) {
	f := newFixture(t)
	bid := f.seed(t, "Priced", 1500, 5)
	require.NoError(t, f.cartMgr.Add("u1", bid, 2))

	// A later catalogue price change must not leak into the order.
	book, err := f.ms.GetBook(bid)
	require.NoError(t, err)
	book.Price = 9999
	_, err = f.ms.SaveBook(book)
	require.NoError(t, err)

	order, err := f.builder.PlaceOrder("u1", validForm())
	require.NoError(t, err)

	_, items, err := f.ms.GetOrder(order.OID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, int64(1500), items[0].UnitPrice)
	assert.Equal(t, int64(3000), items[0].Total)
	assert.Equal(t, int64(3000), order.Total)
}

func TestEmptyCartRejected(t *testing.T) {
	f := newFixture(t)

	_, err := f.builder.PlaceOrder("u1", validForm())
	assert.ErrorIs(t, err, storerrors.ErrEmptyCart)
}

func TestValidationFailureWritesNothing(t *testing.T) {
	f := newFixture(t)
	bid := f.seed(t, "A", 25, 10)
	require.NoError(t, f.cartMgr.Add("u1", bid, 1))

	form := validForm()
	form.Email = ""
	_, err := f.builder.PlaceOrder("u1", form)
	require.Error(t, err)

	// No customer, no order, cart intact.
	_, err = f.ms.GetCustomer("u1")
	assert.ErrorIs(t, err, storerrors.ErrCustomerNotFound)
	orders, err := f.ms.GetOrders()
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.Len(t, f.cartMgr.Snapshot("u1"), 1)
}

func TestInvalidPaymentMethodRejected(t *testing.T) {
	f := newFixture(t)
	bid := f.seed(t, "A", 25, 10)
	require.NoError(t, f.cartMgr.Add("u1", bid, 1))

	form := validForm()
	form.PaymentMethod = "paypal"
	_, err := f.builder.PlaceOrder("u1", form)
	assert.ErrorIs(t, err, models.ErrInvalidPaymentMethod)
	assert.Len(t, f.cartMgr.Snapshot("u1"), 1)
}

type failingOrderStore struct {
	checkout.Store
}

var errOrderBoom = errors.New("order insert failed")

func (failingOrderStore) CreateOrder(models.Order, []models.OrderItem) (models.Order, error) {
	return models.Order{}, errOrderBoom
}

func TestCreateOrderFailureLeavesCartUnchanged(t *testing.T) {
	ms := storage.New()
	cartMgr := cart.New(ms, nopRecorder{})
	builder := checkout.New(failingOrderStore{Store: ms}, cartMgr, nil, nopRecorder{})

	bid, err := ms.SaveBook(models.Book{Title: "A", Price: 25, Stock: 10, Active: true})
	require.NoError(t, err)
	require.NoError(t, cartMgr.Add("u1", bid, 2))
	before := cartMgr.Snapshot("u1")

	_, err = builder.PlaceOrder("u1", validForm())
	require.ErrorIs(t, err, errOrderBoom)

	assert.Equal(t, before, cartMgr.Snapshot("u1"))
	assert.Equal(t, int64(50), cartMgr.TotalPrice("u1"))

	// No order row exists anywhere: nothing to orphan.
	orders, err := ms.GetOrders()
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestCheckoutBeyondStockRejected(t *testing.T) {
	f := newFixture(t)
	bid := f.seed(t, "Scarce", 40, 2)
	require.NoError(t, f.cartMgr.Add("u1", bid, 2))

	// Someone else bought the stock after the cart was filled.
	book, err := f.ms.GetBook(bid)
	require.NoError(t, err)
	book.Stock = 1
	_, err = f.ms.SaveBook(book)
	require.NoError(t, err)

	_, err = f.builder.PlaceOrder("u1", validForm())
	assert.ErrorIs(t, err, storerrors.ErrStockExhausted)
	assert.Len(t, f.cartMgr.Snapshot("u1"), 1)
}

func TestCheckoutDecrementsStock(t *testing.T) {
	f := newFixture(t)
	bid := f.seed(t, "Counted", 20, 5)
	require.NoError(t, f.cartMgr.Add("u1", bid, 3))

	_, err := f.builder.PlaceOrder("u1", validForm())
	require.NoError(t, err)

	book, err := f.ms.GetBook(bid)
	require.NoError(t, err)
	assert.Equal(t, 2, book.Stock)
}

func TestCustomerUpsertedOncePerUser(t *testing.T) {
	f := newFixture(t)
	bid := f.seed(t, "A", 25, 10)

	require.NoError(t, f.cartMgr.Add("u1", bid, 1))
	first, err := f.builder.PlaceOrder("u1", validForm())
	require.NoError(t, err)

	require.NoError(t, f.cartMgr.Add("u1", bid, 1))
	form := validForm()
	form.City = "Porto-Novo"
	second, err := f.builder.PlaceOrder("u1", form)
	require.NoError(t, err)

	assert.Equal(t, first.CustomerID, second.CustomerID)
	customer, err := f.ms.GetCustomer("u1")
	require.NoError(t, err)
	assert.Equal(t, "Porto-Novo", customer.City)
}
