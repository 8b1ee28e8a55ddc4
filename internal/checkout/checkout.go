package checkout

import (
	"fmt"
	"time"

	"github.com/go-playground/validator"
	"github.com/google/uuid"

	"github.com/hounsou/bookstore/internal/domain/models"
	"github.com/hounsou/bookstore/internal/logger"
	storerrors "github.com/hounsou/bookstore/internal/storage/errors"
)

// Store is the slice of the data store the order builder needs. CreateOrder
// must persist the order and all of its lines atomically.
type Store interface {
	UpsertCustomer(models.Customer) (string, error)
	CreateOrder(models.Order, []models.OrderItem) (models.Order, error)
}

// Cart is the slice of the cart manager the builder consumes.
type Cart interface {
	Snapshot(uid string) []models.CartLine
	Load(uid string) ([]models.CartLine, error)
	Clear(uid string) error
}

// Publisher receives every successfully created order (realtime notifier).
type Publisher interface {
	Publish(models.Order)
}

type Recorder interface {
	Record(name, sessionID, uid string, attrs map[string]any)
}

// Form carries the checkout submission. Phone, postal code and notes are the
// only optional fields.
type Form struct {
	FirstName     string `json:"first_name" validate:"required"`
	LastName      string `json:"last_name" validate:"required"`
	Email         string `json:"email" validate:"required,email"`
	Phone         string `json:"phone"`
	Address       string `json:"address" validate:"required"`
	City          string `json:"city" validate:"required"`
	PostalCode    string `json:"postal_code"`
	Country       string `json:"country" validate:"required"`
	PaymentMethod string `json:"payment_method" validate:"required"`
	Notes         string `json:"notes"`
}

type Builder struct {
	store  Store
	cart   Cart
	hub    Publisher
	events Recorder
	valid  *validator.Validate
}

func New(store Store, cart Cart, hub Publisher, events Recorder) *Builder {
	return &Builder{
		store:  store,
		cart:   cart,
		hub:    hub,
		events: events,
		valid:  validator.New(),
	}
}

// PlaceOrder turns the user's cart into a persisted order.
//
// The order total and every line's unit price come from one cart snapshot
// taken at submission, so total == sum of lines by construction. The order
// and its lines are written in a single store transaction; the cart is
// cleared only after that succeeds, so any failure leaves the cart intact
// for a retry.
func (b *Builder) PlaceOrder(uid string, form Form) (models.Order, error) {
	log := logger.Get()

	if err := b.valid.Struct(form); err != nil {
		return models.Order{}, err
	}
	method, err := models.ParsePaymentMethod(form.PaymentMethod)
	if err != nil {
		return models.Order{}, err
	}

	// The session snapshot is authoritative: its prices were fixed by the
	// last cart mutation and both the order total and every line price are
	// derived from it. Load only when this session never touched the cart.
	lines := b.cart.Snapshot(uid)
	if len(lines) == 0 {
		var err error
		lines, err = b.cart.Load(uid)
		if err != nil {
			return models.Order{}, err
		}
	}
	if len(lines) == 0 {
		return models.Order{}, storerrors.ErrEmptyCart
	}

	cid, err := b.store.UpsertCustomer(models.Customer{
		UID:        uid,
		FirstName:  form.FirstName,
		LastName:   form.LastName,
		Email:      form.Email,
		Phone:      form.Phone,
		Address:    form.Address,
		City:       form.City,
		PostalCode: form.PostalCode,
		Country:    form.Country,
	})
	if err != nil {
		return models.Order{}, fmt.Errorf("failed to save customer: %w", err)
	}

	var total int64
	items := make([]models.OrderItem, len(lines))
	for i, line := range lines {
		lineTotal := line.Price * int64(line.Quantity)
		items[i] = models.OrderItem{
			BID:       line.BID,
			Title:     line.Title,
			Quantity:  line.Quantity,
			UnitPrice: line.Price,
			Total:     lineTotal,
		}
		total += lineTotal
	}

	order := models.Order{
		Number:        orderNumber(),
		CustomerID:    cid,
		UID:           uid,
		Total:         total,
		FirstName:     form.FirstName,
		LastName:      form.LastName,
		Email:         form.Email,
		Phone:         form.Phone,
		Address:       form.Address,
		City:          form.City,
		PostalCode:    form.PostalCode,
		Country:       form.Country,
		PaymentMethod: method,
		Status:        models.OrderPending,
		PaymentStatus: models.PaymentStatusPending,
		Notes:         form.Notes,
	}

	created, err := b.store.CreateOrder(order, items)
	if err != nil {
		log.Error().Err(err).Str("uid", uid).Msg("create order failed")
		return models.Order{}, err
	}

	if err := b.cart.Clear(uid); err != nil {
		// The order exists; a stale cart is recoverable, a lost order is not.
		log.Warn().Err(err).Str("oid", created.OID).Msg("cart clear after checkout failed")
	}

	if b.hub != nil {
		b.hub.Publish(created)
	}
	b.events.Record("purchase", "", uid, map[string]any{
		"oid":    created.OID,
		"number": created.Number,
		"total":  created.Total,
		"method": string(created.PaymentMethod),
	})
	log.Info().Str("oid", created.OID).Str("number", created.Number).Int64("total", created.Total).Msg("order placed")
	return created, nil
}

// orderNumber builds a human-readable, collision-resistant reference:
// a second-resolution timestamp plus a random suffix, so two checkouts in
// the same second still get distinct numbers.
func orderNumber() string {
	return "BK-" + time.Now().Format("20060102150405") + "-" + uuid.NewString()[:8]
}
