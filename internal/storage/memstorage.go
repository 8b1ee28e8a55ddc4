package storage

import (
	"sort"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/hounsou/bookstore/internal/domain/models"
	storerrors "github.com/hounsou/bookstore/internal/storage/errors"
)

// MemStorage is the in-memory twin of DBStorage. It backs the service when
// the database is unreachable and carries the bulk of the test fixtures.
type MemStorage struct {
	mu        sync.Mutex
	books     map[string]models.Book
	bookOrder []string
	cart      map[string]models.CartItem
	cartOrder []string
	orders    map[string]models.Order
	lines     map[string][]models.OrderItem
	customers map[string]models.Customer // keyed by uid
	users     map[string]models.User
	events    []models.AnalyticsEvent
}

func New() *MemStorage {
	return &MemStorage{
		books:     make(map[string]models.Book),
		cart:      make(map[string]models.CartItem),
		orders:    make(map[string]models.Order),
		lines:     make(map[string][]models.OrderItem),
		customers: make(map[string]models.Customer),
		users:     make(map[string]models.User),
	}
}

func (ms *MemStorage) GetActiveBooks() ([]models.Book, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	var books []models.Book
	for _, bid := range ms.bookOrder {
		if book := ms.books[bid]; book.Active {
			books = append(books, book)
		}
	}
	if len(books) == 0 {
		return nil, storerrors.ErrEmptyBooksList
	}
	return books, nil
}

func (ms *MemStorage) GetBook(bid string) (models.Book, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	book, ok := ms.books[bid]
	if !ok {
		return models.Book{}, storerrors.ErrBookNotFound
	}
	return book, nil
}

func (ms *MemStorage) SaveBook(book models.Book) (string, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if book.BID == "" {
		book.BID = newID()
	}
	if _, ok := ms.books[book.BID]; !ok {
		ms.bookOrder = append(ms.bookOrder, book.BID)
	}
	ms.books[book.BID] = book
	return book.BID, nil
}

func (ms *MemStorage) GetCartLines(uid string) ([]models.CartLine, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	var lines []models.CartLine
	for _, itemID := range ms.cartOrder {
		item, ok := ms.cart[itemID]
		if !ok || item.UID != uid {
			continue
		}
		book, ok := ms.books[item.BID]
		if !ok {
			return nil, storerrors.ErrBookNotFound
		}
		lines = append(lines, models.CartLine{
			ItemID:   item.ItemID,
			BID:      item.BID,
			Title:    book.Title,
			TitleFr:  book.TitleFr,
			Price:    book.Price,
			Stock:    book.Stock,
			CoverURL: book.CoverURL,
			Quantity: item.Quantity,
		})
	}
	return lines, nil
}

func (ms *MemStorage) FindCartItem(uid, bid string) (models.CartItem, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	for _, item := range ms.cart {
		if item.UID == uid && item.BID == bid {
			return item, nil
		}
	}
	return models.CartItem{}, storerrors.ErrCartItemNotFound
}

func (ms *MemStorage) InsertCartItem(item models.CartItem) (string, error) {
	if err := item.Validate(); err != nil {
		return "", err
	}
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if _, ok := ms.books[item.BID]; !ok {
		return "", storerrors.ErrBookNotFound
	}
	item.ItemID = newID()
	ms.cart[item.ItemID] = item
	ms.cartOrder = append(ms.cartOrder, item.ItemID)
	return item.ItemID, nil
}

func (ms *MemStorage) UpdateCartQuantity(itemID string, quantity int) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	item, ok := ms.cart[itemID]
	if !ok {
		return storerrors.ErrCartItemNotFound
	}
	item.Quantity = quantity
	ms.cart[itemID] = item
	return nil
}

func (ms *MemStorage) DeleteCartItem(itemID string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if _, ok := ms.cart[itemID]; !ok {
		return storerrors.ErrCartItemNotFound
	}
	delete(ms.cart, itemID)
	return nil
}

func (ms *MemStorage) ClearCart(uid string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	for itemID, item := range ms.cart {
		if item.UID == uid {
			delete(ms.cart, itemID)
		}
	}
	return nil
}

// CreateOrder mirrors the transactional DB path: stock is checked and
// decremented for every line before the order and its lines are stored, all
// under one lock, so a half-written order is never observable.
func (ms *MemStorage) CreateOrder(order models.Order, items []models.OrderItem) (models.Order, error) {
	if err := models.ValidateOrder(order, items); err != nil {
		return models.Order{}, err
	}
	ms.mu.Lock()
	defer ms.mu.Unlock()

	for _, item := range items {
		book, ok := ms.books[item.BID]
		if !ok {
			return models.Order{}, storerrors.ErrBookNotFound
		}
		if book.Stock < item.Quantity {
			return models.Order{}, storerrors.ErrStockExhausted
		}
	}
	for _, item := range items {
		book := ms.books[item.BID]
		book.Stock -= item.Quantity
		ms.books[item.BID] = book
	}

	order.OID = newID()
	order.CreatedAt = time.Now()
	stored := make([]models.OrderItem, len(items))
	for i, item := range items {
		item.OID = order.OID
		stored[i] = item
	}
	ms.orders[order.OID] = order
	ms.lines[order.OID] = stored
	return order, nil
}

func (ms *MemStorage) GetOrder(oid string) (models.Order, []models.OrderItem, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	order, ok := ms.orders[oid]
	if !ok {
		return models.Order{}, nil, storerrors.ErrOrderNotFound
	}
	items := make([]models.OrderItem, len(ms.lines[oid]))
	copy(items, ms.lines[oid])
	return order, items, nil
}

func (ms *MemStorage) GetOrders() ([]models.Order, error) {
	return ms.ordersWhere(func(models.Order) bool { return true })
}

func (ms *MemStorage) OrdersSince(t time.Time) ([]models.Order, error) {
	return ms.ordersWhere(func(o models.Order) bool { return !o.CreatedAt.Before(t) })
}

func (ms *MemStorage) ordersWhere(keep func(models.Order) bool) ([]models.Order, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	var orders []models.Order
	for _, o := range ms.orders {
		if keep(o) {
			orders = append(orders, o)
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].CreatedAt.After(orders[j].CreatedAt) })
	return orders, nil
}

func (ms *MemStorage) UpdateOrderStatus(oid string, status models.OrderStatus) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	order, ok := ms.orders[oid]
	if !ok {
		return storerrors.ErrOrderNotFound
	}
	order.Status = status
	ms.orders[oid] = order
	return nil
}

func (ms *MemStorage) UpdatePaymentStatus(oid string, status models.PaymentStatus) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	order, ok := ms.orders[oid]
	if !ok {
		return storerrors.ErrOrderNotFound
	}
	order.PaymentStatus = status
	ms.orders[oid] = order
	return nil
}

func (ms *MemStorage) GetCustomer(uid string) (models.Customer, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	c, ok := ms.customers[uid]
	if !ok {
		return models.Customer{}, storerrors.ErrCustomerNotFound
	}
	return c, nil
}

func (ms *MemStorage) UpsertCustomer(c models.Customer) (string, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if existing, ok := ms.customers[c.UID]; ok {
		c.CID = existing.CID
	} else {
		c.CID = newID()
	}
	ms.customers[c.UID] = c
	return c.CID, nil
}

func (ms *MemStorage) SaveUser(user models.User) (string, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if _, err := ms.findUser(user.Email); err == nil {
		return "", storerrors.ErrUserExists
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(user.Pass), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	user.Pass = string(hash)
	user.UID = newID()
	ms.users[user.UID] = user
	return user.UID, nil
}

func (ms *MemStorage) ValidUser(user models.User) (string, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	memUser, err := ms.findUser(user.Email)
	if err != nil {
		return "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(memUser.Pass), []byte(user.Pass)); err != nil {
		return "", storerrors.ErrInvalidPassword
	}
	return memUser.UID, nil
}

func (ms *MemStorage) GetUser(uid string) (models.User, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	user, ok := ms.users[uid]
	if !ok {
		return models.User{}, storerrors.ErrUserNotFound
	}
	user.Pass = ""
	return user, nil
}

func (ms *MemStorage) findUser(email string) (models.User, error) {
	for _, user := range ms.users {
		if user.Email == email {
			return user, nil
		}
	}
	return models.User{}, storerrors.ErrUserNotFound
}

func (ms *MemStorage) SaveEvent(ev models.AnalyticsEvent) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ev.EventID = newID()
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now()
	}
	ms.events = append(ms.events, ev)
	return nil
}

func (ms *MemStorage) EventsSince(t time.Time) ([]models.AnalyticsEvent, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	var events []models.AnalyticsEvent
	for _, ev := range ms.events {
		if !ev.CreatedAt.Before(t) {
			events = append(events, ev)
		}
	}
	return events, nil
}
