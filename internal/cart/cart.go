package cart

import (
	"errors"
	"fmt"
	"sync"

	"github.com/hounsou/bookstore/internal/domain/models"
	"github.com/hounsou/bookstore/internal/logger"
	storerrors "github.com/hounsou/bookstore/internal/storage/errors"
)

// Store is the slice of the data store the cart manager mediates.
type Store interface {
	GetCartLines(uid string) ([]models.CartLine, error)
	FindCartItem(uid, bid string) (models.CartItem, error)
	InsertCartItem(models.CartItem) (string, error)
	UpdateCartQuantity(itemID string, quantity int) error
	DeleteCartItem(itemID string) error
	ClearCart(uid string) error
	GetBook(bid string) (models.Book, error)
}

// Recorder is the fire-and-forget analytics sink.
type Recorder interface {
	Record(name, sessionID, uid string, attrs map[string]any)
}

// Manager owns the authoritative in-memory view of each signed-in user's
// cart. Every mutation goes through the store and is followed by a full
// reload (read-after-write), so the snapshot never drifts from what was
// actually persisted. A failed mutation leaves the snapshot at its last
// successfully loaded state.
//
// Two sessions of the same user can still race between "read existing
// quantity" and "write merged quantity"; with a single retail customer per
// account that window is accepted.
type Manager struct {
	mu     sync.Mutex
	store  Store
	events Recorder
	lines  map[string][]models.CartLine
}

func New(store Store, events Recorder) *Manager {
	return &Manager{
		store:  store,
		events: events,
		lines:  make(map[string][]models.CartLine),
	}
}

// Load refreshes the user's snapshot from the store and returns it.
func (m *Manager) Load(uid string) ([]models.CartLine, error) {
	lines, err := m.store.GetCartLines(uid)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	m.mu.Lock()
	m.lines[uid] = lines
	m.mu.Unlock()
	return copyLines(lines), nil
}

// Add puts a book in the cart, merging into the existing line when the user
// already holds one for this book. Stock is a hard invariant here: the
// merged quantity may not exceed what the catalogue currently has.
func (m *Manager) Add(uid, bid string, quantity int) error {
	if quantity < 1 {
		return models.ErrBadQuantity
	}
	// Only a definite miss may open a new line; a failed lookup must not,
	// or a retry would split the book across two lines.
	existing, err := m.store.FindCartItem(uid, bid)
	if err != nil && !errors.Is(err, storerrors.ErrCartItemNotFound) {
		return fmt.Errorf("failed to look up cart line: %w", err)
	}
	merging := err == nil

	// Fresh price and title for the analytics event, and the stock gate.
	book, err := m.store.GetBook(bid)
	if err != nil {
		return err
	}
	if !book.Active {
		return storerrors.ErrBookNotFound
	}

	if merging {
		if existing.Quantity+quantity > book.Stock {
			return storerrors.ErrStockExhausted
		}
		if err := m.UpdateQuantity(uid, existing.ItemID, existing.Quantity+quantity); err != nil {
			return err
		}
	} else {
		if quantity > book.Stock {
			return storerrors.ErrStockExhausted
		}
		if _, err := m.store.InsertCartItem(models.CartItem{UID: uid, BID: bid, Quantity: quantity}); err != nil {
			return fmt.Errorf("failed to add to cart: %w", err)
		}
		if _, err := m.Load(uid); err != nil {
			return err
		}
	}
	m.events.Record("add_to_cart", "", uid, map[string]any{
		"bid":      bid,
		"title":    book.Title,
		"price":    book.Price,
		"quantity": quantity,
	})
	return nil
}

// UpdateQuantity sets a line's quantity; zero or less removes the line.
func (m *Manager) UpdateQuantity(uid, itemID string, quantity int) error {
	if quantity <= 0 {
		return m.Remove(uid, itemID)
	}
	line, ok := m.findLine(uid, itemID)
	if !ok {
		// Snapshot miss (first call after a restart); the store still has
		// the line and its current stock.
		if _, err := m.Load(uid); err != nil {
			return err
		}
		line, ok = m.findLine(uid, itemID)
	}
	if ok && quantity > line.Stock {
		return storerrors.ErrStockExhausted
	}
	if err := m.store.UpdateCartQuantity(itemID, quantity); err != nil {
		return fmt.Errorf("failed to update quantity: %w", err)
	}
	_, err := m.Load(uid)
	return err
}

func (m *Manager) Remove(uid, itemID string) error {
	if err := m.store.DeleteCartItem(itemID); err != nil {
		return fmt.Errorf("failed to remove from cart: %w", err)
	}
	_, err := m.Load(uid)
	return err
}

// Clear deletes every persisted cart row of the user, then reloads.
func (m *Manager) Clear(uid string) error {
	if err := m.store.ClearCart(uid); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	_, err := m.Load(uid)
	return err
}

// Forget drops the in-memory snapshot on sign-out. Persisted rows survive
// and reload on the next sign-in.
func (m *Manager) Forget(uid string) {
	m.mu.Lock()
	delete(m.lines, uid)
	m.mu.Unlock()
	log := logger.Get()
	log.Debug().Str("uid", uid).Msg("cart snapshot dropped")
}

// Snapshot returns a copy of the current in-memory cart without touching
// the store.
func (m *Manager) Snapshot(uid string) []models.CartLine {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copyLines(m.lines[uid])
}

// TotalPrice sums price*quantity over the snapshot. Pure, no I/O.
func (m *Manager) TotalPrice(uid string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	var total int64
	for _, line := range m.lines[uid] {
		total += line.Price * int64(line.Quantity)
	}
	return total
}

// TotalItems sums quantities over the snapshot. Pure, no I/O.
func (m *Manager) TotalItems(uid string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int
	for _, line := range m.lines[uid] {
		n += line.Quantity
	}
	return n
}

func (m *Manager) findLine(uid, itemID string) (models.CartLine, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, line := range m.lines[uid] {
		if line.ItemID == itemID {
			return line, true
		}
	}
	return models.CartLine{}, false
}

func copyLines(lines []models.CartLine) []models.CartLine {
	out := make([]models.CartLine, len(lines))
	copy(out, lines)
	return out
}
