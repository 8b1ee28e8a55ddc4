package cart_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hounsou/bookstore/internal/cart"
	"github.com/hounsou/bookstore/internal/domain/models"
	"github.com/hounsou/bookstore/internal/storage"
	storerrors "github.com/hounsou/bookstore/internal/storage/errors"
)

type nopRecorder struct{}

func (nopRecorder) Record(string, string, string, map[string]any) {}

func newManager(t *testing.T) (*cart.Manager, *storage.MemStorage) {
	t.Helper()
	ms := storage.New()
	return cart.New(ms, nopRecorder{}), ms
}

func seedBook(t *testing.T, ms *storage.MemStorage, title string, price int64, stock int) string {
	t.Helper()
	bid, err := ms.SaveBook(models.Book{Title: title, Price: price, Stock: stock, Active: true})
	require.NoError(t, err)
	return bid
}

func TestAddMergesExistingLine(t *testing.T) {
	m, ms := newManager(t)
	bid := seedBook(t, ms, "Le Fá expliqué aux profanes", 25, 10)

	require.NoError(t, m.Add("u1", bid, 1))
	require.NoError(t, m.Add("u1", bid, 1))

	lines := m.Snapshot("u1")
	require.Len(t, lines, 1)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.Equal(t, int64(50), m.TotalPrice("u1"))
	assert.Equal(t, 2, m.TotalItems("u1"))

	require.NoError(t, m.Remove("u1", lines[0].ItemID))
	assert.Empty(t, m.Snapshot("u1"))
	assert.Equal(t, int64(0), m.TotalPrice("u1"))
}

func TestAddMergeSumsQuantities(t *testing.T) {
	m, ms := newManager(t)
	bid := seedBook(t, ms, "Contes du crépuscule", 30, 20)

	require.NoError(t, m.Add("u1", bid, 2))
	require.NoError(t, m.Add("u1", bid, 3))

	lines := m.Snapshot("u1")
	require.Len(t, lines, 1)
	assert.Equal(t, 5, lines[0].Quantity)
}

func TestUpdateQuantityZeroOrNegativeRemoves(t *testing.T) {
	for _, quantity := range []int{0, -3} {
		m, ms := newManager(t)
		bid := seedBook(t, ms, "Recettes de chez nous", 15, 5)
		require.NoError(t, m.Add("u1", bid, 2))

		itemID := m.Snapshot("u1")[0].ItemID
		require.NoError(t, m.UpdateQuantity("u1", itemID, quantity))
		assert.Empty(t, m.Snapshot("u1"))
	}
}

func TestTotalPriceTracksSnapshotThroughMutations(t *testing.T) {
	m, ms := newManager(t)
	bidA := seedBook(t, ms, "A", 25, 10)
	bidB := seedBook(t, ms, "B", 30, 10)

	check := func() {
		var want int64
		for _, line := range m.Snapshot("u1") {
			want += line.Price * int64(line.Quantity)
		}
		assert.Equal(t, want, m.TotalPrice("u1"))
	}

	require.NoError(t, m.Add("u1", bidA, 2))
	check()
	require.NoError(t, m.Add("u1", bidB, 1))
	check()
	itemID := m.Snapshot("u1")[0].ItemID
	require.NoError(t, m.UpdateQuantity("u1", itemID, 4))
	check()
	require.NoError(t, m.Clear("u1"))
	check()
	assert.Equal(t, int64(0), m.TotalPrice("u1"))
}

func TestAddRejectsExhaustedStock(t *testing.T) {
	m, ms := newManager(t)
	bid := seedBook(t, ms, "Rare", 100, 1)

	err := m.Add("u1", bid, 2)
	assert.ErrorIs(t, err, storerrors.ErrStockExhausted)
	assert.Empty(t, m.Snapshot("u1"))
}

func TestMergeBeyondStockRejected(t *testing.T) {
	m, ms := newManager(t)
	bid := seedBook(t, ms, "Scarce", 40, 3)

	require.NoError(t, m.Add("u1", bid, 2))
	err := m.Add("u1", bid, 2)
	assert.ErrorIs(t, err, storerrors.ErrStockExhausted)

	lines := m.Snapshot("u1")
	require.Len(t, lines, 1)
	assert.Equal(t, 2, lines[0].Quantity)
}

func TestInactiveBookNotAddable(t *testing.T) {
	m, ms := newManager(t)
	bid, err := ms.SaveBook(models.Book{Title: "Retired", Price: 10, Stock: 5, Active: false})
	require.NoError(t, err)

	assert.ErrorIs(t, m.Add("u1", bid, 1), storerrors.ErrBookNotFound)
}

type captureRecorder struct {
	names []string
}

func (r *captureRecorder) Record(name, _, _ string, _ map[string]any) {
	r.names = append(r.names, name)
}

func TestMergingAddRecordsEvent(t *testing.T) {
	ms := storage.New()
	rec := &captureRecorder{}
	m := cart.New(ms, rec)
	bid := seedBook(t, ms, "Contes du crépuscule", 30, 20)

	require.NoError(t, m.Add("u1", bid, 1))
	require.NoError(t, m.Add("u1", bid, 2))

	assert.Equal(t, []string{"add_to_cart", "add_to_cart"}, rec.names)
}

type failingStore struct {
	cart.Store
	failUpdate bool
	failFind   bool
}

var errBoom = errors.New("store down")

func (fs *failingStore) UpdateCartQuantity(itemID string, quantity int) error {
	if fs.failUpdate {
		return errBoom
	}
	return fs.Store.UpdateCartQuantity(itemID, quantity)
}

func (fs *failingStore) FindCartItem(uid, bid string) (models.CartItem, error) {
	if fs.failFind {
		return models.CartItem{}, errBoom
	}
	return fs.Store.FindCartItem(uid, bid)
}

func TestAddLookupFailureDoesNotSplitLine(t *testing.T) {
	ms := storage.New()
	fs := &failingStore{Store: ms}
	m := cart.New(fs, nopRecorder{})
	bid := seedBook(t, ms, "Steady", 20, 10)

	require.NoError(t, m.Add("u1", bid, 1))

	// A failed lookup must surface, not open a second line for the book.
	fs.failFind = true
	err := m.Add("u1", bid, 1)
	require.ErrorIs(t, err, errBoom)

	lines := m.Snapshot("u1")
	require.Len(t, lines, 1)
	assert.Equal(t, 1, lines[0].Quantity)
}

func TestUpdateQuantityGatesStockAfterRestart(t *testing.T) {
	ms := storage.New()
	m := cart.New(ms, nopRecorder{})
	bid := seedBook(t, ms, "Scarce", 40, 3)
	require.NoError(t, m.Add("u1", bid, 2))
	itemID := m.Snapshot("u1")[0].ItemID

	// A fresh manager over the same store has no snapshot for the user, as
	// after a process restart with a still-valid bearer token.
	restarted := cart.New(ms, nopRecorder{})
	err := restarted.UpdateQuantity("u1", itemID, 99)
	assert.ErrorIs(t, err, storerrors.ErrStockExhausted)

	require.NoError(t, restarted.UpdateQuantity("u1", itemID, 3))
	lines := restarted.Snapshot("u1")
	require.Len(t, lines, 1)
	assert.Equal(t, 3, lines[0].Quantity)
}

func TestFailedMutationLeavesSnapshotUntouched(t *testing.T) {
	ms := storage.New()
	fs := &failingStore{Store: ms}
	m := cart.New(fs, nopRecorder{})
	bid := seedBook(t, ms, "Steady", 20, 10)

	require.NoError(t, m.Add("u1", bid, 2))
	before := m.Snapshot("u1")

	fs.failUpdate = true
	err := m.UpdateQuantity("u1", before[0].ItemID, 5)
	require.Error(t, err)

	assert.Equal(t, before, m.Snapshot("u1"))
	assert.Equal(t, int64(40), m.TotalPrice("u1"))
}

func TestForgetDropsSnapshotOnly(t *testing.T) {
	m, ms := newManager(t)
	bid := seedBook(t, ms, "Persistent", 12, 6)
	require.NoError(t, m.Add("u1", bid, 1))

	m.Forget("u1")
	assert.Empty(t, m.Snapshot("u1"))
	assert.Equal(t, 0, m.TotalItems("u1"))

	// Persisted rows reload on the next sign-in.
	lines, err := m.Load("u1")
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 1, lines[0].Quantity)
}
