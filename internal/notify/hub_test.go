package notify_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hounsou/bookstore/internal/domain/models"
	"github.com/hounsou/bookstore/internal/notify"
)

func TestRecentIsBoundedAndMostRecentFirst(t *testing.T) {
	hub := notify.NewHub()

	for i := 0; i < 12; i++ {
		hub.Publish(models.Order{OID: fmt.Sprintf("o%d", i), Number: fmt.Sprintf("BK-%02d", i)})
	}

	recent := hub.Recent()
	require.Len(t, recent, 10)
	assert.Equal(t, "o11", recent[0].OID)
	assert.Equal(t, "o2", recent[9].OID)
}

func TestClearNewOrdersEmptiesListOnly(t *testing.T) {
	hub := notify.NewHub()
	hub.Publish(models.Order{OID: "o1"})
	require.NotEmpty(t, hub.Recent())

	hub.ClearNewOrders()
	assert.Empty(t, hub.Recent())

	// The feed keeps working after a clear.
	hub.Publish(models.Order{OID: "o2"})
	require.Len(t, hub.Recent(), 1)
	assert.Equal(t, "o2", hub.Recent()[0].OID)
}

func TestRecentReturnsACopy(t *testing.T) {
	hub := notify.NewHub()
	hub.Publish(models.Order{OID: "o1"})

	got := hub.Recent()
	got[0].OID = "mutated"
	assert.Equal(t, "o1", hub.Recent()[0].OID)
}
