package repository

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/happybuttons/orderflow/internal/models"
	"github.com/happybuttons/orderflow/pkg/logger"
)

func sampleOrder(id string) *models.Order {
	createdAt := models.NewUnixTime(time.Date(2026, 4, 2, 10, 30, 0, 0, time.UTC))

	return &models.Order{
		ID:            id,
		CustomerEmail: "buyer@example.com",
		CustomerName:  "Buyer",
		Items: []models.OrderItem{
			{SKU: "BTN-001", Name: "Classic Round Button 12mm", Quantity: 100, UnitPrice: 2.5, TotalPrice: 250},
		},
		TotalAmount:  250,
		Priority:     2,
		SLAHours:     12,
		CurrentState: models.StateCreated,
		CreatedAt:    createdAt,
		History: []models.StateTransition{
			{
				FromState: models.StateCreated,
				ToState:   models.StateCreated,
				Timestamp: createdAt,
				Agent:     "OrderSystem",
				Reason:    "Order created",
				Metadata:  map[string]interface{}{},
			},
		},
		Metadata: map[string]interface{}{"channel": "email"},
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	repo, err := NewOrderRepository(t.TempDir(), logger.NopLogger())
	require.NoError(t, err)

	order := sampleOrder("ORD_1743589800_1")
	require.NoError(t, repo.Save(order))

	loaded, err := repo.Load(order.ID)
	require.NoError(t, err)
	assert.Equal(t, order, loaded)
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	repo, err := NewOrderRepository(dir, logger.NopLogger())
	require.NoError(t, err)

	require.NoError(t, repo.Save(sampleOrder("ORD_1743589800_1")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	for _, entry := range entries {
		assert.False(t, strings.HasSuffix(entry.Name(), ".tmp"), "temp file left behind: %s", entry.Name())
	}
}

func TestSaveOverwritesExistingOrder(t *testing.T) {
	repo, err := NewOrderRepository(t.TempDir(), logger.NopLogger())
	require.NoError(t, err)

	order := sampleOrder("ORD_1743589800_1")
	require.NoError(t, repo.Save(order))

	order.CurrentState = models.StateConfirmed
	require.NoError(t, repo.Save(order))

	loaded, err := repo.Load(order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StateConfirmed, loaded.CurrentState)
}

func TestLoadUnknownOrder(t *testing.T) {
	repo, err := NewOrderRepository(t.TempDir(), logger.NopLogger())
	require.NoError(t, err)

	_, err = repo.Load("ORD_0_1")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestLoadAllSkipsCorruptAndForeignFiles(t *testing.T) {
	dir := t.TempDir()
	repo, err := NewOrderRepository(dir, logger.NopLogger())
	require.NoError(t, err)

	require.NoError(t, repo.Save(sampleOrder("ORD_1743589800_1")))
	require.NoError(t, repo.Save(sampleOrder("ORD_1743589800_2")))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "ORD_bad_1.json"), []byte("{broken"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore me"), 0o644))

	orders, skipped, err := repo.LoadAll()

	require.NoError(t, err)
	assert.Len(t, orders, 2)
	assert.Equal(t, 1, skipped)
}
