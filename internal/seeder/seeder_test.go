package seeder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/happybuttons/orderflow/internal/config"
	"github.com/happybuttons/orderflow/internal/models"
	"github.com/happybuttons/orderflow/internal/repository"
	"github.com/happybuttons/orderflow/internal/statemachine"
	"github.com/happybuttons/orderflow/pkg/logger"
)

func linearRules() config.StateRules {
	rules := make(config.StateRules, len(models.AllStates))

	for i, state := range models.AllStates {
		rule := config.StateRule{SLAHours: 24}
		if i+1 < len(models.AllStates) {
			rule.NextStates = []models.OrderState{models.AllStates[i+1]}
		}
		rules[state] = rule
	}

	return rules
}

func newTestMachine(t *testing.T) *statemachine.OrderStateMachine {
	t.Helper()

	log := logger.NopLogger()

	orderRepo, err := repository.NewOrderRepository(t.TempDir(), log)
	require.NoError(t, err)

	eventRepo, err := repository.NewEventRepository(t.TempDir(), log)
	require.NoError(t, err)

	return statemachine.New(linearRules(), orderRepo, eventRepo, log)
}

func TestSeedHistoricalData(t *testing.T) {
	machine := newTestMachine(t)

	s := NewHistorySeeder(machine, DefaultCatalog(), logger.NopLogger())
	s.SetSeed(42)
	s.Days = 14

	created, err := s.SeedHistoricalData()
	require.NoError(t, err)
	require.Greater(t, created, 0)

	orders := machine.GetOrders()
	require.Len(t, orders, created)

	now := time.Now()
	horizon := now.AddDate(0, 0, -(s.Days + 1))

	for _, order := range orders {
		createdAt := order.CreatedAt.Time()
		assert.True(t, createdAt.After(horizon), "order %s created before the seeded window", order.ID)
		assert.True(t, createdAt.Before(now), "order %s created in the future", order.ID)

		require.NotEmpty(t, order.Items)
		assert.LessOrEqual(t, len(order.Items), maxItemsPerOrder)
		assert.Contains(t, []int{1, 2, 3, 4}, order.Priority)

		// State machine invariants must hold for every seeded order
		require.NotEmpty(t, order.History)
		assert.Equal(t, order.History[len(order.History)-1].ToState, order.CurrentState)

		for i := 1; i < len(order.History); i++ {
			prev := order.History[i-1]
			curr := order.History[i]

			assert.False(t, curr.Timestamp.Time().Before(prev.Timestamp.Time()),
				"order %s has a non-monotonic history", order.ID)
			assert.Equal(t, prev.ToState, curr.FromState,
				"order %s has a broken transition chain", order.ID)
			// The linear chain only ever advances one state at a time
			assert.Equal(t, curr.FromState.Index()+1, curr.ToState.Index())
		}
	}

	// With a multi-week window some orders must still be in flight
	stats := machine.GetOrderStatistics()
	assert.Less(t, stats.ByState[models.StateClosed], stats.TotalOrders)
	assert.Greater(t, stats.TotalValue, 0.0)
}

func TestSeededOrdersUseCatalogProducts(t *testing.T) {
	machine := newTestMachine(t)
	catalog := DefaultCatalog()

	s := NewHistorySeeder(machine, catalog, logger.NopLogger())
	s.SetSeed(7)
	s.Days = 3

	_, err := s.SeedHistoricalData()
	require.NoError(t, err)

	known := make(map[string]float64)
	for _, p := range catalog.Products {
		known[p.SKU] = p.UnitPrice
	}

	for _, order := range machine.GetOrders() {
		for _, item := range order.Items {
			price, ok := known[item.SKU]
			require.True(t, ok, "unknown SKU %s", item.SKU)
			assert.Equal(t, price, item.UnitPrice)
			assert.Equal(t, float64(item.Quantity)*item.UnitPrice, item.TotalPrice)
		}
	}
}

func TestGenerateDailyOrders(t *testing.T) {
	machine := newTestMachine(t)

	g := NewDailyOrderGenerator(machine, DefaultCatalog(), logger.NopLogger())
	g.SetSeed(99)

	// A Wednesday
	target := time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC)
	orders, err := g.GenerateDailyOrders(target)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, len(orders), 3)
	assert.LessOrEqual(t, len(orders), 12)

	for _, order := range orders {
		// Daily generation creates orders only, no simulated transitions
		assert.Equal(t, models.StateCreated, order.CurrentState)
		assert.Len(t, order.History, 1)

		createdAt := order.CreatedAt.Time()
		assert.Equal(t, target.Year(), createdAt.Year())
		assert.Equal(t, target.Month(), createdAt.Month())
		assert.Equal(t, target.Day(), createdAt.Day())
	}
}

func TestGenerateDailyOrdersWeekendRunsLighter(t *testing.T) {
	machine := newTestMachine(t)

	g := NewDailyOrderGenerator(machine, DefaultCatalog(), logger.NopLogger())
	g.SetSeed(99)

	// A Saturday
	target := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)
	orders, err := g.GenerateDailyOrders(target)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, len(orders), 3)
	assert.LessOrEqual(t, len(orders), 5)
}

func TestCatalogProductsForPrefixes(t *testing.T) {
	catalog := DefaultCatalog()

	royal := catalog.ProductsForPrefixes([]string{"ROY"})
	require.NotEmpty(t, royal)
	for _, p := range royal {
		assert.Contains(t, p.SKU, "ROY-")
	}

	// Unknown prefixes fall back to the full catalog
	all := catalog.ProductsForPrefixes([]string{"ZZZ"})
	assert.Len(t, all, len(catalog.Products))

	// No prefixes means no filtering
	assert.Len(t, catalog.ProductsForPrefixes(nil), len(catalog.Products))
}

func TestDefaultCatalogIsValid(t *testing.T) {
	require.NoError(t, DefaultCatalog().Validate())
}
