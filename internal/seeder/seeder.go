package seeder

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/happybuttons/orderflow/internal/models"
	"github.com/happybuttons/orderflow/internal/statemachine"
	"github.com/happybuttons/orderflow/pkg/logger"
)

const maxItemsPerOrder = 8

// earlyStopIndex is the lifecycle position (DELIVERED) from which a
// non-completing order may terminate its simulated chain early.
const earlyStopIndex = 7

// HistorySeeder populates a state machine with statistically plausible
// historical data. It drives the machine exclusively through CreateOrder and
// TransitionOrder, backdating timestamps by steering the machine clock.
type HistorySeeder struct {
	machine *statemachine.OrderStateMachine
	catalog *Catalog
	rng     *rand.Rand
	logger  logger.Logger

	// Days is the number of simulated days of history to generate.
	Days int
	// CompletionProbability is the chance a generated order's transition
	// chain is allowed to run all the way to CLOSED. This is a sampling
	// heuristic, not a business rule.
	CompletionProbability float64
}

// NewHistorySeeder creates a seeder with the default 30-day window
func NewHistorySeeder(machine *statemachine.OrderStateMachine, catalog *Catalog, logger logger.Logger) *HistorySeeder {
	return &HistorySeeder{
		machine:               machine,
		catalog:               catalog,
		rng:                   rand.New(rand.NewSource(time.Now().UnixNano())),
		logger:                logger,
		Days:                  30,
		CompletionProbability: 0.8,
	}
}

// SetSeed makes the seeder deterministic
func (s *HistorySeeder) SetSeed(seed int64) {
	s.rng = rand.New(rand.NewSource(seed))
}

// SeedHistoricalData generates orders for each simulated day and walks each
// one through a plausible transition sequence. It returns the number of
// orders created.
func (s *HistorySeeder) SeedHistoricalData() (int, error) {
	now := time.Now()
	created := 0

	defer s.machine.SetClock(nil)

	for daysAgo := s.Days; daysAgo >= 1; daysAgo-- {
		day := now.AddDate(0, 0, -daysAgo)
		count := s.dailyOrderCount(day)

		for i := 0; i < count; i++ {
			createdAt := s.businessTime(day)
			customer := s.pickCustomer()
			items := s.buildItems(customer)

			s.machine.SetClock(fixedClock(createdAt))

			order, err := s.machine.CreateOrder(
				customer.Email,
				customer.Name,
				items,
				s.pickPriority(),
				map[string]interface{}{"seeded": true},
			)

			if err != nil {
				return created, fmt.Errorf("seeding day -%d: %w", daysAgo, err)
			}

			created++

			if err := s.simulateTransitions(order, createdAt, now); err != nil {
				return created, err
			}
		}
	}

	s.logger.Info("Historical data seeded", "days", s.Days, "orders", created)
	return created, nil
}

// dailyOrderCount picks the day's order volume, with weekends running lighter
func (s *HistorySeeder) dailyOrderCount(day time.Time) int {
	if isWeekend(day) {
		return 1 + s.rng.Intn(3)
	}
	return 4 + s.rng.Intn(7)
}

// businessTime places an instant at a random business hour of the given day
func (s *HistorySeeder) businessTime(day time.Time) time.Time {
	hour := 8 + s.rng.Intn(10)
	minute := s.rng.Intn(60)
	second := s.rng.Intn(60)
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, second, 0, day.Location())
}

// pickCustomer selects a customer weighted by its configured order frequency
func (s *HistorySeeder) pickCustomer() CustomerProfile {
	total := 0.0

	for _, c := range s.catalog.Customers {
		total += c.OrderFrequency
	}

	target := s.rng.Float64() * total

	for _, c := range s.catalog.Customers {
		target -= c.OrderFrequency
		if target <= 0 {
			return c
		}
	}

	return s.catalog.Customers[len(s.catalog.Customers)-1]
}

// pickPriority skews toward normal priority with occasional critical orders
func (s *HistorySeeder) pickPriority() int {
	roll := s.rng.Float64()

	switch {
	case roll < 0.10:
		return 1
	case roll < 0.30:
		return 2
	case roll < 0.80:
		return 3
	default:
		return 4
	}
}

// buildItems assembles an item list from the customer's preferred products,
// stopping once the accumulated value approaches the target or the item cap
// is reached
func (s *HistorySeeder) buildItems(customer CustomerProfile) []models.OrderItem {
	products := s.catalog.ProductsForPrefixes(customer.PreferredSKUs)

	var items []models.OrderItem
	accumulated := 0.0

	for len(items) < maxItemsPerOrder && accumulated < customer.TargetOrderValue*0.9 {
		product := products[s.rng.Intn(len(products))]
		quantity := 25 * (1 + s.rng.Intn(8))
		total := float64(quantity) * product.UnitPrice

		items = append(items, models.OrderItem{
			SKU:        product.SKU,
			Name:       product.Name,
			Quantity:   quantity,
			UnitPrice:  product.UnitPrice,
			TotalPrice: total,
		})

		accumulated += total
	}

	return items
}

// simulateTransitions walks an order down the lifecycle chain with randomized
// per-state dwell times, never simulating past the present
func (s *HistorySeeder) simulateTransitions(order *models.Order, createdAt, now time.Time) error {
	completing := s.rng.Float64() < s.CompletionProbability
	t := createdAt

	for _, state := range models.AllStates[1:] {
		t = t.Add(s.dwell(state))

		if t.After(now) {
			break
		}

		if !completing && state.Index() >= earlyStopIndex && s.rng.Float64() < 0.3 {
			break
		}

		s.machine.SetClock(fixedClock(t))

		err := s.machine.TransitionOrder(order.ID, state, agentFor(state), reasonFor(state), s.metadataFor(state, order))

		if err != nil {
			return fmt.Errorf("simulating %s for %s: %w", state, order.ID, err)
		}
	}

	return nil
}

// dwell returns a randomized dwell time before entering the given state
func (s *HistorySeeder) dwell(state models.OrderState) time.Duration {
	var minHours, maxHours float64

	switch state {
	case models.StateConfirmed:
		minHours, maxHours = 0.5, 4
	case models.StatePlanned:
		minHours, maxHours = 2, 12
	case models.StateInProduction:
		minHours, maxHours = 4, 24
	case models.StateProduced:
		minHours, maxHours = 12, 48
	case models.StatePacked:
		minHours, maxHours = 1, 6
	case models.StateShipped:
		minHours, maxHours = 2, 8
	case models.StateDelivered:
		minHours, maxHours = 24, 96
	case models.StateInvoiced:
		minHours, maxHours = 4, 24
	case models.StateClosed:
		// Payment typically lands 10-30 days after invoicing
		minHours, maxHours = 240, 720
	default:
		minHours, maxHours = 1, 4
	}

	hours := minHours + s.rng.Float64()*(maxHours-minHours)
	return time.Duration(hours * float64(time.Hour))
}

func (s *HistorySeeder) metadataFor(state models.OrderState, order *models.Order) map[string]interface{} {
	switch state {
	case models.StateConfirmed:
		return map[string]interface{}{
			"confirmation_number": fmt.Sprintf("CNF-%06d", s.rng.Intn(1000000)),
		}
	case models.StatePlanned:
		return map[string]interface{}{
			"production_batch": fmt.Sprintf("BATCH-%04d", s.rng.Intn(10000)),
		}
	case models.StateInProduction:
		return map[string]interface{}{
			"production_line": fmt.Sprintf("L%d", 1+s.rng.Intn(3)),
		}
	case models.StateProduced:
		return map[string]interface{}{
			"quality_score": 0.90 + float64(s.rng.Intn(10))/100,
		}
	case models.StatePacked:
		return map[string]interface{}{
			"package_count": 1 + s.rng.Intn(5),
		}
	case models.StateShipped:
		return map[string]interface{}{
			"tracking_number": fmt.Sprintf("TRK-%09d", s.rng.Intn(1000000000)),
			"carrier":         []string{"DHL", "UPS", "DPD"}[s.rng.Intn(3)],
		}
	case models.StateDelivered:
		return map[string]interface{}{
			"signed_by": order.CustomerName,
		}
	case models.StateInvoiced:
		return map[string]interface{}{
			"invoice_number": fmt.Sprintf("INV-%06d", s.rng.Intn(1000000)),
		}
	case models.StateClosed:
		return map[string]interface{}{
			"payment_reference": fmt.Sprintf("PAY-%08d", s.rng.Intn(100000000)),
		}
	default:
		return map[string]interface{}{}
	}
}

func agentFor(state models.OrderState) string {
	switch state {
	case models.StateConfirmed:
		return "SalesAgent"
	case models.StatePlanned:
		return "PlanningAgent"
	case models.StateInProduction, models.StateProduced:
		return "ProductionAgent"
	case models.StatePacked:
		return "WarehouseAgent"
	case models.StateShipped, models.StateDelivered:
		return "LogisticsAgent"
	case models.StateInvoiced, models.StateClosed:
		return "FinanceAgent"
	default:
		return "OrderSystem"
	}
}

func reasonFor(state models.OrderState) string {
	switch state {
	case models.StateConfirmed:
		return "Order confirmed with customer"
	case models.StatePlanned:
		return "Production slot scheduled"
	case models.StateInProduction:
		return "Production started"
	case models.StateProduced:
		return "Production complete, quality approved"
	case models.StatePacked:
		return "Packed for shipment"
	case models.StateShipped:
		return "Handed over to carrier"
	case models.StateDelivered:
		return "Delivery confirmed"
	case models.StateInvoiced:
		return "Invoice issued"
	case models.StateClosed:
		return "Payment received"
	default:
		return "State updated"
	}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func isWeekend(day time.Time) bool {
	return day.Weekday() == time.Saturday || day.Weekday() == time.Sunday
}

// DailyOrderGenerator creates a single day's worth of fresh orders without
// simulating any transitions; it backs incremental demo runs.
type DailyOrderGenerator struct {
	machine *statemachine.OrderStateMachine
	catalog *Catalog
	rng     *rand.Rand
	logger  logger.Logger
}

// NewDailyOrderGenerator creates a DailyOrderGenerator
func NewDailyOrderGenerator(machine *statemachine.OrderStateMachine, catalog *Catalog, logger logger.Logger) *DailyOrderGenerator {
	return &DailyOrderGenerator{
		machine: machine,
		catalog: catalog,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		logger:  logger,
	}
}

// SetSeed makes the generator deterministic
func (g *DailyOrderGenerator) SetSeed(seed int64) {
	g.rng = rand.New(rand.NewSource(seed))
}

// GenerateDailyOrders creates between 3 and 12 orders dated on the target
// day, fewer on weekends
func (g *DailyOrderGenerator) GenerateDailyOrders(targetDate time.Time) ([]*models.Order, error) {
	count := 6 + g.rng.Intn(7)

	if isWeekend(targetDate) {
		count = 3 + g.rng.Intn(3)
	}

	// Borrow the seeder's generation helpers; the generator holds no
	// independent invariants beyond plausible input data.
	helper := &HistorySeeder{machine: g.machine, catalog: g.catalog, rng: g.rng, logger: g.logger}

	defer g.machine.SetClock(nil)

	orders := make([]*models.Order, 0, count)

	for i := 0; i < count; i++ {
		customer := helper.pickCustomer()
		createdAt := helper.businessTime(targetDate)

		g.machine.SetClock(fixedClock(createdAt))

		order, err := g.machine.CreateOrder(
			customer.Email,
			customer.Name,
			helper.buildItems(customer),
			helper.pickPriority(),
			map[string]interface{}{"seeded": true, "daily": true},
		)

		if err != nil {
			return orders, err
		}

		orders = append(orders, order)
	}

	g.logger.Info("Daily orders generated", "date", targetDate.Format("2006-01-02"), "count", count)
	return orders, nil
}
