package statemachine

import (
	"fmt"
	"sync"
	"time"

	"github.com/happybuttons/orderflow/internal/config"
	"github.com/happybuttons/orderflow/internal/models"
	"github.com/happybuttons/orderflow/internal/repository"
	apperrors "github.com/happybuttons/orderflow/pkg/errors"
	"github.com/happybuttons/orderflow/pkg/logger"
)

// systemAgent is recorded on the initial creation transition
const systemAgent = "OrderSystem"

// OrderStateMachine owns the authoritative in-memory order set, enforces
// transition legality per the configured rules, computes SLA and statistics
// views, and persists every change through the order repository.
//
// The machine is a single-writer component: a mutex guards the order map,
// and all mutation goes through CreateOrder / TransitionOrder. Persistence
// is not transactional with the in-memory update; a save failure after a
// successful mutation leaves memory ahead of disk and is reported to the
// caller.
type OrderStateMachine struct {
	mu     sync.RWMutex
	orders map[string]*models.Order
	rules  config.StateRules
	store  *repository.OrderRepository
	events *repository.EventRepository
	logger logger.Logger
	clock  func() time.Time
}

// New creates an OrderStateMachine with the given rules and repositories
func New(
	rules config.StateRules,
	store *repository.OrderRepository,
	events *repository.EventRepository,
	logger logger.Logger,
) *OrderStateMachine {
	return &OrderStateMachine{
		orders: make(map[string]*models.Order),
		rules:  rules,
		store:  store,
		events: events,
		logger: logger,
		clock:  time.Now,
	}
}

// SetClock overrides the machine's time source. Passing nil restores the
// wall clock. Seeders drive this to backdate histories; tests drive it to
// pin SLA boundaries.
func (m *OrderStateMachine) SetClock(clock func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if clock == nil {
		clock = time.Now
	}
	m.clock = clock
}

// CreateOrder creates a new order in the CREATED state, records the initial
// transition, and persists it immediately. Orders must contain at least one
// item. Priority is taken as given (1=critical .. 4=low); out-of-range
// values simply participate in the SLA policy as-is.
func (m *OrderStateMachine) CreateOrder(
	customerEmail string,
	customerName string,
	items []models.OrderItem,
	priority int,
	metadata map[string]interface{},
) (*models.Order, error) {
	if len(items) == 0 {
		return nil, apperrors.NewEmptyOrderError()
	}

	if metadata == nil {
		metadata = make(map[string]interface{})
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock()
	total := 0.0

	for _, item := range items {
		total += item.TotalPrice
	}

	// The one-second id timestamp can collide under rapid creation; the
	// in-memory sequence keeps ids unique regardless.
	id := fmt.Sprintf("ORD_%d_%d", now.Unix(), len(m.orders)+1)
	createdAt := models.NewUnixTime(now)

	order := &models.Order{
		ID:            id,
		CustomerEmail: customerEmail,
		CustomerName:  customerName,
		Items:         items,
		TotalAmount:   total,
		Priority:      priority,
		SLAHours:      slaHours(priority, total),
		CurrentState:  models.StateCreated,
		CreatedAt:     createdAt,
		History: []models.StateTransition{
			{
				FromState: models.StateCreated,
				ToState:   models.StateCreated,
				Timestamp: createdAt,
				Agent:     systemAgent,
				Reason:    "Order created",
				Metadata:  map[string]interface{}{},
			},
		},
		Metadata: metadata,
	}

	m.orders[id] = order

	if err := m.store.Save(order); err != nil {
		// The order stays in memory; memory and disk diverge until the
		// next successful save.
		m.logger.Error("Failed to persist new order", "orderID", id, "error", err)
		return order.Clone(), err
	}

	m.logger.Info("Order created",
		"orderID", id,
		"customer", customerEmail,
		"totalAmount", total,
		"priority", priority,
		"slaHours", order.SLAHours)

	return order.Clone(), nil
}

// TransitionOrder moves an order to a new state. It returns an error
// wrapping apperrors.ErrNotFound for an unknown order id and one wrapping
// apperrors.ErrInvalidTransition when the configured rule for the order's
// current state does not list the target; the order is left unchanged in
// both cases. Legality is purely state-to-state: any caller naming any
// agent may transition any order along a legal edge.
func (m *OrderStateMachine) TransitionOrder(
	orderID string,
	toState models.OrderState,
	agent string,
	reason string,
	metadata map[string]interface{},
) error {
	if metadata == nil {
		metadata = make(map[string]interface{})
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	order, exists := m.orders[orderID]

	if !exists {
		m.logger.Warn("Transition requested for unknown order", "orderID", orderID)
		return apperrors.NewOrderNotFoundError(orderID)
	}

	if !m.rules.CanTransition(order.CurrentState, toState) {
		m.logger.Warn("Illegal transition rejected",
			"orderID", orderID,
			"fromState", order.CurrentState,
			"toState", toState,
			"agent", agent)
		return apperrors.NewInvalidTransitionError(orderID, string(order.CurrentState), string(toState))
	}

	transition := models.StateTransition{
		FromState: order.CurrentState,
		ToState:   toState,
		Timestamp: models.NewUnixTime(m.clock()),
		Agent:     agent,
		Reason:    reason,
		Metadata:  metadata,
	}

	order.History = append(order.History, transition)
	order.CurrentState = toState

	if err := m.store.Save(order); err != nil {
		m.logger.Error("Failed to persist order after transition", "orderID", orderID, "error", err)
		return err
	}

	// Event emission is fire-and-forget; a failed write is logged and
	// never surfaced to the caller.
	if err := m.events.Append(models.NewStateChangeEvent(order, transition)); err != nil {
		m.logger.Error("Failed to emit state change event", "orderID", orderID, "error", err)
	}

	m.logger.Info("Order transitioned",
		"orderID", orderID,
		"fromState", transition.FromState,
		"toState", toState,
		"agent", agent)

	return nil
}

// GetOrder returns a copy of the order with the given id. All read APIs
// return copies detached from the machine's own state, so callers may
// inspect or marshal them without holding any lock.
func (m *OrderStateMachine) GetOrder(orderID string) (*models.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	order, exists := m.orders[orderID]

	if !exists {
		return nil, apperrors.NewOrderNotFoundError(orderID)
	}

	return order.Clone(), nil
}

// GetOrders returns copies of all orders
func (m *OrderStateMachine) GetOrders() []*models.Order {
	m.mu.RLock()
	defer m.mu.RUnlock()

	orders := make([]*models.Order, 0, len(m.orders))

	for _, order := range m.orders {
		orders = append(orders, order.Clone())
	}

	return orders
}

// GetOrdersByState returns copies of all orders currently in the given state
func (m *OrderStateMachine) GetOrdersByState(state models.OrderState) []*models.Order {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var orders []*models.Order

	for _, order := range m.orders {
		if order.CurrentState == state {
			orders = append(orders, order.Clone())
		}
	}

	return orders
}

// LoadOrders scans the storage directory and restores every persisted order
// into memory. Corrupt files are skipped; their count is returned so callers
// can surface it.
func (m *OrderStateMachine) LoadOrders() (loaded int, skipped int, err error) {
	orders, skipped, err := m.store.LoadAll()

	if err != nil {
		return 0, skipped, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, order := range orders {
		m.orders[order.ID] = order
	}

	m.logger.Info("Orders loaded from storage", "loaded", len(orders), "skipped", skipped)
	return len(orders), skipped, nil
}

// slaHours computes the order-level SLA at creation. The amount override
// takes precedence over priority. This order-level figure is distinct from
// the per-state SLA used for overdue detection.
func slaHours(priority int, totalAmount float64) int {
	switch {
	case totalAmount > 10000:
		return 4
	case priority == 1:
		return 2
	case priority == 2:
		return 12
	default:
		return 24
	}
}
