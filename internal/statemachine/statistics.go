package statemachine

import (
	"github.com/happybuttons/orderflow/internal/models"
)

// Statistics is the aggregated view consumed by dashboards and reports
type Statistics struct {
	TotalOrders        int                       `json:"total_orders"`
	ByState            map[models.OrderState]int `json:"by_state"`
	ByPriority         map[int]int               `json:"by_priority"`
	OverdueOrders      int                       `json:"overdue_orders"`
	TotalValue         float64                   `json:"total_value"`
	AvgProcessingHours float64                   `json:"avg_processing_hours"`
}

// GetOverdueOrders returns a copy of every order that is not CLOSED and has
// dwelt in its current state strictly longer than that state's configured
// SLA. The check uses the per-state SLA from the rules, not the order's own
// SLAHours.
func (m *OrderStateMachine) GetOverdueOrders() []*models.Order {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var overdue []*models.Order

	for _, order := range m.overdueLocked() {
		overdue = append(overdue, order.Clone())
	}

	return overdue
}

func (m *OrderStateMachine) overdueLocked() []*models.Order {
	now := m.clock()
	var overdue []*models.Order

	for _, order := range m.orders {
		if order.CurrentState == models.StateClosed {
			continue
		}

		elapsed := now.Sub(order.LastActivity().Time())

		if elapsed > m.rules.SLAFor(order.CurrentState) {
			overdue = append(overdue, order)
		}
	}

	return overdue
}

// GetOrderStatistics aggregates counts, value, overdue totals, and the mean
// processing time of CLOSED orders. State and priority counts are zero
// filled so consumers always see the full breakdown.
func (m *OrderStateMachine) GetOrderStatistics() *Statistics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := &Statistics{
		TotalOrders: len(m.orders),
		ByState:     make(map[models.OrderState]int, len(models.AllStates)),
		ByPriority:  make(map[int]int, 4),
	}

	for _, state := range models.AllStates {
		stats.ByState[state] = 0
	}
	for priority := 1; priority <= 4; priority++ {
		stats.ByPriority[priority] = 0
	}

	closedCount := 0
	closedHours := 0.0

	for _, order := range m.orders {
		stats.ByState[order.CurrentState]++
		stats.ByPriority[order.Priority]++
		stats.TotalValue += order.TotalAmount

		if order.CurrentState == models.StateClosed {
			closedCount++
			closedHours += order.LastActivity().Time().Sub(order.CreatedAt.Time()).Hours()
		}
	}

	if closedCount > 0 {
		stats.AvgProcessingHours = closedHours / float64(closedCount)
	}

	stats.OverdueOrders = len(m.overdueLocked())

	return stats
}
