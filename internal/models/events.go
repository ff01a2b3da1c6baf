package models

// EventTypeStateChange is the type tag carried by every state change event
const EventTypeStateChange = "order_state_change"

// StateChangeEvent is the payload written to the events directory on every
// successful transition. External consumers poll the directory; nothing is
// pushed.
type StateChangeEvent struct {
	Type        string     `json:"type"`
	OrderID     string     `json:"order_id"`
	FromState   OrderState `json:"from_state"`
	ToState     OrderState `json:"to_state"`
	Timestamp   UnixTime   `json:"timestamp"`
	Customer    string     `json:"customer"`
	TotalAmount float64    `json:"total_amount"`
	Priority    int        `json:"priority"`
}

// NewStateChangeEvent builds the event for a transition just applied to an order
func NewStateChangeEvent(order *Order, transition StateTransition) *StateChangeEvent {
	return &StateChangeEvent{
		Type:        EventTypeStateChange,
		OrderID:     order.ID,
		FromState:   transition.FromState,
		ToState:     transition.ToState,
		Timestamp:   transition.Timestamp,
		Customer:    order.CustomerEmail,
		TotalAmount: order.TotalAmount,
		Priority:    order.Priority,
	}
}
