package models

// OrderItem is one line of an order. Items are immutable once attached.
type OrderItem struct {
	SKU        string  `json:"sku"`
	Name       string  `json:"name"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	TotalPrice float64 `json:"total_price"`
}

// StateTransition records one historical hop between lifecycle states.
// Transitions are append-only and never mutated after creation.
type StateTransition struct {
	FromState OrderState             `json:"from_state"`
	ToState   OrderState             `json:"to_state"`
	Timestamp UnixTime               `json:"timestamp"`
	Agent     string                 `json:"agent"`
	Reason    string                 `json:"reason"`
	Metadata  map[string]interface{} `json:"metadata"`
}

// Order is the aggregate tracking a customer purchase through its lifecycle.
// CurrentState and History are the only fields mutated after creation, and
// only through the state machine; Metadata is an open map callers may extend.
type Order struct {
	ID            string                 `json:"id"`
	CustomerEmail string                 `json:"customer_email"`
	CustomerName  string                 `json:"customer_name"`
	Items         []OrderItem            `json:"items"`
	TotalAmount   float64                `json:"total_amount"`
	Priority      int                    `json:"priority"`
	SLAHours      int                    `json:"sla_hours"`
	CurrentState  OrderState             `json:"current_state"`
	CreatedAt     UnixTime               `json:"created_at"`
	History       []StateTransition      `json:"history"`
	Metadata      map[string]interface{} `json:"metadata"`
}

// LastTransition returns the most recent history entry, or nil for a
// freshly constructed order with no history yet
func (o *Order) LastTransition() *StateTransition {
	if len(o.History) == 0 {
		return nil
	}
	return &o.History[len(o.History)-1]
}

// LastActivity returns the timestamp of the most recent transition,
// falling back to the creation time
func (o *Order) LastActivity() UnixTime {
	if tr := o.LastTransition(); tr != nil {
		return tr.Timestamp
	}
	return o.CreatedAt
}

// Clone returns a deep copy of the order. Mutations on either side are
// invisible to the other.
func (o *Order) Clone() *Order {
	clone := *o
	clone.Items = append([]OrderItem(nil), o.Items...)
	clone.Metadata = cloneMetadata(o.Metadata)

	clone.History = make([]StateTransition, len(o.History))
	for i, tr := range o.History {
		tr.Metadata = cloneMetadata(tr.Metadata)
		clone.History[i] = tr
	}

	return &clone
}

func cloneMetadata(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}

	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}

	return out
}
