package models

import (
	"fmt"
)

// OrderState represents one stage of the order lifecycle
type OrderState string

const (
	StateCreated      OrderState = "CREATED"
	StateConfirmed    OrderState = "CONFIRMED"
	StatePlanned      OrderState = "PLANNED"
	StateInProduction OrderState = "IN_PRODUCTION"
	StateProduced     OrderState = "PRODUCED"
	StatePacked       OrderState = "PACKED"
	StateShipped      OrderState = "SHIPPED"
	StateDelivered    OrderState = "DELIVERED"
	StateInvoiced     OrderState = "INVOICED"
	StateClosed       OrderState = "CLOSED"
)

// AllStates lists every lifecycle state in chain order
var AllStates = []OrderState{
	StateCreated,
	StateConfirmed,
	StatePlanned,
	StateInProduction,
	StateProduced,
	StatePacked,
	StateShipped,
	StateDelivered,
	StateInvoiced,
	StateClosed,
}

// ParseState validates a state name and returns the corresponding OrderState
func ParseState(s string) (OrderState, error) {
	for _, state := range AllStates {
		if string(state) == s {
			return state, nil
		}
	}
	return "", fmt.Errorf("unknown order state: %q", s)
}

// Valid reports whether the state is one of the ten lifecycle states
func (s OrderState) Valid() bool {
	_, err := ParseState(string(s))
	return err == nil
}

// Index returns the position of the state in the lifecycle chain, or -1 if unknown
func (s OrderState) Index() int {
	for i, state := range AllStates {
		if state == s {
			return i
		}
	}
	return -1
}

// String returns the state name
func (s OrderState) String() string {
	return string(s)
}

// MarshalText implements encoding.TextMarshaler; states serialize as their name
func (s OrderState) MarshalText() ([]byte, error) {
	return []byte(s), nil
}

// UnmarshalText implements encoding.TextUnmarshaler with membership validation
func (s *OrderState) UnmarshalText(text []byte) error {
	state, err := ParseState(string(text))
	if err != nil {
		return err
	}
	*s = state
	return nil
}
