package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseState(t *testing.T) {
	state, err := ParseState("IN_PRODUCTION")
	require.NoError(t, err)
	assert.Equal(t, StateInProduction, state)

	_, err = ParseState("TELEPORTED")
	assert.Error(t, err)

	_, err = ParseState("created")
	assert.Error(t, err, "state names are case sensitive")
}

func TestStateIndexFollowsChainOrder(t *testing.T) {
	assert.Equal(t, 0, StateCreated.Index())
	assert.Equal(t, 7, StateDelivered.Index())
	assert.Equal(t, 9, StateClosed.Index())
	assert.Equal(t, -1, OrderState("BOGUS").Index())
}

func TestOrderStateJSONUsesEnumName(t *testing.T) {
	data, err := json.Marshal(StatePacked)
	require.NoError(t, err)
	assert.Equal(t, `"PACKED"`, string(data))

	var state OrderState
	require.NoError(t, json.Unmarshal([]byte(`"SHIPPED"`), &state))
	assert.Equal(t, StateShipped, state)

	assert.Error(t, json.Unmarshal([]byte(`"NOT_A_STATE"`), &state))
}

func TestUnixTimeRoundTrip(t *testing.T) {
	original := NewUnixTime(time.Date(2026, 4, 2, 10, 30, 15, 123_000_000, time.UTC))

	data, err := json.Marshal(original)
	require.NoError(t, err)

	var restored UnixTime
	require.NoError(t, json.Unmarshal(data, &restored))

	assert.Equal(t, original, restored)
	assert.True(t, original.Time().Equal(restored.Time()))
}

func TestUnixTimeSerializesAsEpochSeconds(t *testing.T) {
	ts := NewUnixTime(time.Unix(1743589800, 0).UTC())

	data, err := json.Marshal(ts)
	require.NoError(t, err)
	assert.Equal(t, "1743589800", string(data))
}

func TestLastActivityFallsBackToCreation(t *testing.T) {
	createdAt := NewUnixTime(time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC))
	order := &Order{CreatedAt: createdAt}

	assert.Equal(t, createdAt, order.LastActivity())

	later := NewUnixTime(createdAt.Time().Add(time.Hour))
	order.History = append(order.History, StateTransition{
		FromState: StateCreated,
		ToState:   StateConfirmed,
		Timestamp: later,
	})

	assert.Equal(t, later, order.LastActivity())
}

func TestNewStateChangeEvent(t *testing.T) {
	order := &Order{
		ID:            "ORD_1743589800_1",
		CustomerEmail: "buyer@example.com",
		TotalAmount:   250,
		Priority:      1,
	}

	transition := StateTransition{
		FromState: StateConfirmed,
		ToState:   StatePlanned,
		Timestamp: NewUnixTime(time.Now()),
	}

	event := NewStateChangeEvent(order, transition)

	assert.Equal(t, EventTypeStateChange, event.Type)
	assert.Equal(t, order.ID, event.OrderID)
	assert.Equal(t, StateConfirmed, event.FromState)
	assert.Equal(t, StatePlanned, event.ToState)
	assert.Equal(t, transition.Timestamp, event.Timestamp)
	assert.Equal(t, "buyer@example.com", event.Customer)
	assert.Equal(t, 250.0, event.TotalAmount)
	assert.Equal(t, 1, event.Priority)
}
