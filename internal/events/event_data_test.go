package events

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvent_GetTypedData(t *testing.T) {
	fetchedAt := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	original := &DealsRefreshedData{
		BatchID:   "batch-1",
		Deals:     12,
		Skipped:   2,
		Warnings:  3,
		FetchedAt: fetchedAt,
		Trigger:   "manual",
	}

	event := &Event{Type: DealsRefreshed, Data: convertEventDataToMap(original)}

	typed, ok := event.GetTypedData().(*DealsRefreshedData)
	require.True(t, ok)
	assert.Equal(t, "batch-1", typed.BatchID)
	assert.Equal(t, 12, typed.Deals)
	assert.Equal(t, 2, typed.Skipped)
	assert.True(t, fetchedAt.Equal(typed.FetchedAt))
}

func TestEvent_GetTypedData_UnknownType(t *testing.T) {
	event := &Event{Type: "SOMETHING_ELSE", Data: map[string]interface{}{"a": 1}}
	assert.Nil(t, event.GetTypedData())

	empty := &Event{Type: DealsRefreshed}
	assert.Nil(t, empty.GetTypedData())
}

func TestBus_SubscribeAndEmit(t *testing.T) {
	bus := NewBus()

	var received []*Event
	unsubscribe := bus.Subscribe(DealsRefreshed, func(e *Event) {
		received = append(received, e)
	})
	bus.Subscribe(DealsRefreshFailed, func(e *Event) {
		t.Fatalf("unexpected event %s", e.Type)
	})

	bus.Emit(DealsRefreshed, "deals", map[string]interface{}{"deals": 3})
	require.Len(t, received, 1)
	assert.Equal(t, "deals", received[0].Module)
	assert.Equal(t, 3, received[0].Data["deals"])

	unsubscribe()
	assert.Equal(t, 0, bus.SubscriberCount(DealsRefreshed))

	bus.Emit(DealsRefreshed, "deals", nil)
	assert.Len(t, received, 1)
}

func TestManager_EmitTypedAndError(t *testing.T) {
	bus := NewBus()
	manager := NewManager(bus, zerolog.New(nil).Level(zerolog.Disabled))

	var got []*Event
	for _, et := range AllTypes {
		bus.Subscribe(et, func(e *Event) { got = append(got, e) })
	}

	manager.EmitTyped("deals", &DealsRefreshFailedData{Error: "timeout", ServedStale: true, Trigger: "schedule"})
	manager.EmitError("scheduler", errors.New("boom"), map[string]interface{}{"job": "deals_refresh"})

	require.Len(t, got, 2)
	assert.Equal(t, DealsRefreshFailed, got[0].Type)
	assert.Equal(t, true, got[0].Data["served_stale"])
	assert.Equal(t, ErrorOccurred, got[1].Type)
	assert.Equal(t, "boom", got[1].Data["error"])
}
