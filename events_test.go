package cloudvar_client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitterInvokesInRegistrationOrder(t *testing.T) {
	e := newEmitter()
	var order []int
	e.on(EventSet, func(Event) { order = append(order, 1) }, false)
	e.on(EventSet, func(Event) { order = append(order, 2) }, false)
	e.on(EventSet, func(Event) { order = append(order, 3) }, false)

	e.emit(Event{Kind: EventSet})
	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestEmitterRoutesByKind(t *testing.T) {
	e := newEmitter()
	var sets, opens int
	e.on(EventSet, func(Event) { sets++ }, false)
	e.on(EventOpen, func(Event) { opens++ }, false)

	e.emit(Event{Kind: EventSet})
	e.emit(Event{Kind: EventSet})
	assert.Equal(t, 2, sets)
	assert.Zero(t, opens)
}

func TestEmitterOnceFiresOnce(t *testing.T) {
	e := newEmitter()
	var calls int
	e.on(EventSetup, func(Event) { calls++ }, true)

	e.emit(Event{Kind: EventSetup})
	e.emit(Event{Kind: EventSetup})
	assert.Equal(t, 1, calls)
}

func TestEmitterOnceSurvivesReentrantEmit(t *testing.T) {
	e := newEmitter()
	var calls int
	e.on(EventOpen, func(Event) {
		calls++
		if calls == 1 {
			e.emit(Event{Kind: EventOpen})
		}
	}, true)

	e.emit(Event{Kind: EventOpen})
	assert.Equal(t, 1, calls)
}

func TestEmitterOffRemovesListener(t *testing.T) {
	e := newEmitter()
	var calls int
	sub := e.on(EventClose, func(Event) { calls++ }, false)

	require.True(t, e.off(sub))
	assert.False(t, e.off(sub))

	e.emit(Event{Kind: EventClose})
	assert.Zero(t, calls)
}

func TestEmitterEmitWithoutListeners(t *testing.T) {
	e := newEmitter()
	e.emit(Event{Kind: EventError})
}

func TestEventKindString(t *testing.T) {
	assert.Equal(t, "open", EventOpen.String())
	assert.Equal(t, "close", EventClose.String())
	assert.Equal(t, "error", EventError.String())
	assert.Equal(t, "setup", EventSetup.String())
	assert.Equal(t, "set", EventSet.String())
	assert.Equal(t, "addvariable", EventAddVariable.String())
	assert.Equal(t, "unknown", EventKind(99).String())
}
