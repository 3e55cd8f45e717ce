package cloudvar_client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVarStoreApplyReportsFirstObservation(t *testing.T) {
	store := newVarStore()

	assert.True(t, store.apply(VariablePrefix+"score", "1"))
	assert.False(t, store.apply(VariablePrefix+"score", "2"))
	assert.True(t, store.apply(VariablePrefix+"lives", "3"))

	value, ok := store.get(VariablePrefix + "score")
	require.True(t, ok)
	assert.Equal(t, "2", value)
	assert.Equal(t, 2, store.size())
}

func TestVarStoreGetMissing(t *testing.T) {
	store := newVarStore()

	value, ok := store.get(VariablePrefix + "score")
	assert.False(t, ok)
	assert.Empty(t, value)
	assert.False(t, store.has(VariablePrefix+"score"))
	assert.Zero(t, store.size())
}

func TestVarStoreSnapshotIsIndependent(t *testing.T) {
	store := newVarStore()
	store.apply(VariablePrefix+"score", "1")

	snap := store.snapshot()
	snap[VariablePrefix+"score"] = "changed"
	snap[VariablePrefix+"other"] = "9"

	value, ok := store.get(VariablePrefix + "score")
	require.True(t, ok)
	assert.Equal(t, "1", value)
	assert.False(t, store.has(VariablePrefix+"other"))
}
