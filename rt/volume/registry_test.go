package volume

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryRegisterAndLookup(t *testing.T) {
	w := NewWorld()
	ptr := NewFlatBuilder(2, 2, 2).Build(w)

	r := NewRegistry()
	id, err := r.Register(w, "crate", ptr)
	require.NoError(t, err)

	entry, ok := r.Get(id)
	require.True(t, ok)
	assert.Equal(t, "crate", entry.Name)
	assert.Equal(t, ptr, entry.Ptr)
	assert.Equal(t, SchemaFlat, entry.Schema)

	byName, ok := r.Find("crate")
	require.True(t, ok)
	assert.Equal(t, entry, byName)
	assert.Equal(t, 1, r.Len())
}

func TestRegistryRejectsDuplicateName(t *testing.T) {
	w := NewWorld()
	ptr := NewFlatBuilder(2, 2, 2).Build(w)

	r := NewRegistry()
	_, err := r.Register(w, "crate", ptr)
	require.NoError(t, err)
	_, err = r.Register(w, "crate", ptr)
	assert.Error(t, err)
}

func TestRegistryRejectsDanglingPointer(t *testing.T) {
	w := NewWorld()
	r := NewRegistry()
	_, err := r.Register(w, "ghost", 1234)
	assert.Error(t, err)

	_, ok := r.Find("ghost")
	assert.False(t, ok)
}
