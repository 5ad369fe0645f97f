package rbac

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPermissionFlags_SetHasAny(t *testing.T) {
	flags := NewPermissionFlags()

	assert.False(t, flags.Any(ActionView))

	flags.Set(ActionView, ScopePeer, true)
	assert.True(t, flags.Has(ActionView, ScopePeer))
	assert.False(t, flags.Has(ActionView, ScopeAll))
	assert.True(t, flags.Any(ActionView))
	assert.False(t, flags.Any(ActionEdit))

	flags.Set(ActionView, ScopePeer, false)
	assert.False(t, flags.Any(ActionView))
	assert.Empty(t, flags)
}

func TestPermissionFlags_JSON(t *testing.T) {
	flags := NewPermissionFlags()
	flags.Set(ActionDelete, ScopeSubordinate, true)
	flags.Set(ActionCreate, ScopeAll, true)

	data, err := json.Marshal(flags)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"delete:subordinate":true`)

	decoded := NewPermissionFlags()
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, flags, decoded)
}

func TestFlag_UnmarshalTextRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "view", "view:everything", "fly:own"} {
		var f Flag
		assert.Error(t, f.UnmarshalText([]byte(in)), in)
	}
}
