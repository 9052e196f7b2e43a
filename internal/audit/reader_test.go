package audit

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestClampLimit(t *testing.T) {
	require.Equal(t, DefaultListLimit, ClampLimit(0))
	require.Equal(t, DefaultListLimit, ClampLimit(-3))
	require.Equal(t, DefaultListLimit, ClampLimit(MaxListLimit+1))
	require.Equal(t, 10, ClampLimit(10))
	require.Equal(t, MaxListLimit, ClampLimit(MaxListLimit))
}

func TestToNullUUID(t *testing.T) {
	require.False(t, toNullUUID(nil).Valid)

	id := uuid.New()
	n := toNullUUID(&id)
	require.True(t, n.Valid)
	require.Equal(t, id, n.UUID)
}
