package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewFormCache_DisabledWithoutClient(t *testing.T) {
	require.Nil(t, NewFormCache(nil, time.Minute))
}

func TestFormCache_NilIsNoop(t *testing.T) {
	var c *FormCache
	ctx := context.Background()

	_, ok := c.GetByID(ctx, "abc")
	require.False(t, ok)
	_, ok = c.GetBySlug(ctx, "contact")
	require.False(t, ok)

	require.NotPanics(t, func() {
		c.Set(ctx, "abc", "contact", []byte(`{}`))
		c.Invalidate(ctx, "abc", "contact")
	})
}

func TestKeys(t *testing.T) {
	require.Equal(t, "formforge:public-form:id:abc", idKey("abc"))
	require.Equal(t, "formforge:public-form:slug:contact", slugKey("contact"))
}
