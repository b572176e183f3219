package cache

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogKey_IgnoresQueryOrder(t *testing.T) {
	a, _ := url.ParseQuery("page=2&search=гео&category=1")
	b, _ := url.ParseQuery("category=1&search=гео&page=2")
	assert.Equal(t, CatalogKey("/api/catalog/courses", a, "ru"), CatalogKey("/api/catalog/courses", b, "ru"))
	assert.NotEqual(t, CatalogKey("/api/catalog/courses", a, "ru"), CatalogKey("/api/catalog/courses", a, "kz"))
	assert.Contains(t, CatalogKey("/x", nil, "en"), CatalogPrefix)
}

func TestNoop(t *testing.T) {
	ctx := context.Background()
	var c Cache = Noop{}
	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, c.DeletePrefix(ctx, CatalogPrefix))
}
