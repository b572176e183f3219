// Package cache holds rendered catalog responses. Redis backs it in
// production; without REDIS_ADDR a no-op cache keeps handlers unchanged.
package cache

import (
	"context"
	"net/url"
	"time"
)

const CatalogPrefix = "catalog:"

type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	// DeletePrefix drops every key starting with prefix.
	DeletePrefix(ctx context.Context, prefix string) error
}

// CatalogKey builds a stable key from the request path, its query
// (url.Values.Encode sorts by name) and the resolved language.
func CatalogKey(path string, q url.Values, lang string) string {
	return CatalogPrefix + path + "?" + q.Encode() + "#" + lang
}

type Noop struct{}

func (Noop) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (Noop) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (Noop) DeletePrefix(context.Context, string) error               { return nil }
