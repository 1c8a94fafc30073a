package address

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type mapDirectory map[string]string

func (m mapDirectory) Address(siteID string) (string, bool) {
	v, ok := m[siteID]
	return v, ok
}

func TestResolveInheritsFromEarlierDocument(t *testing.T) {
	r := NewResolver(nil, nil)
	cache := NewCache()

	first, src := r.Resolve(cache, "141", "123 Main St")
	assert.Equal(t, "123 Main St", first)
	assert.Equal(t, SourceDocument, src)

	second, src := r.Resolve(cache, "141", "none")
	assert.Equal(t, "123 Main St", second)
	assert.Equal(t, SourceCache, src)
}

func TestResolveFirstSeenWins(t *testing.T) {
	r := NewResolver(nil, nil)
	cache := NewCache()

	r.Resolve(cache, "141", "123 Main St")
	got, src := r.Resolve(cache, "141", "9 Other Rd")
	assert.Equal(t, "9 Other Rd", got, "a document's own address stands")
	assert.Equal(t, SourceDocument, src)

	cached, _ := cache.Get("141")
	assert.Equal(t, "123 Main St", cached)
}

func TestResolveRegistryOverridesDocument(t *testing.T) {
	r := NewResolver(mapDirectory{"141": "1 Registry Way, Victoria"}, nil)
	cache := NewCache()

	got, src := r.Resolve(cache, "141", "123 Main St")
	assert.Equal(t, "1 Registry Way, Victoria", got)
	assert.Equal(t, SourceRegistry, src)

	cached, ok := cache.Get("141")
	assert.True(t, ok)
	assert.Equal(t, "1 Registry Way, Victoria", cached)
}

func TestResolveNoAddressAnywhere(t *testing.T) {
	r := NewResolver(mapDirectory{"999": "x"}, nil)
	cache := NewCache()

	got, src := r.Resolve(cache, "141", "none")
	assert.Equal(t, "none", got)
	assert.Equal(t, SourceNone, src)
	assert.Equal(t, 0, cache.Len())
}

func TestResolveUnresolvedSiteSkipsCache(t *testing.T) {
	r := NewResolver(nil, nil)
	cache := NewCache()

	r.Resolve(cache, "", "123 Main St")
	r.Resolve(cache, "unknown", "123 Main St")
	assert.Equal(t, 0, cache.Len())

	got, src := r.Resolve(cache, "", "none")
	assert.Equal(t, "none", got)
	assert.Equal(t, SourceNone, src)
}
