package allowlist

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetParsesMixedEntries(t *testing.T) {
	var fetches atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches.Add(1)
		w.Write([]byte(`["0xAAA", {"address": "0xBBB"}, {"name": "no address"}, ""]`))
	}))
	defer server.Close()

	cache := New(server.URL, time.Minute, time.Second)
	set := cache.Get(context.Background())

	assert.Len(t, set, 2)
	assert.True(t, set.Contains("0xaaa"))
	assert.True(t, set.Contains("0xBBB")) // lookup lowercases too
	assert.False(t, set.Contains("0xccc"))

	// Fresh cache: a second Get makes no external call.
	cache.Get(context.Background())
	assert.Equal(t, int32(1), fetches.Load())
}

func TestGetServesStaleOnRefreshFailure(t *testing.T) {
	var fail atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`["0xAAA"]`))
	}))
	defer server.Close()

	cache := New(server.URL, 20*time.Millisecond, time.Second)

	set := cache.Get(context.Background())
	require.True(t, set.Contains("0xaaa"))

	fail.Store(true)
	time.Sleep(40 * time.Millisecond)

	// TTL expired, refresh fails: the stale snapshot is served unchanged.
	set = cache.Get(context.Background())
	assert.True(t, set.Contains("0xaaa"))
}

func TestGetEmptyWhenNeverPopulated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	cache := New(server.URL, time.Minute, time.Second)
	set := cache.Get(context.Background())

	assert.NotNil(t, set)
	assert.Empty(t, set)
}

func TestGetWithoutURL(t *testing.T) {
	cache := New("", time.Minute, time.Second)
	set := cache.Get(context.Background())
	assert.Empty(t, set)
}

func TestGetMalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"not": "an array"}`))
	}))
	defer server.Close()

	cache := New(server.URL, time.Minute, time.Second)
	assert.Empty(t, cache.Get(context.Background()))
}
