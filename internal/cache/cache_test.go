package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	Title string `json:"title"`
	Year  int    `json:"year"`
}

func setupCache(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	c := New(mr.Addr(), "", 0)
	t.Cleanup(func() {
		_ = c.Close()
		mr.Close()
	})
	return c, mr
}

func TestClient_FillAndRead(t *testing.T) {
	c, mr := setupCache(t)
	ctx := context.Background()

	gen := c.Generation(ctx, "book:1:gen")
	assert.Empty(t, gen)
	require.NoError(t, c.SetJSONIfGeneration(ctx, "book:1", "book:1:gen", gen, entry{Title: "Helena", Year: 1876}, time.Minute))

	var got entry
	assert.True(t, c.GetJSON(ctx, "book:1", &got))
	assert.Equal(t, entry{Title: "Helena", Year: 1876}, got)
	assert.Equal(t, time.Minute, mr.TTL("book:1"))

	var miss entry
	assert.False(t, c.GetJSON(ctx, "book:404", &miss))
}

func TestClient_Expiry(t *testing.T) {
	c, mr := setupCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetJSONIfGeneration(ctx, "k", "k:gen", "", entry{Title: "v"}, time.Second))
	mr.FastForward(2 * time.Second)

	got, _ := c.Get(ctx, "k")
	assert.Nil(t, got)
}

func TestClient_InvalidateDropsValueAndBumpsGeneration(t *testing.T) {
	c, mr := setupCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetJSONIfGeneration(ctx, "book:1", "book:1:gen", "", entry{Title: "Helena"}, time.Minute))
	require.NoError(t, c.Invalidate(ctx, "book:1", "book:1:gen"))

	assert.False(t, mr.Exists("book:1"))
	assert.Equal(t, "1", c.Generation(ctx, "book:1:gen"))
	assert.Equal(t, generationTTL, mr.TTL("book:1:gen"))

	require.NoError(t, c.Invalidate(ctx, "book:1", "book:1:gen"))
	assert.Equal(t, "2", c.Generation(ctx, "book:1:gen"))
}

func TestClient_StaleFillIsDiscarded(t *testing.T) {
	c, mr := setupCache(t)
	ctx := context.Background()

	// a reader samples the generation, then a writer invalidates before the fill
	gen := c.Generation(ctx, "book:1:gen")
	require.NoError(t, c.Invalidate(ctx, "book:1", "book:1:gen"))
	require.NoError(t, c.SetJSONIfGeneration(ctx, "book:1", "book:1:gen", gen, entry{Title: "stale"}, time.Minute))

	assert.False(t, mr.Exists("book:1"))

	// a reader that started after the write may fill
	gen = c.Generation(ctx, "book:1:gen")
	require.NoError(t, c.SetJSONIfGeneration(ctx, "book:1", "book:1:gen", gen, entry{Title: "fresh"}, time.Minute))

	var got entry
	assert.True(t, c.GetJSON(ctx, "book:1", &got))
	assert.Equal(t, "fresh", got.Title)
}

func TestClient_FailsSafeWhenRedisDown(t *testing.T) {
	c, mr := setupCache(t)
	ctx := context.Background()
	mr.Close()

	assert.NoError(t, c.SetJSONIfGeneration(ctx, "k", "k:gen", "", entry{}, time.Minute))
	got, err := c.Get(ctx, "k")
	assert.NoError(t, err)
	assert.Nil(t, got)
	assert.Empty(t, c.Generation(ctx, "k:gen"))
	assert.NoError(t, c.Invalidate(ctx, "k", "k:gen"))
	assert.Error(t, c.Ping(ctx))
}

func TestClient_NilIsAMiss(t *testing.T) {
	var c *Client
	ctx := context.Background()

	got, err := c.Get(ctx, "k")
	assert.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, c.SetJSONIfGeneration(ctx, "k", "k:gen", "", entry{}, time.Minute))
	assert.NoError(t, c.Invalidate(ctx, "k", "k:gen"))
	assert.Empty(t, c.Generation(ctx, "k:gen"))
	assert.NoError(t, c.Close())
	assert.False(t, c.GetJSON(ctx, "k", &struct{}{}))
}
