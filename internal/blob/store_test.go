package blob

import (
	"context"
	"testing"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type menu struct {
	Title string   `json:"title"`
	Items []string `json:"items"`
}

// exerciseStore runs the same contract against any backend.
func exerciseStore(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()

	// missing keys are absent, not errors
	b, err := s.Get(ctx, "nope")
	require.NoError(t, err)
	require.Nil(t, b)

	var m menu
	found, err := s.GetJSON(ctx, "nope", &m)
	require.NoError(t, err)
	require.False(t, found)

	require.NoError(t, s.SetJSON(ctx, "menus.json", menu{Title: "Main", Items: []string{"home", "about"}}))
	found, err = s.GetJSON(ctx, "menus.json", &m)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "Main", m.Title)
	require.Equal(t, []string{"home", "about"}, m.Items)

	require.NoError(t, s.Set(ctx, "raw", []byte("hello")))
	b, err = s.Get(ctx, "raw")
	require.NoError(t, err)
	require.Equal(t, "hello", string(b))

	entries, err := s.List(ctx)
	require.NoError(t, err)
	require.Equal(t, []Entry{{Key: "menus.json"}, {Key: "raw"}}, entries)

	ok, err := s.Delete(ctx, "raw")
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = s.Delete(ctx, "raw")
	require.NoError(t, err)
	require.False(t, ok)

	b, err = s.Get(ctx, "raw")
	require.NoError(t, err)
	require.Nil(t, b)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewStore("site", NewMemoryBackend()))
}

func TestRedisStore(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()

	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	exerciseStore(t, NewStore("site", NewRedisBackend(client, "", "site")))

	require.True(t, m.Exists("blogdesk:site:menus.json"))
}

func TestRedisStoresAreIsolated(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()

	p := NewRedisProvider(redis.NewClient(&redis.Options{Addr: m.Addr()}))
	ctx := context.Background()
	site := p.Store(StoreSite)
	comments := p.Store(StoreComments)

	require.NoError(t, site.Set(ctx, "k", []byte("site")))
	require.NoError(t, comments.Set(ctx, "k", []byte("comments")))

	b, err := site.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "site", string(b))

	entries, err := comments.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.NoError(t, p.Ping(ctx))
}

func TestMemoryProviderReusesStores(t *testing.T) {
	p := NewMemoryProvider()
	ctx := context.Background()
	require.NoError(t, p.Store(StoreAnalytics).Set(ctx, "analytics-data", []byte("{}")))

	b, err := p.Store(StoreAnalytics).Get(ctx, "analytics-data")
	require.NoError(t, err)
	require.Equal(t, "{}", string(b))

	b, err = p.Store(StoreSite).Get(ctx, "analytics-data")
	require.NoError(t, err)
	require.Nil(t, b)
}

func TestGetJSONDecodeError(t *testing.T) {
	s := NewStore("site", NewMemoryBackend())
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "bad", []byte("{not json")))
	var m menu
	_, err := s.GetJSON(ctx, "bad", &m)
	require.Error(t, err)
}
