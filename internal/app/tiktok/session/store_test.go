package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tikdl.local/internal/app/tiktok"
	"tikdl.local/internal/app/tiktok/viewstate"
)

func newTestStore(t *testing.T, ttl time.Duration) *Store {
	t.Helper()
	fetcher := tiktok.NewFetcher(nil, "http://127.0.0.1:1", "http://127.0.0.1:1", 0)
	s, err := NewStore(100, ttl, func() *viewstate.Controller {
		return viewstate.NewController(fetcher)
	})
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func TestNewID(t *testing.T) {
	a, err := NewID()
	require.NoError(t, err)
	b, err := NewID()
	require.NoError(t, err)

	assert.Len(t, a, 32)
	assert.True(t, ValidID(a))
	assert.NotEqual(t, a, b)

	assert.False(t, ValidID(""))
	assert.False(t, ValidID("zz"+a[2:]))
	assert.False(t, ValidID(a+"0"))
}

func TestStore_ResolveCreatesAndReuses(t *testing.T) {
	s := newTestStore(t, time.Minute)

	c1, sid, err := s.Resolve("")
	require.NoError(t, err)
	require.True(t, ValidID(sid))

	c2, sid2, err := s.Resolve(sid)
	require.NoError(t, err)
	assert.Equal(t, sid, sid2)
	assert.Same(t, c1, c2)

	got, ok := s.get(sid)
	assert.True(t, ok)
	assert.Same(t, c1, got)
}

func TestStore_UnknownOrForgedIDGetsFreshVisitor(t *testing.T) {
	s := newTestStore(t, time.Minute)

	_, sid, err := s.Resolve("not-a-session")
	require.NoError(t, err)
	assert.NotEqual(t, "not-a-session", sid)

	unknown, _ := NewID()
	_, sid2, err := s.Resolve(unknown)
	require.NoError(t, err)
	assert.NotEqual(t, unknown, sid2)
}

func TestStore_Remove(t *testing.T) {
	s := newTestStore(t, time.Minute)
	_, sid, err := s.Resolve("")
	require.NoError(t, err)

	s.remove(sid)
	_, ok := s.get(sid)
	assert.False(t, ok)
}

func TestStore_Expires(t *testing.T) {
	s := newTestStore(t, 50*time.Millisecond)
	_, sid, err := s.Resolve("")
	require.NoError(t, err)

	time.Sleep(150 * time.Millisecond)
	_, ok := s.get(sid)
	assert.False(t, ok)
}

func TestStore_Closed(t *testing.T) {
	s := newTestStore(t, time.Minute)
	s.Close()

	_, _, err := s.Resolve("")
	assert.ErrorIs(t, err, ErrStoreClosed)
	_, ok := s.get("0123456789abcdef0123456789abcdef")
	assert.False(t, ok)
}
