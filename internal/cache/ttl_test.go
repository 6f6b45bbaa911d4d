package cache

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) Now() time.Time          { return f.t }
func (f *fakeClock) Advance(d time.Duration) { f.t = f.t.Add(d) }

func TestGetOrLoadReusesWithinWindow(t *testing.T) {
	clk := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := New[string, int](2, 15*time.Minute, clk.Now)
	loads := 0
	load := func() (int, error) { loads++; return loads, nil }

	v, err := c.GetOrLoad("acts", load)
	require.NoError(t, err)
	require.Equal(t, 1, v)

	clk.Advance(14 * time.Minute)
	v, err = c.GetOrLoad("acts", load)
	require.NoError(t, err)
	require.Equal(t, 1, v)
	require.Equal(t, 1, loads)
}

func TestGetOrLoadRebuildsAfterExpiry(t *testing.T) {
	clk := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := New[string, int](2, 15*time.Minute, clk.Now)
	loads := 0
	load := func() (int, error) { loads++; return loads, nil }

	_, _ = c.GetOrLoad("acts", load)
	clk.Advance(16 * time.Minute)
	v, err := c.GetOrLoad("acts", load)
	require.NoError(t, err)
	require.Equal(t, 2, v)
	require.Equal(t, 2, loads)
}

func TestErrorsAreNotCached(t *testing.T) {
	c := New[string, int](2, time.Minute, nil)
	_, err := c.GetOrLoad("k", func() (int, error) { return 0, errors.New("storage down") })
	require.Error(t, err)
	require.Equal(t, 0, c.Len())
}

func TestCapacityEvictsClosestToExpiry(t *testing.T) {
	clk := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := New[string, int](2, time.Minute, clk.Now)
	c.Set("a", 1)
	clk.Advance(time.Second)
	c.Set("b", 2)
	clk.Advance(time.Second)
	c.Set("c", 3)

	_, ok := c.Get("a")
	require.False(t, ok)
	_, ok = c.Get("b")
	require.True(t, ok)
	_, ok = c.Get("c")
	require.True(t, ok)
	require.Equal(t, 2, c.Len())
}
