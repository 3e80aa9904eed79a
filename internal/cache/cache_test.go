package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemoryCache_SetGet(t *testing.T) {
	c := New()

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Set("k", []byte("v"), time.Minute)
	got, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), got)
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := New()
	c.Set("k", []byte("v"), 10*time.Millisecond)

	_, ok := c.Get("k")
	assert.True(t, ok)

	time.Sleep(25 * time.Millisecond)
	_, ok = c.Get("k")
	assert.False(t, ok)
}

func TestMemoryCache_ZeroTTLNeverExpires(t *testing.T) {
	c := New()
	c.Set("k", []byte("v"), 0)

	time.Sleep(15 * time.Millisecond)
	_, ok := c.Get("k")
	assert.True(t, ok)
}

func TestMemoryCache_CopiesValue(t *testing.T) {
	c := New()
	val := []byte("original")
	c.Set("k", val, time.Minute)
	val[0] = 'X'

	got, _ := c.Get("k")
	assert.Equal(t, []byte("original"), got)
}

func TestNewAuto_EmptyAddrFallsBackToMemory(t *testing.T) {
	c := NewAuto("")
	c.Set("k", []byte("v"), time.Minute)
	got, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), got)
}
