package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeKey(t *testing.T) {
	assert.Equal(t, "12 main st, austin tx", NormalizeKey("  12  Main St,\tAustin TX "))
	assert.Equal(t, NormalizeKey("ÉCOLE RD"), NormalizeKey("école rd"))
}

func TestTTLCache_SharesNormalizedKeys(t *testing.T) {
	c := NewTTLCache[int](4, time.Minute)

	c.Add("12 Main St", 1)
	v, ok := c.Get("12  main st ")

	assert.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestTTLCache_EvictsBySize(t *testing.T) {
	c := NewTTLCache[string](2, time.Minute)

	c.Add("a", "1")
	c.Add("b", "2")
	c.Add("c", "3")

	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 2, c.Len())
}

func TestTTLCache_Expires(t *testing.T) {
	c := NewTTLCache[string](2, 20*time.Millisecond)

	c.Add("a", "1")
	time.Sleep(60 * time.Millisecond)

	_, ok := c.Get("a")
	assert.False(t, ok)
}
