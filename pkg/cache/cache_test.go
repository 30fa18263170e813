package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemorySetGet(t *testing.T) {
	c := NewMemory(10)

	c.Set("k", "v", 0)
	got, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "v", got)
}

func TestMemoryMiss(t *testing.T) {
	c := NewMemory(10)

	_, ok := c.Get("absent")
	assert.False(t, ok)
}

func TestMemoryExpiry(t *testing.T) {
	c := NewMemory(10)

	c.Set("k", "v", 10*time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestMemoryDelete(t *testing.T) {
	c := NewMemory(10)

	c.Set("k", "v", 0)
	c.Delete("k")

	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestMemoryEvictsAtCapacity(t *testing.T) {
	c := NewMemory(2)

	c.Set("a", "1", 0)
	c.Set("b", "2", 0)
	c.Set("c", "3", 0)

	// One of the earlier entries made way for the new one.
	assert.LessOrEqual(t, len(c.items), 2)
	got, ok := c.Get("c")
	assert.True(t, ok)
	assert.Equal(t, "3", got)
}

func TestMemoryOverwriteDoesNotEvict(t *testing.T) {
	c := NewMemory(2)

	c.Set("a", "1", 0)
	c.Set("b", "2", 0)
	c.Set("a", "updated", 0)

	got, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "updated", got)
	_, ok = c.Get("b")
	assert.True(t, ok)
}
