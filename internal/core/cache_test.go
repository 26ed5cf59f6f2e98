//go:build unit

package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jordank1977/mimirr/internal/core/model"
)

func TestBookListCache_HitAndExpiry(t *testing.T) {
	now := time.Unix(1000, 0)
	c := NewBookListCacheWithClock(time.Minute, func() time.Time { return now })

	c.Put(42, []model.Book{{ForeignBookID: "fb1"}})

	got, ok := c.Get(42)
	require.True(t, ok)
	assert.Equal(t, "fb1", got[0].ForeignBookID)

	now = now.Add(59 * time.Second)
	_, ok = c.Get(42)
	assert.True(t, ok)

	now = now.Add(time.Second)
	_, ok = c.Get(42)
	assert.False(t, ok)
}

func TestBookListCache_ZeroTTLDisables(t *testing.T) {
	c := NewBookListCache(0)
	c.Put(42, []model.Book{{ForeignBookID: "fb1"}})
	_, ok := c.Get(42)
	assert.False(t, ok)
}

func TestBookListCache_Invalidate(t *testing.T) {
	c := NewBookListCache(time.Hour)
	c.Put(42, []model.Book{{ForeignBookID: "fb1"}})
	c.Invalidate(42)
	_, ok := c.Get(42)
	assert.False(t, ok)
}

func TestBookListCache_MissForUnknownAuthor(t *testing.T) {
	c := NewBookListCache(time.Hour)
	_, ok := c.Get(7)
	assert.False(t, ok)
}
