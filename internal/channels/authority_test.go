package channels

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"linktrack-go/internal/models"
)

type fakeLister struct {
	channels []models.MonitoredChannel
	err      error
	calls    int
}

func (f *fakeLister) GetActiveMonitoredChannels(ctx context.Context, guildID string) ([]models.MonitoredChannel, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.channels, nil
}

func TestIsMonitoredFromStore(t *testing.T) {
	lister := &fakeLister{channels: []models.MonitoredChannel{
		{GuildID: "g1", ChannelID: "c1", IsActive: true},
		{GuildID: "g1", ChannelID: "c2", IsActive: true},
	}}
	a := NewAuthority(lister, NopCache{}, time.Minute, nil)

	assert.True(t, a.IsMonitored(context.Background(), "g1", "c1"))
	assert.True(t, a.IsMonitored(context.Background(), "g1", "c2"))
	assert.False(t, a.IsMonitored(context.Background(), "g1", "c3"))
}

func TestIsMonitoredPopulatesCache(t *testing.T) {
	lister := &fakeLister{channels: []models.MonitoredChannel{
		{GuildID: "g1", ChannelID: "c1", IsActive: true},
	}}
	cache := NewMemoryCache(time.Minute)
	a := NewAuthority(lister, cache, time.Minute, nil)

	assert.True(t, a.IsMonitored(context.Background(), "g1", "c1"))
	assert.Equal(t, 1, lister.calls)

	// Second lookup is served from the cache.
	assert.True(t, a.IsMonitored(context.Background(), "g1", "c1"))
	assert.Equal(t, 1, lister.calls)

	ids, found := cache.Get("monitored:g1")
	assert.True(t, found)
	assert.Equal(t, []string{"c1"}, ids)
}

func TestIsMonitoredUsesCacheFirst(t *testing.T) {
	lister := &fakeLister{err: fmt.Errorf("store down")}
	cache := NewMemoryCache(time.Minute)
	cache.Set("monitored:g1", []string{"c9"}, time.Minute)
	a := NewAuthority(lister, cache, time.Minute, nil)

	assert.True(t, a.IsMonitored(context.Background(), "g1", "c9"))
	assert.Equal(t, 0, lister.calls)
}

func TestEmptyCacheEntryFallsThroughToStore(t *testing.T) {
	lister := &fakeLister{channels: []models.MonitoredChannel{
		{GuildID: "g1", ChannelID: "c1", IsActive: true},
	}}
	cache := NewMemoryCache(time.Minute)
	cache.Set("monitored:g1", []string{}, time.Minute)
	a := NewAuthority(lister, cache, time.Minute, nil)

	assert.True(t, a.IsMonitored(context.Background(), "g1", "c1"))
	assert.Equal(t, 1, lister.calls)
}

func TestStoreErrorFallsBackToLegacyList(t *testing.T) {
	lister := &fakeLister{err: fmt.Errorf("store down")}
	a := NewAuthority(lister, NopCache{}, time.Minute, []string{"legacy1", "legacy2"})

	assert.True(t, a.IsMonitored(context.Background(), "g1", "legacy1"))
	assert.False(t, a.IsMonitored(context.Background(), "g1", "other"))
}

func TestStoreErrorWithoutLegacyListDenies(t *testing.T) {
	lister := &fakeLister{err: fmt.Errorf("store down")}
	a := NewAuthority(lister, NopCache{}, time.Minute, nil)

	assert.False(t, a.IsMonitored(context.Background(), "g1", "c1"))
}

func TestMemoryCacheExpiry(t *testing.T) {
	cache := NewMemoryCache(time.Minute)
	cache.Set("k", []string{"v"}, 10*time.Millisecond)

	ids, found := cache.Get("k")
	assert.True(t, found)
	assert.Equal(t, []string{"v"}, ids)

	time.Sleep(20 * time.Millisecond)
	_, found = cache.Get("k")
	assert.False(t, found)
}
