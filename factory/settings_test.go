package factory_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vearutop/lazycache/factory"
)

func TestParseSettings(t *testing.T) {
	s, err := factory.ParseSettings(map[string]string{})
	require.NoError(t, err)

	assert.Equal(t, "SimpleCache", s.DefaultType)
	assert.True(t, s.LDCEnabled)
	assert.False(t, s.DistCacheEnabled)
	assert.Equal(t, time.Hour, s.DistCacheTTL)
	assert.Equal(t, 0, s.AccumulatorSize)
	assert.Equal(t, 15*time.Second, s.InvalidateSkipInterval)
	assert.Equal(t, "SimpleCache", s.CacheType("fares"))

	s, err = factory.ParseSettings(map[string]string{
		"DEFAULT_CACHE_TYPE":     "GenericCache",
		"CACHE_TYPES":            "fares=LRUCache:500,taxes=DualMapCache",
		"DISK_CACHE_TYPES":       "fares=Y||||Y|3600,taxes=Y||||Y",
		"DIST_CACHE_ENABLED":     "true",
		"DIST_CACHE_TTL":         "10m",
		"CACHE_ACCUMULATOR_SIZE": "20",
	})
	require.NoError(t, err)

	assert.Equal(t, "LRUCache:500", s.CacheType("fares"))
	assert.Equal(t, "DualMapCache", s.CacheType("taxes"))
	assert.Equal(t, "GenericCache", s.CacheType("routes"))
	assert.Equal(t, 20, s.AccumulatorSize)

	o, err := s.TypeOptions("fares")
	require.NoError(t, err)
	assert.True(t, o.LDCEnabled())
	assert.True(t, o.DistCacheEnabled())
	assert.Equal(t, time.Hour, o.TTL)

	// Definition without TTL falls back to DIST_CACHE_TTL.
	o, err = s.TypeOptions("taxes")
	require.NoError(t, err)
	assert.True(t, o.DistCacheEnabled())
	assert.Equal(t, 10*time.Minute, o.TTL)

	o, err = s.TypeOptions("routes")
	require.NoError(t, err)
	assert.False(t, o.Enabled())
	assert.Equal(t, 10*time.Minute, o.TTL)
}

func TestSettings_TypeOptions(t *testing.T) {
	s, err := factory.ParseSettings(map[string]string{
		"DISK_CACHE_TYPES": "fares=Y||||Y,taxes=maybe",
		"LDC_ENABLED":      "false",
	})
	require.NoError(t, err)

	// Tiers are switched off globally.
	o, err := s.TypeOptions("fares")
	require.NoError(t, err)
	assert.False(t, o.Enabled())

	_, err = s.TypeOptions("taxes")
	assert.Error(t, err)
}

func TestParseSettings_invalid(t *testing.T) {
	_, err := factory.ParseSettings(map[string]string{"DIST_CACHE_TTL": "soon"})
	assert.Error(t, err)
}
