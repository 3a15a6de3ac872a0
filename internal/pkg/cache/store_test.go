package cache

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
)

var reader = sdkmetric.NewManualReader()

func TestMain(m *testing.M) {
	otel.SetMeterProvider(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))
	os.Exit(m.Run())
}

// cacheOps sums cache_operations_total for one cache, keyed by result.
func cacheOps(t *testing.T, cache string) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			if md.Name != "cache_operations_total" {
				continue
			}
			data, ok := md.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range data.DataPoints {
				if name, _ := dp.Attributes.Value("cache"); name.AsString() != cache {
					continue
				}
				result, _ := dp.Attributes.Value("result")
				out[result.AsString()] += dp.Value
			}
		}
	}
	return out
}

func TestStore(t *testing.T) {
	s := NewStore[int](time.Minute, "test", zap.NewNop())

	_, ok := s.Get("missing")
	assert.False(t, ok)

	s.Set("a", 1)
	v, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, 1, s.Size())

	s.Delete("a")
	_, ok = s.Get("a")
	assert.False(t, ok)

	assert.Equal(t, map[string]int64{"hit": 1, "miss": 2, "set": 1}, cacheOps(t, "test"))
}

func TestStoreExpiryTime(t *testing.T) {
	s := NewStore[int](time.Minute, "expiry", nil)

	_, ok := s.Expiry("k")
	assert.False(t, ok)

	before := time.Now()
	s.Set("k", 1)
	exp, ok := s.Expiry("k")
	require.True(t, ok)
	assert.WithinDuration(t, before.Add(time.Minute), exp, time.Second)
	assert.Equal(t, map[string]int64{"set": 1}, cacheOps(t, "expiry"), "Expiry is not a lookup")
}

func TestStoreExpiry(t *testing.T) {
	s := NewStore[string](20*time.Millisecond, "short", nil)
	s.Set("k", "v")

	assert.Eventually(t, func() bool {
		_, ok := s.Get("k")
		return !ok
	}, time.Second, 10*time.Millisecond)
}

func TestStoreUpdate(t *testing.T) {
	s := NewStore[int](time.Minute, "counter", nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Update("n", func(cur int, _ bool) (int, bool) { return cur + 1, true })
		}()
	}
	wg.Wait()

	v, ok := s.Get("n")
	require.True(t, ok)
	assert.Equal(t, 50, v)

	s.Update("n", func(int, bool) (int, bool) { return 0, false })
	_, ok = s.Get("n")
	assert.False(t, ok)
}
