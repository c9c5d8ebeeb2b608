package geolocation

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"service-map/core/mapping"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var madrid = mapping.Coordinate{Latitude: 40.4168, Longitude: -3.7038}

func TestSource_RequestPosition(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		src := NewSource(StaticLocator{Coordinate: madrid}, zap.NewNop())

		pos, err := src.RequestPosition(context.Background(), Options{Timeout: time.Second})
		require.NoError(t, err)
		assert.Equal(t, madrid, pos.Coordinate)
		assert.False(t, pos.CapturedAt.IsZero())

		last, ok := src.Last()
		assert.True(t, ok)
		assert.Equal(t, pos, last)
	})

	t.Run("NilLocatorIsUnsupported", func(t *testing.T) {
		src := NewSource(nil, zap.NewNop())

		_, err := src.RequestPosition(context.Background(), Options{})
		assert.Equal(t, Unsupported, CodeOf(err))
	})

	t.Run("PermissionDenied", func(t *testing.T) {
		src := NewSource(LocatorFunc(func(ctx context.Context, opts Options) (mapping.Position, error) {
			return mapping.Position{}, ErrPermissionDenied
		}), zap.NewNop())

		_, err := src.RequestPosition(context.Background(), Options{})
		assert.ErrorIs(t, err, ErrPermissionDenied)
		assert.Equal(t, PermissionDenied, CodeOf(err))
	})

	t.Run("UnclassifiedErrorIsUnavailable", func(t *testing.T) {
		cause := errors.New("gps chip offline")
		src := NewSource(LocatorFunc(func(ctx context.Context, opts Options) (mapping.Position, error) {
			return mapping.Position{}, cause
		}), zap.NewNop())

		_, err := src.RequestPosition(context.Background(), Options{})
		assert.Equal(t, PositionUnavailable, CodeOf(err))
		assert.ErrorIs(t, err, cause)
	})

	t.Run("InvalidCoordinateIsUnavailable", func(t *testing.T) {
		src := NewSource(LocatorFunc(func(ctx context.Context, opts Options) (mapping.Position, error) {
			return mapping.Position{Coordinate: mapping.Coordinate{Latitude: 120}}, nil
		}), zap.NewNop())

		_, err := src.RequestPosition(context.Background(), Options{})
		assert.Equal(t, PositionUnavailable, CodeOf(err))
	})

	t.Run("TimeoutDropsLateFix", func(t *testing.T) {
		release := make(chan struct{})
		src := NewSource(LocatorFunc(func(ctx context.Context, opts Options) (mapping.Position, error) {
			<-release
			return mapping.Position{Coordinate: madrid}, nil
		}), zap.NewNop())

		fired := make(chan time.Time, 1)
		var requested time.Duration
		src.after = func(d time.Duration) <-chan time.Time {
			requested = d
			fired <- time.Now()
			return fired
		}

		_, err := src.RequestPosition(context.Background(), Options{})
		assert.Equal(t, Timeout, CodeOf(err))
		assert.Equal(t, DefaultTimeout, requested)

		close(release)
		time.Sleep(10 * time.Millisecond)
		_, ok := src.Last()
		assert.False(t, ok)
	})

	t.Run("ContextCancelled", func(t *testing.T) {
		src := NewSource(LocatorFunc(func(ctx context.Context, opts Options) (mapping.Position, error) {
			<-ctx.Done()
			return mapping.Position{}, ctx.Err()
		}), zap.NewNop())

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := src.RequestPosition(ctx, Options{Timeout: time.Minute})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, Code(""), CodeOf(err))
	})

	t.Run("ContextDeadline", func(t *testing.T) {
		src := NewSource(LocatorFunc(func(ctx context.Context, opts Options) (mapping.Position, error) {
			<-ctx.Done()
			return mapping.Position{}, ctx.Err()
		}), zap.NewNop())

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		_, err := src.RequestPosition(ctx, Options{Timeout: time.Minute})
		assert.Equal(t, Timeout, CodeOf(err))
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestSource_Cache(t *testing.T) {
	var calls int32
	src := NewSource(LocatorFunc(func(ctx context.Context, opts Options) (mapping.Position, error) {
		atomic.AddInt32(&calls, 1)
		return mapping.Position{Coordinate: madrid}, nil
	}), zap.NewNop())

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	src.now = func() time.Time { return now }

	_, err := src.RequestPosition(context.Background(), Options{MaxCacheAge: time.Minute})
	require.NoError(t, err)

	now = now.Add(30 * time.Second)
	_, err = src.RequestPosition(context.Background(), Options{MaxCacheAge: time.Minute})
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	now = now.Add(2 * time.Minute)
	_, err = src.RequestPosition(context.Background(), Options{MaxCacheAge: time.Minute})
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))

	_, err = src.RequestPosition(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestConfig(t *testing.T) {
	cfg := Config{
		Enabled:       true,
		Latitude:      madrid.Latitude,
		Longitude:     madrid.Longitude,
		Accuracy:      25,
		HighAccuracy:  true,
		TimeoutMs:     5000,
		MaxCacheAgeMs: 60000,
	}

	opts := cfg.Options()
	assert.Equal(t, 5*time.Second, opts.Timeout)
	assert.Equal(t, time.Minute, opts.MaxCacheAge)
	assert.True(t, opts.HighAccuracy)

	loc, ok := cfg.Locator().(StaticLocator)
	require.True(t, ok)
	assert.Equal(t, madrid, loc.Coordinate)
	require.NotNil(t, loc.Accuracy)
	assert.Equal(t, 25.0, *loc.Accuracy)

	cfg.Enabled = false
	assert.Nil(t, cfg.Locator())
}
