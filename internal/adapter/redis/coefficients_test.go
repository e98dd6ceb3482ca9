package redis

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/radar-composite/internal/gra"
)

type fakeKV struct {
	data    map[string]string
	ttls    map[string]time.Duration
	getErr  error
	setErr  error
	setKeys []string
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeKV) Get(_ context.Context, key string) *goredis.StringCmd {
	if f.getErr != nil {
		return goredis.NewStringResult("", f.getErr)
	}
	v, ok := f.data[key]
	if !ok {
		return goredis.NewStringResult("", goredis.Nil)
	}
	return goredis.NewStringResult(v, nil)
}

func (f *fakeKV) Set(_ context.Context, key string, value any, exp time.Duration) *goredis.StatusCmd {
	f.setKeys = append(f.setKeys, key)
	if f.setErr != nil {
		return goredis.NewStatusResult("", f.setErr)
	}
	f.data[key] = string(value.([]byte))
	f.ttls[key] = exp
	return goredis.NewStatusResult("OK", nil)
}

type countingStore struct {
	c     gra.Coefficients
	ok    bool
	err   error
	calls int
}

func (s *countingStore) Coefficients(context.Context, time.Time) (gra.Coefficients, bool, error) {
	s.calls++
	return s.c, s.ok, s.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var at = time.Date(2024, 5, 1, 0, 15, 0, 0, time.UTC)

func TestCachedCoefficientStore_HitAfterMiss(t *testing.T) {
	kv := newFakeKV()
	inner := &countingStore{c: gra.Coefficients{A: 1, B: 0.1, C: 0.01}, ok: true}
	s := NewCachedCoefficientStore(inner, kv, time.Hour, testLogger())

	for range 3 {
		c, ok, err := s.Coefficients(context.Background(), at)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, inner.c, c)
	}
	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, time.Hour, kv.ttls["gra:coefficients:202405010015"])
}

func TestCachedCoefficientStore_CachesMisses(t *testing.T) {
	kv := newFakeKV()
	inner := &countingStore{}
	s := NewCachedCoefficientStore(inner, kv, time.Hour, testLogger())

	for range 2 {
		_, ok, err := s.Coefficients(context.Background(), at)
		require.NoError(t, err)
		assert.False(t, ok)
	}
	assert.Equal(t, 1, inner.calls)
}

func TestCachedCoefficientStore_ErrorsNotCached(t *testing.T) {
	kv := newFakeKV()
	inner := &countingStore{err: errors.New("db down")}
	s := NewCachedCoefficientStore(inner, kv, time.Hour, testLogger())

	_, _, err := s.Coefficients(context.Background(), at)
	assert.Error(t, err)
	assert.Empty(t, kv.setKeys)
}

func TestCachedCoefficientStore_RedisDownFallsThrough(t *testing.T) {
	kv := newFakeKV()
	kv.getErr = errors.New("connection refused")
	kv.setErr = errors.New("connection refused")
	inner := &countingStore{c: gra.Coefficients{A: 2}, ok: true}
	s := NewCachedCoefficientStore(inner, kv, time.Hour, testLogger())

	c, ok, err := s.Coefficients(context.Background(), at)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.InDelta(t, 2, c.A, 1e-12)
	assert.Equal(t, 1, inner.calls)
}

func TestCachedCoefficientStore_MalformedEntryIgnored(t *testing.T) {
	kv := newFakeKV()
	kv.data["gra:coefficients:202405010015"] = "{not json"
	inner := &countingStore{c: gra.Coefficients{A: 3}, ok: true}
	s := NewCachedCoefficientStore(inner, kv, time.Hour, testLogger())

	c, ok, err := s.Coefficients(context.Background(), at)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.InDelta(t, 3, c.A, 1e-12)
}

func TestCachedCoefficientStore_NonFiniteCachedAsMiss(t *testing.T) {
	kv := newFakeKV()
	inner := &countingStore{c: gra.Coefficients{A: math.NaN()}, ok: true}
	s := NewCachedCoefficientStore(inner, kv, time.Hour, testLogger())

	_, ok, err := s.Coefficients(context.Background(), at)
	require.NoError(t, err)
	assert.True(t, ok, "first lookup passes the row through")

	_, ok, err = s.Coefficients(context.Background(), at)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, inner.calls)
}
