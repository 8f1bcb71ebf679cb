package cache

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mikey/sms-spam-detector/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func entry(key string, ttl time.Duration) *core.CacheEntry {
	now := time.Now()
	return &core.CacheEntry{
		Key:               key,
		Label:             core.LabelSpam,
		ProbabilityOfSpam: 0.97,
		ProbabilityOfHam:  0.03,
		LastSeen:          now,
		ExpiresAt:         now.Add(ttl),
	}
}

// exerciseRepository runs the behaviour every backend shares
func exerciseRepository(t *testing.T, repo core.CacheRepository) {
	ctx := context.Background()

	t.Run("Should miss unknown keys", func(t *testing.T) {
		_, err := repo.Get(ctx, "unknown")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Should round trip an entry", func(t *testing.T) {
		require.NoError(t, repo.Set(ctx, entry("k1", time.Hour)))

		got, err := repo.Get(ctx, "k1")
		require.NoError(t, err)
		assert.Equal(t, "k1", got.Key)
		assert.Equal(t, core.LabelSpam, got.Label)
		assert.InDelta(t, 0.97, got.ProbabilityOfSpam, 1e-12)
		assert.InDelta(t, 0.03, got.ProbabilityOfHam, 1e-12)
	})

	t.Run("Should overwrite an existing key", func(t *testing.T) {
		e := entry("k2", time.Hour)
		require.NoError(t, repo.Set(ctx, e))
		e.Label = core.LabelHam
		e.ProbabilityOfSpam, e.ProbabilityOfHam = 0.1, 0.9
		require.NoError(t, repo.Set(ctx, e))

		got, err := repo.Get(ctx, "k2")
		require.NoError(t, err)
		assert.Equal(t, core.LabelHam, got.Label)
	})

	t.Run("Should report expired entries", func(t *testing.T) {
		require.NoError(t, repo.Set(ctx, entry("old", -time.Minute)))
		_, err := repo.Get(ctx, "old")
		assert.ErrorIs(t, err, ErrExpired)

		require.NoError(t, repo.Cleanup(ctx))
		_, err = repo.Get(ctx, "old")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Should delete entries", func(t *testing.T) {
		require.NoError(t, repo.Set(ctx, entry("gone", time.Hour)))
		require.NoError(t, repo.Delete(ctx, "gone"))
		_, err := repo.Get(ctx, "gone")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(zap.NewNop(), time.Hour)
	t.Cleanup(c.Stop)

	exerciseRepository(t, c)

	t.Run("Should not share stored entries with callers", func(t *testing.T) {
		ctx := context.Background()
		e := entry("copy", time.Hour)
		require.NoError(t, c.Set(ctx, e))
		e.Label = core.LabelHam

		got, err := c.Get(ctx, "copy")
		require.NoError(t, err)
		assert.Equal(t, core.LabelSpam, got.Label)
	})
}

func TestMemoryCacheBackgroundCleanup(t *testing.T) {
	c := NewMemoryCache(zap.NewNop(), 10*time.Millisecond)
	t.Cleanup(c.Stop)

	require.NoError(t, c.Set(context.Background(), entry("old", -time.Minute)))
	require.NoError(t, c.Set(context.Background(), entry("fresh", time.Hour)))

	assert.Eventually(t, func() bool { return c.Len() == 1 }, time.Second, 5*time.Millisecond)
}

func TestMemoryCacheStopIsIdempotent(t *testing.T) {
	c := NewMemoryCache(zap.NewNop(), 0)
	c.Stop()
	c.Stop()
}

func TestSQLiteCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	c, err := NewSQLiteCache(path, zap.NewNop(), time.Hour)
	if err != nil && strings.Contains(err.Error(), "cgo") {
		t.Skipf("sqlite driver unavailable: %v", err)
	}
	require.NoError(t, err)
	t.Cleanup(c.Stop)

	exerciseRepository(t, c)

	t.Run("Should persist across reopen", func(t *testing.T) {
		require.NoError(t, c.Set(context.Background(), entry("durable", time.Hour)))
		c.Stop()

		reopened, err := NewSQLiteCache(path, zap.NewNop(), 0)
		require.NoError(t, err)
		defer reopened.Stop()

		got, err := reopened.Get(context.Background(), "durable")
		require.NoError(t, err)
		assert.Equal(t, core.LabelSpam, got.Label)
	})
}

// TestMySQLCache needs a disposable database, for example
// SMS_SPAM_TEST_MYSQL_DSN='root:secret@tcp(127.0.0.1:3306)/sms_spam_test'
func TestMySQLCache(t *testing.T) {
	dsn := os.Getenv("SMS_SPAM_TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("SMS_SPAM_TEST_MYSQL_DSN not set")
	}

	c, err := NewMySQLCache(dsn, zap.NewNop(), time.Hour)
	require.NoError(t, err)
	t.Cleanup(c.Stop)

	_, err = c.db.Exec("DELETE FROM prediction_cache")
	require.NoError(t, err)

	exerciseRepository(t, c)

	t.Run("Should store full length cache keys", func(t *testing.T) {
		key := core.CacheKey("model", "free prize")
		require.NoError(t, c.Set(context.Background(), entry(key, time.Hour)))

		got, err := c.Get(context.Background(), key)
		require.NoError(t, err)
		assert.Equal(t, key, got.Key)
	})
}
