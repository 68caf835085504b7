package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hitoshi/fintracker/internal/metrics"
)

// ViewCache は派生ビューをJSONとしてStoreに保存するキャッシュ。
// ストア障害はすべて握りつぶし、読み取りはミス、書き込みは破棄として扱う。
// 正しさはデータベースのみに依存し、キャッシュは最適化層に過ぎない。
type ViewCache struct {
	store   Store
	ttl     time.Duration
	metrics metrics.MetricsCollector
	logger  *slog.Logger
}

// NewViewCache はViewCacheを生成する。
func NewViewCache(store Store, ttl time.Duration, m metrics.MetricsCollector, logger *slog.Logger) *ViewCache {
	if m == nil {
		m = metrics.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ViewCache{store: store, ttl: ttl, metrics: m, logger: logger}
}

// Get はキーに対応するビューをdstにデコードする。
// ヒットした場合のみtrueを返す。
func (c *ViewCache) Get(ctx context.Context, key Key, dst any) bool {
	k := key.String()
	raw, ok, err := c.store.Get(ctx, k)
	if err != nil {
		c.metrics.RecordCacheError("get")
		c.logger.Warn("cache get failed", slog.String("key", k), slog.String("error", err.Error()))
		return false
	}
	if !ok {
		c.metrics.RecordCacheMiss(string(key.View))
		c.logger.Debug("cache miss", slog.String("key", k))
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		c.metrics.RecordCacheError("decode")
		c.logger.Warn("cache entry undecodable", slog.String("key", k), slog.String("error", err.Error()))
		return false
	}
	c.metrics.RecordCacheHit(string(key.View))
	c.logger.Debug("cache hit", slog.String("key", k))
	return true
}

// Set はビューをTTL付きで保存する。失敗はログに残して破棄する。
func (c *ViewCache) Set(ctx context.Context, key Key, value any) {
	k := key.String()
	raw, err := json.Marshal(value)
	if err != nil {
		c.metrics.RecordCacheError("encode")
		c.logger.Warn("cache entry unencodable", slog.String("key", k), slog.String("error", err.Error()))
		return
	}
	if err := c.store.Set(ctx, k, raw, c.ttl); err != nil {
		c.metrics.RecordCacheError("set")
		c.logger.Warn("cache set failed", slog.String("key", k), slog.String("error", err.Error()))
	}
}

// InvalidateUser は指定ユーザーのすべてのビューを削除する。
// ビュー種別やパラメータを列挙せず、接頭辞一致で一括削除する。
func (c *ViewCache) InvalidateUser(ctx context.Context, userID string) {
	prefix := UserPrefix(userID)
	n, err := c.store.DeletePrefix(ctx, prefix)
	if err != nil {
		c.metrics.RecordCacheError("invalidate")
		c.logger.Warn("cache invalidation failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return
	}
	c.metrics.RecordCacheInvalidation()
	c.logger.Debug("cache invalidated", slog.String("user_id", userID), slog.Int("deleted", n))
}

// Close は下位のストアを閉じる。
func (c *ViewCache) Close() error {
	return c.store.Close()
}

// Fetch はキャッシュアサイドでビューを取得する。
// ミスの場合はcomputeで再計算し、成功した結果のみをキャッシュに書き戻す。
func Fetch[T any](ctx context.Context, c *ViewCache, key Key, compute func(context.Context) (T, error)) (T, error) {
	var cached T
	if c.Get(ctx, key, &cached) {
		return cached, nil
	}

	value, err := compute(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	c.Set(ctx, key, value)
	return value, nil
}

// Invalidator はユーザー単位のビュー無効化のインターフェース。
// 書き込み系サービスはコミット後の最後の手順としてこれを呼ぶ。
type Invalidator interface {
	InvalidateUser(ctx context.Context, userID string)
}

var _ Invalidator = (*ViewCache)(nil)
