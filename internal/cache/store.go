package cache

import (
	"context"
	"time"
)

// Store はバイト列を保持するキーバリューストアのインターフェース。
// RedisStoreとMemoryStoreが実装する。
type Store interface {
	// Get は値を取得する。存在しないか期限切れの場合はfalseを返す。
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set は値を無条件に上書きし、TTLを更新する。
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// DeletePrefix は接頭辞に一致するすべてのキーを削除し、削除件数を返す。
	DeletePrefix(ctx context.Context, prefix string) (int, error)
	// Close はストアが保持する資源を解放する。
	Close() error
}
