// Пакет idempotency — защита от повторной отправки операций
// создания и сброса учётных данных.
//
// Клиент передаёт заголовок Idempotency-Key; первый запрос с ключом
// «захватывает» его, повторные в пределах TTL получают отказ.
// Хранилище: Redis (SETNX с TTL) или in-memory LRU для одного экземпляра.
package idempotency

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
)

// Store — хранилище захваченных ключей.
type Store interface {
	// Claim захватывает ключ. false — ключ уже захвачен.
	Claim(ctx context.Context, key string) (bool, error)
	// Release освобождает ключ (операция не удалась, повтор разрешён).
	Release(ctx context.Context, key string) error
}

// keyPrefix — пространство имён ключей в Redis.
const keyPrefix = "club-admin:idem:"

// RedisStore — Store поверх Redis.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore подключается к Redis и проверяет соединение.
func NewRedisStore(ctx context.Context, addr, password string, db int, ttl time.Duration) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("подключение к Redis %s: %w", addr, err)
	}

	return &RedisStore{client: client, ttl: ttl}, nil
}

// NewRedisStoreWithClient создаёт RedisStore с готовым клиентом.
func NewRedisStoreWithClient(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// Claim выполняет SET NX с TTL.
func (s *RedisStore) Claim(ctx context.Context, key string) (bool, error) {
	ok, err := s.client.SetNX(ctx, keyPrefix+key, time.Now().UTC().Format(time.RFC3339), s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis SETNX: %w", err)
	}
	return ok, nil
}

// Release удаляет ключ.
func (s *RedisStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("redis DEL: %w", err)
	}
	return nil
}

// Ping проверяет доступность Redis (для readiness).
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close закрывает соединение.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// MemoryStore — Store в памяти процесса на expirable LRU.
// При переполнении вытесняются самые старые ключи.
type MemoryStore struct {
	mu    sync.Mutex
	cache *expirable.LRU[string, struct{}]
}

// NewMemoryStore создаёт MemoryStore.
func NewMemoryStore(size int, ttl time.Duration) *MemoryStore {
	return &MemoryStore{cache: expirable.NewLRU[string, struct{}](size, nil, ttl)}
}

// Claim захватывает ключ, если его нет в кэше.
func (s *MemoryStore) Claim(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cache.Contains(key) {
		return false, nil
	}
	s.cache.Add(key, struct{}{})
	return true, nil
}

// Release удаляет ключ.
func (s *MemoryStore) Release(_ context.Context, key string) error {
	s.cache.Remove(key)
	return nil
}
