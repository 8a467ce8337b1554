// permission_cache.go — резолверы прав по сессиям для HTTP-слоя.
// Обёртка над hashicorp/golang-lru/v2/expirable.
//
// Права кэшируются на сессию и не сбрасываются при изменении строки
// прав другим актором: новые флаги видны после Refresh или истечения TTL.
package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/sportsreelstechnical/version-1-sub001/internal/domain/model"
	"github.com/sportsreelstechnical/version-1-sub001/internal/domain/permission"
)

// Prometheus-метрики кэша прав.
var (
	permissionCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ca_permission_cache_hits_total",
		Help: "Общее количество попаданий в кэш прав.",
	})
	permissionCacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ca_permission_cache_misses_total",
		Help: "Общее количество промахов кэша прав.",
	})
)

// cacheEntry — резолвер сессии; once гарантирует одно первичное вычисление.
// seq — порядковый номер начала вычисления: более старый результат
// не вытесняет более новый.
type cacheEntry struct {
	resolver *PermissionResolver
	once     sync.Once
	seq      uint64
}

// PermissionCache — кэш резолверов прав по ключу сессии.
type PermissionCache struct {
	lookup StaffPermissionLookup
	policy permission.MissingRowPolicy
	logger *slog.Logger

	mu    sync.Mutex
	seq   uint64
	cache *expirable.LRU[string, *cacheEntry]
}

// NewPermissionCache создаёт кэш на maxSize сессий с временем жизни ttl.
func NewPermissionCache(
	lookup StaffPermissionLookup,
	policy permission.MissingRowPolicy,
	maxSize int,
	ttl time.Duration,
	logger *slog.Logger,
) *PermissionCache {
	return &PermissionCache{
		lookup: lookup,
		policy: policy,
		logger: logger,
		cache:  expirable.NewLRU[string, *cacheEntry](maxSize, nil, ttl),
	}
}

// Get возвращает резолвер сессии актора, вычисляя права при первом обращении.
// Неудачное вычисление не кэшируется: следующий запрос повторит чтение.
func (c *PermissionCache) Get(ctx context.Context, actor *model.Actor) *PermissionResolver {
	key := actor.SessionKey()

	c.mu.Lock()
	entry, ok := c.cache.Get(key)
	if ok {
		permissionCacheHitsTotal.Inc()
	} else {
		permissionCacheMissesTotal.Inc()
		entry = c.newEntry(actor)
		c.cache.Add(key, entry)
	}
	c.mu.Unlock()

	entry.once.Do(func() {
		entry.resolver.Resolve(ctx)
	})

	if entry.resolver.Failed() {
		c.mu.Lock()
		if cur, ok := c.cache.Peek(key); ok && cur == entry {
			c.cache.Remove(key)
		}
		c.mu.Unlock()
	}
	return entry.resolver
}

// newEntry создаёт запись сессии. Вызывается под c.mu.
func (c *PermissionCache) newEntry(actor *model.Actor) *cacheEntry {
	c.seq++
	return &cacheEntry{
		resolver: NewPermissionResolver(StaticActor{Actor: actor}, c.lookup, c.policy, c.logger),
		seq:      c.seq,
	}
}

// Refresh перечитывает права сессии актора в новом резолвере и подменяет им
// запись кэша. До окончания чтения остальные запросы сессии видят прежние права.
// Неудачное чтение запись не трогает.
func (c *PermissionCache) Refresh(ctx context.Context, actor *model.Actor) *PermissionResolver {
	key := actor.SessionKey()

	c.mu.Lock()
	entry := c.newEntry(actor)
	c.mu.Unlock()

	entry.once.Do(func() {
		entry.resolver.Resolve(ctx)
	})
	if entry.resolver.Failed() {
		return entry.resolver
	}

	c.mu.Lock()
	if cur, ok := c.cache.Peek(key); !ok || cur.seq < entry.seq {
		c.cache.Add(key, entry)
	}
	c.mu.Unlock()

	return entry.resolver
}

// Len возвращает количество сессий в кэше.
func (c *PermissionCache) Len() int {
	return c.cache.Len()
}
