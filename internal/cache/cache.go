package cache

import (
	"strings"
	"sync"
	"time"
)

// ============================================================================
// CACHE EN MEMORIA CON TTL
// ============================================================================
// Caché thread-safe con expiración por entrada y limpieza periódica. Se usa
// para los PDF de credenciales, con una clave derivada del documento impreso.
//
// Uso:
//   pdfs := cache.New[[]byte](30*time.Minute, time.Minute)
//   defer pdfs.Stop()
//   pdfs.Set("ministerial:123:9f86d081884c7d65", data)

type item[V any] struct {
	value     V
	expiresAt int64 // UnixNano; 0 = no expira
}

// Cache es un almacén clave-valor con TTL.
type Cache[V any] struct {
	mu    sync.RWMutex
	items map[string]item[V]
	ttl   time.Duration

	hits   uint64
	misses uint64

	stop     chan struct{}
	stopOnce sync.Once
	now      func() time.Time
}

// New crea un caché con TTL por defecto ttl. Si cleanupInterval > 0 una
// goroutine elimina los vencidos hasta que se llame Stop.
func New[V any](ttl, cleanupInterval time.Duration) *Cache[V] {
	c := &Cache[V]{
		items: make(map[string]item[V]),
		ttl:   ttl,
		stop:  make(chan struct{}),
		now:   time.Now,
	}
	if cleanupInterval > 0 {
		go c.cleanupLoop(cleanupInterval)
	}
	return c
}

// Set guarda value con el TTL por defecto.
func (c *Cache[V]) Set(key string, value V) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL guarda value con un TTL propio; ttl <= 0 no expira.
func (c *Cache[V]) SetWithTTL(key string, value V, ttl time.Duration) {
	var exp int64
	if ttl > 0 {
		exp = c.now().Add(ttl).UnixNano()
	}
	c.mu.Lock()
	c.items[key] = item[V]{value: value, expiresAt: exp}
	c.mu.Unlock()
}

// Get devuelve el valor y true si existe y no venció.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	it, ok := c.items[key]
	if ok && it.expired(c.now().UnixNano()) {
		delete(c.items, key)
		ok = false
	}
	if !ok {
		c.misses++
		var zero V
		return zero, false
	}
	c.hits++
	return it.value, true
}

func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

// DeletePrefix invalida un grupo de claves, por ejemplo todas las versiones
// de una credencial. Devuelve cuántas eliminó.
func (c *Cache[V]) DeletePrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k := range c.items {
		if strings.HasPrefix(k, prefix) {
			delete(c.items, k)
			n++
		}
	}
	return n
}

func (c *Cache[V]) Clear() {
	c.mu.Lock()
	c.items = make(map[string]item[V])
	c.mu.Unlock()
}

// Stats resume el estado del caché.
type Stats struct {
	Items   int    `json:"items"`
	Expired int    `json:"expired"`
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
}

func (c *Cache[V]) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := Stats{Items: len(c.items), Hits: c.hits, Misses: c.misses}
	now := c.now().UnixNano()
	for _, it := range c.items {
		if it.expired(now) {
			s.Expired++
		}
	}
	return s
}

// Stop detiene la limpieza periódica. Es seguro llamarlo más de una vez.
func (c *Cache[V]) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *Cache[V]) cleanupLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.deleteExpired()
		case <-c.stop:
			return
		}
	}
}

func (c *Cache[V]) deleteExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now().UnixNano()
	for k, it := range c.items {
		if it.expired(now) {
			delete(c.items, k)
		}
	}
}

func (it item[V]) expired(now int64) bool {
	return it.expiresAt > 0 && now > it.expiresAt
}
