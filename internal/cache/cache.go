// Package cache implements the resolver's bounded, shared answer cache:
// TTL-based expiry with least-recently-read eviction once capacity is
// reached, protected by a single mutex (sufficient at this scale).
package cache

import (
	"container/list"
	"crypto/rand"
	"encoding/binary"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dchest/siphash"

	"github.com/dnscore/resolved/internal/packet"
)

// defaultCapacity bounds the number of distinct (name, type) entries held at
// once when a Config does not specify one.
const defaultCapacity = 10000

// Key identifies a cached answer set: a domain name (compared
// case-insensitively; unlike packet.DomainName.Equal, a trailing dot is
// significant) and record type.
type Key struct {
	Name packet.DomainName
	Type packet.RRType
}

// Entry is a cached answer set for one Key: the resolved, type-parsed
// values (see packet.ResourceRecord.Text) and the wall-clock time the
// entry must no longer be served.
type Entry struct {
	Values    []string
	ExpiresAt time.Time
}

func (e Entry) expired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

type node struct {
	key   Key
	entry Entry
}

// Config configures a Cache.
type Config struct {
	// Capacity bounds the number of entries held at once. Zero uses
	// defaultCapacity.
	Capacity int
}

// Cache is a thread-safe, bounded TTL cache keyed by (name, type), evicting
// by recency of read once full. Recency is tracked by moving an entry to
// the front of an ordered list on every successful Get, not by its TTL or
// insertion time; the list's back is always the least-recently-read entry.
type Cache struct {
	mu       sync.Mutex
	capacity int
	order    *list.List // front = most recently read
	items    map[uint64]*list.Element

	seed0, seed1 uint64

	hits        atomic.Uint64
	misses      atomic.Uint64
	evictions   atomic.Uint64
	expirations atomic.Uint64
}

// New builds an empty Cache per cfg.
func New(cfg Config) *Cache {
	capacity := cfg.Capacity
	if capacity <= 0 {
		capacity = defaultCapacity
	}

	var keyBuf [16]byte
	if _, err := rand.Read(keyBuf[:]); err != nil {
		panic("cache: unable to read random key material: " + err.Error())
	}

	return &Cache{
		capacity: capacity,
		order:    list.New(),
		items:    make(map[uint64]*list.Element, capacity),
		seed0:    binary.LittleEndian.Uint64(keyBuf[:8]),
		seed1:    binary.LittleEndian.Uint64(keyBuf[8:]),
	}
}

func (c *Cache) hash(key Key) uint64 {
	h := siphash.New(func() []byte {
		var b [16]byte
		binary.LittleEndian.PutUint64(b[:8], c.seed0)
		binary.LittleEndian.PutUint64(b[8:], c.seed1)
		return b[:]
	}())
	h.Write([]byte(lowerName(key.Name)))
	binary.Write(h, binary.BigEndian, uint16(key.Type))
	return h.Sum64()
}

func lowerName(n packet.DomainName) string {
	b := []byte(n)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// Get returns the cached entry for key if present and unexpired, marking it
// most-recently-read. An expired entry is evicted and reported as a miss.
func (c *Cache) Get(key Key) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	hash := c.hash(key)
	el, ok := c.items[hash]
	if !ok {
		c.misses.Add(1)
		return Entry{}, false
	}

	n := el.Value.(*node)
	if n.entry.expired(time.Now()) {
		c.removeElement(el)
		c.expirations.Add(1)
		c.misses.Add(1)
		return Entry{}, false
	}

	c.order.MoveToFront(el)
	c.hits.Add(1)
	return n.entry, true
}

// Insert stores entry under key. If an unexpired entry already exists for
// key, Insert is a no-op: the resolver never has reason to overwrite a
// still-valid answer, and silently accepting a second insert for the same
// key would let a slower, stale-by-the-time-it-arrives lookup clobber a
// fresher one.
func (c *Cache) Insert(key Key, entry Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	hash := c.hash(key)
	now := time.Now()

	if el, ok := c.items[hash]; ok {
		n := el.Value.(*node)
		if !n.entry.expired(now) {
			return
		}
		c.removeElement(el)
		c.expirations.Add(1)
	}

	c.evictForSpace(now)

	el := c.order.PushFront(&node{key: key, entry: entry})
	c.items[hash] = el
}

// evictForSpace makes room for one more entry: it first drops any entries
// that have already expired, then falls back to evicting the
// least-recently-read entry if the cache is still at capacity.
func (c *Cache) evictForSpace(now time.Time) {
	for el := c.order.Back(); el != nil; {
		prev := el.Prev()
		if el.Value.(*node).entry.expired(now) {
			c.removeElement(el)
			c.expirations.Add(1)
		}
		el = prev
	}

	for len(c.items) >= c.capacity {
		back := c.order.Back()
		if back == nil {
			return
		}
		c.removeElement(back)
		c.evictions.Add(1)
	}
}

// removeElement deletes el from both the list and the index. Caller must
// hold c.mu.
func (c *Cache) removeElement(el *list.Element) {
	n := el.Value.(*node)
	delete(c.items, c.hash(n.key))
	c.order.Remove(el)
}

// Stats reports cumulative cache counters.
type Stats struct {
	Entries     int
	Hits        uint64
	Misses      uint64
	Evictions   uint64
	Expirations uint64
}

// Stats returns a snapshot of the cache's counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	entries := len(c.items)
	c.mu.Unlock()

	return Stats{
		Entries:     entries,
		Hits:        c.hits.Load(),
		Misses:      c.misses.Load(),
		Evictions:   c.evictions.Load(),
		Expirations: c.expirations.Load(),
	}
}
