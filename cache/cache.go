// Package cache deduplicates and memoizes solver runs. Identical concurrent
// requests share one solve, finished solutions live in a bounded in-memory
// LRU, and an optional LevelDB store persists them across restarts.
package cache

import (
	"bytes"
	"container/list"
	"context"
	"crypto/sha256"
	"encoding/gob"
	"sync"
	"sync/atomic"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"golang.org/x/sync/singleflight"

	"github.com/cfrlab/gto"
	"github.com/cfrlab/gto/game"
)

// entryFormatVersion tags persisted cache entries. Entries with any other
// version decode as a miss, so format changes invalidate old stores instead
// of corrupting reads.
const entryFormatVersion = 1

// Cache keys solutions by their request fingerprint.
type Cache struct {
	capacity int
	db       *leveldb.DB

	mu      sync.Mutex
	entries map[gto.Fingerprint]*list.Element
	lru     *list.List // front is most recently used

	group   singleflight.Group
	persist sync.WaitGroup

	builds uint64
	hits   uint64
	misses uint64
}

type lruEntry struct {
	fp  gto.Fingerprint
	res *gto.SolveResult
}

// New creates a cache holding up to capacity solutions in memory. A
// non-empty path opens (or creates) a LevelDB store there for persistence;
// an empty path keeps the cache memory only.
func New(capacity int, path string) (*Cache, error) {
	if capacity <= 0 {
		return nil, errors.Errorf("cache capacity %d must be positive", capacity)
	}

	c := &Cache{
		capacity: capacity,
		entries:  make(map[gto.Fingerprint]*list.Element),
		lru:      list.New(),
	}

	if path != "" {
		db, err := leveldb.OpenFile(path, nil)
		if err != nil {
			return nil, errors.Wrapf(err, "opening solution store %s", path)
		}
		c.db = db
	}
	return c, nil
}

// Close flushes pending persistence writes and closes the store.
func (c *Cache) Close() error {
	c.persist.Wait()
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// GetOrSolve returns the cached solution for the request, solving it on a
// miss. Concurrent calls with the same fingerprint share a single solve; the
// losers block until the winner's result is available.
func (c *Cache) GetOrSolve(ctx context.Context, desc *game.Description, cfg gto.Config) (*gto.SolveResult, error) {
	fp := gto.ComputeFingerprint(desc, cfg)

	v, err, _ := c.group.Do(fp.String(), func() (interface{}, error) {
		if res, ok := c.lookup(fp); ok {
			atomic.AddUint64(&c.hits, 1)
			return res, nil
		}
		atomic.AddUint64(&c.misses, 1)

		atomic.AddUint64(&c.builds, 1)
		res, err := gto.Solve(ctx, desc, cfg)
		if err != nil {
			return nil, err
		}

		c.insert(fp, res)
		if c.db != nil {
			c.persist.Add(1)
			go c.persistEntry(fp, res)
		}
		return res, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*gto.SolveResult), nil
}

// GetCached returns the cached solution if present, without ever solving.
func (c *Cache) GetCached(desc *game.Description, cfg gto.Config) (*gto.SolveResult, bool) {
	fp := gto.ComputeFingerprint(desc, cfg)
	res, ok := c.lookup(fp)
	if ok {
		atomic.AddUint64(&c.hits, 1)
	} else {
		atomic.AddUint64(&c.misses, 1)
	}
	return res, ok
}

// Builds returns the number of solves actually run, for instrumentation.
func (c *Cache) Builds() uint64 { return atomic.LoadUint64(&c.builds) }

// Stats returns cumulative hit and miss counts.
func (c *Cache) Stats() (hits, misses uint64) {
	return atomic.LoadUint64(&c.hits), atomic.LoadUint64(&c.misses)
}

// lookup checks memory first, then the persistent store. Disk hits are
// promoted into the LRU.
func (c *Cache) lookup(fp gto.Fingerprint) (*gto.SolveResult, bool) {
	c.mu.Lock()
	if el, ok := c.entries[fp]; ok {
		c.lru.MoveToFront(el)
		res := el.Value.(*lruEntry).res
		c.mu.Unlock()
		return res, true
	}
	c.mu.Unlock()

	if c.db == nil {
		return nil, false
	}
	res, ok := c.loadPersisted(fp)
	if !ok {
		return nil, false
	}
	c.insert(fp, res)
	return res, true
}

// insert adds a solution to the LRU, evicting the least recently used entry
// when over capacity.
func (c *Cache) insert(fp gto.Fingerprint, res *gto.SolveResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[fp]; ok {
		c.lru.MoveToFront(el)
		el.Value.(*lruEntry).res = res
		return
	}

	c.entries[fp] = c.lru.PushFront(&lruEntry{fp: fp, res: res})
	for c.lru.Len() > c.capacity {
		oldest := c.lru.Back()
		c.lru.Remove(oldest)
		delete(c.entries, oldest.Value.(*lruEntry).fp)
	}
}

// diskEntry is the persisted wire form: a versioned, checksummed envelope
// around the encoded solution.
type diskEntry struct {
	Version  int
	Checksum [sha256.Size]byte
	Body     []byte
}

// solutionRecord is the persisted subset of a SolveResult. The tree is
// rebuilt on demand rather than stored.
type solutionRecord struct {
	Strategy       []byte
	Exploitability float64
	Iterations     int
	Status         gto.Status
	Checkpoints    []gto.Checkpoint
}

func (c *Cache) persistEntry(fp gto.Fingerprint, res *gto.SolveResult) {
	defer c.persist.Done()

	data, err := encodeEntry(res)
	if err != nil {
		glog.Errorf("cache: encoding solution %s: %v", fp, err)
		return
	}
	if err := c.db.Put(fp[:], data, nil); err != nil {
		glog.Errorf("cache: persisting solution %s: %v", fp, err)
	}
}

// loadPersisted reads and verifies a persisted solution. Any decode or
// checksum failure is treated as a miss and the damaged entry is dropped.
func (c *Cache) loadPersisted(fp gto.Fingerprint) (*gto.SolveResult, bool) {
	data, err := c.db.Get(fp[:], nil)
	if err == leveldb.ErrNotFound {
		return nil, false
	}
	if err != nil {
		glog.Warningf("cache: reading solution %s: %v", fp, err)
		return nil, false
	}

	res, err := decodeEntry(data)
	if err != nil {
		glog.Warningf("cache: dropping unreadable solution %s: %v", fp, err)
		if derr := c.db.Delete(fp[:], nil); derr != nil {
			glog.Warningf("cache: deleting unreadable solution %s: %v", fp, derr)
		}
		return nil, false
	}
	return res, true
}

func encodeEntry(res *gto.SolveResult) ([]byte, error) {
	strategy, err := res.Strategy.MarshalBinary()
	if err != nil {
		return nil, err
	}

	var body bytes.Buffer
	rec := solutionRecord{
		Strategy:       strategy,
		Exploitability: res.Exploitability,
		Iterations:     res.Iterations,
		Status:         res.Status,
		Checkpoints:    res.Checkpoints,
	}
	if err := gob.NewEncoder(&body).Encode(rec); err != nil {
		return nil, errors.Wrap(err, "encoding solution record")
	}

	entry := diskEntry{
		Version:  entryFormatVersion,
		Checksum: sha256.Sum256(body.Bytes()),
		Body:     body.Bytes(),
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(entry); err != nil {
		return nil, errors.Wrap(err, "encoding cache entry")
	}
	return buf.Bytes(), nil
}

func decodeEntry(data []byte) (*gto.SolveResult, error) {
	var entry diskEntry
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&entry); err != nil {
		return nil, errors.Wrap(err, "decoding cache entry")
	}
	if entry.Version != entryFormatVersion {
		return nil, errors.Errorf("cache entry version %d, want %d", entry.Version, entryFormatVersion)
	}
	if sha256.Sum256(entry.Body) != entry.Checksum {
		return nil, errors.New("cache entry checksum mismatch")
	}

	var rec solutionRecord
	if err := gob.NewDecoder(bytes.NewReader(entry.Body)).Decode(&rec); err != nil {
		return nil, errors.Wrap(err, "decoding solution record")
	}

	var strategy gto.Strategy
	if err := strategy.UnmarshalBinary(rec.Strategy); err != nil {
		return nil, err
	}

	return &gto.SolveResult{
		Strategy:       &strategy,
		Exploitability: rec.Exploitability,
		Iterations:     rec.Iterations,
		Status:         rec.Status,
		Checkpoints:    rec.Checkpoints,
	}, nil
}
