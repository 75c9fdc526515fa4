package features

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/wonny/dugout/backend/internal/contracts"
)

// PrefixHash content-addresses a timeline prefix. Two prefixes hash equal
// iff every consumed game is identical, so a late-arriving game at or
// before a cached cutoff changes the hash and the stale row misses.
func PrefixHash(prefix contracts.Timeline) string {
	h := sha256.New()
	for _, g := range prefix {
		fmt.Fprintf(h, "%s#%d|", g.Date.UTC().Format("2006-01-02"), g.Seq)

		keys := make([]string, 0, len(g.Stats))
		for k := range g.Stats {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			h.Write([]byte(k))
			h.Write([]byte("="))
			h.Write([]byte(strconv.FormatFloat(g.Stats[k], 'g', -1, 64)))
			h.Write([]byte(";"))
		}
		h.Write([]byte("\n"))
	}
	return hex.EncodeToString(h.Sum(nil))
}

type cacheKey struct {
	playerID    contracts.PlayerID
	asOfIndex   int
	specVersion string
}

// Cache memoizes feature rows keyed by (player, as_of_index, spec version).
// Entries self-invalidate through the prefix hash: a hit whose hash no
// longer matches the caller's prefix is treated as a miss and replaced.
type Cache struct {
	mu   sync.RWMutex
	rows map[cacheKey]contracts.FeatureRow
}

// NewCache creates an empty feature row cache
func NewCache() *Cache {
	return &Cache{rows: make(map[cacheKey]contracts.FeatureRow)}
}

// Get returns a cached row when the consumed prefix is unchanged
func (c *Cache) Get(playerID contracts.PlayerID, asOfIndex int, specVersion, prefixHash string) (contracts.FeatureRow, bool) {
	c.mu.RLock()
	row, ok := c.rows[cacheKey{playerID, asOfIndex, specVersion}]
	c.mu.RUnlock()

	if !ok || row.PrefixHash != prefixHash {
		return contracts.FeatureRow{}, false
	}
	return row, true
}

// Put stores a computed row
func (c *Cache) Put(row contracts.FeatureRow) {
	c.mu.Lock()
	c.rows[cacheKey{row.PlayerID, row.AsOfIndex, row.SpecVersion}] = row
	c.mu.Unlock()
}

// Len returns the number of cached rows
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.rows)
}
