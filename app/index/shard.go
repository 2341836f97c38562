package index

import (
	"sort"
	"sync"

	"github.com/cespare/xxhash/v2"
)

const DefaultShardCount = 64

// claimShard holds a slice of the forward mapping: user id -> canonical value.
type claimShard struct {
	mu     sync.Mutex
	byUser map[string]string
}

// claimantShard holds a slice of the reverse mapping: canonical value -> users.
type claimantShard struct {
	mu      sync.RWMutex
	byValue map[string]Claimants
}

// channelIndex is the forward/reverse pair for one channel. Both sides are
// lock-striped; a key always hashes to the same shard.
type channelIndex struct {
	mask      uint64
	claims    []*claimShard
	claimants []*claimantShard
}

func newChannelIndex(shards int) *channelIndex {
	n := nextPowerOfTwo(shards)
	c := &channelIndex{
		mask:      uint64(n - 1),
		claims:    make([]*claimShard, n),
		claimants: make([]*claimantShard, n),
	}
	for i := 0; i < n; i++ {
		c.claims[i] = &claimShard{byUser: make(map[string]string)}
		c.claimants[i] = &claimantShard{byValue: make(map[string]Claimants)}
	}
	return c
}

func (c *channelIndex) claimShardFor(userID string) *claimShard {
	return c.claims[xxhash.Sum64String(userID)&c.mask]
}

func (c *channelIndex) claimantShardFor(value string) *claimantShard {
	return c.claimants[xxhash.Sum64String(value)&c.mask]
}

// apply moves userID's claim on this channel to next ("" meaning no claim).
// The user's forward shard stays locked for the whole transition, so two
// transitions for the same user never interleave. Reverse shards are only
// ever locked while a forward shard is held, never the other way round.
func (c *channelIndex) apply(userID, next string) Transition {
	shard := c.claimShardFor(userID)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	prev, had := shard.byUser[userID]
	switch {
	case had && prev == next:
		return TransitionUnchanged
	case !had && next == "":
		return TransitionNone
	}

	if had {
		c.release(prev, userID)
	}
	if next == "" {
		delete(shard.byUser, userID)
		return TransitionReleased
	}

	c.claim(next, userID)
	shard.byUser[userID] = next
	if had {
		return TransitionMoved
	}
	return TransitionClaimed
}

func (c *channelIndex) claim(value, userID string) {
	shard := c.claimantShardFor(value)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	shard.byValue[value] = shard.byValue[value].with(userID)
}

func (c *channelIndex) release(value, userID string) {
	shard := c.claimantShardFor(value)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	remaining := shard.byValue[value].without(userID)
	if remaining.Len() == 0 {
		// An empty set must not linger: absence is what "unclaimed" means.
		delete(shard.byValue, value)
		return
	}
	shard.byValue[value] = remaining
}

func (c *channelIndex) snapshot(value string) Claimants {
	shard := c.claimantShardFor(value)
	shard.mu.RLock()
	defer shard.mu.RUnlock()

	return shard.byValue[value]
}

func (c *channelIndex) lookup(userID string) (string, bool) {
	shard := c.claimShardFor(userID)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	value, ok := shard.byUser[userID]
	return value, ok
}

func (c *channelIndex) clear() {
	for _, shard := range c.claims {
		shard.mu.Lock()
		shard.byUser = make(map[string]string)
		shard.mu.Unlock()
	}
	for _, shard := range c.claimants {
		shard.mu.Lock()
		shard.byValue = make(map[string]Claimants)
		shard.mu.Unlock()
	}
}

func (c *channelIndex) stats() ChannelStats {
	var stats ChannelStats
	for _, shard := range c.claims {
		shard.mu.Lock()
		stats.Claims += len(shard.byUser)
		shard.mu.Unlock()
	}
	for _, shard := range c.claimants {
		shard.mu.RLock()
		stats.Values += len(shard.byValue)
		for _, claimants := range shard.byValue {
			if claimants.Len() > 1 {
				stats.Conflicts++
			}
		}
		shard.mu.RUnlock()
	}
	return stats
}

func (c *channelIndex) conflicts() []Conflict {
	conflicts := make([]Conflict, 0)
	for _, shard := range c.claimants {
		shard.mu.RLock()
		for value, claimants := range shard.byValue {
			if claimants.Len() > 1 {
				conflicts = append(conflicts, Conflict{Value: value, UserIDs: claimants.IDs()})
			}
		}
		shard.mu.RUnlock()
	}

	sort.Slice(conflicts, func(i, j int) bool {
		return conflicts[i].Value < conflicts[j].Value
	})
	return conflicts
}

func nextPowerOfTwo(n int) int {
	if n < 1 {
		n = DefaultShardCount
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
