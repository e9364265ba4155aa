package graph

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

// incrementalShards mirrors internal/store's memAccountingShards choice:
// bucket by tag hash to cut lock contention between concurrent parser
// flushes touching different tags (teacher's pipeline_progress.go idiom).
const incrementalShards = 8

// MaxIncrementalDrain is the per-call cap on entries returned by
// Index.DrainIncremental, counted across tags (§4.7).
const MaxIncrementalDrain = 1000

// IncrementalEntry is one newly-seen (tag, path) pairing since the last
// drain.
type IncrementalEntry struct {
	Tag  string
	Path string
}

type incrementalShard struct {
	mu      sync.Mutex
	entries map[string]map[string]struct{} // tag -> set<path>
}

type incrementalLog struct {
	shards [incrementalShards]incrementalShard
}

func newIncrementalLog() *incrementalLog {
	l := &incrementalLog{}
	for i := range l.shards {
		l.shards[i].entries = make(map[string]map[string]struct{})
	}
	return l
}

func (l *incrementalLog) record(tag, path string) {
	shard := &l.shards[xxhash.Sum64String(tag)%incrementalShards]
	shard.mu.Lock()
	defer shard.mu.Unlock()
	set, ok := shard.entries[tag]
	if !ok {
		set = make(map[string]struct{})
		shard.entries[tag] = set
	}
	set[path] = struct{}{}
}

// drain removes and returns up to max entries across all shards.
func (l *incrementalLog) drain(max int) []IncrementalEntry {
	out := make([]IncrementalEntry, 0, max)
	for i := range l.shards {
		shard := &l.shards[i]
		shard.mu.Lock()
		for tag, paths := range shard.entries {
			for path := range paths {
				if len(out) >= max {
					shard.mu.Unlock()
					return out
				}
				out = append(out, IncrementalEntry{Tag: tag, Path: path})
				delete(paths, path)
			}
			if len(paths) == 0 {
				delete(shard.entries, tag)
			}
		}
		shard.mu.Unlock()
		if len(out) >= max {
			return out
		}
	}
	return out
}
