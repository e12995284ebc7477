package basecamp

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"hash"
	"hash/fnv"
	"sort"
	"sync"
)

// ValidatorStore persists cache validators (ETags) keyed by request
// fingerprint. Implementations must make Get and Put atomic per key. Values
// are advisory: a stale or missing validator only costs a full fetch.
type ValidatorStore interface {
	Get(ctx context.Context, fingerprint string) (string, bool, error)
	Put(ctx context.Context, fingerprint, validator string) error
}

// CreateHash returns the fingerprint of a request: a hex SHA-256 over the
// method, the resource path and every param. Params are visited in key order
// and JSON encoded, so equal requests always hash alike.
func CreateHash(method, resource string, params Params) string {
	h := sha256.New()
	writeField(h, []byte(method))
	writeField(h, []byte(resource))

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		writeField(h, []byte(k))
		writeField(h, paramBytes(k, params[k]))
	}

	return hex.EncodeToString(h.Sum(nil))
}

// writeField length-prefixes b so that adjacent fields cannot collide.
func writeField(h hash.Hash, b []byte) {
	fmt.Fprintf(h, "%d:", len(b))
	h.Write(b)
}

func paramBytes(key string, value any) []byte {
	if key == BinaryParam {
		switch v := value.(type) {
		case []byte:
			return v
		case string:
			return []byte(v)
		}
	}
	if b, err := json.Marshal(value); err == nil {
		return b
	}
	return []byte(fmt.Sprintf("%#v", value))
}

// MemoryStore is a sharded in-process ValidatorStore.
type MemoryStore struct {
	shards    []*storeShard
	numShards int
}

type storeShard struct {
	mu    sync.RWMutex
	store map[string]string
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	numShards := 16
	shards := make([]*storeShard, numShards)
	for i := range shards {
		shards[i] = &storeShard{
			store: make(map[string]string),
		}
	}
	return &MemoryStore{
		shards:    shards,
		numShards: numShards,
	}
}

var (
	sharedStore     *MemoryStore
	sharedStoreOnce sync.Once
)

// SharedMemoryStore returns a process-wide MemoryStore created on first use.
// Pass it to several clients with WithValidatorStore to share validators.
func SharedMemoryStore() *MemoryStore {
	sharedStoreOnce.Do(func() {
		sharedStore = NewMemoryStore()
	})
	return sharedStore
}

func (s *MemoryStore) getShard(key string) *storeShard {
	hash := fnv.New32a()
	hash.Write([]byte(key))
	return s.shards[hash.Sum32()%uint32(s.numShards)]
}

// Get returns the validator stored under fingerprint.
func (s *MemoryStore) Get(_ context.Context, fingerprint string) (string, bool, error) {
	shard := s.getShard(fingerprint)
	shard.mu.RLock()
	defer shard.mu.RUnlock()

	v, ok := shard.store[fingerprint]
	return v, ok, nil
}

// Put overwrites the validator stored under fingerprint.
func (s *MemoryStore) Put(_ context.Context, fingerprint, validator string) error {
	shard := s.getShard(fingerprint)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	shard.store[fingerprint] = validator
	return nil
}

// Delete removes a validator.
func (s *MemoryStore) Delete(fingerprint string) {
	shard := s.getShard(fingerprint)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	delete(shard.store, fingerprint)
}

// Len returns the number of stored validators.
func (s *MemoryStore) Len() int {
	total := 0
	for _, shard := range s.shards {
		shard.mu.RLock()
		total += len(shard.store)
		shard.mu.RUnlock()
	}
	return total
}

// Clear removes all validators.
func (s *MemoryStore) Clear() {
	for _, shard := range s.shards {
		shard.mu.Lock()
		shard.store = make(map[string]string)
		shard.mu.Unlock()
	}
}
