/*
Copyright 2024 The Pipelime Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

     http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package sequence

import (
	"context"
	"crypto/sha256"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/eyecan-ai/pipelime-sub000/pkg/sample"
)

// CachePolicy selects how a Cached proxy stores materialized samples
// (spec §4.4): endless (never evicts), bounded FIFO (in-memory, fixed
// capacity), or persistent (on-disk, backed by a bounded in-memory FIFO of
// recently-used entries).
type CachePolicy int

const (
	Endless CachePolicy = iota
	BoundedFIFO
	PersistentFIFO
)

// Cached interposes a cache policy over source: on first access it
// materializes a copy of the sample with ForcedKeys (or all keys, if nil)
// loaded, stores it, and returns it; subsequent accesses to the same index
// return the stored copy regardless of later changes to source (spec
// §4.4: "returns the same value as source[i] would have at the time the
// cache entry was created").
type Cached struct {
	source     Sequence
	policy     CachePolicy
	capacity   int // BoundedFIFO/PersistentFIFO: max in-memory entries
	forcedKeys []string
	cacheDir   string // PersistentFIFO only
	signature  string // PersistentFIFO only: cache-dir key, derived from the source's length alone (not its content)

	mu        sync.Mutex
	mem       map[int]sample.Sample
	fifoOrder []int // insertion order; index 0 is the oldest (FIFO, not LRU)
}

// NewEndlessCached never evicts in-memory entries.
func NewEndlessCached(source Sequence, forcedKeys []string) *Cached {
	return &Cached{source: source, policy: Endless, forcedKeys: forcedKeys, mem: make(map[int]sample.Sample)}
}

// NewBoundedFIFOCached evicts the least-recently-*inserted* entry once
// capacity in-memory entries are held (FIFO, not LRU — spec §4.4's
// concurrency note).
func NewBoundedFIFOCached(source Sequence, capacity int, forcedKeys []string) *Cached {
	return &Cached{source: source, policy: BoundedFIFO, capacity: capacity, forcedKeys: forcedKeys, mem: make(map[int]sample.Sample)}
}

// NewPersistentFIFOCached serializes samples under cacheDir, keyed by
// (index, source-signature), with an in-memory FIFO of the given capacity
// buffering recent entries (spec §4.4).
func NewPersistentFIFOCached(source Sequence, cacheDir string, capacity int, forcedKeys []string) (*Cached, error) {
	sig, err := sourceSignature(source)
	if err != nil {
		return nil, err
	}
	return &Cached{
		source: source, policy: PersistentFIFO, capacity: capacity, forcedKeys: forcedKeys,
		cacheDir: cacheDir, signature: sig, mem: make(map[int]sample.Sample),
	}, nil
}

func sourceSignature(source Sequence) (string, error) {
	h := sha256.New()
	fmt.Fprintf(h, "len=%d", source.Len())
	return fmt.Sprintf("%x", h.Sum(nil))[:16], nil
}

func (c *Cached) Len() int { return c.source.Len() }

func (c *Cached) At(ctx context.Context, i int) (sample.Sample, error) {
	c.mu.Lock()
	if s, ok := c.mem[i]; ok {
		c.mu.Unlock()
		return s, nil
	}
	c.mu.Unlock()

	if c.policy == PersistentFIFO {
		if s, ok, err := c.loadPersisted(i); err != nil {
			return nil, err
		} else if ok {
			c.storeInMemory(i, s)
			return s, nil
		}
	}

	src, err := c.source.At(ctx, i)
	if err != nil {
		return nil, err
	}
	materialized := src.Copy()
	keys := c.forcedKeys
	if keys == nil {
		keys = materialized.Keys()
	}
	for _, k := range keys {
		v, err := materialized.Get(ctx, k)
		if err != nil {
			return nil, fmt.Errorf("sequence: cached: forcing key %q at index %d: %w", k, i, err)
		}
		materialized.Set(k, v)
	}

	if c.policy == PersistentFIFO {
		if err := c.persist(i, materialized); err != nil {
			return nil, err
		}
	}
	c.storeInMemory(i, materialized)
	return materialized, nil
}

func (c *Cached) storeInMemory(i int, s sample.Sample) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.mem[i]; !exists {
		c.fifoOrder = append(c.fifoOrder, i)
	}
	c.mem[i] = s
	if c.policy == Endless || c.capacity <= 0 {
		return
	}
	for len(c.fifoOrder) > c.capacity {
		oldest := c.fifoOrder[0]
		c.fifoOrder = c.fifoOrder[1:]
		delete(c.mem, oldest)
	}
}

func (c *Cached) persistPath(i int) string {
	return filepath.Join(c.cacheDir, c.signature, fmt.Sprintf("%d.gob", i))
}

func (c *Cached) persist(i int, s sample.Sample) error {
	if err := os.MkdirAll(filepath.Dir(c.persistPath(i)), 0o755); err != nil {
		return fmt.Errorf("sequence: cached: creating cache dir: %w", err)
	}
	f, err := os.Create(c.persistPath(i))
	if err != nil {
		return fmt.Errorf("sequence: cached: creating cache entry: %w", err)
	}
	defer f.Close()
	values := map[string]interface{}{}
	for _, k := range s.Keys() {
		v, err := s.Get(context.Background(), k)
		if err != nil {
			return err
		}
		values[k] = v
	}
	return gob.NewEncoder(f).Encode(values)
}

func (c *Cached) loadPersisted(i int) (sample.Sample, bool, error) {
	f, err := os.Open(c.persistPath(i))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("sequence: cached: reading cache entry: %w", err)
	}
	defer f.Close()
	var values map[string]interface{}
	if err := gob.NewDecoder(f).Decode(&values); err != nil {
		return nil, false, fmt.Errorf("sequence: cached: decoding cache entry: %w", err)
	}
	s := sample.NewBasic(i)
	for k, v := range values {
		s.Set(k, v)
	}
	return s, true, nil
}

func (c *Cached) All(ctx context.Context) ([]sample.Sample, error) {
	out := make([]sample.Sample, c.Len())
	for i := range out {
		s, err := c.At(ctx, i)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

// ClearCache discards every cached entry, in memory and (for
// PersistentFIFO) on disk (spec §4.4).
func (c *Cached) ClearCache() error {
	c.mu.Lock()
	c.mem = make(map[int]sample.Sample)
	c.fifoOrder = nil
	c.mu.Unlock()
	if c.policy == PersistentFIFO {
		if err := os.RemoveAll(filepath.Join(c.cacheDir, c.signature)); err != nil {
			return fmt.Errorf("sequence: cached: clearing persistent cache: %w", err)
		}
	}
	return nil
}

var _ Sequence = (*Cached)(nil)
