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

// Package sample implements pipelime's key-addressed Sample model (spec
// §3/§4.3): a capability interface over {get, set, delete, contains, iter,
// len, id, copy, merge, metaitem}, with memory/filesystem/grouped
// variants. Since a memory-sample and a filesystem-sample differ only in
// how each key's item.Item was constructed (spec §9: "duck-typed sample
// containers... a capability trait/interface with concrete variants"),
// both are represented by the single Basic type below; GroupedSample is
// kept distinct because its Get semantics aggregate several child samples.
package sample

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/eyecan-ai/pipelime-sub000/pkg/item"
)

// ID is a sample identifier: an integer or any comparable value (spec §3).
type ID interface{}

// Sample is the capability interface every variant satisfies.
type Sample interface {
	ID() ID
	Get(ctx context.Context, key string) (interface{}, error)
	Set(key string, value interface{})
	Delete(key string)
	Contains(key string) bool
	Keys() []string
	Len() int
	Copy() Sample
	Merge(other Sample) Sample
	MetaItem(key string) (item.Source, bool)
	IsCached(key string) bool
	Flush()
}

// Basic is a key -> *item.Item map carrying an id. It implements both the
// "memory-sample" and "filesystem-sample" variants of spec §4.3 depending
// on how its items were constructed (item.NewMemory vs item.NewFile vs
// item.NewRemote).
type Basic struct {
	mu    sync.RWMutex
	id    ID
	items map[string]*item.Item
	order []string // preserves first-insertion order for Keys()
}

// NewBasic returns an empty Basic sample with the given id.
func NewBasic(id ID) *Basic {
	return &Basic{id: id, items: make(map[string]*item.Item)}
}

// SetItem installs it under key, used by readers constructing samples
// directly from items rather than plain values.
func (s *Basic) SetItem(key string, it *item.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.items[key]; !exists {
		s.order = append(s.order, key)
	}
	s.items[key] = it
}

func (s *Basic) ID() ID { return s.id }

func (s *Basic) Get(ctx context.Context, key string) (interface{}, error) {
	s.mu.RLock()
	it, ok := s.items[key]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("sample: key %q not found", key)
	}
	return it.Get(ctx)
}

func (s *Basic) Set(key string, value interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if it, ok := s.items[key]; ok {
		it.Set(value)
		return
	}
	s.items[key] = item.NewMemory(value)
	s.order = append(s.order, key)
}

func (s *Basic) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[key]; !ok {
		return
	}
	delete(s.items, key)
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *Basic) Contains(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.items[key]
	return ok
}

// Keys returns all keys, file-backed and cache-only alike, in insertion
// order (invariant (c) of spec §4.3).
func (s *Basic) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

func (s *Basic) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Copy returns a new Basic sharing the same Items by reference-cloned
// Item (so cache state of the copy evolves independently).
func (s *Basic) Copy() Sample {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := NewBasic(s.id)
	for _, k := range s.order {
		out.SetItem(k, s.items[k].Clone())
	}
	return out
}

// Merge returns a new sample whose keys are the union of s and other, with
// other's values winning on key collision (right-biased per spec §3/§4.3).
// Cache state is preserved for keys that already existed in either side.
func (s *Basic) Merge(other Sample) Sample {
	out := s.Copy().(*Basic)
	if ob, ok := other.(*Basic); ok {
		ob.mu.RLock()
		defer ob.mu.RUnlock()
		for _, k := range ob.order {
			out.SetItem(k, ob.items[k].Clone())
		}
		return out
	}
	// Fall back to the generic interface for non-Basic others (e.g. GroupedSample).
	for _, k := range other.Keys() {
		meta, _ := other.MetaItem(k)
		_ = meta
		v, err := other.Get(context.Background(), k)
		if err == nil {
			out.Set(k, v)
		}
	}
	return out
}

func (s *Basic) MetaItem(key string) (item.Source, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.items[key]
	if !ok {
		return item.Source{}, false
	}
	return it.Source(), true
}

func (s *Basic) IsCached(key string) bool {
	s.mu.RLock()
	it, ok := s.items[key]
	s.mu.RUnlock()
	if !ok {
		return false
	}
	return it.IsCached()
}

// Flush discards all cached entries without touching underlying files
// (spec §4.3).
func (s *Basic) Flush() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, it := range s.items {
		it.Flush()
	}
}

// SortedKeys is a small helper used by writers/readers that need
// deterministic iteration regardless of insertion order.
func SortedKeys(s Sample) []string {
	keys := append([]string(nil), s.Keys()...)
	sort.Strings(keys)
	return keys
}

// SetItem installs a raw *item.Item (as opposed to Set, which always wraps
// a plain value in a memory item) on s, if s supports it. Used by stages
// like UploadToRemote that need to replace a key with a specifically-typed
// lazy item.
func SetItem(s Sample, key string, it *item.Item) error {
	b, ok := s.(*Basic)
	if !ok {
		return fmt.Errorf("sample: %T does not support installing raw items", s)
	}
	b.SetItem(key, it)
	return nil
}

var _ Sample = (*Basic)(nil)
