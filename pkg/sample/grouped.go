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

package sample

import (
	"context"
	"errors"
	"fmt"

	"github.com/eyecan-ai/pipelime-sub000/pkg/item"
)

// ErrShapeMismatch is raised when GroupedSample.Merge encounters children
// whose nested-dict values have incompatible shapes, rather than guessing
// (spec §9 Open Question: "the port should raise rather than guess").
var ErrShapeMismatch = errors.New("sample: grouped-sample merge: incompatible nested shapes")

// ErrMissingKeyInGroup is returned by GroupedSample.Get when not every
// child in the group carries the requested key.
var ErrMissingKeyInGroup = errors.New("sample: key missing from one or more grouped children")

// GroupedSample aggregates several child samples; Get(k) returns the tuple
// ([]interface{}) of Get(k) from each child, in child order (spec §4.3).
type GroupedSample struct {
	id       ID
	children []Sample
}

// NewGroupedSample builds a GroupedSample over children, keyed by id. The
// union of keys across children is what Keys() reports.
func NewGroupedSample(id ID, children ...Sample) *GroupedSample {
	return &GroupedSample{id: id, children: children}
}

func (g *GroupedSample) ID() ID { return g.id }

func (g *GroupedSample) Children() []Sample { return g.children }

func (g *GroupedSample) Get(ctx context.Context, key string) (interface{}, error) {
	out := make([]interface{}, len(g.children))
	for i, c := range g.children {
		if !c.Contains(key) {
			return nil, fmt.Errorf("%w: key %q", ErrMissingKeyInGroup, key)
		}
		v, err := c.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Set overwrites the key on every child with the same scalar value; it does
// not attempt to distribute an already-grouped tuple, which has no
// canonical inverse.
func (g *GroupedSample) Set(key string, value interface{}) {
	for _, c := range g.children {
		c.Set(key, value)
	}
}

func (g *GroupedSample) Delete(key string) {
	for _, c := range g.children {
		c.Delete(key)
	}
}

func (g *GroupedSample) Contains(key string) bool {
	for _, c := range g.children {
		if !c.Contains(key) {
			return false
		}
	}
	return len(g.children) > 0
}

// Keys returns the union of all children's keys, deduplicated, in
// first-seen order across children.
func (g *GroupedSample) Keys() []string {
	seen := make(map[string]bool)
	var out []string
	for _, c := range g.children {
		for _, k := range c.Keys() {
			if !seen[k] {
				seen[k] = true
				out = append(out, k)
			}
		}
	}
	return out
}

func (g *GroupedSample) Len() int { return len(g.Keys()) }

func (g *GroupedSample) Copy() Sample {
	children := make([]Sample, len(g.children))
	for i, c := range g.children {
		children[i] = c.Copy()
	}
	return &GroupedSample{id: g.id, children: children}
}

// Merge is undefined for grouped samples with differently-shaped nested
// values; rather than guess a positional alignment, it raises
// ErrShapeMismatch when the child counts differ (spec §9).
func (g *GroupedSample) Merge(other Sample) Sample {
	og, ok := other.(*GroupedSample)
	if !ok || len(og.children) != len(g.children) {
		panic(fmt.Errorf("%w: group sizes %d vs %d", ErrShapeMismatch, len(g.children), groupSize(other)))
	}
	merged := make([]Sample, len(g.children))
	for i := range g.children {
		merged[i] = g.children[i].Merge(og.children[i])
	}
	return &GroupedSample{id: g.id, children: merged}
}

func groupSize(s Sample) int {
	if gs, ok := s.(*GroupedSample); ok {
		return len(gs.children)
	}
	return -1
}

// MetaItem has no single source for a grouped key (it aggregates one item
// per child), so it always reports not-found; callers that need per-child
// descriptors should use Children() directly.
func (g *GroupedSample) MetaItem(key string) (item.Source, bool) {
	return item.Source{}, false
}

func (g *GroupedSample) IsCached(key string) bool {
	for _, c := range g.children {
		if !c.IsCached(key) {
			return false
		}
	}
	return len(g.children) > 0
}

func (g *GroupedSample) Flush() {
	for _, c := range g.children {
		c.Flush()
	}
}

var _ Sample = (*GroupedSample)(nil)
