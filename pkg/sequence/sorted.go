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
	"sort"

	"github.com/eyecan-ai/pipelime-sub000/pkg/sample"
)

// KeyFunc extracts a sortable value from a sample.
type KeyFunc func(ctx context.Context, s sample.Sample) (interface{}, error)

// LessFunc compares two extracted key values.
type LessFunc func(a, b interface{}) bool

// Sorted stably sorts source by a key function (spec §4.4).
type Sorted struct {
	source  Sequence
	indices []int
}

// NewSorted evaluates key for every sample and stably sorts by less.
func NewSorted(ctx context.Context, source Sequence, key KeyFunc, less LessFunc) (*Sorted, error) {
	n := source.Len()
	keys := make([]interface{}, n)
	indices := make([]int, n)
	for i := 0; i < n; i++ {
		s, err := source.At(ctx, i)
		if err != nil {
			return nil, err
		}
		k, err := key(ctx, s)
		if err != nil {
			return nil, err
		}
		keys[i] = k
		indices[i] = i
	}
	sort.SliceStable(indices, func(a, b int) bool {
		return less(keys[indices[a]], keys[indices[b]])
	})
	return &Sorted{source: source, indices: indices}, nil
}

func (s *Sorted) Len() int { return len(s.indices) }

func (s *Sorted) At(ctx context.Context, i int) (sample.Sample, error) {
	return s.source.At(ctx, s.indices[i])
}

func (s *Sorted) All(ctx context.Context) ([]sample.Sample, error) {
	out := make([]sample.Sample, s.Len())
	for i := range out {
		v, err := s.At(ctx, i)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

var _ Sequence = (*Sorted)(nil)
