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

	"github.com/eyecan-ai/pipelime-sub000/pkg/sample"
)

// FilterFunc decides whether a sample survives a Filtered proxy.
type FilterFunc func(ctx context.Context, s sample.Sample) (bool, error)

// Filtered precomputes the surviving indices of source at construction
// time (spec §4.4).
type Filtered struct {
	source  Sequence
	indices []int
}

// NewFiltered evaluates fn against every sample of source up front.
func NewFiltered(ctx context.Context, source Sequence, fn FilterFunc) (*Filtered, error) {
	var indices []int
	for i := 0; i < source.Len(); i++ {
		s, err := source.At(ctx, i)
		if err != nil {
			return nil, err
		}
		keep, err := fn(ctx, s)
		if err != nil {
			return nil, err
		}
		if keep {
			indices = append(indices, i)
		}
	}
	return &Filtered{source: source, indices: indices}, nil
}

func (f *Filtered) Len() int { return len(f.indices) }

func (f *Filtered) At(ctx context.Context, i int) (sample.Sample, error) {
	return f.source.At(ctx, f.indices[i])
}

func (f *Filtered) All(ctx context.Context) ([]sample.Sample, error) {
	out := make([]sample.Sample, f.Len())
	for i := range out {
		s, err := f.At(ctx, i)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

var _ Sequence = (*Filtered)(nil)
