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

// Indexed remaps a source sequence through an explicit index list, the
// same shape Filtered/Sorted/Sliced each compute internally; operations
// that need an arbitrary reordering or subset (Subsample, Shuffle,
// Splits, SplitByValue's per-value views) build one directly instead of
// duplicating the Len/At/All boilerplate.
type Indexed struct {
	source  Sequence
	indices []int
}

// NewIndexed wraps source, exposing only the samples at indices, in order.
func NewIndexed(source Sequence, indices []int) *Indexed {
	return &Indexed{source: source, indices: indices}
}

func (x *Indexed) Len() int { return len(x.indices) }

func (x *Indexed) At(ctx context.Context, i int) (sample.Sample, error) {
	return x.source.At(ctx, x.indices[i])
}

func (x *Indexed) All(ctx context.Context) ([]sample.Sample, error) {
	out := make([]sample.Sample, x.Len())
	for i := range out {
		s, err := x.At(ctx, i)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

var _ Sequence = (*Indexed)(nil)
