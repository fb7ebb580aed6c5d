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

// Package sequence implements pipelime's ordered Sample collection and its
// proxy views (spec §4.4): filter/sort/slice/concat/cache, each a sequence
// that wraps another and reshapes access. The wrapping-storage idiom is
// the same shape as perkeep's pkg/blobserver/overlay and
// pkg/blobserver/union (a Storage built from other Storages), generalized
// from blob storage composition to sample sequence composition.
package sequence

import (
	"context"
	"strconv"

	"github.com/eyecan-ai/pipelime-sub000/pkg/sample"
	"github.com/eyecan-ai/pipelime-sub000/pkg/stage"
)

// Sequence is a finite ordered collection of samples with an optional
// per-access Stage.
type Sequence interface {
	Len() int
	At(ctx context.Context, i int) (sample.Sample, error)
	// All materializes every sample in order; callers that only need a
	// window should prefer At or a Sliced proxy to avoid loading
	// everything eagerly.
	All(ctx context.Context) ([]sample.Sample, error)
}

// BestZfill returns the minimum width needed to format every sample index
// in [0, n) as a fixed-width decimal string (spec §3: "used by writers").
func BestZfill(n int) int {
	if n <= 1 {
		return 1
	}
	return len(strconv.Itoa(n - 1))
}

// Base wraps a plain slice of samples with an optional stage applied
// on-access (spec §4.4).
type Base struct {
	samples []sample.Sample
	stage   stage.Stage
}

// NewBase returns a Base sequence over samples with no stage.
func NewBase(samples []sample.Sample) *Base {
	return &Base{samples: samples}
}

// WithStage returns a copy of b with st applied on every access.
func (b *Base) WithStage(st stage.Stage) *Base {
	return &Base{samples: b.samples, stage: st}
}

func (b *Base) Len() int { return len(b.samples) }

func (b *Base) At(ctx context.Context, i int) (sample.Sample, error) {
	s := b.samples[i]
	if b.stage == nil {
		return s, nil
	}
	return b.stage.Apply(ctx, s)
}

func (b *Base) All(ctx context.Context) ([]sample.Sample, error) {
	out := make([]sample.Sample, b.Len())
	for i := range out {
		s, err := b.At(ctx, i)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

// BestZfillWidth reports the fixed-width digit count for this sequence's length.
func (b *Base) BestZfillWidth() int { return BestZfill(b.Len()) }

var _ Sequence = (*Base)(nil)

// BestZfillWidth is a convenience for any Sequence.
func BestZfillWidth(s Sequence) int { return BestZfill(s.Len()) }
