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
	"fmt"

	"github.com/eyecan-ai/pipelime-sub000/pkg/sample"
)

// Sliced applies Python-like [start:end:step] semantics to source,
// including negative indices and a negative step for reversed traversal
// (spec §4.4/§8).
type Sliced struct {
	source  Sequence
	indices []int
}

// NewSliced computes the resulting index set the way Python's slice.indices(len) does.
func NewSliced(source Sequence, start, end, step *int) (*Sliced, error) {
	n := source.Len()
	st := 1
	if step != nil {
		st = *step
	}
	if st == 0 {
		return nil, fmt.Errorf("sequence: slice step cannot be zero")
	}

	var lo, hi int
	if st > 0 {
		lo, hi = 0, n
	} else {
		lo, hi = -1, n-1
	}

	normalize := func(v int, lower, upper int) int {
		if v < 0 {
			v += n
		}
		if v < lower {
			return lower
		}
		if v > upper {
			return upper
		}
		return v
	}

	s := lo
	if start != nil {
		if st > 0 {
			s = normalize(*start, 0, n)
		} else {
			s = normalize(*start, -1, n-1)
		}
	}
	e := hi
	if end != nil {
		if st > 0 {
			e = normalize(*end, 0, n)
		} else {
			e = normalize(*end, -1, n-1)
		}
	}

	var indices []int
	if st > 0 {
		for i := s; i < e; i += st {
			indices = append(indices, i)
		}
	} else {
		for i := s; i > e; i += st {
			indices = append(indices, i)
		}
	}
	return &Sliced{source: source, indices: indices}, nil
}

func (s *Sliced) Len() int { return len(s.indices) }

func (s *Sliced) At(ctx context.Context, i int) (sample.Sample, error) {
	return s.source.At(ctx, s.indices[i])
}

func (s *Sliced) All(ctx context.Context) ([]sample.Sample, error) {
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

var _ Sequence = (*Sliced)(nil)
