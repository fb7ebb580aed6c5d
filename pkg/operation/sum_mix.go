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

package operation

import (
	"context"
	"fmt"

	"github.com/eyecan-ai/pipelime-sub000/pkg/sample"
	"github.com/eyecan-ai/pipelime-sub000/pkg/sequence"
)

// Sum concatenates sources end to end (spec §4.7), grounded on the same
// wrapping idiom as sequence.Concat.
func Sum(sources []sequence.Sequence) sequence.Sequence {
	return sequence.NewConcat(sources)
}

// Mix zips N equal-length sequences whose key sets are pairwise disjoint,
// right-biased-merging sample i of every source into a single sample i
// (spec §4.7). Disjointness is checked once per row rather than assumed,
// since two sources can share no keys at row 0 yet collide at row k.
func Mix(ctx context.Context, sources []sequence.Sequence) (sequence.Sequence, error) {
	if len(sources) == 0 {
		return sequence.NewBase(nil), nil
	}
	n := sources[0].Len()
	for i, s := range sources[1:] {
		if s.Len() != n {
			return nil, fmt.Errorf("operation: mix: source %d has length %d, expected %d", i+1, s.Len(), n)
		}
	}
	merged := make([]sample.Sample, n)
	for i := 0; i < n; i++ {
		seen := make(map[string]int)
		var cur sample.Sample
		for si, s := range sources {
			row, err := s.At(ctx, i)
			if err != nil {
				return nil, err
			}
			for _, k := range row.Keys() {
				if prev, ok := seen[k]; ok {
					return nil, fmt.Errorf("operation: mix: key %q present in both source %d and source %d at index %d", k, prev, si, i)
				}
				seen[k] = si
			}
			if cur == nil {
				cur = row
			} else {
				cur = cur.Merge(row)
			}
		}
		merged[i] = cur
	}
	return sequence.NewBase(merged), nil
}

func registerSumMix(r *Registry) {
	r.Register(Operation{
		Name: "Sum",
		Sig:  Signature{Inputs: []PortKind{PortList}, Outputs: []PortKind{PortSequence}},
		Fn: func(ctx context.Context, in []Value, params map[string]interface{}) ([]Value, error) {
			return []Value{seqValue(Sum(in[0].List))}, nil
		},
	})
	r.Register(Operation{
		Name: "Mix",
		Sig:  Signature{Inputs: []PortKind{PortList}, Outputs: []PortKind{PortSequence}},
		Fn: func(ctx context.Context, in []Value, params map[string]interface{}) ([]Value, error) {
			out, err := Mix(ctx, in[0].List)
			if err != nil {
				return nil, err
			}
			return []Value{seqValue(out)}, nil
		},
	})
}
