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

	"github.com/eyecan-ai/pipelime-sub000/pkg/operation/query"
	"github.com/eyecan-ai/pipelime-sub000/pkg/sample"
	"github.com/eyecan-ai/pipelime-sub000/pkg/sequence"
)

// groupIndices partitions source's indices by the stringified value at
// path, in first-appearance order. A sample missing the path lands in
// the fallback group (if hasFallback) instead of raising (supplement #7,
// grounded on original_source/examples/garbage/groupby_example.py).
func groupIndices(ctx context.Context, source sequence.Sequence, path, fallback string, hasFallback bool) ([]string, map[string][]int, error) {
	segs := splitDotted(path)
	groups := make(map[string][]int)
	var order []string
	for i := 0; i < source.Len(); i++ {
		s, err := source.At(ctx, i)
		if err != nil {
			return nil, nil, err
		}
		v, err := query.Resolve(ctx, s, segs)
		var key string
		if err != nil {
			if !hasFallback {
				return nil, nil, fmt.Errorf("operation: groupby: sample %v: %w", s.ID(), err)
			}
			key = fallback
		} else {
			key = fmt.Sprintf("%v", v)
		}
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], i)
	}
	return order, groups, nil
}

// GroupBy partitions source by the value at path, producing one
// GroupedSample per distinct value, in first-appearance order (spec
// §4.7).
func GroupBy(ctx context.Context, source sequence.Sequence, path, fallback string, hasFallback bool) (sequence.Sequence, error) {
	order, groups, err := groupIndices(ctx, source, path, fallback, hasFallback)
	if err != nil {
		return nil, err
	}
	out := make([]sample.Sample, len(order))
	for gi, key := range order {
		children := make([]sample.Sample, len(groups[key]))
		for ci, idx := range groups[key] {
			s, err := source.At(ctx, idx)
			if err != nil {
				return nil, err
			}
			children[ci] = s
		}
		out[gi] = sample.NewGroupedSample(key, children...)
	}
	return sequence.NewBase(out), nil
}

// SplitByValue partitions source the same way GroupBy does, but returns
// one sub-sequence per distinct value instead of grouped samples (spec
// §4.7).
func SplitByValue(ctx context.Context, source sequence.Sequence, path, fallback string, hasFallback bool) ([]sequence.Sequence, error) {
	order, groups, err := groupIndices(ctx, source, path, fallback, hasFallback)
	if err != nil {
		return nil, err
	}
	out := make([]sequence.Sequence, len(order))
	for i, key := range order {
		out[i] = sequence.NewIndexed(source, groups[key])
	}
	return out, nil
}

func registerGroupOps(r *Registry) {
	r.Register(Operation{
		Name: "GroupBy",
		Sig:  Signature{Inputs: []PortKind{PortSequence}, Outputs: []PortKind{PortSequence}},
		Fn: func(ctx context.Context, in []Value, params map[string]interface{}) ([]Value, error) {
			path := paramString(params, "path", "")
			fallback, hasFallback := params["fallback"].(string)
			out, err := GroupBy(ctx, in[0].Sequence, path, fallback, hasFallback)
			if err != nil {
				return nil, err
			}
			return []Value{seqValue(out)}, nil
		},
	})
	r.Register(Operation{
		Name: "SplitByValue",
		Sig:  Signature{Inputs: []PortKind{PortSequence}, Outputs: []PortKind{PortList}},
		Fn: func(ctx context.Context, in []Value, params map[string]interface{}) ([]Value, error) {
			path := paramString(params, "path", "")
			fallback, hasFallback := params["fallback"].(string)
			out, err := SplitByValue(ctx, in[0].Sequence, path, fallback, hasFallback)
			if err != nil {
				return nil, err
			}
			return []Value{listValue(out)}, nil
		},
	})
}
