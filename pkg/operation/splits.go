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
	"math"
	"sort"

	"github.com/eyecan-ai/pipelime-sub000/pkg/sequence"
)

// Splits partitions source into contiguous ranges sized by ratios, which
// must sum to 1.0 (spec §4.7). Go map iteration order is undefined, so
// ranges are allocated in sorted-by-name order for a reproducible layout;
// the last range (by that same order) absorbs the rounding remainder.
func Splits(source sequence.Sequence, ratios map[string]float64) (map[string]sequence.Sequence, error) {
	if len(ratios) == 0 {
		return nil, fmt.Errorf("operation: splits: ratios must be non-empty")
	}
	sum := 0.0
	names := make([]string, 0, len(ratios))
	for name, r := range ratios {
		sum += r
		names = append(names, name)
	}
	if math.Abs(sum-1.0) > 1e-6 {
		return nil, fmt.Errorf("operation: splits: ratios must sum to 1.0, got %v", sum)
	}
	sort.Strings(names)

	n := source.Len()
	out := make(map[string]sequence.Sequence, len(names))
	start := 0
	for i, name := range names {
		var end int
		if i == len(names)-1 {
			end = n
		} else {
			end = start + int(ratios[name]*float64(n))
			if end > n {
				end = n
			}
		}
		indices := make([]int, 0, end-start)
		for idx := start; idx < end; idx++ {
			indices = append(indices, idx)
		}
		out[name] = sequence.NewIndexed(source, indices)
		start = end
	}
	return out, nil
}

func registerSplits(r *Registry) {
	r.Register(Operation{
		Name: "Splits",
		Sig:  Signature{Inputs: []PortKind{PortSequence}, Outputs: []PortKind{PortDict}},
		Fn: func(ctx context.Context, in []Value, params map[string]interface{}) ([]Value, error) {
			ratios := make(map[string]float64)
			raw, _ := params["ratios"].(map[string]interface{})
			for k, v := range raw {
				if f, ok := v.(float64); ok {
					ratios[k] = f
				}
			}
			out, err := Splits(in[0].Sequence, ratios)
			if err != nil {
				return nil, err
			}
			return []Value{dictValue(out)}, nil
		},
	})
}
