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

	"github.com/eyecan-ai/pipelime-sub000/pkg/sequence"
)

// Subsample keeps every k-th sample (factor is an integer stride, factor
// >= 1) or a prefix of floor(factor*N) samples (factor a ratio in (0,1]),
// both starting at start (spec §4.7).
func Subsample(source sequence.Sequence, factor float64, start int) (sequence.Sequence, error) {
	if start < 0 {
		return nil, fmt.Errorf("operation: subsample: start must be >= 0, got %d", start)
	}
	n := source.Len()
	var indices []int
	if factor >= 1 && factor == math.Trunc(factor) {
		stride := int(factor)
		for i := start; i < n; i += stride {
			indices = append(indices, i)
		}
	} else {
		if factor <= 0 || factor > 1 {
			return nil, fmt.Errorf("operation: subsample: ratio factor must be in (0,1], got %v", factor)
		}
		count := int(factor * float64(n))
		for i := start; i < n && len(indices) < count; i++ {
			indices = append(indices, i)
		}
	}
	return sequence.NewIndexed(source, indices), nil
}

func registerSubsample(r *Registry) {
	r.Register(Operation{
		Name: "Subsample",
		Sig:  Signature{Inputs: []PortKind{PortSequence}, Outputs: []PortKind{PortSequence}},
		Fn: func(ctx context.Context, in []Value, params map[string]interface{}) ([]Value, error) {
			factor := paramFloat(params, "factor", 1)
			start := paramInt(params, "start", 0)
			out, err := Subsample(in[0].Sequence, factor, start)
			if err != nil {
				return nil, err
			}
			return []Value{seqValue(out)}, nil
		},
	})
}
