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

// OrderBy stably sorts source lexicographically by the values at paths,
// in order, optionally descending (spec §4.7).
func OrderBy(ctx context.Context, source sequence.Sequence, paths []string, descending bool) (sequence.Sequence, error) {
	key := func(ctx context.Context, s sample.Sample) (interface{}, error) {
		vals := make([]interface{}, len(paths))
		for i, p := range paths {
			v, err := query.Resolve(ctx, s, splitDotted(p))
			if err != nil {
				return nil, err
			}
			vals[i] = v
		}
		return vals, nil
	}
	less := func(a, b interface{}) bool {
		av, bv := a.([]interface{}), b.([]interface{})
		for i := range av {
			if lessValue(av[i], bv[i]) {
				return !descending
			}
			if lessValue(bv[i], av[i]) {
				return descending
			}
		}
		return false
	}
	return sequence.NewSorted(ctx, source, key, less)
}

func splitDotted(path string) []string {
	var out []string
	start := 0
	for i := 0; i < len(path); i++ {
		if path[i] == '.' {
			out = append(out, path[start:i])
			start = i + 1
		}
	}
	out = append(out, path[start:])
	return out
}

func lessValue(a, b interface{}) bool {
	switch av := a.(type) {
	case int:
		if bv, ok := toFloatOrderBy(b); ok {
			return float64(av) < bv
		}
	case int64:
		if bv, ok := toFloatOrderBy(b); ok {
			return float64(av) < bv
		}
	case float64:
		if bv, ok := toFloatOrderBy(b); ok {
			return av < bv
		}
	case string:
		if bv, ok := b.(string); ok {
			return av < bv
		}
	}
	return fmt.Sprintf("%v", a) < fmt.Sprintf("%v", b)
}

func toFloatOrderBy(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func registerOrderBy(r *Registry) {
	r.Register(Operation{
		Name: "OrderBy",
		Sig:  Signature{Inputs: []PortKind{PortSequence}, Outputs: []PortKind{PortSequence}},
		Fn: func(ctx context.Context, in []Value, params map[string]interface{}) ([]Value, error) {
			paths := paramStringSlice(params, "paths")
			descending := paramBool(params, "descending", false)
			out, err := OrderBy(ctx, in[0].Sequence, paths, descending)
			if err != nil {
				return nil, err
			}
			return []Value{seqValue(out)}, nil
		},
	})
}
