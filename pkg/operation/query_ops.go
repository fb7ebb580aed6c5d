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

	"github.com/eyecan-ai/pipelime-sub000/pkg/operation/query"
	"github.com/eyecan-ai/pipelime-sub000/pkg/sample"
	"github.com/eyecan-ai/pipelime-sub000/pkg/sequence"
)

// FilterByQuery keeps only the samples for which queryStr evaluates true
// (spec §4.7).
func FilterByQuery(ctx context.Context, source sequence.Sequence, queryStr string) (sequence.Sequence, error) {
	expr, err := query.Parse(queryStr)
	if err != nil {
		return nil, err
	}
	return sequence.NewFiltered(ctx, source, func(ctx context.Context, s sample.Sample) (bool, error) {
		return expr.Eval(ctx, s)
	})
}

// SplitByQuery partitions source into the samples for which queryStr
// evaluates true and those for which it evaluates false (spec §4.7).
func SplitByQuery(ctx context.Context, source sequence.Sequence, queryStr string) (matched, unmatched sequence.Sequence, err error) {
	expr, err := query.Parse(queryStr)
	if err != nil {
		return nil, nil, err
	}
	matched, err = sequence.NewFiltered(ctx, source, func(ctx context.Context, s sample.Sample) (bool, error) {
		return expr.Eval(ctx, s)
	})
	if err != nil {
		return nil, nil, err
	}
	unmatched, err = sequence.NewFiltered(ctx, source, func(ctx context.Context, s sample.Sample) (bool, error) {
		ok, err := expr.Eval(ctx, s)
		return !ok, err
	})
	if err != nil {
		return nil, nil, err
	}
	return matched, unmatched, nil
}

func registerQueryOps(r *Registry) {
	r.Register(Operation{
		Name: "FilterByQuery",
		Sig:  Signature{Inputs: []PortKind{PortSequence}, Outputs: []PortKind{PortSequence}},
		Fn: func(ctx context.Context, in []Value, params map[string]interface{}) ([]Value, error) {
			out, err := FilterByQuery(ctx, in[0].Sequence, paramString(params, "query", ""))
			if err != nil {
				return nil, err
			}
			return []Value{seqValue(out)}, nil
		},
	})
	r.Register(Operation{
		Name: "SplitByQuery",
		Sig:  Signature{Inputs: []PortKind{PortSequence}, Outputs: []PortKind{PortSequence, PortSequence}},
		Fn: func(ctx context.Context, in []Value, params map[string]interface{}) ([]Value, error) {
			matched, unmatched, err := SplitByQuery(ctx, in[0].Sequence, paramString(params, "query", ""))
			if err != nil {
				return nil, err
			}
			return []Value{seqValue(matched), seqValue(unmatched)}, nil
		},
	})
}
