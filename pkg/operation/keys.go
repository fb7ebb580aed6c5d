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

	"github.com/eyecan-ai/pipelime-sub000/pkg/sequence"
	"github.com/eyecan-ai/pipelime-sub000/pkg/stage"
)

// FilterKeys keeps (or, if negate, drops) only keys on every sample of
// source (spec §4.7), reusing stage.KeyFilter's per-sample logic through
// a generic Staged proxy rather than re-implementing key projection.
func FilterKeys(source sequence.Sequence, keys []string, negate bool) sequence.Sequence {
	return sequence.NewStaged(source, stage.KeyFilter{Keys: keys, Negate: negate})
}

// RemapKeys renames keys on every sample of source according to remap
// (spec §4.7), reusing stage.KeyRemap.
func RemapKeys(source sequence.Sequence, remap map[string]string, removeMissing bool) sequence.Sequence {
	return sequence.NewStaged(source, stage.KeyRemap{Remap: remap, RemoveMissing: removeMissing})
}

func registerKeyOps(r *Registry) {
	r.Register(Operation{
		Name: "FilterKeys",
		Sig:  Signature{Inputs: []PortKind{PortSequence}, Outputs: []PortKind{PortSequence}},
		Fn: func(ctx context.Context, in []Value, params map[string]interface{}) ([]Value, error) {
			keys := paramStringSlice(params, "keys")
			negate := paramBool(params, "negate", false)
			return []Value{seqValue(FilterKeys(in[0].Sequence, keys, negate))}, nil
		},
	})
	r.Register(Operation{
		Name: "RemapKeys",
		Sig:  Signature{Inputs: []PortKind{PortSequence}, Outputs: []PortKind{PortSequence}},
		Fn: func(ctx context.Context, in []Value, params map[string]interface{}) ([]Value, error) {
			remap := make(map[string]string)
			if raw, ok := params["remap"].(map[string]interface{}); ok {
				for k, v := range raw {
					if s, ok := v.(string); ok {
						remap[k] = s
					}
				}
			}
			removeMissing := paramBool(params, "remove_missing", false)
			return []Value{seqValue(RemapKeys(in[0].Sequence, remap, removeMissing))}, nil
		},
	})
}
