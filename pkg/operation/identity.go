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
)

// Identity returns source unchanged (spec §4.7); it exists so pipeline
// configurations can name a no-op node without special-casing it.
func Identity(source sequence.Sequence) sequence.Sequence { return source }

func registerIdentity(r *Registry) {
	r.Register(Operation{
		Name: "Identity",
		Sig:  Signature{Inputs: []PortKind{PortSequence}, Outputs: []PortKind{PortSequence}},
		Fn: func(ctx context.Context, in []Value, params map[string]interface{}) ([]Value, error) {
			return []Value{seqValue(Identity(in[0].Sequence))}, nil
		},
	})
}

func registerBuiltins(r *Registry) {
	registerSumMix(r)
	registerSubsample(r)
	registerShuffle(r)
	registerSplits(r)
	registerQueryOps(r)
	registerFilterByScript(r)
	registerKeyOps(r)
	registerOrderBy(r)
	registerGroupOps(r)
	registerResetIndices(r)
	registerIdentity(r)
}
