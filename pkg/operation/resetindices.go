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

	"github.com/eyecan-ai/pipelime-sub000/pkg/item"
	"github.com/eyecan-ai/pipelime-sub000/pkg/sample"
	"github.com/eyecan-ai/pipelime-sub000/pkg/sequence"
	"github.com/google/uuid"
)

// IDGenerator produces the i-th reassigned sample.ID (spec §4.7:
// "integer counter or UUID").
type IDGenerator func(i int) sample.ID

// IntCounterIDs generates sequential integers starting at start.
func IntCounterIDs(start int) IDGenerator {
	return func(i int) sample.ID { return start + i }
}

// UUIDIDs generates a fresh random UUID per sample, ignoring index.
func UUIDIDs() IDGenerator {
	return func(i int) sample.ID { return uuid.NewString() }
}

// ResetIndices wraps source so every sample's ID is reassigned by gen on
// access (spec §4.7). The underlying sample is otherwise untouched.
func ResetIndices(source sequence.Sequence, gen IDGenerator) sequence.Sequence {
	return &reindexed{source: source, gen: gen}
}

type reindexed struct {
	source sequence.Sequence
	gen    IDGenerator
}

func (r *reindexed) Len() int { return r.source.Len() }

func (r *reindexed) At(ctx context.Context, i int) (sample.Sample, error) {
	s, err := r.source.At(ctx, i)
	if err != nil {
		return nil, err
	}
	return &idOverride{Sample: s, id: r.gen(i)}, nil
}

func (r *reindexed) All(ctx context.Context) ([]sample.Sample, error) {
	out := make([]sample.Sample, r.Len())
	for i := range out {
		s, err := r.At(ctx, i)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

var _ sequence.Sequence = (*reindexed)(nil)

// idOverride wraps a Sample, substituting its ID while delegating every
// other method; sample.Basic's id is fixed at construction, so
// reassignment needs a thin wrapper rather than in-place mutation.
type idOverride struct {
	sample.Sample
	id sample.ID
}

func (o *idOverride) ID() sample.ID { return o.id }

// Copy preserves the override across a copy, which the embedded
// Sample.Copy() alone would not do (it would return the original ID).
func (o *idOverride) Copy() sample.Sample {
	return &idOverride{Sample: o.Sample.Copy(), id: o.id}
}

func (o *idOverride) MetaItem(key string) (item.Source, bool) { return o.Sample.MetaItem(key) }

var _ sample.Sample = (*idOverride)(nil)

func registerResetIndices(r *Registry) {
	r.Register(Operation{
		Name: "ResetIndices",
		Sig:  Signature{Inputs: []PortKind{PortSequence}, Outputs: []PortKind{PortSequence}},
		Fn: func(ctx context.Context, in []Value, params map[string]interface{}) ([]Value, error) {
			var gen IDGenerator
			switch paramString(params, "generator", "int") {
			case "uuid":
				gen = UUIDIDs()
			case "int":
				gen = IntCounterIDs(paramInt(params, "start", 0))
			default:
				return nil, fmt.Errorf("operation: reset-indices: unknown generator %q", params["generator"])
			}
			return []Value{seqValue(ResetIndices(in[0].Sequence, gen))}, nil
		},
	})
}
