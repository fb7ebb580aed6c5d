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
	"crypto/rand"
	"encoding/binary"
	"math/big"
	mrand "math/rand"

	"github.com/eyecan-ai/pipelime-sub000/pkg/sequence"
)

// Shuffle reorders source: deterministically if seed >= 0, from OS
// entropy otherwise (spec §4.7).
func Shuffle(source sequence.Sequence, seed int64) sequence.Sequence {
	n := source.Len()
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}

	var src mrand.Source
	if seed >= 0 {
		src = mrand.NewSource(seed)
	} else {
		src = mrand.NewSource(osSeed())
	}
	mrand.New(src).Shuffle(n, func(i, j int) { indices[i], indices[j] = indices[j], indices[i] })
	return sequence.NewIndexed(source, indices)
}

// osSeed draws a seed from OS entropy, falling back to 0 only if the
// entropy source itself fails (treated as exceptional, not a normal path).
func osSeed() int64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		n, _ := rand.Int(rand.Reader, big.NewInt(1<<62))
		if n != nil {
			return n.Int64()
		}
		return 0
	}
	return int64(binary.LittleEndian.Uint64(buf[:]) >> 1)
}

func registerShuffle(r *Registry) {
	r.Register(Operation{
		Name: "Shuffle",
		Sig:  Signature{Inputs: []PortKind{PortSequence}, Outputs: []PortKind{PortSequence}},
		Fn: func(ctx context.Context, in []Value, params map[string]interface{}) ([]Value, error) {
			seed := int64(paramInt(params, "seed", -1))
			return []Value{seqValue(Shuffle(in[0].Sequence, seed))}, nil
		},
	})
}
