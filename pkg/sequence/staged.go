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

package sequence

import (
	"context"

	"github.com/eyecan-ai/pipelime-sub000/pkg/sample"
	"github.com/eyecan-ai/pipelime-sub000/pkg/stage"
)

// Staged applies a Stage on access over an arbitrary source sequence,
// generalizing the stage-on-access behavior Base and Concat each carry
// internally to any Sequence implementation (spec §4.4/§4.6).
type Staged struct {
	source Sequence
	stage  stage.Stage
}

// NewStaged wraps source so every access is passed through st.
func NewStaged(source Sequence, st stage.Stage) *Staged {
	return &Staged{source: source, stage: st}
}

func (s *Staged) Len() int { return s.source.Len() }

func (s *Staged) At(ctx context.Context, i int) (sample.Sample, error) {
	smp, err := s.source.At(ctx, i)
	if err != nil {
		return nil, err
	}
	return s.stage.Apply(ctx, smp)
}

func (s *Staged) All(ctx context.Context) ([]sample.Sample, error) {
	out := make([]sample.Sample, s.Len())
	for i := range out {
		v, err := s.At(ctx, i)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

var _ Sequence = (*Staged)(nil)
