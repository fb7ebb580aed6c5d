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

// Concat orders N sequences end to end (spec §4.4). Each source's own
// stage (if it is a *Base) has already been applied before Concat's outer
// stage, matching "each source's own stage is applied before the outer
// stage".
type Concat struct {
	sources []Sequence
	offsets []int // offsets[i] = first global index belonging to sources[i]
	stage   stage.Stage
}

// NewConcat concatenates sources in order.
func NewConcat(sources []Sequence) *Concat {
	offsets := make([]int, len(sources))
	total := 0
	for i, s := range sources {
		offsets[i] = total
		total += s.Len()
	}
	return &Concat{sources: sources, offsets: offsets}
}

// WithStage returns a copy of c with an additional stage applied after the
// per-source stages.
func (c *Concat) WithStage(st stage.Stage) *Concat {
	return &Concat{sources: c.sources, offsets: c.offsets, stage: st}
}

func (c *Concat) Len() int {
	total := 0
	for _, s := range c.sources {
		total += s.Len()
	}
	return total
}

func (c *Concat) locate(i int) (Sequence, int) {
	for si := len(c.sources) - 1; si >= 0; si-- {
		if i >= c.offsets[si] {
			return c.sources[si], i - c.offsets[si]
		}
	}
	return c.sources[0], i
}

func (c *Concat) At(ctx context.Context, i int) (sample.Sample, error) {
	src, local := c.locate(i)
	s, err := src.At(ctx, local)
	if err != nil {
		return nil, err
	}
	if c.stage == nil {
		return s, nil
	}
	return c.stage.Apply(ctx, s)
}

func (c *Concat) All(ctx context.Context) ([]sample.Sample, error) {
	out := make([]sample.Sample, c.Len())
	for i := range out {
		s, err := c.At(ctx, i)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

var _ Sequence = (*Concat)(nil)
