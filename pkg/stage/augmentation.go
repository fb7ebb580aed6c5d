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

package stage

import (
	"context"

	"github.com/eyecan-ai/pipelime-sub000/pkg/sample"
)

// AugmentFunc is the hook an external image-augmentation library plugs
// into; pipelime itself does not implement any transform (spec §1
// Non-goals: "providing numerical/image processing algorithms
// (delegated)").
type AugmentFunc func(ctx context.Context, s sample.Sample, cfg Config) (sample.Sample, error)

// Augmentation wraps an opaque external transform config (spec §4.6). If
// Func is nil, Apply is a no-op passthrough — wiring a real augmentation
// backend is the embedder's responsibility, not this package's.
type Augmentation struct {
	Config Config
	Func   AugmentFunc
}

func (Augmentation) Kind() string { return "augmentation" }

func (a Augmentation) Apply(ctx context.Context, s sample.Sample) (sample.Sample, error) {
	if a.Func == nil {
		return s, nil
	}
	return a.Func(ctx, s, a.Config)
}

func newAugmentationFromConfig(cfg Config) (Stage, error) {
	return Augmentation{Config: cfg}, nil
}

var _ Stage = Augmentation{}
