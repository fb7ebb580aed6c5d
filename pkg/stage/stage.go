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

// Package stage implements pipelime's pure Sample -> Sample transforms
// (spec §4.6) as a tagged sum type: each built-in stage kind serializes to
// and from a dictionary tagged by its type name (Design Notes §9:
// "Dynamic type dispatch via string tags... tagged sum types with a
// registry of named constructors for extensibility; unknown tags at load
// time are ConfigError, not runtime AttributeError"). Composition of
// storage-wrapping-storage in perkeep's pkg/blobserver/overlay and
// pkg/blobserver/union is the closest teacher analogue to stage
// composition.
package stage

import (
	"context"
	"fmt"
	"sync"

	"github.com/eyecan-ai/pipelime-sub000/pkg/sample"
)

// Stage is a pure Sample -> Sample transformation.
type Stage interface {
	Apply(ctx context.Context, s sample.Sample) (sample.Sample, error)
	// Kind is the tag used to serialize this stage to/from configuration.
	Kind() string
}

// Config is the generic wire form a stage is built from: {"kind": "...", ...fields}.
type Config map[string]interface{}

// Constructor builds a Stage from its Config fields (kind already consumed).
type Constructor func(cfg Config) (Stage, error)

// Error is the ConfigError taxonomy member for unknown stage kinds (spec §7/§9).
type Error struct {
	Kind  string
	Cause error
}

func (e *Error) Error() string { return fmt.Sprintf("stage: %v (kind %q)", e.Cause, e.Kind) }
func (e *Error) Unwrap() error { return e.Cause }

// Registry maps kind tags to Constructors.
type Registry struct {
	mu    sync.Mutex
	ctors map[string]Constructor
}

// NewRegistry returns a Registry with all built-in stage kinds registered.
func NewRegistry() *Registry {
	r := &Registry{ctors: make(map[string]Constructor)}
	r.Register("identity", func(Config) (Stage, error) { return Identity{}, nil })
	r.Register("key-filter", newKeyFilterFromConfig)
	r.Register("key-remap", newKeyRemapFromConfig)
	r.Register("compose", nil) // Compose is built programmatically; see Registry.BuildCompose.
	r.Register("augmentation", newAugmentationFromConfig)
	r.Register("upload-to-remote", nil) // requires injected codec/remote registries; built programmatically
	return r
}

// Register adds a named constructor. A nil constructor reserves the kind
// name (used for kinds that must be built programmatically, e.g. Compose)
// without allowing config-driven instantiation.
func (r *Registry) Register(kind string, ctor Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.ctors[kind]; ok {
		panic("stage: kind already registered: " + kind)
	}
	r.ctors[kind] = ctor
}

// Build instantiates the Stage named by cfg["kind"]. An unregistered kind
// is a ConfigError (spec §9), not a runtime type-assertion panic.
func (r *Registry) Build(cfg Config) (Stage, error) {
	kindRaw, ok := cfg["kind"]
	if !ok {
		return nil, &Error{Cause: fmt.Errorf("missing \"kind\" field")}
	}
	kind, ok := kindRaw.(string)
	if !ok {
		return nil, &Error{Cause: fmt.Errorf("\"kind\" field must be a string, got %T", kindRaw)}
	}
	r.mu.Lock()
	ctor, known := r.ctors[kind]
	r.mu.Unlock()
	if !known || ctor == nil {
		return nil, &Error{Kind: kind, Cause: fmt.Errorf("unknown or non-configurable stage kind")}
	}
	return ctor(cfg)
}

// Identity returns its input unchanged (spec §4.6).
type Identity struct{}

func (Identity) Kind() string { return "identity" }
func (Identity) Apply(_ context.Context, s sample.Sample) (sample.Sample, error) { return s, nil }

// Compose runs stages left to right (spec §4.6).
type Compose struct {
	Stages []Stage
}

func (Compose) Kind() string { return "compose" }

func (c Compose) Apply(ctx context.Context, s sample.Sample) (sample.Sample, error) {
	cur := s
	for _, st := range c.Stages {
		var err error
		cur, err = st.Apply(ctx, cur)
		if err != nil {
			return nil, fmt.Errorf("stage: compose: stage %q: %w", st.Kind(), err)
		}
	}
	return cur, nil
}

var _ Stage = Identity{}
var _ Stage = Compose{}
