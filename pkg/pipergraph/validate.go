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

package pipergraph

import (
	"context"
	"fmt"
	"os"

	"github.com/eyecan-ai/pipelime-sub000/pkg/piperconfig"
	"github.com/eyecan-ai/pipelime-sub000/pkg/underfolder"
)

// Validator checks a declared schema (NodeSpec.Schemas) against an
// Underfolder root's samples (spec §4.9 step 3/5): "for each input path
// value that refers to an existing directory and has a declared schema,
// open it as an Underfolder reader and validate all samples against the
// schema". A schema here is the set of keys every sample must expose
// (DESIGN.md's Open Question decision on the unspecified wire schema
// shape).
type Validator struct {
	Opts underfolder.Options
	// validated tracks paths already checked this run so repeated
	// references (e.g. the same output reused by a later input) are
	// validated once, per spec §4.9 step 3 ("skip paths already
	// validated in this run").
	validated map[string]bool
}

// NewValidator returns a Validator sharing opts with the rest of the run
// (codec/remote/stage registries).
func NewValidator(opts underfolder.Options) *Validator {
	return &Validator{Opts: opts, validated: map[string]bool{}}
}

// ValidateSlot validates path against the schema declared for slot
// (a node's input/output name), if any. Paths that are not existing
// directories, or slots with no declared schema, are skipped silently
// (spec: "that refers to an existing directory and has a declared
// schema").
func (v *Validator) ValidateSlot(ctx context.Context, node, slot, path string, required []string) error {
	if len(required) == 0 {
		return nil
	}
	if v.validated[path] {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return nil
	}

	r, err := underfolder.Open(path, v.Opts)
	if err != nil {
		return &ValidationError{Node: node, Slot: slot, Path: path, Cause: err}
	}
	samples, err := r.All(ctx)
	if err != nil {
		return &ValidationError{Node: node, Slot: slot, Path: path, Cause: err}
	}
	for i, s := range samples {
		for _, key := range required {
			if !s.Contains(key) {
				return &ValidationError{
					Node: node, Slot: slot, Path: path,
					Cause: fmt.Errorf("sample %d missing required key %q", i, key),
				}
			}
		}
	}
	v.validated[path] = true
	return nil
}

// ValidateNodeInputs validates every (input name, path) pair in node
// against its declared schemas.
func (v *Validator) ValidateNodeInputs(ctx context.Context, name string, node piperconfig.NodeSpec) error {
	return v.validateSection(ctx, name, node.Inputs, node.Schemas)
}

// ValidateNodeOutputs validates every (output name, path) pair in node
// against its declared schemas, run after the child exits successfully
// (spec §4.9 step 5).
func (v *Validator) ValidateNodeOutputs(ctx context.Context, name string, node piperconfig.NodeSpec) error {
	return v.validateSection(ctx, name, node.Outputs, node.Schemas)
}

func (v *Validator) validateSection(ctx context.Context, name string, section map[string]interface{}, schemas map[string][]string) error {
	for _, slot := range sortedKeys(section) {
		path, ok := section[slot].(string)
		if !ok {
			continue
		}
		if err := v.ValidateSlot(ctx, name, slot, path, schemas[slot]); err != nil {
			return err
		}
	}
	return nil
}
