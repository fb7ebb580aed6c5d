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
	"fmt"

	"github.com/eyecan-ai/pipelime-sub000/pkg/sample"
)

// KeyRemap renames keys according to Remap (old -> new). Keys absent from
// the source sample are either silently skipped (RemoveMissing) or cause
// an error (spec §4.6/§C7 FilterKeys/RemapKeys share this flag contract).
type KeyRemap struct {
	Remap         map[string]string
	RemoveMissing bool
}

func (KeyRemap) Kind() string { return "key-remap" }

func (k KeyRemap) Apply(ctx context.Context, s sample.Sample) (sample.Sample, error) {
	out := sample.NewBasic(s.ID())
	remapped := make(map[string]bool, len(k.Remap))
	for oldKey, newKey := range k.Remap {
		remapped[oldKey] = true
		if !s.Contains(oldKey) {
			if k.RemoveMissing {
				continue
			}
			return nil, fmt.Errorf("stage: key-remap: missing key %q", oldKey)
		}
		copySampleKey(ctx, s, out, oldKey)
		if v, err := out.Get(ctx, oldKey); err == nil {
			out.Delete(oldKey)
			out.Set(newKey, v)
		}
	}
	for _, key := range s.Keys() {
		if remapped[key] {
			continue
		}
		copySampleKey(ctx, s, out, key)
	}
	return out, nil
}

func newKeyRemapFromConfig(cfg Config) (Stage, error) {
	raw, ok := cfg["remap"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("stage: key-remap: missing or malformed \"remap\" field")
	}
	remap := make(map[string]string, len(raw))
	for k, v := range raw {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("stage: key-remap: value for %q must be a string, got %T", k, v)
		}
		remap[k] = s
	}
	removeMissing, _ := cfg["remove_missing"].(bool)
	return KeyRemap{Remap: remap, RemoveMissing: removeMissing}, nil
}

var _ Stage = KeyRemap{}
