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

// KeyFilter keeps (or, if Negate, drops) only the keys in Keys (spec §3/§4.6).
type KeyFilter struct {
	Keys   []string
	Negate bool
}

func (KeyFilter) Kind() string { return "key-filter" }

func (k KeyFilter) Apply(ctx context.Context, s sample.Sample) (sample.Sample, error) {
	allow := make(map[string]bool, len(k.Keys))
	for _, key := range k.Keys {
		allow[key] = true
	}
	out := sample.NewBasic(s.ID())
	for _, key := range s.Keys() {
		keep := allow[key]
		if k.Negate {
			keep = !keep
		}
		if !keep {
			continue
		}
		copySampleKey(ctx, s, out, key)
	}
	return out, nil
}

func newKeyFilterFromConfig(cfg Config) (Stage, error) {
	keys, err := stringSlice(cfg, "keys")
	if err != nil {
		return nil, err
	}
	negate, _ := cfg["negate"].(bool)
	return KeyFilter{Keys: keys, Negate: negate}, nil
}

func stringSlice(cfg Config, field string) ([]string, error) {
	raw, ok := cfg[field]
	if !ok {
		return nil, fmt.Errorf("stage: missing field %q", field)
	}
	list, ok := raw.([]interface{})
	if !ok {
		if strs, ok := raw.([]string); ok {
			return strs, nil
		}
		return nil, fmt.Errorf("stage: field %q must be a list, got %T", field, raw)
	}
	out := make([]string, len(list))
	for i, v := range list {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("stage: field %q element %d must be a string, got %T", field, i, v)
		}
		out[i] = s
	}
	return out, nil
}

// copySampleKey copies one key, preserving whatever value is currently
// resolvable (loading it if necessary) — stages operate on already-realized
// samples, not lazily-forwarded sources, since the key set itself changes.
func copySampleKey(ctx context.Context, src, dst sample.Sample, key string) {
	v, err := src.Get(ctx, key)
	if err != nil {
		return
	}
	dst.Set(key, v)
}

var _ Stage = KeyFilter{}
