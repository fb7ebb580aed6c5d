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
	"plugin"

	"github.com/eyecan-ai/pipelime-sub000/pkg/sample"
	"github.com/eyecan-ai/pipelime-sub000/pkg/sequence"
)

// ScriptFilterSymbol is the exported symbol a FilterByScript plugin must
// provide: func(context.Context, sample.Sample) (bool, error).
const ScriptFilterSymbol = "Filter"

// ScriptFunc is the predicate shape a user-supplied filter script exposes.
type ScriptFunc func(ctx context.Context, s sample.Sample) (bool, error)

// LoadScriptFilter opens a Go plugin at path and resolves its Filter
// symbol (spec §4.7: "invoke a user-supplied function loaded from a
// path"). The predicate itself is opaque compiled code, never an
// evaluated expression, matching the DSL-wide "never eval" rule.
func LoadScriptFilter(path string) (ScriptFunc, error) {
	p, err := plugin.Open(path)
	if err != nil {
		return nil, fmt.Errorf("operation: filter-by-script: opening %q: %w", path, err)
	}
	sym, err := p.Lookup(ScriptFilterSymbol)
	if err != nil {
		return nil, fmt.Errorf("operation: filter-by-script: %q has no %q symbol: %w", path, ScriptFilterSymbol, err)
	}
	fn, ok := sym.(func(context.Context, sample.Sample) (bool, error))
	if !ok {
		return nil, fmt.Errorf("operation: filter-by-script: %q's %q symbol has the wrong signature", path, ScriptFilterSymbol)
	}
	return fn, nil
}

// FilterByScript keeps only the samples fn accepts (spec §4.7).
func FilterByScript(ctx context.Context, source sequence.Sequence, fn ScriptFunc) (sequence.Sequence, error) {
	return sequence.NewFiltered(ctx, source, func(ctx context.Context, s sample.Sample) (bool, error) {
		return fn(ctx, s)
	})
}

func registerFilterByScript(r *Registry) {
	r.Register(Operation{
		Name: "FilterByScript",
		Sig:  Signature{Inputs: []PortKind{PortSequence}, Outputs: []PortKind{PortSequence}},
		Fn: func(ctx context.Context, in []Value, params map[string]interface{}) ([]Value, error) {
			fn, err := LoadScriptFilter(paramString(params, "script_path", ""))
			if err != nil {
				return nil, err
			}
			out, err := FilterByScript(ctx, in[0].Sequence, fn)
			if err != nil {
				return nil, err
			}
			return []Value{seqValue(out)}, nil
		},
	})
}
