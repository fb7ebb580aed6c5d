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

// Package operation implements pipelime's Sequence-to-Sequence catalog
// (spec §4.7): Sum, Mix, Subsample, Shuffle, Splits, FilterByQuery,
// SplitByQuery, FilterByScript, FilterKeys, RemapKeys, OrderBy, GroupBy,
// SplitByValue, ResetIndices and Identity. Each is exposed first as a
// plain, idiomatic Go function; Register additionally wraps it behind a
// Value/Signature pair so a caller can look an operation up by name and
// validate its port arity before invoking it,
// the way pkg/stage's Registry dispatches tagged Stage constructors.
package operation

import (
	"context"
	"fmt"
	"sync"

	"github.com/eyecan-ai/pipelime-sub000/pkg/sequence"
)

// PortKind classifies the shape a Value can take at a port.
type PortKind int

const (
	PortSequence PortKind = iota
	PortList
	PortDict
)

func (k PortKind) String() string {
	switch k {
	case PortSequence:
		return "sequence"
	case PortList:
		return "list"
	case PortDict:
		return "dict"
	default:
		return "unknown"
	}
}

// Value is the tagged union an Operation's generic Call passes across
// ports: exactly one of Sequence, List, Dict is populated, matching Kind.
type Value struct {
	Kind     PortKind
	Sequence sequence.Sequence
	List     []sequence.Sequence
	Dict     map[string]sequence.Sequence
}

func (v Value) validate() error {
	switch v.Kind {
	case PortSequence:
		if v.Sequence == nil {
			return fmt.Errorf("operation: sequence-kind value has a nil Sequence")
		}
	case PortList:
		if v.List == nil {
			return fmt.Errorf("operation: list-kind value has a nil List")
		}
	case PortDict:
		if v.Dict == nil {
			return fmt.Errorf("operation: dict-kind value has a nil Dict")
		}
	default:
		return fmt.Errorf("operation: unknown port kind %d", v.Kind)
	}
	return nil
}

// Signature declares an operation's input/output port arity (spec §4.7:
// "a lightweight static check enforced at call-time").
type Signature struct {
	Inputs  []PortKind
	Outputs []PortKind
}

// Func is the generic, port-checked shape every catalog entry can be
// wrapped as for table-driven dispatch. params carries an operation's
// non-sequence arguments (e.g. Subsample's stride, GroupBy's path) the
// way a DAG node's "args" section does (spec §4.8's NodeSpec).
type Func func(ctx context.Context, in []Value, params map[string]interface{}) ([]Value, error)

// Operation pairs a name and declared Signature with its Func.
type Operation struct {
	Name string
	Sig  Signature
	Fn   Func
}

// Call enforces arity/kind on in, runs Fn, then enforces arity/kind on
// the result.
func (op Operation) Call(ctx context.Context, in []Value, params map[string]interface{}) ([]Value, error) {
	if len(in) != len(op.Sig.Inputs) {
		return nil, fmt.Errorf("operation %s: expected %d input port(s), got %d", op.Name, len(op.Sig.Inputs), len(in))
	}
	for i, v := range in {
		if v.Kind != op.Sig.Inputs[i] {
			return nil, fmt.Errorf("operation %s: input port %d: expected %s, got %s", op.Name, i, op.Sig.Inputs[i], v.Kind)
		}
		if err := v.validate(); err != nil {
			return nil, fmt.Errorf("operation %s: input port %d: %w", op.Name, i, err)
		}
	}
	out, err := op.Fn(ctx, in, params)
	if err != nil {
		return nil, err
	}
	if len(out) != len(op.Sig.Outputs) {
		return nil, fmt.Errorf("operation %s: expected %d output port(s), produced %d", op.Name, len(op.Sig.Outputs), len(out))
	}
	for i, v := range out {
		if v.Kind != op.Sig.Outputs[i] {
			return nil, fmt.Errorf("operation %s: output port %d: expected %s, got %s", op.Name, i, op.Sig.Outputs[i], v.Kind)
		}
	}
	return out, nil
}

// Registry maps catalog names to Operations, for any in-process caller
// that wants to resolve an operation dynamically by name. The DAG
// executor in pkg/pipergraph does not use it.
type Registry struct {
	mu  sync.Mutex
	ops map[string]Operation
}

// NewRegistry returns a Registry with every built-in catalog entry
// registered under its spec §4.7 name.
func NewRegistry() *Registry {
	r := &Registry{ops: make(map[string]Operation)}
	registerBuiltins(r)
	return r
}

// Register adds or overwrites op under op.Name.
func (r *Registry) Register(op Operation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops[op.Name] = op
}

// Lookup returns the Operation registered under name.
func (r *Registry) Lookup(name string) (Operation, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	op, ok := r.ops[name]
	return op, ok
}

// Names lists every registered operation name.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.ops))
	for name := range r.ops {
		out = append(out, name)
	}
	return out
}

func seqValue(s sequence.Sequence) Value             { return Value{Kind: PortSequence, Sequence: s} }
func listValue(l []sequence.Sequence) Value          { return Value{Kind: PortList, List: l} }
func dictValue(d map[string]sequence.Sequence) Value { return Value{Kind: PortDict, Dict: d} }

func paramString(params map[string]interface{}, key, def string) string {
	if v, ok := params[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

func paramFloat(params map[string]interface{}, key string, def float64) float64 {
	switch v := params[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return def
	}
}

func paramInt(params map[string]interface{}, key string, def int) int {
	switch v := params[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return def
	}
}

func paramBool(params map[string]interface{}, key string, def bool) bool {
	if v, ok := params[key].(bool); ok {
		return v
	}
	return def
}

func paramStringSlice(params map[string]interface{}, key string) []string {
	raw, ok := params[key]
	if !ok {
		return nil
	}
	switch v := raw.(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
