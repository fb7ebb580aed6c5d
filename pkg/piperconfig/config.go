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

// Package piperconfig decodes and expands a DAG configuration (spec
// §4.8/§6): a YAML mapping of {parser_name, params, nodes}, where each
// node's strings may embed the `$var(path)`/`$iter(index|item)`
// placeholder DSL. The node map's accessor shape generalizes
// `pkg/jsonconfig.Obj`'s "known-keys, accumulate-errors" discipline
// (ported here from a JSON object to a YAML-decoded mapping, since the
// wire format for this config is YAML per the DOMAIN STACK) without
// requiring config authors to declare every field up front.
package piperconfig

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// NodeSpec is one DAG node's fully-expanded configuration (spec §4.8's
// NodeSpec := {command, args?, inputs?, outputs?}; the optional
// `foreach` block is consumed by Expand and never survives into a
// NodeSpec — a node generated from one is just an ordinary node).
//
// Schemas is an optional node-local declaration of the required sample
// keys for named inputs/outputs (spec §4.9 step 3: "has a declared
// schema"; spec.md leaves the schema's wire shape unspecified, so it is
// declared alongside the node it governs rather than in a separate
// document — see DESIGN.md's Open Question decisions).
type NodeSpec struct {
	Command []string
	Args    map[string]interface{}
	Inputs  map[string]interface{}
	Outputs map[string]interface{}
	Schemas map[string][]string
}

// Config is the root DAG configuration mapping (spec §6).
type Config struct {
	ParserName string
	Params     map[string]interface{}
	Nodes      map[string]RawNode
}

// RawNode is a node's raw YAML value, kept undecoded until Expand runs
// (foreach expansion can still be pending at this point).
type RawNode map[string]interface{}

// Parse decodes raw YAML bytes into a Config.
func Parse(data []byte) (Config, error) {
	var doc struct {
		ParserName string                 `yaml:"parser_name"`
		Params     map[string]interface{} `yaml:"params"`
		Nodes      map[string]RawNode     `yaml:"nodes"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Config{}, fmt.Errorf("piperconfig: %w", err)
	}
	if doc.Nodes == nil {
		return Config{}, fmt.Errorf("piperconfig: missing required \"nodes\" section")
	}
	if doc.Params == nil {
		doc.Params = map[string]interface{}{}
	}
	return Config{ParserName: doc.ParserName, Params: doc.Params, Nodes: doc.Nodes}, nil
}

// decodeNodeSpec lifts a RawNode's well-known fields into a NodeSpec,
// leaving unrecognized fields ignored (a node-level analogue of
// jsonconfig.Obj.RequiredString/OptionalObject, without the separate
// known-keys bookkeeping since DAG nodes are not author-facing config
// files in the same sense camlistored's server config is).
func decodeNodeSpec(raw RawNode) (NodeSpec, error) {
	spec := NodeSpec{
		Args:    asMap(raw["args"]),
		Inputs:  asMap(raw["inputs"]),
		Outputs: asMap(raw["outputs"]),
		Schemas: map[string][]string{},
	}
	if cmd, ok := raw["command"]; ok {
		spec.Command = asStringList(cmd)
	} else {
		return NodeSpec{}, fmt.Errorf("piperconfig: node missing required field \"command\"")
	}
	if rawSchemas, ok := raw["schemas"].(map[string]interface{}); ok {
		for name, v := range rawSchemas {
			spec.Schemas[name] = asStringList(v)
		}
	}
	return spec, nil
}

func asMap(v interface{}) map[string]interface{} {
	if v == nil {
		return map[string]interface{}{}
	}
	m, ok := v.(map[string]interface{})
	if !ok {
		return map[string]interface{}{}
	}
	return m
}

func asStringList(v interface{}) []string {
	switch vv := v.(type) {
	case string:
		return []string{vv}
	case []interface{}:
		out := make([]string, 0, len(vv))
		for _, e := range vv {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
