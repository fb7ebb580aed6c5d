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
	"fmt"
	"sort"

	"github.com/eyecan-ai/pipelime-sub000/pkg/piperconfig"
)

// Child-side hidden option names every Piper command exposes (spec §4.9).
const (
	FlagPiperInputs  = "---piper_inputs"
	FlagPiperOutputs = "---piper_outputs"
	FlagPiperToken   = "---piper_token"
	FlagPiperInfo    = "---piper_info"
)

// BuildCommandLine assembles a node's child process argv (spec §4.9 step
// 1-2): command tokens, then --<key> flags for args/inputs/outputs (keys
// visited in sorted order for reproducibility), then the reserved
// ---piper_token pair correlating emitted progress events to this run.
//
// Flag value shapes (spec §4.9 step 1): a plain string emits one
// "--key value" pair; a flat list emits the flag once per element; a
// fused "tuple" (an element of a list that is itself a list — the shape
// piperconfig's argument fusion produces) emits the flag once followed
// by every element of the tuple; a map emits the flag followed by its
// key/value pairs in sorted-key order.
func BuildCommandLine(node piperconfig.NodeSpec, token string) []string {
	argv := append([]string{}, node.Command...)

	argv = appendFlags(argv, node.Inputs)
	argv = appendFlags(argv, node.Outputs)
	argv = appendFlags(argv, node.Args)

	if len(node.Inputs) > 0 {
		argv = append(argv, FlagPiperInputs)
		argv = append(argv, sortedKeys(node.Inputs)...)
	}
	if len(node.Outputs) > 0 {
		argv = append(argv, FlagPiperOutputs)
		argv = append(argv, sortedKeys(node.Outputs)...)
	}
	if token != "" {
		argv = append(argv, FlagPiperToken, token)
	}
	return argv
}

func appendFlags(argv []string, m map[string]interface{}) []string {
	for _, key := range sortedKeys(m) {
		argv = append(argv, flagTokens(key, m[key])...)
	}
	return argv
}

func flagTokens(key string, v interface{}) []string {
	flag := "--" + key
	switch vv := v.(type) {
	case []interface{}:
		var out []string
		for _, el := range vv {
			if tuple, ok := el.([]interface{}); ok {
				out = append(out, flag)
				for _, t := range tuple {
					out = append(out, fmt.Sprintf("%v", t))
				}
				continue
			}
			out = append(out, flag, fmt.Sprintf("%v", el))
		}
		return out
	case map[string]interface{}:
		out := []string{flag}
		for _, k := range sortedKeys(vv) {
			out = append(out, k, fmt.Sprintf("%v", vv[k]))
		}
		return out
	default:
		return []string{flag, fmt.Sprintf("%v", vv)}
	}
}

func sortedKeys(m map[string]interface{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
