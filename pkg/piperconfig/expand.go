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

package piperconfig

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

var noIter = iterContext{}

// Expand runs the four expansion passes of spec §4.8 over cfg and
// returns the fully-expanded node set, ready for pkg/pipergraph to build
// a DAG from.
func Expand(cfg Config) (map[string]NodeSpec, error) {
	// Pass 1: global $var substitution. $iter tokens are left untouched
	// since no foreach scope exists yet at this point.
	substituted := make(map[string]map[string]interface{}, len(cfg.Nodes))
	for name, raw := range cfg.Nodes {
		sv, err := substitute(map[string]interface{}(raw), cfg.Params, noIter, true, false)
		if err != nil {
			return nil, fmt.Errorf("piperconfig: node %q: %w", name, err)
		}
		substituted[name] = sv.(map[string]interface{})
	}

	// Pass 2: per-node foreach expansion into `<name>@<index>` siblings.
	expandedRaw := make(map[string]map[string]interface{})
	for name, raw := range substituted {
		feRaw, hasForeach := raw["foreach"]
		if !hasForeach {
			expandedRaw[name] = raw
			continue
		}
		feMap, ok := feRaw.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("piperconfig: node %q: \"foreach\" must be a mapping", name)
		}
		items, ok := feMap["items"].([]interface{})
		if !ok {
			return nil, fmt.Errorf("piperconfig: node %q: \"foreach.items\" must be a list", name)
		}
		do, ok := feMap["do"].(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("piperconfig: node %q: \"foreach.do\" must be a mapping", name)
		}
		for i, item := range items {
			iter := iterContext{active: true, index: i, item: item}
			dv, err := substitute(do, cfg.Params, iter, true, true)
			if err != nil {
				return nil, fmt.Errorf("piperconfig: node %q[%d]: %w", name, i, err)
			}
			genName := fmt.Sprintf("%s@%d", name, i)
			expandedRaw[genName] = dv.(map[string]interface{})
		}
	}

	// Pass 3 (nested foreach), then decode and the leftover-token check,
	// then pass 4 (argument fusion).
	final := make(map[string]NodeSpec, len(expandedRaw))
	for name, raw := range expandedRaw {
		nested, err := expandNestedForeach(raw)
		if err != nil {
			return nil, fmt.Errorf("piperconfig: node %q: %w", name, err)
		}
		spec, err := decodeNodeSpec(RawNode(nested.(map[string]interface{})))
		if err != nil {
			return nil, fmt.Errorf("piperconfig: node %q: %w", name, err)
		}
		for _, field := range []map[string]interface{}{spec.Args, spec.Inputs, spec.Outputs} {
			if err := checkNoLeftoverTokens(field); err != nil {
				return nil, fmt.Errorf("piperconfig: node %q: %w", name, err)
			}
		}
		for _, keys := range spec.Schemas {
			for _, k := range keys {
				if err := checkNoLeftoverTokens(k); err != nil {
					return nil, fmt.Errorf("piperconfig: node %q: %w", name, err)
				}
			}
		}
		spec.Args = fuseArguments(spec.Args)
		spec.Inputs = fuseArguments(spec.Inputs)
		spec.Outputs = fuseArguments(spec.Outputs)
		final[name] = spec
	}
	return final, nil
}

// expandNestedForeach walks v looking for values that are themselves a
// single-key {foreach: {items, do}} mapping (spec §4.8 pass 3) and
// replaces each with the list of its expanded, per-item "do" values.
func expandNestedForeach(v interface{}) (interface{}, error) {
	switch vv := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(vv))
		for k, val := range vv {
			if feMap, ok := asForeachSpec(val); ok {
				items, ok := feMap["items"].([]interface{})
				if !ok {
					return nil, fmt.Errorf("nested foreach at key %q: \"items\" must be a list", k)
				}
				do := feMap["do"]
				list := make([]interface{}, len(items))
				for i, item := range items {
					iter := iterContext{active: true, index: i, item: item}
					dv, err := substitute(do, nil, iter, true, true)
					if err != nil {
						return nil, fmt.Errorf("nested foreach at key %q[%d]: %w", k, i, err)
					}
					ev, err := expandNestedForeach(dv)
					if err != nil {
						return nil, err
					}
					list[i] = ev
				}
				out[k] = list
				continue
			}
			ev, err := expandNestedForeach(val)
			if err != nil {
				return nil, err
			}
			out[k] = ev
		}
		return out, nil
	case []interface{}:
		out := make([]interface{}, len(vv))
		for i, val := range vv {
			ev, err := expandNestedForeach(val)
			if err != nil {
				return nil, err
			}
			out[i] = ev
		}
		return out, nil
	default:
		return v, nil
	}
}

func asForeachSpec(v interface{}) (map[string]interface{}, bool) {
	m, ok := v.(map[string]interface{})
	if !ok || len(m) != 1 {
		return nil, false
	}
	fe, ok := m["foreach"]
	if !ok {
		return nil, false
	}
	feMap, ok := fe.(map[string]interface{})
	return feMap, ok
}

// fuseArguments implements spec §4.8 pass 4: keys of the form
// `<name>@<index>` with equal-length list values are fused into a single
// `name` key whose value is the list of per-index tuples formed by
// zipping the indexed values. Keys that don't fit that shape pass
// through unchanged.
func fuseArguments(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	groups := make(map[string]map[int][]interface{})
	var groupOrder []string
	passthrough := make(map[string]interface{})

	for k, v := range m {
		name, idx, ok := splitFusionKey(k)
		if !ok {
			passthrough[k] = v
			continue
		}
		list, ok := v.([]interface{})
		if !ok {
			passthrough[k] = v
			continue
		}
		if _, seen := groups[name]; !seen {
			groupOrder = append(groupOrder, name)
			groups[name] = make(map[int][]interface{})
		}
		groups[name][idx] = list
	}
	sort.Strings(groupOrder)

	out := make(map[string]interface{}, len(passthrough)+len(groupOrder))
	for k, v := range passthrough {
		out[k] = v
	}
	for _, name := range groupOrder {
		byIdx := groups[name]
		indices := make([]int, 0, len(byIdx))
		for i := range byIdx {
			indices = append(indices, i)
		}
		sort.Ints(indices)

		length := len(byIdx[indices[0]])
		equalLength := true
		for _, i := range indices {
			if len(byIdx[i]) != length {
				equalLength = false
				break
			}
		}
		if !equalLength {
			for _, i := range indices {
				out[fmt.Sprintf("%s@%d", name, i)] = byIdx[i]
			}
			continue
		}
		tuples := make([]interface{}, length)
		for pos := 0; pos < length; pos++ {
			tuple := make([]interface{}, len(indices))
			for ti, i := range indices {
				tuple[ti] = byIdx[i][pos]
			}
			tuples[pos] = tuple
		}
		out[name] = tuples
	}
	return out
}

// checkNoLeftoverTokens catches a $iter used outside any foreach scope:
// by design every $var is resolved (or errors) in pass 1, and every
// foreach.do subtree is consumed by pass 2/3, so the only way a
// placeholder survives to this point is a bare $iter with no enclosing
// foreach at all.
func checkNoLeftoverTokens(v interface{}) error {
	switch vv := v.(type) {
	case string:
		if m := tokenPattern.FindStringSubmatch(vv); m != nil {
			return fmt.Errorf("unresolved placeholder $%s(%s) (likely $iter used outside a foreach scope)", m[1], m[2])
		}
	case map[string]interface{}:
		for _, val := range vv {
			if err := checkNoLeftoverTokens(val); err != nil {
				return err
			}
		}
	case []interface{}:
		for _, val := range vv {
			if err := checkNoLeftoverTokens(val); err != nil {
				return err
			}
		}
	}
	return nil
}

func splitFusionKey(k string) (name string, index int, ok bool) {
	at := strings.LastIndex(k, "@")
	if at < 0 {
		return "", 0, false
	}
	idx, err := strconv.Atoi(k[at+1:])
	if err != nil {
		return "", 0, false
	}
	return k[:at], idx, true
}
