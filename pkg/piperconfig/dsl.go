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
	"regexp"
	"strconv"
	"strings"
)

var tokenPattern = regexp.MustCompile(`\$(var|iter)\(([^()]*)\)`)

// iterContext carries the enclosing foreach loop's current (index, item)
// pair; $iter is only resolvable inside one (spec §4.8).
type iterContext struct {
	active bool
	index  int
	item   interface{}
}

// resolveToken looks up a single $var/$iter token's referenced value.
func resolveToken(kind, arg string, params map[string]interface{}, iter iterContext) (interface{}, error) {
	switch kind {
	case "var":
		v, ok := lookupDotted(params, arg)
		if !ok {
			return nil, fmt.Errorf("piperconfig: $var(%s): path not found in params", arg)
		}
		return v, nil
	case "iter":
		if !iter.active {
			return nil, fmt.Errorf("piperconfig: $iter(%s) used outside a foreach scope", arg)
		}
		switch arg {
		case "index":
			return iter.index, nil
		case "item":
			return iter.item, nil
		default:
			return nil, fmt.Errorf("piperconfig: $iter(%s): key must be \"index\" or \"item\"", arg)
		}
	default:
		return nil, fmt.Errorf("piperconfig: unknown placeholder kind %q", kind)
	}
}

// resolveString applies the DSL's two resolution rules (spec §4.8): if s
// is entirely one placeholder, the referenced value is returned with its
// native type; otherwise every placeholder's string form is substituted
// into s and the rewritten string is returned. A token whose kind isn't
// enabled by allowVar/allowIter is left untouched: the global $var pass
// runs before foreach expansion exists, so any $iter token in a
// still-unexpanded `foreach.do` block must survive that pass literally.
func resolveString(s string, params map[string]interface{}, iter iterContext, allowVar, allowIter bool) (interface{}, error) {
	matches := tokenPattern.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return s, nil
	}
	allowed := func(kind string) bool {
		if kind == "var" {
			return allowVar
		}
		return allowIter
	}
	if len(matches) == 1 {
		m := matches[0]
		kind := s[m[2]:m[3]]
		if m[0] == 0 && m[1] == len(s) && allowed(kind) {
			arg := s[m[4]:m[5]]
			return resolveToken(kind, arg, params, iter)
		}
	}

	var b strings.Builder
	last := 0
	for _, m := range matches {
		b.WriteString(s[last:m[0]])
		kind := s[m[2]:m[3]]
		arg := s[m[4]:m[5]]
		if !allowed(kind) {
			b.WriteString(s[m[0]:m[1]])
			last = m[1]
			continue
		}
		v, err := resolveToken(kind, arg, params, iter)
		if err != nil {
			return nil, err
		}
		b.WriteString(fmt.Sprintf("%v", v))
		last = m[1]
	}
	b.WriteString(s[last:])
	return b.String(), nil
}

// substitute deep-walks v, resolving every string's placeholders.
func substitute(v interface{}, params map[string]interface{}, iter iterContext, allowVar, allowIter bool) (interface{}, error) {
	switch vv := v.(type) {
	case string:
		return resolveString(vv, params, iter, allowVar, allowIter)
	case map[string]interface{}:
		out := make(map[string]interface{}, len(vv))
		for k, val := range vv {
			r, err := substitute(val, params, iter, allowVar, allowIter)
			if err != nil {
				return nil, err
			}
			out[k] = r
		}
		return out, nil
	case []interface{}:
		out := make([]interface{}, len(vv))
		for i, val := range vv {
			r, err := substitute(val, params, iter, allowVar, allowIter)
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
		return out, nil
	default:
		return v, nil
	}
}

// lookupDotted resolves a dotted path against a nested
// map[string]interface{}, supporting plain integer list indices too.
func lookupDotted(root map[string]interface{}, path string) (interface{}, bool) {
	var cur interface{} = root
	for _, seg := range strings.Split(path, ".") {
		switch c := cur.(type) {
		case map[string]interface{}:
			v, ok := c[seg]
			if !ok {
				return nil, false
			}
			cur = v
		case []interface{}:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(c) {
				return nil, false
			}
			cur = c[idx]
		default:
			return nil, false
		}
	}
	return cur, true
}
