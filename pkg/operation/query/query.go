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

// Package query implements the dotted-path comparison DSL samples are
// filtered by (SPEC_FULL.md supplement #1, grounded on
// original_source/examples/underfolder/filter_by_script and the general
// FilterByQuery usage across the examples): `<dotted.path> <op> <literal>`.
// A small recursive-descent parser handles the grammar directly; there is
// no general expression evaluator and no user code is ever invoked
// (Design Notes: "never eval user strings").
package query

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/eyecan-ai/pipelime-sub000/pkg/sample"
)

// Op is a comparison operator.
type Op string

const (
	Eq Op = "=="
	Ne Op = "!="
	Lt Op = "<"
	Le Op = "<="
	Gt Op = ">"
	Ge Op = ">="
)

// Expr is a parsed "<dotted.path> <op> <literal>" query.
type Expr struct {
	Path    []string
	Op      Op
	Literal interface{}
}

// Parse parses s into an Expr. The grammar is fixed: a dotted path (no
// operator characters), whitespace, one of the six comparison operators,
// whitespace, and a YAML scalar literal (string/int/float/bool).
func Parse(s string) (*Expr, error) {
	s = strings.TrimSpace(s)
	opIdx, op, opLen := findOperator(s)
	if opIdx < 0 {
		return nil, fmt.Errorf("query: no comparison operator found in %q", s)
	}
	pathStr := strings.TrimSpace(s[:opIdx])
	litStr := strings.TrimSpace(s[opIdx+opLen:])
	if pathStr == "" {
		return nil, fmt.Errorf("query: missing dotted path in %q", s)
	}
	if litStr == "" {
		return nil, fmt.Errorf("query: missing literal in %q", s)
	}
	lit, err := parseLiteral(litStr)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	return &Expr{Path: strings.Split(pathStr, "."), Op: op, Literal: lit}, nil
}

// findOperator returns the start index, operator, and byte length of the
// first comparison operator in s, preferring two-character operators over
// their single-character prefixes.
func findOperator(s string) (int, Op, int) {
	for i := 0; i < len(s); i++ {
		if i+1 < len(s) {
			two := s[i : i+2]
			switch two {
			case "==":
				return i, Eq, 2
			case "!=":
				return i, Ne, 2
			case "<=":
				return i, Le, 2
			case ">=":
				return i, Ge, 2
			}
		}
		switch s[i] {
		case '<':
			return i, Lt, 1
		case '>':
			return i, Gt, 1
		}
	}
	return -1, "", 0
}

func parseLiteral(s string) (interface{}, error) {
	if len(s) >= 2 && (s[0] == '"' && s[len(s)-1] == '"' || s[0] == '\'' && s[len(s)-1] == '\'') {
		return s[1 : len(s)-1], nil
	}
	switch s {
	case "true", "True", "TRUE":
		return true, nil
	case "false", "False", "FALSE":
		return false, nil
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f, nil
	}
	return s, nil
}

// Eval resolves e.Path against s (descending through decoded
// maps/metadata for nested segments) and compares the result to
// e.Literal using e.Op.
func (e *Expr) Eval(ctx context.Context, s sample.Sample) (bool, error) {
	v, err := Resolve(ctx, s, e.Path)
	if err != nil {
		return false, err
	}
	return compare(v, e.Op, e.Literal)
}

// Resolve descends a dotted path into a sample: the first segment is a
// sample key, subsequent segments index into the decoded value (a
// map[string]interface{}, as produced by the markup codec).
func Resolve(ctx context.Context, s sample.Sample, path []string) (interface{}, error) {
	if len(path) == 0 {
		return nil, fmt.Errorf("query: empty path")
	}
	v, err := s.Get(ctx, path[0])
	if err != nil {
		return nil, err
	}
	for _, seg := range path[1:] {
		m, ok := asStringMap(v)
		if !ok {
			return nil, fmt.Errorf("query: cannot descend into %q: not a mapping", seg)
		}
		v, ok = m[seg]
		if !ok {
			return nil, fmt.Errorf("query: key %q not found", seg)
		}
	}
	return v, nil
}

func asStringMap(v interface{}) (map[string]interface{}, bool) {
	switch m := v.(type) {
	case map[string]interface{}:
		return m, true
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(m))
		for k, val := range m {
			ks, ok := k.(string)
			if !ok {
				return nil, false
			}
			out[ks] = val
		}
		return out, true
	default:
		return nil, false
	}
}

func compare(v interface{}, op Op, lit interface{}) (bool, error) {
	if fv, fok := toFloat(v); fok {
		if fl, lok := toFloat(lit); lok {
			return compareFloat(fv, op, fl)
		}
	}
	if bv, bok := v.(bool); bok {
		if bl, lok := lit.(bool); lok {
			return compareBool(bv, op, bl)
		}
	}
	sv := fmt.Sprintf("%v", v)
	sl := fmt.Sprintf("%v", lit)
	return compareString(sv, op, sl)
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	default:
		return 0, false
	}
}

func compareFloat(a float64, op Op, b float64) (bool, error) {
	switch op {
	case Eq:
		return a == b, nil
	case Ne:
		return a != b, nil
	case Lt:
		return a < b, nil
	case Le:
		return a <= b, nil
	case Gt:
		return a > b, nil
	case Ge:
		return a >= b, nil
	default:
		return false, fmt.Errorf("query: unknown operator %q", op)
	}
}

func compareBool(a bool, op Op, b bool) (bool, error) {
	switch op {
	case Eq:
		return a == b, nil
	case Ne:
		return a != b, nil
	default:
		return false, fmt.Errorf("query: operator %q is not defined for booleans", op)
	}
}

func compareString(a string, op Op, b string) (bool, error) {
	switch op {
	case Eq:
		return a == b, nil
	case Ne:
		return a != b, nil
	case Lt:
		return a < b, nil
	case Le:
		return a <= b, nil
	case Gt:
		return a > b, nil
	case Ge:
		return a >= b, nil
	default:
		return false, fmt.Errorf("query: unknown operator %q", op)
	}
}
