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

import "testing"

func TestParseRequiresNodes(t *testing.T) {
	if _, err := Parse([]byte("params: {}\n")); err == nil {
		t.Fatal("expected an error for a config missing \"nodes\"")
	}
}

func TestVarSubstitutionWholeString(t *testing.T) {
	cfg, err := Parse([]byte(`
params:
  count: 3
nodes:
  n1:
    command: "run"
    args:
      n: "$var(count)"
`))
	if err != nil {
		t.Fatal(err)
	}
	out, err := Expand(cfg)
	if err != nil {
		t.Fatal(err)
	}
	n1, ok := out["n1"]
	if !ok {
		t.Fatal("expected node n1")
	}
	if v, ok := n1.Args["n"].(int); !ok || v != 3 {
		t.Fatalf("expected args.n to be native int 3, got %#v", n1.Args["n"])
	}
}

func TestVarSubstitutionPartialString(t *testing.T) {
	cfg, err := Parse([]byte(`
params:
  name: world
nodes:
  n1:
    command: "run"
    args:
      greeting: "hello $var(name)!"
`))
	if err != nil {
		t.Fatal(err)
	}
	out, err := Expand(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if got := out["n1"].Args["greeting"]; got != "hello world!" {
		t.Fatalf("expected rewritten string, got %#v", got)
	}
}

func TestForeachExpandsOneNodePerItem(t *testing.T) {
	cfg, err := Parse([]byte(`
params: {}
nodes:
  work:
    foreach:
      items: [a, b, c]
      do:
        command: "run"
        args:
          item: "$iter(item)"
          index: "$iter(index)"
`))
	if err != nil {
		t.Fatal(err)
	}
	out, err := Expand(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 3 {
		t.Fatalf("expected 3 generated nodes, got %d", len(out))
	}
	n, ok := out["work@1"]
	if !ok {
		t.Fatalf("expected node \"work@1\", got %v", keysOf(out))
	}
	if n.Args["item"] != "b" {
		t.Fatalf("expected work@1's item to be \"b\", got %#v", n.Args["item"])
	}
	if n.Args["index"].(int) != 1 {
		t.Fatalf("expected work@1's index to be 1, got %#v", n.Args["index"])
	}
}

func keysOf(m map[string]NodeSpec) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestArgumentFusionZipsEqualLengthLists(t *testing.T) {
	m := map[string]interface{}{
		"x@0": []interface{}{1, 2, 3},
		"x@1": []interface{}{4, 5, 6},
	}
	out := fuseArguments(m)
	fused, ok := out["x"].([]interface{})
	if !ok {
		t.Fatalf("expected fused key \"x\", got %#v", out)
	}
	if len(fused) != 3 {
		t.Fatalf("expected 3 zipped tuples, got %d", len(fused))
	}
	first := fused[0].([]interface{})
	if first[0] != 1 || first[1] != 4 {
		t.Fatalf("expected first tuple [1,4], got %v", first)
	}
}

func TestArgumentFusionLeavesMismatchedLengthsAlone(t *testing.T) {
	m := map[string]interface{}{
		"x@0": []interface{}{1, 2},
		"x@1": []interface{}{3, 4, 5},
	}
	out := fuseArguments(m)
	if _, ok := out["x"]; ok {
		t.Fatal("did not expect fusion across mismatched-length lists")
	}
	if _, ok := out["x@0"]; !ok {
		t.Fatal("expected unfused keys to pass through")
	}
}

func TestNestedForeachExpandsInPlace(t *testing.T) {
	cfg, err := Parse([]byte(`
params: {}
nodes:
  n1:
    command: "run"
    inputs:
      xs:
        foreach:
          items: [10, 20]
          do: "$iter(item)"
`))
	if err != nil {
		t.Fatal(err)
	}
	out, err := Expand(cfg)
	if err != nil {
		t.Fatal(err)
	}
	xs, ok := out["n1"].Inputs["xs"].([]interface{})
	if !ok {
		t.Fatalf("expected nested foreach to expand into a list, got %#v", out["n1"].Inputs["xs"])
	}
	if len(xs) != 2 || xs[0] != 10 || xs[1] != 20 {
		t.Fatalf("expected [10 20], got %v", xs)
	}
}

func TestIterOutsideForeachErrors(t *testing.T) {
	cfg, err := Parse([]byte(`
params: {}
nodes:
  n1:
    command: "run"
    args:
      x: "$iter(index)"
`))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Expand(cfg); err == nil {
		t.Fatal("expected an error for $iter used outside a foreach scope")
	}
}
