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
	"reflect"
	"testing"

	"github.com/eyecan-ai/pipelime-sub000/pkg/piperconfig"
)

func node(command []string, inputs, outputs map[string]interface{}) piperconfig.NodeSpec {
	return piperconfig.NodeSpec{Command: command, Inputs: inputs, Outputs: outputs, Args: map[string]interface{}{}, Schemas: map[string][]string{}}
}

func TestBuildAddsBipartiteEdges(t *testing.T) {
	nodes := map[string]piperconfig.NodeSpec{
		"n1": node([]string{"proc"}, map[string]interface{}{"src": "a"}, map[string]interface{}{"dst": "b"}),
	}
	g, err := Build(nodes)
	if err != nil {
		t.Fatal(err)
	}
	if names := g.OperationNames(); !reflect.DeepEqual(names, []string{"n1"}) {
		t.Fatalf("expected [n1], got %v", names)
	}
}

func TestLayersSingleChain(t *testing.T) {
	nodes := map[string]piperconfig.NodeSpec{
		"step1": node([]string{"proc"}, map[string]interface{}{"src": "a"}, map[string]interface{}{"dst": "b"}),
		"step2": node([]string{"proc"}, map[string]interface{}{"src": "b"}, map[string]interface{}{"dst": "c"}),
	}
	g, err := Build(nodes)
	if err != nil {
		t.Fatal(err)
	}
	layers, err := g.Layers()
	if err != nil {
		t.Fatal(err)
	}
	if len(layers) != 2 {
		t.Fatalf("expected 2 layers, got %d: %v", len(layers), layers)
	}
	if layers[0][0] != "step1" || layers[1][0] != "step2" {
		t.Fatalf("expected [step1] then [step2], got %v", layers)
	}
}

func TestLayersParallelOps(t *testing.T) {
	nodes := map[string]piperconfig.NodeSpec{
		"a": node([]string{"proc"}, map[string]interface{}{"src": "root"}, map[string]interface{}{"dst": "out_a"}),
		"b": node([]string{"proc"}, map[string]interface{}{"src": "root"}, map[string]interface{}{"dst": "out_b"}),
	}
	g, err := Build(nodes)
	if err != nil {
		t.Fatal(err)
	}
	layers, err := g.Layers()
	if err != nil {
		t.Fatal(err)
	}
	if len(layers) != 1 || len(layers[0]) != 2 {
		t.Fatalf("expected one layer of two ops, got %v", layers)
	}
}

func TestLayersDetectsCycle(t *testing.T) {
	nodes := map[string]piperconfig.NodeSpec{
		"n1": node([]string{"proc"}, map[string]interface{}{"src": "x"}, map[string]interface{}{"dst": "y"}),
		"n2": node([]string{"proc"}, map[string]interface{}{"src": "y"}, map[string]interface{}{"dst": "x"}),
	}
	g, err := Build(nodes)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := g.Layers(); err == nil {
		t.Fatal("expected a LayoutError for a cyclic operations-graph")
	} else if _, ok := err.(*LayoutError); !ok {
		t.Fatalf("expected *LayoutError, got %T: %v", err, err)
	}
}

func TestDataNamesFlattensListsAndMaps(t *testing.T) {
	m := map[string]interface{}{
		"list": []interface{}{"p1", "p2"},
		"map":  map[string]interface{}{"k1": "p3", "k2": "p4"},
		"str":  "p5",
	}
	got := dataNames(m)
	want := map[string]bool{"p1": true, "p2": true, "p3": true, "p4": true, "p5": true}
	if len(got) != len(want) {
		t.Fatalf("expected %d data names, got %v", len(want), got)
	}
	for _, n := range got {
		if !want[n] {
			t.Fatalf("unexpected data name %q", n)
		}
	}
}
