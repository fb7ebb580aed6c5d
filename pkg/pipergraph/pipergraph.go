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

// Package pipergraph implements pipelime's DAG graph construction and
// topological executor (spec §4.9): each parsed node becomes an
// operation-vertex with directed edges to/from the data-vertices named by
// its inputs and outputs, and the executor drains the resulting bipartite
// graph one "layer" of simultaneously-runnable operations at a time. The
// bipartite op/data graph generalizes
// _examples/other_examples/cfe47b40_cpanato-wolfictl__pkg-internal-bundle-bundle.go.go's
// `graph.Edge[string]`-keyed task graph from a container-image build DAG
// to a sample-pipeline DAG.
package pipergraph

import (
	"fmt"
	"sort"

	"github.com/dominikbraun/graph"

	"github.com/eyecan-ai/pipelime-sub000/pkg/piperconfig"
)

const (
	opPrefix   = "op:"
	dataPrefix = "data:"
)

// Graph is the bipartite operation/data DAG built from a set of expanded
// NodeSpecs.
type Graph struct {
	g     graph.Graph[string, string]
	nodes map[string]piperconfig.NodeSpec // opVertex -> its NodeSpec
}

// Build constructs the bipartite graph described by spec §4.9: for every
// node, for every (input|output) value normalized to a list of data
// names, add a directed edge data(s) -> op(n) for inputs and op(n) ->
// data(s) for outputs.
func Build(nodes map[string]piperconfig.NodeSpec) (*Graph, error) {
	g := graph.New(graph.StringHash, graph.Directed())
	pg := &Graph{g: g, nodes: nodes}

	names := make([]string, 0, len(nodes))
	for name := range nodes {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := g.AddVertex(opPrefix + name); err != nil {
			return nil, fmt.Errorf("pipergraph: node %q: %w", name, err)
		}
	}

	addDataVertex := func(dataName string) error {
		v := dataPrefix + dataName
		if _, err := g.Vertex(v); err == nil {
			return nil
		}
		return g.AddVertex(v)
	}

	for _, name := range names {
		spec := nodes[name]
		opV := opPrefix + name

		inputs := dataNames(spec.Inputs)
		for _, dn := range inputs {
			if err := addDataVertex(dn); err != nil {
				return nil, fmt.Errorf("pipergraph: node %q input %q: %w", name, dn, err)
			}
			if err := g.AddEdge(dataPrefix+dn, opV); err != nil {
				return nil, fmt.Errorf("pipergraph: node %q input %q: %w", name, dn, err)
			}
		}

		outputs := dataNames(spec.Outputs)
		for _, dn := range outputs {
			if err := addDataVertex(dn); err != nil {
				return nil, fmt.Errorf("pipergraph: node %q output %q: %w", name, dn, err)
			}
			if err := g.AddEdge(opV, dataPrefix+dn); err != nil {
				return nil, fmt.Errorf("pipergraph: node %q output %q: %w", name, dn, err)
			}
		}
	}

	return pg, nil
}

// dataNames flattens a node's inputs or outputs map into the list of
// distinct data-node names it references (spec §4.9: "normalize to a list
// of strings"). Only string leaves name data nodes; non-string scalars
// (plain operation arguments accidentally placed under inputs/outputs)
// are skipped rather than mistaken for a path.
func dataNames(m map[string]interface{}) []string {
	var out []string
	seen := map[string]bool{}
	var walk func(v interface{})
	walk = func(v interface{}) {
		switch vv := v.(type) {
		case string:
			if !seen[vv] {
				seen[vv] = true
				out = append(out, vv)
			}
		case []interface{}:
			for _, e := range vv {
				walk(e)
			}
		case map[string]interface{}:
			keys := make([]string, 0, len(vv))
			for k := range vv {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				walk(vv[k])
			}
		}
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		walk(m[k])
	}
	return out
}

// OperationNames returns every operation-vertex name in the graph, sorted.
func (pg *Graph) OperationNames() []string {
	out := make([]string, 0, len(pg.nodes))
	for name := range pg.nodes {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// NodeSpec returns the NodeSpec an operation-vertex was built from.
func (pg *Graph) NodeSpec(name string) (piperconfig.NodeSpec, bool) {
	spec, ok := pg.nodes[name]
	return spec, ok
}
