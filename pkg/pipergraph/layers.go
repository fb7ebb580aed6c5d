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
	"strings"
)

// Layers runs spec §4.9's layering algorithm over the graph: operation
// vertices whose predecessor data-vertices are all already "produced"
// form one layer; the loop repeats until no new operation becomes
// consumable. A cycle (or any unreachable operation) manifests as
// stalled progress before every operation is consumed, which is reported
// as a *LayoutError rather than silently returning a partial schedule.
func (pg *Graph) Layers() ([][]string, error) {
	predMap, err := pg.g.PredecessorMap()
	if err != nil {
		return nil, &LayoutError{Op: "predecessor-map", Cause: err}
	}
	adjMap, err := pg.g.AdjacencyMap()
	if err != nil {
		return nil, &LayoutError{Op: "adjacency-map", Cause: err}
	}

	produced := map[string]bool{}
	for v, preds := range predMap {
		if strings.HasPrefix(v, dataPrefix) && len(preds) == 0 {
			produced[v] = true
		}
	}

	allOps := pg.OperationNames()
	consumedOps := map[string]bool{}
	var layers [][]string

	for len(consumedOps) < len(allOps) {
		var consumable []string
		for _, name := range allOps {
			if consumedOps[name] {
				continue
			}
			opV := opPrefix + name
			satisfied := true
			for pred := range predMap[opV] {
				if !produced[pred] {
					satisfied = false
					break
				}
			}
			if satisfied {
				consumable = append(consumable, name)
			}
		}
		if len(consumable) == 0 {
			remaining := make([]string, 0)
			for _, name := range allOps {
				if !consumedOps[name] {
					remaining = append(remaining, name)
				}
			}
			sort.Strings(remaining)
			return nil, &LayoutError{
				Op:    "stall",
				Cause: fmt.Errorf("no progress possible; %d operation(s) never became consumable: %s", len(remaining), strings.Join(remaining, ", ")),
			}
		}
		sort.Strings(consumable)
		layers = append(layers, consumable)
		for _, name := range consumable {
			consumedOps[name] = true
			for succ := range adjMap[opPrefix+name] {
				produced[succ] = true
			}
		}
	}

	return layers, nil
}
