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

import "fmt"

// LayoutError is the taxonomy member spec §7 shares between underfolder
// layout violations and DAG structure violations: here, a cycle in the
// operations-graph or stalled progress before every operation is
// consumed.
type LayoutError struct {
	Op    string // "stall", "predecessor-map", "adjacency-map"
	Cause error
}

func (e *LayoutError) Error() string { return fmt.Sprintf("pipergraph: %s: %v", e.Op, e.Cause) }
func (e *LayoutError) Unwrap() error { return e.Cause }

// ValidationError is spec §7's ValidationError: a schema mismatch on a
// DAG input or output.
type ValidationError struct {
	Node string
	Slot string // the input/output name whose schema failed
	Path string // the underfolder root that failed validation
	Cause error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("pipergraph: node %q slot %q (%s): %v", e.Node, e.Slot, e.Path, e.Cause)
}
func (e *ValidationError) Unwrap() error { return e.Cause }

// ChildProcessError is spec §7's ChildProcessError: a non-zero exit from
// a spawned DAG node, carrying the captured stderr.
type ChildProcessError struct {
	Node   string
	Stderr string
	Cause  error
}

func (e *ChildProcessError) Error() string {
	return fmt.Sprintf("pipergraph: node %q failed: %v\n%s", e.Node, e.Cause, e.Stderr)
}
func (e *ChildProcessError) Unwrap() error { return e.Cause }
