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
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"github.com/google/uuid"

	"github.com/eyecan-ai/pipelime-sub000/internal/logx"
	"github.com/eyecan-ai/pipelime-sub000/pkg/piperconfig"
	"github.com/eyecan-ai/pipelime-sub000/pkg/underfolder"
)

// Executor drives the naive, layer-sequential executor of spec §4.9: one
// layer at a time, every operation within a layer run to completion
// before the next layer starts (spec §5's "across layers, strict
// happens-before" guarantee). The operations within one layer also run
// one after another; Executor has no layer-parallel mode.
type Executor struct {
	Opts   underfolder.Options
	Logger logx.Logger
}

// NewExecutor returns an Executor sharing opts with the rest of a run,
// logging to logx.Default() unless the caller overrides e.Logger
// afterward.
func NewExecutor(opts underfolder.Options) *Executor {
	return &Executor{Opts: opts, Logger: logx.Default()}
}

// Run builds the bipartite graph from nodes, layers it, and executes
// every layer's operations in order (spec §4.9's "Execution protocol").
// A single node failure aborts the whole run without compensating
// actions (spec §5: "no compensating action").
func (e *Executor) Run(ctx context.Context, nodes map[string]piperconfig.NodeSpec) error {
	g, err := Build(nodes)
	if err != nil {
		return err
	}
	layers, err := g.Layers()
	if err != nil {
		return err
	}

	validator := NewValidator(e.Opts)
	for i, layer := range layers {
		e.Logger.Printf("piper: layer %d/%d: %v", i+1, len(layers), layer)
		for _, name := range layer {
			if err := e.runNode(ctx, validator, name, nodes[name]); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *Executor) runNode(ctx context.Context, validator *Validator, name string, spec piperconfig.NodeSpec) error {
	if err := validator.ValidateNodeInputs(ctx, name, spec); err != nil {
		return err
	}

	token := uuid.NewString()
	argv := BuildCommandLine(spec, token)
	if len(argv) == 0 {
		return &ChildProcessError{Node: name, Cause: fmt.Errorf("empty command")}
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	e.Logger.Printf("piper: node %q: %v", name, argv)
	if err := cmd.Run(); err != nil {
		return &ChildProcessError{Node: name, Stderr: stderr.String(), Cause: err}
	}

	return validator.ValidateNodeOutputs(ctx, name, spec)
}
