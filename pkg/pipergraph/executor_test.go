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
	"context"
	"runtime"
	"testing"

	"github.com/eyecan-ai/pipelime-sub000/pkg/piperconfig"
	"github.com/eyecan-ai/pipelime-sub000/pkg/underfolder"
)

func TestExecutorRunsLayersInOrder(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("relies on /bin/true")
	}
	nodes := map[string]piperconfig.NodeSpec{
		"n1": {Command: []string{"/bin/true"}, Args: map[string]interface{}{}, Inputs: map[string]interface{}{}, Outputs: map[string]interface{}{}},
		"n2": {Command: []string{"/bin/true"}, Args: map[string]interface{}{}, Inputs: map[string]interface{}{}, Outputs: map[string]interface{}{}},
	}
	e := NewExecutor(underfolder.Options{})
	if err := e.Run(context.Background(), nodes); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestExecutorPropagatesChildFailure(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("relies on /bin/false")
	}
	nodes := map[string]piperconfig.NodeSpec{
		"n1": {Command: []string{"/bin/false"}, Args: map[string]interface{}{}, Inputs: map[string]interface{}{}, Outputs: map[string]interface{}{}},
	}
	e := NewExecutor(underfolder.Options{})
	err := e.Run(context.Background(), nodes)
	if err == nil {
		t.Fatal("expected the executor to surface a non-zero child exit")
	}
	if _, ok := err.(*ChildProcessError); !ok {
		t.Fatalf("expected *ChildProcessError, got %T: %v", err, err)
	}
}
