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

func TestBuildCommandLineScalarAndToken(t *testing.T) {
	spec := piperconfig.NodeSpec{
		Command: []string{"proc", "run"},
		Inputs:  map[string]interface{}{"src": "in/"},
		Outputs: map[string]interface{}{"dst": "out/"},
		Args:    map[string]interface{}{"factor": 2},
	}
	argv := BuildCommandLine(spec, "tok-123")

	want := []string{
		"proc", "run",
		"--src", "in/",
		"--dst", "out/",
		"--factor", "2",
		FlagPiperInputs, "src",
		FlagPiperOutputs, "dst",
		FlagPiperToken, "tok-123",
	}
	if !reflect.DeepEqual(argv, want) {
		t.Fatalf("expected %v, got %v", want, argv)
	}
}

func TestBuildCommandLineListValue(t *testing.T) {
	spec := piperconfig.NodeSpec{
		Command: []string{"proc"},
		Args:    map[string]interface{}{"keys": []interface{}{"a", "b", "c"}},
	}
	argv := BuildCommandLine(spec, "")
	want := []string{"proc", "--keys", "a", "--keys", "b", "--keys", "c"}
	if !reflect.DeepEqual(argv, want) {
		t.Fatalf("expected %v, got %v", want, argv)
	}
}

func TestBuildCommandLineTupleValue(t *testing.T) {
	spec := piperconfig.NodeSpec{
		Command: []string{"proc"},
		Args: map[string]interface{}{
			"shape": []interface{}{[]interface{}{1, 2}, []interface{}{3, 4}},
		},
	}
	argv := BuildCommandLine(spec, "")
	want := []string{"proc", "--shape", "1", "2", "--shape", "3", "4"}
	if !reflect.DeepEqual(argv, want) {
		t.Fatalf("expected %v, got %v", want, argv)
	}
}

func TestBuildCommandLineMapValue(t *testing.T) {
	spec := piperconfig.NodeSpec{
		Command: []string{"proc"},
		Args: map[string]interface{}{
			"opts": map[string]interface{}{"b": 2, "a": 1},
		},
	}
	argv := BuildCommandLine(spec, "")
	want := []string{"proc", "--opts", "a", "1", "b", "2"}
	if !reflect.DeepEqual(argv, want) {
		t.Fatalf("expected %v, got %v", want, argv)
	}
}
