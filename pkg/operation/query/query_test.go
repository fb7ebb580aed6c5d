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

package query

import (
	"context"
	"testing"

	"github.com/eyecan-ai/pipelime-sub000/pkg/sample"
)

func TestParseOperators(t *testing.T) {
	cases := map[string]Op{
		"a.b == 1":  Eq,
		"a.b != 1":  Ne,
		"a.b <= 1":  Le,
		"a.b >= 1":  Ge,
		"a.b < 1":   Lt,
		"a.b > 1":   Gt,
	}
	for s, want := range cases {
		e, err := Parse(s)
		if err != nil {
			t.Fatalf("Parse(%q): %v", s, err)
		}
		if e.Op != want {
			t.Fatalf("Parse(%q).Op = %v, want %v", s, e.Op, want)
		}
	}
}

func TestParseRejectsMissingOperator(t *testing.T) {
	if _, err := Parse("a.b.c"); err == nil {
		t.Fatal("expected an error for a query with no operator")
	}
}

func TestEvalNestedPath(t *testing.T) {
	s := sample.NewBasic(0)
	s.Set("metadata", map[string]interface{}{"label": map[string]interface{}{"value": 3}})

	e, err := Parse("metadata.label.value >= 2")
	if err != nil {
		t.Fatal(err)
	}
	ok, err := e.Eval(context.Background(), s)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected metadata.label.value >= 2 to hold")
	}
}

func TestEvalStringEquality(t *testing.T) {
	s := sample.NewBasic(0)
	s.Set("tag", "train")

	e, err := Parse(`tag == "train"`)
	if err != nil {
		t.Fatal(err)
	}
	ok, err := e.Eval(context.Background(), s)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected tag == \"train\" to hold")
	}
}

func TestEvalMissingKeyErrors(t *testing.T) {
	s := sample.NewBasic(0)
	e, err := Parse("missing == 1")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.Eval(context.Background(), s); err == nil {
		t.Fatal("expected an error resolving a missing key")
	}
}
