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

package underfolder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/eyecan-ai/pipelime-sub000/pkg/codec"
)

func mustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func buildFixture(t *testing.T, n int, withRoot bool) string {
	t.Helper()
	root := t.TempDir()
	for i := 0; i < n; i++ {
		mustWriteFile(t, filepath.Join(root, "data", itoaPad(i, 4)+"_label.txt"), "1.0 2.0\n")
		mustWriteFile(t, filepath.Join(root, "data", itoaPad(i, 4)+"_metadata.yml"), "name: sample\n")
	}
	if withRoot {
		mustWriteFile(t, filepath.Join(root, "info.yml"), "dataset: fixture\n")
	}
	return root
}

func itoaPad(i, width int) string {
	return fmt.Sprintf("%0*d", width, i)
}

func TestOpenRequiresDataDir(t *testing.T) {
	root := t.TempDir()
	if _, err := Open(root, Options{}); err == nil {
		t.Fatal("expected error for missing data directory")
	}
}

func TestOpenBuildsSortedIntegerSamples(t *testing.T) {
	root := buildFixture(t, 5, false)
	r, err := Open(root, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if r.Len() != 5 {
		t.Fatalf("expected 5 samples, got %d", r.Len())
	}
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		s, err := r.At(ctx, i)
		if err != nil {
			t.Fatal(err)
		}
		if s.ID() != i {
			t.Fatalf("expected integer id %d, got %v (%T)", i, s.ID(), s.ID())
		}
		if !s.Contains("label") || !s.Contains("metadata") {
			t.Fatalf("sample %d missing expected keys: %v", i, s.Keys())
		}
	}
}

func TestOpenStringIDsWhenNotAllNumeric(t *testing.T) {
	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, "data", "foo_label.txt"), "1.0\n")
	mustWriteFile(t, filepath.Join(root, "data", "0001_label.txt"), "2.0\n")
	r, err := Open(root, Options{})
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	s0, err := r.At(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s0.ID().(string); !ok {
		t.Fatalf("expected string id when ids are mixed, got %T", s0.ID())
	}
}

func TestCopyRootFilesAugmentsSamples(t *testing.T) {
	root := buildFixture(t, 2, true)
	r, err := Open(root, Options{CopyRootFiles: true})
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	s, err := r.At(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !s.Contains("info") {
		t.Fatalf("expected root key 'info' to be copied into sample, keys=%v", s.Keys())
	}
	v, err := s.Get(ctx, "info")
	if err != nil {
		t.Fatal(err)
	}
	m, ok := v.(map[string]interface{})
	if !ok || m["dataset"] != "fixture" {
		t.Fatalf("unexpected root value: %#v", v)
	}
}

func TestCopyRootFilesOffByDefault(t *testing.T) {
	root := buildFixture(t, 1, true)
	r, err := Open(root, Options{})
	if err != nil {
		t.Fatal(err)
	}
	s, err := r.At(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if s.Contains("info") {
		t.Fatal("root files should not be copied into samples unless CopyRootFiles is set")
	}
	root2, err := r.Root(context.Background(), "info")
	if err != nil {
		t.Fatal(err)
	}
	if root2 == nil {
		t.Fatal("expected Root() to resolve the public root file directly")
	}
}

func TestTemplateIntrospection(t *testing.T) {
	root := buildFixture(t, 3, true)
	r, err := Open(root, Options{})
	if err != nil {
		t.Fatal(err)
	}
	tmpl := r.Template()
	if tmpl.ExtensionMap["label"] != "txt" || tmpl.ExtensionMap["metadata"] != "yml" {
		t.Fatalf("unexpected extension map: %#v", tmpl.ExtensionMap)
	}
	if !tmpl.RootKeys["info"] {
		t.Fatalf("expected info to be a root key: %#v", tmpl.RootKeys)
	}
	if tmpl.IndexWidth != 4 {
		t.Fatalf("expected index width 4, got %d", tmpl.IndexWidth)
	}
}

func TestOpenDefaultsRegistries(t *testing.T) {
	root := buildFixture(t, 1, false)
	opts := Options{Codecs: codec.NewRegistry()}
	if _, err := Open(root, opts); err != nil {
		t.Fatal(err)
	}
}
