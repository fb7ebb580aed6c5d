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
	"os"
	"path/filepath"
	"testing"

	"github.com/eyecan-ai/pipelime-sub000/pkg/underfolder"
)

func writeFixtureRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	dataDir := filepath.Join(root, "data")
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"0000_image.txt", "0001_image.txt"} {
		if err := os.WriteFile(filepath.Join(dataDir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func TestValidateSlotPassesWhenKeyPresent(t *testing.T) {
	root := writeFixtureRoot(t)
	v := NewValidator(underfolder.Options{})
	if err := v.ValidateSlot(context.Background(), "n1", "src", root, []string{"image"}); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
}

func TestValidateSlotFailsWhenKeyMissing(t *testing.T) {
	root := writeFixtureRoot(t)
	v := NewValidator(underfolder.Options{})
	err := v.ValidateSlot(context.Background(), "n1", "src", root, []string{"missing_key"})
	if err == nil {
		t.Fatal("expected a ValidationError for a missing required key")
	}
	if _, ok := err.(*ValidationError); !ok {
		t.Fatalf("expected *ValidationError, got %T: %v", err, err)
	}
}

func TestValidateSlotSkipsNonDirectoryPaths(t *testing.T) {
	v := NewValidator(underfolder.Options{})
	if err := v.ValidateSlot(context.Background(), "n1", "src", "/does/not/exist", []string{"image"}); err != nil {
		t.Fatalf("expected a missing path to be skipped, not errored: %v", err)
	}
}

func TestValidateSlotSkipsWhenNoSchemaDeclared(t *testing.T) {
	root := writeFixtureRoot(t)
	v := NewValidator(underfolder.Options{})
	if err := v.ValidateSlot(context.Background(), "n1", "src", root, nil); err != nil {
		t.Fatalf("expected no validation when no schema is declared: %v", err)
	}
}
