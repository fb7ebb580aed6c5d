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
	"path/filepath"
	"testing"
)

func buildSingleKeyFixture(t *testing.T, n int, key, value string) string {
	t.Helper()
	root := t.TempDir()
	for i := 0; i < n; i++ {
		mustWriteFile(t, filepath.Join(root, "data", itoaPad(i, 1)+"_"+key+".txt"), value)
	}
	return root
}

func TestLinkIsIdempotent(t *testing.T) {
	a := buildSingleKeyFixture(t, 3, "a", "1.0\n")
	b := buildSingleKeyFixture(t, 3, "b", "2.0\n")

	if err := Link(a, b); err != nil {
		t.Fatal(err)
	}
	links, err := readLinksFile(linksFilePath(a))
	if err != nil {
		t.Fatal(err)
	}
	if len(links) != 1 {
		t.Fatalf("expected 1 link, got %d", len(links))
	}

	if err := Link(a, b); err != nil {
		t.Fatal(err)
	}
	links, err = readLinksFile(linksFilePath(a))
	if err != nil {
		t.Fatal(err)
	}
	if len(links) != 1 {
		t.Fatalf("expected linking the same target twice to be a no-op, got %d links", len(links))
	}
}

func TestLinkMergeRightBiasedInLinkOrder(t *testing.T) {
	a := buildSingleKeyFixture(t, 5, "a", "1.0\n")
	b := buildSingleKeyFixture(t, 5, "x", "from-b\n")
	c := buildSingleKeyFixture(t, 5, "x", "from-c\n")

	if err := Link(a, b); err != nil {
		t.Fatal(err)
	}
	if err := Link(a, c); err != nil {
		t.Fatal(err)
	}

	r, err := Open(a, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if r.Len() != 5 {
		t.Fatalf("expected 5 merged samples, got %d", r.Len())
	}
	ctx := context.Background()
	s, err := r.At(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !s.Contains("a") {
		t.Fatal("expected own key 'a' to survive the merge")
	}
	meta, ok := s.MetaItem("x")
	if !ok || meta.Path == "" {
		t.Fatal("expected x to resolve to a file-backed item")
	}
	// link(A,B); link(A,C): the earlier-linked root (B) wins over the
	// later-linked one (C), per spec §8's merge(merge(C,B),A) order.
	if filepath.Dir(filepath.Dir(meta.Path)) != b {
		t.Fatalf("expected merged key 'x' to resolve to B's file, got %q (want under %q)", meta.Path, b)
	}
}

func TestLinkCycleIsFatal(t *testing.T) {
	a := buildSingleKeyFixture(t, 2, "a", "1.0\n")
	b := buildSingleKeyFixture(t, 2, "b", "2.0\n")

	if err := Link(a, b); err != nil {
		t.Fatal(err)
	}
	if err := Link(b, a); err != nil {
		t.Fatal(err)
	}

	if _, err := Open(a, Options{}); err == nil {
		t.Fatal("expected cycle in underfolder links to be a fatal error")
	}
}

func TestLinkSampleCountMismatch(t *testing.T) {
	a := buildSingleKeyFixture(t, 3, "a", "1.0\n")
	b := buildSingleKeyFixture(t, 5, "b", "2.0\n")

	if err := Link(a, b); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(a, Options{}); err == nil {
		t.Fatal("expected sample-count mismatch between linked roots to be fatal")
	}
}
