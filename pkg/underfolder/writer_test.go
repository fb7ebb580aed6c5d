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
	"os"
	"path/filepath"
	"testing"

	"github.com/eyecan-ai/pipelime-sub000/pkg/sample"
)

func buildSequenceFixture(n int) []sample.Sample {
	samples := make([]sample.Sample, n)
	for i := 0; i < n; i++ {
		s := sample.NewBasic(i)
		s.Set("label", map[string]interface{}{"value": i})
		s.Set("metadata", map[string]interface{}{"name": "sample"})
		samples[i] = s
	}
	return samples
}

func TestRoundtripWriteThenRead(t *testing.T) {
	ctx := context.Background()
	root := buildFixture(t, 4, true)
	r, err := Open(root, Options{})
	if err != nil {
		t.Fatal(err)
	}
	out := t.TempDir()
	w := NewWriterFromReader(out, r, WriterOptions{})

	seq := &passthroughSequence{r: r}
	if err := w.Write(ctx, seq); err != nil {
		t.Fatal(err)
	}

	r2, err := Open(out, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if r2.Len() != r.Len() {
		t.Fatalf("expected %d samples after roundtrip, got %d", r.Len(), r2.Len())
	}
	for i := 0; i < r.Len(); i++ {
		s1, err := r.At(ctx, i)
		if err != nil {
			t.Fatal(err)
		}
		s2, err := r2.At(ctx, i)
		if err != nil {
			t.Fatal(err)
		}
		if s1.ID() != s2.ID() {
			t.Fatalf("id mismatch at %d: %v != %v", i, s1.ID(), s2.ID())
		}
		for _, k := range s1.Keys() {
			if !s2.Contains(k) {
				t.Fatalf("roundtrip dropped key %q at sample %d", k, i)
			}
		}
	}
	rootVal, err := r2.Root(ctx, "info")
	if err != nil {
		t.Fatal(err)
	}
	if rootVal == nil {
		t.Fatal("expected root file to survive the roundtrip")
	}
}

// passthroughSequence adapts a *Reader to sequence.Sequence without
// pulling in the sequence package's proxy types, keeping this test
// focused on the writer/reader contract.
type passthroughSequence struct{ r *Reader }

func (p *passthroughSequence) Len() int { return p.r.Len() }
func (p *passthroughSequence) At(ctx context.Context, i int) (sample.Sample, error) {
	return p.r.At(ctx, i)
}
func (p *passthroughSequence) All(ctx context.Context) ([]sample.Sample, error) { return p.r.All(ctx) }

func TestWriteRejectsUnmappedExtension(t *testing.T) {
	ctx := context.Background()
	out := t.TempDir()
	samples := buildSequenceFixture(2)
	w := NewWriter(out, WriterOptions{})
	err := w.Write(ctx, &memSequence{samples: samples})
	if err == nil {
		t.Fatal("expected an error writing a key with no extension mapping")
	}
}

func TestWriteWithLegacyDefaultExtension(t *testing.T) {
	ctx := context.Background()
	out := t.TempDir()
	samples := buildSequenceFixture(2)
	w := NewWriter(out, WriterOptions{LegacyDefaultExtension: "yml"})
	if err := w.Write(ctx, &memSequence{samples: samples}); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(out, "data", "0_label.yml")); err != nil {
		t.Fatalf("expected data file to exist: %v", err)
	}
}

func TestWriteRootKeysAreWrittenOnce(t *testing.T) {
	ctx := context.Background()
	out := t.TempDir()
	samples := make([]sample.Sample, 3)
	for i := range samples {
		s := sample.NewBasic(i)
		s.Set("shared", map[string]interface{}{"v": 1})
		s.Set("label", map[string]interface{}{"v": i})
		samples[i] = s
	}
	tmpl := newTemplate()
	tmpl.ExtensionMap["shared"] = "yml"
	tmpl.ExtensionMap["label"] = "yml"
	tmpl.RootKeys["shared"] = true
	w := NewWriter(out, WriterOptions{Template: tmpl, Workers: -1})
	if err := w.Write(ctx, &memSequence{samples: samples}); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(out, "shared.yml")); err != nil {
		t.Fatalf("expected shared.yml root file: %v", err)
	}
	for i := range samples {
		if _, err := os.Stat(filepath.Join(out, "data", itoaPad(i, 1)+"_shared.yml")); err == nil {
			t.Fatalf("root key must not be written into data/ for sample %d", i)
		}
	}
}

type memSequence struct{ samples []sample.Sample }

func (m *memSequence) Len() int { return len(m.samples) }
func (m *memSequence) At(ctx context.Context, i int) (sample.Sample, error) {
	return m.samples[i], nil
}
func (m *memSequence) All(ctx context.Context) ([]sample.Sample, error) { return m.samples, nil }
