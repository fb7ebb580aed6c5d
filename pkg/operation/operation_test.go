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

package operation

import (
	"context"
	"testing"

	"github.com/eyecan-ai/pipelime-sub000/pkg/sample"
	"github.com/eyecan-ai/pipelime-sub000/pkg/sequence"
)

func buildSamples(n int, keyPrefix string) []sample.Sample {
	out := make([]sample.Sample, n)
	for i := 0; i < n; i++ {
		s := sample.NewBasic(i)
		s.Set(keyPrefix, i)
		out[i] = s
	}
	return out
}

func TestSumConcatenates(t *testing.T) {
	a := sequence.NewBase(buildSamples(2, "a"))
	b := sequence.NewBase(buildSamples(3, "a"))
	out := Sum([]sequence.Sequence{a, b})
	if out.Len() != 5 {
		t.Fatalf("expected 5, got %d", out.Len())
	}
}

func TestMixMergesDisjointKeys(t *testing.T) {
	ctx := context.Background()
	a := sequence.NewBase(buildSamples(3, "a"))
	b := sequence.NewBase(buildSamples(3, "b"))
	out, err := Mix(ctx, []sequence.Sequence{a, b})
	if err != nil {
		t.Fatal(err)
	}
	s, err := out.At(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !s.Contains("a") || !s.Contains("b") {
		t.Fatalf("expected merged sample to contain both keys, got %v", s.Keys())
	}
}

func TestMixRejectsOverlappingKeys(t *testing.T) {
	ctx := context.Background()
	a := sequence.NewBase(buildSamples(2, "a"))
	b := sequence.NewBase(buildSamples(2, "a"))
	if _, err := Mix(ctx, []sequence.Sequence{a, b}); err == nil {
		t.Fatal("expected an error mixing sources with overlapping keys")
	}
}

func TestSubsampleStride(t *testing.T) {
	src := sequence.NewBase(buildSamples(10, "a"))
	out, err := Subsample(src, 3, 0)
	if err != nil {
		t.Fatal(err)
	}
	if out.Len() != 4 { // indices 0,3,6,9
		t.Fatalf("expected 4 samples, got %d", out.Len())
	}
}

func TestSubsampleRatio(t *testing.T) {
	src := sequence.NewBase(buildSamples(10, "a"))
	out, err := Subsample(src, 0.3, 0)
	if err != nil {
		t.Fatal(err)
	}
	if out.Len() != 3 {
		t.Fatalf("expected floor(0.3*10)=3, got %d", out.Len())
	}
}

func TestShuffleDeterministicWithSeed(t *testing.T) {
	ctx := context.Background()
	src := sequence.NewBase(buildSamples(20, "a"))
	out1 := Shuffle(src, 42)
	out2 := Shuffle(src, 42)
	for i := 0; i < out1.Len(); i++ {
		s1, _ := out1.At(ctx, i)
		s2, _ := out2.At(ctx, i)
		if s1.ID() != s2.ID() {
			t.Fatalf("same seed produced different order at %d: %v != %v", i, s1.ID(), s2.ID())
		}
	}
}

func TestSplitsSumsAndAbsorbsRemainder(t *testing.T) {
	src := sequence.NewBase(buildSamples(10, "a"))
	out, err := Splits(src, map[string]float64{"train": 0.7, "val": 0.3})
	if err != nil {
		t.Fatal(err)
	}
	total := 0
	for _, s := range out {
		total += s.Len()
	}
	if total != 10 {
		t.Fatalf("expected splits to cover all 10 samples, got %d", total)
	}
}

func TestSplitsRejectsBadRatios(t *testing.T) {
	src := sequence.NewBase(buildSamples(10, "a"))
	if _, err := Splits(src, map[string]float64{"train": 0.5, "val": 0.2}); err == nil {
		t.Fatal("expected an error for ratios not summing to 1.0")
	}
}

func TestFilterByQuery(t *testing.T) {
	ctx := context.Background()
	src := sequence.NewBase(buildSamples(5, "a"))
	out, err := FilterByQuery(ctx, src, "a >= 3")
	if err != nil {
		t.Fatal(err)
	}
	if out.Len() != 2 {
		t.Fatalf("expected 2 samples with a>=3, got %d", out.Len())
	}
}

func TestSplitByQueryPartitionsExhaustively(t *testing.T) {
	ctx := context.Background()
	src := sequence.NewBase(buildSamples(5, "a"))
	matched, unmatched, err := SplitByQuery(ctx, src, "a >= 3")
	if err != nil {
		t.Fatal(err)
	}
	if matched.Len()+unmatched.Len() != 5 {
		t.Fatalf("expected matched+unmatched to cover all samples, got %d+%d", matched.Len(), unmatched.Len())
	}
}

func TestFilterKeysNegate(t *testing.T) {
	ctx := context.Background()
	samples := make([]sample.Sample, 1)
	s := sample.NewBasic(0)
	s.Set("keep", 1)
	s.Set("drop", 2)
	samples[0] = s
	out := FilterKeys(sequence.NewBase(samples), []string{"drop"}, true)
	got, err := out.At(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Contains("keep") || got.Contains("drop") {
		t.Fatalf("expected only 'keep' to survive, got %v", got.Keys())
	}
}

func TestRemapKeysRenames(t *testing.T) {
	ctx := context.Background()
	s := sample.NewBasic(0)
	s.Set("old", 1)
	out := RemapKeys(sequence.NewBase([]sample.Sample{s}), map[string]string{"old": "new"}, false)
	got, err := out.At(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if got.Contains("old") || !got.Contains("new") {
		t.Fatalf("expected 'old' renamed to 'new', got %v", got.Keys())
	}
}

func TestOrderByDescending(t *testing.T) {
	ctx := context.Background()
	src := sequence.NewBase(buildSamples(5, "a"))
	out, err := OrderBy(ctx, src, []string{"a"}, true)
	if err != nil {
		t.Fatal(err)
	}
	first, _ := out.At(ctx, 0)
	last, _ := out.At(ctx, out.Len()-1)
	if first.ID() != 4 || last.ID() != 0 {
		t.Fatalf("expected descending order 4..0, got first=%v last=%v", first.ID(), last.ID())
	}
}

func TestGroupByGroupsByValue(t *testing.T) {
	ctx := context.Background()
	samples := make([]sample.Sample, 4)
	for i := range samples {
		s := sample.NewBasic(i)
		s.Set("bucket", i%2)
		samples[i] = s
	}
	out, err := GroupBy(ctx, sequence.NewBase(samples), "bucket", "", false)
	if err != nil {
		t.Fatal(err)
	}
	if out.Len() != 2 {
		t.Fatalf("expected 2 groups, got %d", out.Len())
	}
}

func TestGroupByFallbackForMissingValues(t *testing.T) {
	ctx := context.Background()
	s0 := sample.NewBasic(0)
	s0.Set("bucket", "a")
	s1 := sample.NewBasic(1) // no "bucket" key
	out, err := GroupBy(ctx, sequence.NewBase([]sample.Sample{s0, s1}), "bucket", "other", true)
	if err != nil {
		t.Fatal(err)
	}
	if out.Len() != 2 {
		t.Fatalf("expected 2 groups (a, other), got %d", out.Len())
	}
}

func TestGroupByWithoutFallbackErrorsOnMissingValue(t *testing.T) {
	ctx := context.Background()
	s1 := sample.NewBasic(1)
	if _, err := GroupBy(ctx, sequence.NewBase([]sample.Sample{s1}), "bucket", "", false); err == nil {
		t.Fatal("expected an error grouping by a missing path with no fallback")
	}
}

func TestSplitByValueReturnsSubsequences(t *testing.T) {
	ctx := context.Background()
	samples := make([]sample.Sample, 4)
	for i := range samples {
		s := sample.NewBasic(i)
		s.Set("bucket", i%2)
		samples[i] = s
	}
	out, err := SplitByValue(ctx, sequence.NewBase(samples), "bucket", "", false)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 sub-sequences, got %d", len(out))
	}
}

func TestResetIndicesIntCounter(t *testing.T) {
	ctx := context.Background()
	src := sequence.NewBase(buildSamples(3, "a"))
	out := ResetIndices(src, IntCounterIDs(100))
	for i := 0; i < out.Len(); i++ {
		s, err := out.At(ctx, i)
		if err != nil {
			t.Fatal(err)
		}
		if s.ID() != 100+i {
			t.Fatalf("expected reassigned id %d, got %v", 100+i, s.ID())
		}
	}
}

func TestIdentityReturnsSameSequence(t *testing.T) {
	src := sequence.NewBase(buildSamples(2, "a"))
	if Identity(src) != sequence.Sequence(src) {
		t.Fatal("expected Identity to return the same sequence")
	}
}

func TestRegistryEnforcesPortArity(t *testing.T) {
	r := NewRegistry()
	op, ok := r.Lookup("Sum")
	if !ok {
		t.Fatal("expected Sum to be registered")
	}
	_, err := op.Call(context.Background(), []Value{seqValue(sequence.NewBase(nil))}, nil)
	if err == nil {
		t.Fatal("expected a port-kind mismatch error passing a sequence where Sum wants a list")
	}
}

func TestRegistryCallsSumThroughGenericDispatch(t *testing.T) {
	r := NewRegistry()
	op, _ := r.Lookup("Sum")
	a := sequence.NewBase(buildSamples(2, "a"))
	b := sequence.NewBase(buildSamples(3, "a"))
	out, err := op.Call(context.Background(), []Value{listValue([]sequence.Sequence{a, b})}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if out[0].Sequence.Len() != 5 {
		t.Fatalf("expected concatenated length 5, got %d", out[0].Sequence.Len())
	}
}
