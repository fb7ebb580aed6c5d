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
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/eyecan-ai/pipelime-sub000/pkg/codec"
	"github.com/eyecan-ai/pipelime-sub000/pkg/item"
	"github.com/eyecan-ai/pipelime-sub000/pkg/sample"
	"github.com/eyecan-ai/pipelime-sub000/pkg/sequence"
)

// CopyMode selects how a file-backed value is transferred when the
// writer decides to copy rather than re-encode (spec §4.5).
type CopyMode int

const (
	DeepCopy CopyMode = iota
	Symlink
	Hardlink
)

// FileHandlingPolicy decides, per key, whether the writer re-encodes the
// in-memory value or transfers the underlying file (spec §4.5's v2 policy
// table; this port treats v2 as normative per the REDESIGN FLAGS).
type FileHandlingPolicy int

const (
	CopyIfNotCached FileHandlingPolicy = iota // default
	AlwaysWriteFromCache
	AlwaysCopyFromDisk
)

// WriterOptions configures a Writer.
type WriterOptions struct {
	Template         Template
	FileHandling     FileHandlingPolicy
	CopyMode         CopyMode
	ForceCopyKeys    map[string]bool
	RemoveDuplicates bool
	// Workers: 0 = sequential, -1 = runtime.NumCPU(), N>0 = N workers (spec §4.5).
	Workers int
	Codecs  *codec.Registry

	// StagesRawYAML, if non-nil, is written verbatim to _stages.yml
	// (round-trip fidelity, supplement #5).
	StagesRawYAML []byte
	// Links, if non-empty, is written verbatim to _underfolder_links.yml.
	Links []string

	// RootValues supplies decoded values for root keys that are not
	// present on any sample (the common case when the source reader
	// wasn't opened with CopyRootFiles): Write falls back to these after
	// the per-sample pass so root files still round-trip (supplement #3).
	RootValues map[string]interface{}

	// LegacyDefaultExtension, if set, is used for any key missing from
	// Template.ExtensionMap instead of raising (the v1 writer's
	// "fall back to pickle" behavior, folded into v2 as an explicit opt-in
	// per Open Question decision #1 rather than a parallel writer type).
	LegacyDefaultExtension string
}

func (o WriterOptions) withDefaults() WriterOptions {
	if o.Codecs == nil {
		o.Codecs = codec.NewRegistry()
	}
	if o.Template.ExtensionMap == nil {
		o.Template.ExtensionMap = make(map[string]string)
	}
	if o.Template.RootKeys == nil {
		o.Template.RootKeys = make(map[string]bool)
	}
	if o.ForceCopyKeys == nil {
		o.ForceCopyKeys = make(map[string]bool)
	}
	return o
}

// Writer writes a sequence.Sequence to an Underfolder root (spec §4.5).
type Writer struct {
	root string
	opts WriterOptions

	writtenRootsMu sync.Mutex
	writtenRoots   map[string]bool
}

// NewWriter returns a Writer for root.
func NewWriter(root string, opts WriterOptions) *Writer {
	return &Writer{root: root, opts: opts.withDefaults(), writtenRoots: make(map[string]bool)}
}

// NewWriterFromReader builds a Writer reusing r's template, carrying over
// its private-plugin bytes for round-trip fidelity, unless opts already
// set those fields explicitly (supplement #3/#5 of SPEC_FULL.md).
func NewWriterFromReader(root string, r *Reader, opts WriterOptions) *Writer {
	if opts.Template.ExtensionMap == nil {
		opts.Template = r.Template()
	}
	if opts.StagesRawYAML == nil {
		opts.StagesRawYAML = r.stagesRawYAML
	}
	if opts.Links == nil {
		opts.Links = r.linkedRoots
	}
	if opts.RootValues == nil {
		opts.RootValues = make(map[string]interface{})
		ctx := context.Background()
		for _, key := range r.RootKeys() {
			if v, err := r.Root(ctx, key); err == nil {
				opts.RootValues[key] = v
			}
		}
	}
	return NewWriter(root, opts)
}

// Write encodes every sample of seq into the writer's root (spec §4.5).
// A per-sample failure aborts the whole write with the offending sample
// id; already-written files are not rolled back.
func (w *Writer) Write(ctx context.Context, seq sequence.Sequence) error {
	dataDir := filepath.Join(w.root, "data")
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return &Error{Op: "write", Root: w.root, Cause: err}
	}

	width := w.opts.Template.IndexWidth
	if bz := sequence.BestZfillWidth(seq); bz > width {
		width = bz
	}

	if w.opts.StagesRawYAML != nil {
		if err := os.WriteFile(filepath.Join(w.root, "_stages.yml"), w.opts.StagesRawYAML, 0o644); err != nil {
			return &Error{Op: "write", Root: w.root, Cause: err}
		}
	}
	if len(w.opts.Links) > 0 {
		if err := writeLinksFile(linksFilePath(w.root), w.opts.Links); err != nil {
			return &Error{Op: "write", Root: w.root, Cause: err}
		}
	}

	n := seq.Len()
	workers := w.opts.Workers
	switch {
	case workers < 0:
		workers = runtime.NumCPU()
	case workers == 0:
		workers = 1
	}

	jobs := make(chan int)
	errCap := n
	if errCap < 1 {
		errCap = 1
	}
	errs := make(chan error, errCap)
	stop := make(chan struct{})
	var stopOnce sync.Once
	fail := func(err error) {
		errs <- err
		stopOnce.Do(func() { close(stop) })
	}
	var wg sync.WaitGroup
	for wi := 0; wi < workers; wi++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				s, err := seq.At(ctx, i)
				if err != nil {
					fail(err)
					continue
				}
				if err := w.writeSample(ctx, s, width); err != nil {
					fail(fmt.Errorf("underfolder: writing sample %v: %w", s.ID(), err))
				}
			}
		}()
	}
	go func() {
		defer close(jobs)
		for i := 0; i < n; i++ {
			select {
			case jobs <- i:
			case <-stop:
				return
			}
		}
	}()
	wg.Wait()
	close(errs)
	for err := range errs {
		return &Error{Op: "write", Root: w.root, Cause: err}
	}

	if err := w.writeRemainingRootValues(); err != nil {
		return &Error{Op: "write", Root: w.root, Cause: err}
	}
	return nil
}

// writeRemainingRootValues writes any root key that no sample happened to
// carry (typically because the source reader wasn't opened with
// CopyRootFiles) from opts.RootValues, so root files still round-trip
// (supplement #3 of SPEC_FULL.md).
func (w *Writer) writeRemainingRootValues() error {
	for key := range w.opts.Template.RootKeys {
		if !w.claimRoot(key) {
			continue
		}
		v, ok := w.opts.RootValues[key]
		if !ok {
			continue
		}
		ext := w.opts.Template.ExtensionMap[key]
		f, err := os.Create(filepath.Join(w.root, rootFilename(key, ext, false)))
		if err != nil {
			return err
		}
		defer f.Close()
		if err := w.opts.Codecs.Encode(key, ext, f, v); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) writeSample(ctx context.Context, s sample.Sample, width int) error {
	basename := formatBasename(s.ID(), width)

	for _, key := range s.Keys() {
		ext, ok := w.opts.Template.ExtensionMap[key]
		if !ok {
			if w.opts.LegacyDefaultExtension == "" {
				return fmt.Errorf("underfolder: no extension mapping for key %q (v2 writer has no default codec)", key)
			}
			ext = w.opts.LegacyDefaultExtension
		}
		isRoot := w.opts.Template.RootKeys[key]

		var dest string
		if isRoot {
			dest = filepath.Join(w.root, rootFilename(key, ext, false))
			if !w.claimRoot(key) {
				continue
			}
		} else {
			dest = filepath.Join(w.root, "data", dataFilename(basename, key, ext))
		}

		if w.opts.RemoveDuplicates && !isRoot {
			if err := removeSiblingSuffixes(filepath.Dir(dest), filepath.Base(dest)); err != nil {
				return err
			}
		}

		if err := w.writeKey(ctx, s, key, ext, dest); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) claimRoot(key string) bool {
	w.writtenRootsMu.Lock()
	defer w.writtenRootsMu.Unlock()
	if w.writtenRoots[key] {
		return false
	}
	w.writtenRoots[key] = true
	return true
}

func (w *Writer) writeKey(ctx context.Context, s sample.Sample, key, ext, dest string) error {
	meta, hasMeta := s.MetaItem(key)
	copyEligible := hasMeta && meta.Origin == item.OriginFile && strings.EqualFold(meta.Extension, ext)

	doCopy := false
	switch {
	case w.opts.ForceCopyKeys[key] && copyEligible:
		doCopy = true
	case w.opts.FileHandling == AlwaysCopyFromDisk && copyEligible:
		doCopy = true
	case w.opts.FileHandling == CopyIfNotCached && copyEligible && !s.IsCached(key):
		doCopy = true
	}

	if doCopy {
		return w.copyFile(meta.Path, dest)
	}
	v, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer f.Close()
	return w.opts.Codecs.Encode(key, ext, f, v)
}

func (w *Writer) copyFile(src, dst string) error {
	switch w.opts.CopyMode {
	case Symlink:
		if err := os.Symlink(src, dst); err != nil {
			return deepCopyFile(src, dst)
		}
		return nil
	case Hardlink:
		if err := os.Link(src, dst); err != nil {
			return deepCopyFile(src, dst)
		}
		return nil
	default:
		return deepCopyFile(src, dst)
	}
}

func deepCopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, in)
	return err
}

func removeSiblingSuffixes(dir, keepName string) error {
	stem := strings.TrimSuffix(keepName, filepath.Ext(keepName))
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, e := range entries {
		if e.IsDir() || e.Name() == keepName {
			continue
		}
		other := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		if other == stem {
			if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
				return err
			}
		}
	}
	return nil
}

func formatBasename(id interface{}, width int) string {
	switch v := id.(type) {
	case int:
		s := strconv.Itoa(v)
		if len(s) < width {
			s = strings.Repeat("0", width-len(s)) + s
		}
		return s
	case string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}
