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
	"sort"
	"strconv"

	"github.com/eyecan-ai/pipelime-sub000/pkg/codec"
	"github.com/eyecan-ai/pipelime-sub000/pkg/item"
	"github.com/eyecan-ai/pipelime-sub000/pkg/remote"
	"github.com/eyecan-ai/pipelime-sub000/pkg/sample"
	"github.com/eyecan-ai/pipelime-sub000/pkg/sequence"
	"github.com/eyecan-ai/pipelime-sub000/pkg/stage"
)

// Options configures a reader (and is reused as the writer's wiring
// dependencies for encode/upload-capable stages).
type Options struct {
	// CopyRootFiles augments every sample's key set with the public root
	// files (spec §4.5 step 4).
	CopyRootFiles bool
	Codecs        *codec.Registry
	Remotes       *remote.Registry
	Stages        *stage.Registry
}

func (o Options) withDefaults() Options {
	if o.Codecs == nil {
		o.Codecs = codec.NewRegistry()
	}
	if o.Remotes == nil {
		o.Remotes = remote.NewRegistry()
	}
	if o.Stages == nil {
		o.Stages = stage.NewRegistry()
	}
	return o
}

type fileRecord struct {
	Path string
	Ext  string
}

// Reader is a concrete sequence.Sequence over an Underfolder root (spec
// §3: "C6 is a concrete Sequence producing/consuming C3 samples").
type Reader struct {
	root     string
	opts     Options
	template Template
	seq      sequence.Sequence

	publicRootFiles  map[string]fileRecord
	privateRootFiles map[string]fileRecord

	stagesRawYAML []byte // round-trip bytes for the _stages.yml plugin, if present
	linkedRoots   []string
}

// Open reads root as an Underfolder (spec §4.5's reader algorithm).
func Open(root string, opts Options) (*Reader, error) {
	return openWithVisited(root, opts.withDefaults(), map[string]bool{})
}

func openWithVisited(root string, opts Options, visited map[string]bool) (*Reader, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, &Error{Op: "open", Root: root, Cause: err}
	}
	if visited[absRoot] {
		return nil, &Error{Op: "open", Root: root, Cause: fmt.Errorf("cycle detected in underfolder links")}
	}
	visited[absRoot] = true

	dataDir := filepath.Join(root, "data")
	info, err := os.Stat(dataDir)
	if err != nil || !info.IsDir() {
		return nil, &Error{Op: "open", Root: root, Cause: fmt.Errorf("missing data directory")}
	}

	dataEntries, err := os.ReadDir(dataDir)
	if err != nil {
		return nil, &Error{Op: "open", Root: root, Cause: err}
	}

	tree := make(map[string]map[string]fileRecord)
	for _, e := range dataEntries {
		if e.IsDir() {
			continue
		}
		id, key, ext, ok := parseDataFilename(e.Name())
		if !ok {
			continue
		}
		if tree[id] == nil {
			tree[id] = make(map[string]fileRecord)
		}
		tree[id][key] = fileRecord{Path: filepath.Join(dataDir, e.Name()), Ext: ext}
	}

	rootEntries, err := os.ReadDir(root)
	if err != nil {
		return nil, &Error{Op: "open", Root: root, Cause: err}
	}
	publicRootFiles := make(map[string]fileRecord)
	privateRootFiles := make(map[string]fileRecord)
	for _, e := range rootEntries {
		if e.IsDir() {
			continue
		}
		key, ext, private, ok := parseRootFilename(e.Name())
		if !ok {
			continue
		}
		rec := fileRecord{Path: filepath.Join(root, e.Name()), Ext: ext}
		if private {
			privateRootFiles[key] = rec
		} else {
			publicRootFiles[key] = rec
		}
	}

	ids := make([]string, 0, len(tree))
	for id := range tree {
		ids = append(ids, id)
	}
	allInt := len(ids) > 0
	for _, id := range ids {
		if _, err := strconv.Atoi(id); err != nil {
			allInt = false
			break
		}
	}
	if allInt {
		sort.Slice(ids, func(i, j int) bool {
			a, _ := strconv.Atoi(ids[i])
			b, _ := strconv.Atoi(ids[j])
			return a < b
		})
	} else {
		sort.Strings(ids)
	}

	samples := make([]sample.Sample, len(ids))
	template := newTemplate()
	for idx, idStr := range ids {
		var sampleID sample.ID = idStr
		if allInt {
			n, _ := strconv.Atoi(idStr)
			sampleID = n
		}
		s := sample.NewBasic(sampleID)
		for key, rec := range tree[idStr] {
			s.SetItem(key, item.NewFile(rec.Path, rec.Ext, opts.Codecs))
			if idx == 0 {
				template.ExtensionMap[key] = rec.Ext
			}
		}
		if opts.CopyRootFiles {
			for key, rec := range publicRootFiles {
				if !s.Contains(key) {
					s.SetItem(key, item.NewFile(rec.Path, rec.Ext, opts.Codecs))
				}
			}
		}
		samples[idx] = s
	}
	for key, rec := range publicRootFiles {
		template.RootKeys[key] = true
		template.ExtensionMap[key] = rec.Ext
	}
	if len(ids) > 0 {
		template.IndexWidth = len(ids[0])
	}

	r := &Reader{
		root: root, opts: opts, template: template,
		publicRootFiles: publicRootFiles, privateRootFiles: privateRootFiles,
	}
	base := sequence.NewBase(samples)
	r.seq = base

	if rec, ok := privateRootFiles["stages"]; ok {
		st, raw, err := loadStagesPlugin(rec.Path, opts.Stages)
		if err != nil {
			return nil, &Error{Op: "open", Root: root, Cause: err}
		}
		r.stagesRawYAML = raw
		r.seq = base.WithStage(st)
	}

	if rec, ok := privateRootFiles["underfolder_links"]; ok {
		links, err := readLinksFile(rec.Path)
		if err != nil {
			return nil, &Error{Op: "open", Root: root, Cause: err}
		}
		r.linkedRoots = links
		if err := r.applyLinks(links, opts, visited, samples); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// applyLinks recursively opens every linked root and right-biased-merges
// each sample into ownSamples (spec §4.5 step 5, "underfolder_links").
func (r *Reader) applyLinks(links []string, opts Options, visited map[string]bool, ownSamples []sample.Sample) error {
	var linkedReaders []*Reader
	for _, link := range links {
		childVisited := make(map[string]bool, len(visited))
		for k, v := range visited {
			childVisited[k] = v
		}
		lr, err := openWithVisited(link, opts, childVisited)
		if err != nil {
			return &Error{Op: "open", Root: r.root, Cause: fmt.Errorf("opening link %q: %w", link, err)}
		}
		if lr.Len() != len(ownSamples) {
			return &Error{Op: "open", Root: r.root, Cause: fmt.Errorf("linked root %q has %d samples, expected %d", link, lr.Len(), len(ownSamples))}
		}
		linkedReaders = append(linkedReaders, lr)
	}
	if len(linkedReaders) == 0 {
		return nil
	}

	ctx := context.Background()
	merged := make([]sample.Sample, len(ownSamples))
	for i := range ownSamples {
		// Earlier entries in the links list take precedence over later
		// ones, and the root's own sample always wins last (spec §8:
		// "reader of A ... merge(merge(read(C,i), read(B,i)), read(A,i))"
		// for link(A,B); link(A,C), i.e. link order B,C with A winning).
		cur, err := linkedReaders[len(linkedReaders)-1].At(ctx, i)
		if err != nil {
			return err
		}
		for idx := len(linkedReaders) - 2; idx >= 0; idx-- {
			other, err := linkedReaders[idx].At(ctx, i)
			if err != nil {
				return err
			}
			cur = cur.Merge(other)
		}
		merged[i] = cur.Merge(ownSamples[i])
	}
	r.seq = sequence.NewBase(merged)
	return nil
}

func (r *Reader) Len() int { return r.seq.Len() }

func (r *Reader) At(ctx context.Context, i int) (sample.Sample, error) { return r.seq.At(ctx, i) }

func (r *Reader) All(ctx context.Context) ([]sample.Sample, error) { return r.seq.All(ctx) }

// Template returns the (extension_map, root_keys, index_width) triple
// introspected from sample 0 (spec §4.5's get_reader_template()).
func (r *Reader) Template() Template { return r.template }

// Root returns the decoded value of a public root file, without going
// through CopyRootFiles augmentation.
func (r *Reader) Root(ctx context.Context, key string) (interface{}, error) {
	rec, ok := r.publicRootFiles[key]
	if !ok {
		return nil, fmt.Errorf("underfolder: no root file for key %q", key)
	}
	f, err := os.Open(rec.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return r.opts.Codecs.Decode(key, rec.Ext, f)
}

// RootKeys lists the public root file keys.
func (r *Reader) RootKeys() []string {
	keys := make([]string, 0, len(r.publicRootFiles))
	for k := range r.publicRootFiles {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var _ sequence.Sequence = (*Reader)(nil)
