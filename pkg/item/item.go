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

// Package item implements pipelime's per-key lazy value (spec §3/§9): a
// sum type over {Cached(value), FileBacked(path, extension),
// Remote(urls, extension)}, generalized from perkeep's own lazy-blob
// model (a blob.Ref is resolved to bytes only when Open/ReadAll is
// called, see pkg/blobserver/stat.go's stat-then-fetch staging) to a
// lazy *decoded, typed* value cached on first access.
package item

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/eyecan-ai/pipelime-sub000/pkg/codec"
	"github.com/eyecan-ai/pipelime-sub000/pkg/remote"
)

// Origin identifies where an Item's value comes from (spec §3).
type Origin int

const (
	OriginMemory Origin = iota
	OriginFile
	OriginRemote
)

// Source describes an Item's backing without loading it, the
// MetaItem.source() contract of spec §4.3 ("idempotent and never
// triggers IO").
type Source struct {
	Origin    Origin
	Path      string   // OriginFile
	URLs      []string // OriginRemote, as written to the .remote file
	Extension string   // drives codec dispatch for File/Remote origins
}

// Item is one key's lazy value slot inside a Sample.
type Item struct {
	mu        sync.Mutex
	source    Source
	cached    bool
	value     interface{}
	codecs    *codec.Registry
	remotes   *remote.Registry
}

// NewMemory returns an Item whose value is already resident in memory.
func NewMemory(v interface{}) *Item {
	return &Item{source: Source{Origin: OriginMemory}, cached: true, value: v}
}

// NewFile returns an Item backed by a file on disk, decoded lazily by ext.
func NewFile(path, ext string, codecs *codec.Registry) *Item {
	return &Item{source: Source{Origin: OriginFile, Path: path, Extension: ext}, codecs: codecs}
}

// NewRemote returns an Item backed by a list of URLs (already parsed from
// a .remote placeholder), decoded lazily by trying each URL in order (spec
// §4.2: "Reader-side, decoding is deferred until first access and tries
// remotes in the listed order").
func NewRemote(urls []string, ext string, codecs *codec.Registry, remotes *remote.Registry) *Item {
	return &Item{source: Source{Origin: OriginRemote, URLs: urls, Extension: ext}, codecs: codecs, remotes: remotes}
}

// Source returns the Item's backing descriptor without triggering IO
// (invariant (a) of spec §4.3).
func (it *Item) Source() Source {
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.source
}

// IsCached reports whether Get has already materialized the value.
func (it *Item) IsCached() bool {
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.cached
}

// Get loads and caches the value on first access (spec §3's Sample.get
// contract, hoisted to the per-Item level).
func (it *Item) Get(ctx context.Context) (interface{}, error) {
	it.mu.Lock()
	defer it.mu.Unlock()
	if it.cached {
		return it.value, nil
	}
	v, err := it.load(ctx)
	if err != nil {
		return nil, err
	}
	it.value = v
	it.cached = true
	return v, nil
}

// Set overwrites the cached value, as if it had just been freshly loaded.
func (it *Item) Set(v interface{}) {
	it.mu.Lock()
	defer it.mu.Unlock()
	it.value = v
	it.cached = true
}

// Flush discards the cached value without touching the underlying source
// (spec §4.3's sample.flush()).
func (it *Item) Flush() {
	it.mu.Lock()
	defer it.mu.Unlock()
	if it.source.Origin == OriginMemory {
		// Memory items have no other backing to fall back to.
		return
	}
	it.cached = false
	it.value = nil
}

// Clone returns a new Item sharing the same source descriptor and cache
// state (used by Sample.Copy / Sample.Merge).
func (it *Item) Clone() *Item {
	it.mu.Lock()
	defer it.mu.Unlock()
	return &Item{source: it.source, cached: it.cached, value: it.value, codecs: it.codecs, remotes: it.remotes}
}

func (it *Item) load(ctx context.Context) (interface{}, error) {
	switch it.source.Origin {
	case OriginMemory:
		return it.value, nil
	case OriginFile:
		f, err := os.Open(it.source.Path)
		if err != nil {
			return nil, fmt.Errorf("item: opening %q: %w", it.source.Path, err)
		}
		defer f.Close()
		return it.codecs.Decode(it.source.Path, it.source.Extension, f)
	case OriginRemote:
		return it.resolveRemote(ctx)
	default:
		return nil, fmt.Errorf("item: unknown origin %v", it.source.Origin)
	}
}

// resolveRemote tries each URL in turn, decoding the first reachable
// payload by its own extension (spec §4.1's remote-category contract).
func (it *Item) resolveRemote(ctx context.Context) (interface{}, error) {
	if len(it.source.URLs) == 0 {
		return nil, fmt.Errorf("item: remote item has no URLs")
	}
	var lastErr error
	for _, raw := range it.source.URLs {
		u, err := remote.ParseURL(raw)
		if err != nil {
			lastErr = err
			continue
		}
		r, err := it.remotes.ForURL(u)
		if err != nil {
			lastErr = err
			continue
		}
		tmp, err := os.CreateTemp("", "pipelime-remote-fetch-*")
		if err != nil {
			lastErr = err
			continue
		}
		name := u.BasePath
		base := ""
		if idx := lastSlash(name); idx >= 0 {
			base, name = name[:idx], name[idx+1:]
		}
		ok, err := r.DownloadStream(ctx, tmp, base, name, 0)
		if err != nil || !ok {
			tmp.Close()
			os.Remove(tmp.Name())
			if err == nil {
				err = fmt.Errorf("not found")
			}
			lastErr = err
			continue
		}
		if _, err := tmp.Seek(0, 0); err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
			lastErr = err
			continue
		}
		v, err := it.codecs.Decode(raw, it.source.Extension, tmp)
		tmp.Close()
		os.Remove(tmp.Name())
		if err != nil {
			lastErr = err
			continue
		}
		return v, nil
	}
	return nil, fmt.Errorf("item: RemoteUnreachable: all %d URLs failed, last error: %w", len(it.source.URLs), lastErr)
}

func lastSlash(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '/' {
			return i
		}
	}
	return -1
}
