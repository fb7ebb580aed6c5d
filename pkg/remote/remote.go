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

// Package remote implements pipelime's content-addressed remote storage
// layer (spec §4.2): pluggable backends reachable by URL, hash-based
// naming, and resumable downloads. The Remote interface and its registry
// are modeled on perkeep's blobserver.Storage / blobserver registry
// (pkg/blobserver/interface.go, pkg/blobserver/registry.go), adapted from
// a process-wide global to an explicit, per-Runtime value per the Design
// Notes' "no global singleton" directive.
package remote

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/eyecan-ai/pipelime-sub000/internal/logx"
	"github.com/eyecan-ai/pipelime-sub000/pkg/blob"
)

// Remote is the capability set a backend must provide (spec §4.2).
type Remote interface {
	// UploadStream uploads length bytes read from r, named by the content
	// digest of the stream plus suffix, under basePath. It returns the
	// resulting URL, or an error if the upload could not be completed.
	UploadStream(ctx context.Context, r io.Reader, length int64, basePath, suffix string) (URL, error)

	// DownloadStream writes the payload named "basePath/name" to w,
	// starting at offset (for resumable downloads). It reports whether
	// the object existed.
	DownloadStream(ctx context.Context, w io.Writer, basePath, name string, offset int64) (bool, error)

	// IsValid reports whether the backend is reachable and usable.
	IsValid() bool
}

// Key identifies a Remote instance by (scheme, netloc), the registry's
// lookup key (spec §4.2's "process-wide mapping (scheme, netloc) -> Remote").
type Key struct {
	Scheme string
	Netloc string
}

// Factory constructs a Remote for a (scheme, netloc) pair given backend
// options taken from the URL query string.
type Factory func(netloc string, opts map[string]interface{}) (Remote, error)

// Registry is a lazily-populated (scheme, netloc) -> Remote map. It is
// read-mostly after warm-up: entries are created at most once per key, on
// first CreateRemote call, per the Shared-resource policy in spec §5.
type Registry struct {
	mu        sync.Mutex
	factories map[string]Factory
	instances map[Key]Remote
}

// NewRegistry returns an empty Registry with no registered scheme factories.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		instances: make(map[Key]Remote),
	}
}

// RegisterScheme registers the factory used to construct Remotes for the
// given scheme. Registering the same scheme twice panics, mirroring
// perkeep's blobserver.RegisterStorageConstructor.
func (reg *Registry) RegisterScheme(scheme string, f Factory) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if _, ok := reg.factories[scheme]; ok {
		panic("remote: scheme already registered: " + scheme)
	}
	reg.factories[scheme] = f
}

// CreateRemote returns the Remote for (scheme, netloc), constructing it on
// first use via the registered factory. An unknown scheme resolves to a
// null Remote that logs and declines all operations (spec §4.2).
func (reg *Registry) CreateRemote(scheme, netloc string, opts map[string]interface{}) (Remote, error) {
	key := Key{Scheme: scheme, Netloc: netloc}

	reg.mu.Lock()
	if r, ok := reg.instances[key]; ok {
		reg.mu.Unlock()
		return r, nil
	}
	factory, known := reg.factories[scheme]
	reg.mu.Unlock()

	if !known {
		logx.Default().Printf("remote: no backend registered for scheme %q (netloc %q); using a null remote", scheme, netloc)
		null := nullRemote{scheme: scheme, netloc: netloc}
		reg.mu.Lock()
		reg.instances[key] = null
		reg.mu.Unlock()
		return null, nil
	}

	r, err := factory(netloc, opts)
	if err != nil {
		return nil, fmt.Errorf("remote: creating %s remote for %q: %w", scheme, netloc, err)
	}

	reg.mu.Lock()
	// Another goroutine may have raced us; keep whichever was first.
	if existing, ok := reg.instances[key]; ok {
		reg.mu.Unlock()
		return existing, nil
	}
	reg.instances[key] = r
	reg.mu.Unlock()
	return r, nil
}

// ForURL resolves the Remote serving u, creating it on first use.
func (reg *Registry) ForURL(u URL) (Remote, error) {
	return reg.CreateRemote(u.Scheme, u.Netloc, u.Options)
}

// nullRemote is returned for unregistered schemes; it declines everything.
type nullRemote struct {
	scheme, netloc string
}

func (n nullRemote) UploadStream(context.Context, io.Reader, int64, string, string) (URL, error) {
	return URL{}, fmt.Errorf("remote: no backend registered for scheme %q (netloc %q)", n.scheme, n.netloc)
}

func (n nullRemote) DownloadStream(context.Context, io.Writer, string, string, int64) (bool, error) {
	return false, fmt.Errorf("remote: no backend registered for scheme %q (netloc %q)", n.scheme, n.netloc)
}

func (n nullRemote) IsValid() bool { return false }

// HashAlgorithm is implemented by backends that persist a per-bucket hash
// algorithm tag (spec §4.2: "the remote selects a hash algorithm per
// base_path"). Backends without bucket-level metadata may omit it, in
// which case blob.DefaultAlgorithm is used.
type HashAlgorithm interface {
	// BucketHashAlgorithm returns the algorithm persisted for basePath,
	// creating and persisting blob.DefaultAlgorithm if none exists yet.
	BucketHashAlgorithm(ctx context.Context, basePath string) (blob.Algorithm, error)
}
