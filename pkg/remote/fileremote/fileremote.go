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

// Package fileremote implements the "file" scheme remote backend (spec
// §4.2/§6): blobs are stored as plain files under a directory named by
// base_path, with the per-base_path hash algorithm persisted in a
// ".pl/tags.json" sidecar. Modeled on perkeep's localdisk storage
// (pkg/blobserver/localdisk/localdisk.go): validate the root exists, keep
// a small JSON metadata sidecar the way localdisk keeps a generation file.
package fileremote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/eyecan-ai/pipelime-sub000/pkg/blob"
	"github.com/eyecan-ai/pipelime-sub000/pkg/remote"
)

// Backend is the "file" scheme Remote implementation. A single Backend
// instance serves any number of base_path "buckets" rooted under its
// configured netloc directory, matching one instance per (scheme, netloc)
// in remote.Registry.
type Backend struct {
	root string // netloc interpreted as an absolute filesystem root

	mu   sync.Mutex
	tags map[string]blob.Algorithm // base_path -> algorithm, cached
}

// New returns a Backend rooted at root. root need not exist yet; it is
// created on first upload the way localdisk.New requires a pre-existing
// directory but pipelime buckets are created lazily per base_path instead.
func New(root string) (*Backend, error) {
	if root == "" {
		return nil, fmt.Errorf("fileremote: empty root")
	}
	return &Backend{root: root, tags: make(map[string]blob.Algorithm)}, nil
}

// Factory adapts New to remote.Factory for registration under the "file" scheme.
func Factory(netloc string, _ map[string]interface{}) (remote.Remote, error) {
	return New(netloc)
}

func (b *Backend) bucketDir(basePath string) string {
	return filepath.Join(b.root, filepath.FromSlash(basePath))
}

func (b *Backend) tagsPath(basePath string) string {
	return filepath.Join(b.bucketDir(basePath), ".pl", "tags.json")
}

type tagsFile struct {
	HashFn string `json:"__HASH_FN__"`
}

// BucketHashAlgorithm implements remote.HashAlgorithm: read-after-write,
// tolerating a lost update on concurrent first-uploaders by retrying the
// read (spec §5).
func (b *Backend) BucketHashAlgorithm(_ context.Context, basePath string) (blob.Algorithm, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if a, ok := b.tags[basePath]; ok {
		return a, nil
	}

	path := b.tagsPath(basePath)
	data, err := os.ReadFile(path)
	if err == nil {
		var tf tagsFile
		if jerr := json.Unmarshal(data, &tf); jerr == nil && tf.HashFn != "" {
			algo := blob.Algorithm(tf.HashFn)
			b.tags[basePath] = algo
			return algo, nil
		}
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("fileremote: reading %q: %w", path, err)
	}

	// Not present: persist the default, tolerating a concurrent writer.
	algo := blob.DefaultAlgorithm
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("fileremote: creating bucket metadata dir: %w", err)
	}
	payload, _ := json.Marshal(tagsFile{HashFn: string(algo)})
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return "", fmt.Errorf("fileremote: writing bucket metadata: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		// Lost the race to a concurrent first-uploader: re-read instead of failing.
		os.Remove(tmp)
		data, rerr := os.ReadFile(path)
		if rerr != nil {
			return "", fmt.Errorf("fileremote: reconciling bucket metadata race: %w", rerr)
		}
		var tf tagsFile
		if jerr := json.Unmarshal(data, &tf); jerr == nil && tf.HashFn != "" {
			algo = blob.Algorithm(tf.HashFn)
		}
	}
	b.tags[basePath] = algo
	return algo, nil
}

// UploadStream implements remote.Remote.
func (b *Backend) UploadStream(ctx context.Context, r io.Reader, _ int64, basePath, suffix string) (remote.URL, error) {
	algo, err := b.BucketHashAlgorithm(ctx, basePath)
	if err != nil {
		return remote.URL{}, err
	}

	staged, ref, err := remote.Stage(r, algo)
	if err != nil {
		return remote.URL{}, fmt.Errorf("fileremote: staging upload: %w", err)
	}
	defer remote.CleanupStaged(staged)

	name := ref.Digest + suffix
	dir := b.bucketDir(basePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return remote.URL{}, fmt.Errorf("fileremote: creating bucket dir: %w", err)
	}

	dest := filepath.Join(dir, name)
	// Idempotent: identical content hashes to the same name and simply
	// overwrites, per spec §4.2.
	out, err := os.Create(dest)
	if err != nil {
		return remote.URL{}, fmt.Errorf("fileremote: creating %q: %w", dest, err)
	}
	if _, err := io.Copy(out, staged); err != nil {
		out.Close()
		return remote.URL{}, fmt.Errorf("fileremote: writing %q: %w", dest, err)
	}
	if err := out.Close(); err != nil {
		return remote.URL{}, fmt.Errorf("fileremote: closing %q: %w", dest, err)
	}

	return remote.URL{
		Scheme:   "file",
		Netloc:   b.root,
		BasePath: basePath + "/" + name,
	}, nil
}

// DownloadStream implements remote.Remote.
func (b *Backend) DownloadStream(_ context.Context, w io.Writer, basePath, name string, offset int64) (bool, error) {
	path := filepath.Join(b.bucketDir(basePath), name)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("fileremote: opening %q: %w", path, err)
	}
	defer f.Close()

	if offset > 0 {
		if _, err := f.Seek(offset, io.SeekStart); err != nil {
			return false, fmt.Errorf("fileremote: seeking %q: %w", path, err)
		}
	}
	if _, err := io.Copy(w, f); err != nil {
		return false, fmt.Errorf("fileremote: reading %q: %w", path, err)
	}
	return true, nil
}

// IsValid implements remote.Remote.
func (b *Backend) IsValid() bool {
	return b.root != ""
}

var _ remote.Remote = (*Backend)(nil)
var _ remote.HashAlgorithm = (*Backend)(nil)
