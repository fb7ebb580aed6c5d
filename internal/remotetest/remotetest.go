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

// Package remotetest is a conformance battery for remote.Remote
// implementations, generalized from perkeep's
// pkg/blobserver/storagetest package: one Test function exercises every
// backend (fileremote, s3remote, and any future scheme) against the same
// upload/download/resume/miss behaviors instead of duplicating the
// checks per package.
package remotetest

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/eyecan-ai/pipelime-sub000/pkg/remote"
)

// Opts configures Test. New is required and returns the Remote under
// test plus an optional cleanup func, the same shape as storagetest.Opts.
// BasePath overrides the default "conformance" base path, needed by
// backends (s3remote) whose base path must name a real bucket.
type Opts struct {
	New      func(t *testing.T) (r remote.Remote, cleanup func())
	BasePath string
}

// Test runs the conformance battery against fn's Remote.
func Test(t *testing.T, fn func(t *testing.T) (remote.Remote, func())) {
	TestOpts(t, Opts{New: fn})
}

// TestOpts runs the conformance battery with full Opts.
func TestOpts(t *testing.T, opt Opts) {
	t.Helper()
	r, cleanup := opt.New(t)
	if cleanup != nil {
		defer cleanup()
	}
	ctx := context.Background()

	if !r.IsValid() {
		t.Fatalf("%T.IsValid() = false for a freshly constructed backend", r)
	}

	basePath := opt.BasePath
	if basePath == "" {
		basePath = "conformance"
	}
	payload := []byte("the quick brown fox jumps over the lazy dog")

	t.Run("UploadThenDownload", func(t *testing.T) {
		u, err := r.UploadStream(ctx, bytes.NewReader(payload), int64(len(payload)), basePath, ".txt")
		if err != nil {
			t.Fatalf("UploadStream: %v", err)
		}
		name, ok := objectName(basePath, u)
		if !ok {
			t.Fatalf("UploadStream returned BasePath %q, not prefixed by upload basePath %q", u.BasePath, basePath)
		}

		var got bytes.Buffer
		found, err := r.DownloadStream(ctx, &got, basePath, name, 0)
		if err != nil {
			t.Fatalf("DownloadStream: %v", err)
		}
		if !found {
			t.Fatal("DownloadStream reported the just-uploaded object missing")
		}
		if !bytes.Equal(got.Bytes(), payload) {
			t.Fatalf("DownloadStream returned %q, want %q", got.Bytes(), payload)
		}
	})

	t.Run("DownloadResumesFromOffset", func(t *testing.T) {
		u, err := r.UploadStream(ctx, bytes.NewReader(payload), int64(len(payload)), basePath, ".txt")
		if err != nil {
			t.Fatalf("UploadStream: %v", err)
		}
		name, ok := objectName(basePath, u)
		if !ok {
			t.Fatalf("UploadStream returned BasePath %q, not prefixed by upload basePath %q", u.BasePath, basePath)
		}

		const offset = 10
		var got bytes.Buffer
		found, err := r.DownloadStream(ctx, &got, basePath, name, offset)
		if err != nil {
			t.Fatalf("DownloadStream at offset %d: %v", offset, err)
		}
		if !found {
			t.Fatal("DownloadStream reported the object missing")
		}
		if !bytes.Equal(got.Bytes(), payload[offset:]) {
			t.Fatalf("DownloadStream at offset %d returned %q, want %q", offset, got.Bytes(), payload[offset:])
		}
	})

	t.Run("DownloadMissingObjectReportsNotFound", func(t *testing.T) {
		found, err := r.DownloadStream(ctx, io.Discard, basePath, "does-not-exist.txt", 0)
		if err != nil {
			t.Fatalf("DownloadStream of a missing object returned an error instead of found=false: %v", err)
		}
		if found {
			t.Fatal("DownloadStream reported a nonexistent object present")
		}
	})
}

// objectName recovers the name DownloadStream expects from an upload's
// returned URL, whose BasePath is "<uploadBasePath>/<name>" by the
// shared convention fileremote and s3remote both follow.
func objectName(uploadBasePath string, u remote.URL) (string, bool) {
	prefix := uploadBasePath + "/"
	if len(u.BasePath) <= len(prefix) || u.BasePath[:len(prefix)] != prefix {
		return "", false
	}
	return u.BasePath[len(prefix):], true
}
