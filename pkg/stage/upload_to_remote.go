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

package stage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/eyecan-ai/pipelime-sub000/pkg/codec"
	"github.com/eyecan-ai/pipelime-sub000/pkg/item"
	"github.com/eyecan-ai/pipelime-sub000/pkg/remote"
	"github.com/eyecan-ai/pipelime-sub000/pkg/sample"
)

// UploadToRemote uploads the current value of each key in Keys to every
// remote in Remotes (in order), then replaces the in-sample value with a
// remote-list item so later reads resolve lazily (spec §4.2). An upload
// that fails on any one remote is logged and its URL omitted from the
// placeholder list; the stage only fails the whole key if every remote
// failed.
type UploadToRemote struct {
	Keys       []string
	Remotes    []remote.URL
	Extensions map[string]string // key -> source extension used to pick the codec and upload suffix
	Codecs     *codec.Registry
	RemoteReg  *remote.Registry
	Warn       func(format string, args ...interface{})
}

func (UploadToRemote) Kind() string { return "upload-to-remote" }

func (u UploadToRemote) Apply(ctx context.Context, s sample.Sample) (sample.Sample, error) {
	out := s.Copy()
	for _, key := range u.Keys {
		if !out.Contains(key) {
			continue
		}
		ext, ok := u.Extensions[key]
		if !ok {
			return nil, fmt.Errorf("stage: upload-to-remote: no extension configured for key %q", key)
		}
		v, err := out.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("stage: upload-to-remote: reading key %q: %w", key, err)
		}

		var buf bytes.Buffer
		if err := u.Codecs.Encode(key, ext, &buf, v); err != nil {
			return nil, fmt.Errorf("stage: upload-to-remote: encoding key %q: %w", key, err)
		}

		var urls []string
		for _, dest := range u.Remotes {
			r, err := u.RemoteReg.ForURL(dest)
			if err != nil {
				u.warn("upload-to-remote: key %q: resolving remote %s: %v", key, dest, err)
				continue
			}
			uploaded, err := r.UploadStream(ctx, bytes.NewReader(buf.Bytes()), int64(buf.Len()), dest.BasePath, "."+ext)
			if err != nil {
				u.warn("upload-to-remote: key %q: uploading to %s: %v", key, dest, err)
				continue
			}
			urls = append(urls, uploaded.String())
		}
		if len(urls) == 0 {
			return nil, fmt.Errorf("stage: upload-to-remote: key %q: every remote failed", key)
		}

		if err := sample.SetItem(out, key, item.NewRemote(urls, ext, u.Codecs, u.RemoteReg)); err != nil {
			return nil, fmt.Errorf("stage: upload-to-remote: key %q: %w", key, err)
		}
	}
	return out, nil
}

func (u UploadToRemote) warn(format string, args ...interface{}) {
	if u.Warn != nil {
		u.Warn(format, args...)
	}
}

// TargetExtension returns the extension a writer should use for key after
// this stage has run ("remote", per spec §4.2's writer cooperation
// contract), or false if key is not managed by this stage.
func (u UploadToRemote) TargetExtension(key string) (string, bool) {
	for _, k := range u.Keys {
		if k == key {
			return "remote", true
		}
	}
	return "", false
}

var _ Stage = UploadToRemote{}
