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

package remote

import (
	"io"
	"os"

	"github.com/eyecan-ai/pipelime-sub000/pkg/blob"
)

// Stage spools r to a temporary file while hashing it with algo, then
// rewinds the file so the caller can read the full content again for the
// actual upload. This mirrors spec §4.2's "the uploader rewinds the stream,
// computes the digest of the whole content, then names the target" -
// streams arriving over HTTP/process pipes are frequently not seekable, so
// backends stage through disk rather than requiring io.Seeker from callers.
func Stage(r io.Reader, algo blob.Algorithm) (staged *os.File, ref blob.SizedRef, err error) {
	f, err := os.CreateTemp("", "pipelime-remote-upload-*")
	if err != nil {
		return nil, blob.SizedRef{}, err
	}
	h, err := blob.NewHash(algo)
	if err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, blob.SizedRef{}, err
	}
	n, err := io.Copy(io.MultiWriter(f, h), r)
	if err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, blob.SizedRef{}, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, blob.SizedRef{}, err
	}
	return f, blob.SizedRef{
		Ref:  blob.Ref{Algorithm: algo, Digest: hexDigest(h)},
		Size: n,
	}, nil
}

// CleanupStaged removes the temp file created by Stage.
func CleanupStaged(f *os.File) {
	if f == nil {
		return
	}
	name := f.Name()
	f.Close()
	os.Remove(name)
}

func hexDigest(h interface{ Sum([]byte) []byte }) string {
	const hextable = "0123456789abcdef"
	sum := h.Sum(nil)
	out := make([]byte, len(sum)*2)
	for i, b := range sum {
		out[i*2] = hextable[b>>4]
		out[i*2+1] = hextable[b&0x0f]
	}
	return string(out)
}
