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

// Package blob defines a content-hash reference type used to name
// remote-storage payloads deterministically, the way perkeep's pkg/blob
// names locally-stored blobs by digest. Unlike perkeep's single-algorithm
// Ref, pipelime's remotes choose their hash algorithm per bucket (spec
// §4.2), so Ref carries the algorithm alongside the digest.
package blob

import (
	"crypto/sha1"
	"crypto/sha256"
	"fmt"
	"hash"
	"io"
	"strings"
)

// Algorithm identifies a supported content-hash function.
type Algorithm string

const (
	SHA256 Algorithm = "sha256"
	SHA1   Algorithm = "sha1"
)

// DefaultAlgorithm is used whenever a bucket has no persisted hash
// algorithm tag (spec §4.2).
const DefaultAlgorithm = SHA256

// NewHash returns a fresh hash.Hash for the given algorithm, or an error if
// the algorithm is unknown.
func NewHash(a Algorithm) (hash.Hash, error) {
	switch a {
	case SHA256, "":
		return sha256.New(), nil
	case SHA1:
		return sha1.New(), nil
	default:
		return nil, fmt.Errorf("blob: unsupported hash algorithm %q", a)
	}
}

// Ref is a reference to content-addressed payload, of the form
// "<algorithm>-<hexdigest>". It is a value type: two Refs with equal
// fields compare equal with ==, and Ref is safe to use as a map key.
type Ref struct {
	Algorithm Algorithm
	Digest    string // lowercase hex
}

// SizedRef augments a Ref with the payload's length in bytes.
type SizedRef struct {
	Ref
	Size int64
}

func (r Ref) String() string {
	if r.Algorithm == "" {
		return r.Digest
	}
	return fmt.Sprintf("%s-%s", r.Algorithm, r.Digest)
}

func (r Ref) IsZero() bool {
	return r.Digest == ""
}

// ParseRef parses the "<algorithm>-<hexdigest>" form produced by String.
func ParseRef(s string) (Ref, error) {
	algo, digest, ok := strings.Cut(s, "-")
	if !ok {
		return Ref{}, fmt.Errorf("blob: malformed ref %q", s)
	}
	return Ref{Algorithm: Algorithm(algo), Digest: digest}, nil
}

// Sum computes the Ref of r's entire content under algorithm a, consuming r.
func Sum(a Algorithm, r io.Reader) (SizedRef, error) {
	h, err := NewHash(a)
	if err != nil {
		return SizedRef{}, err
	}
	n, err := io.Copy(h, r)
	if err != nil {
		return SizedRef{}, fmt.Errorf("blob: hashing content: %w", err)
	}
	return SizedRef{
		Ref:  Ref{Algorithm: a, Digest: fmt.Sprintf("%x", h.Sum(nil))},
		Size: n,
	}, nil
}
