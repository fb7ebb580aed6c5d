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

// Package codec implements pipelime's extension-keyed codec registry (spec
// §4.1): encode/decode pairs dispatched by file-extension tag, grouped
// into categories (image, numpy-native, numpy-text, markup, pickle,
// binary, remote). The registry shape (mutex-protected map, panic on
// duplicate registration) follows perkeep's
// pkg/blobserver/registry.go StorageConstructor registry, repurposed from
// "storage type name" to "file extension".
package codec

import (
	"fmt"
	"io"
	"sync"
)

// Category groups extensions that share a decoded-value shape (spec §4.1 table).
type Category string

const (
	CategoryImage      Category = "image"
	CategoryNumpyNative Category = "numpy-native"
	CategoryNumpyText   Category = "numpy-text"
	CategoryMarkup      Category = "markup"
	CategoryPickle      Category = "pickle"
	CategoryBinary      Category = "binary"
	CategoryRemote      Category = "remote"
)

// Codec decodes and encodes payloads for one or more extensions.
type Codec interface {
	Category() Category
	Decode(r io.Reader) (interface{}, error)
	Encode(w io.Writer, v interface{}) error
}

// Error is the CodecError taxonomy member (spec §7): unknown extension or
// a decode failure, carrying the triggering key and extension.
type Error struct {
	Op        string // "decode", "encode", "unsupported"
	Key       string
	Extension string
	Cause     error
}

func (e *Error) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("codec: %s failed for key %q (.%s): %v", e.Op, e.Key, e.Extension, e.Cause)
	}
	return fmt.Sprintf("codec: %s failed for extension %q: %v", e.Op, e.Extension, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

// Registry maps file extensions (without the leading dot, lowercase) to Codecs.
type Registry struct {
	mu     sync.Mutex
	codecs map[string]Codec
}

// NewRegistry returns a Registry with every built-in codec registered
// (image, numpy native/text, markup, pickle, binary, remote — spec §4.1's
// canonical category table).
func NewRegistry() *Registry {
	r := &Registry{codecs: make(map[string]Codec)}
	registerBuiltins(r)
	return r
}

// Register associates ext (lowercase, no dot) with c. Registering the same
// extension twice panics.
func (r *Registry) Register(ext string, c Codec) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.codecs[ext]; ok {
		panic("codec: extension already registered: " + ext)
	}
	r.codecs[ext] = c
}

// Lookup returns the Codec registered for ext, or a *Error with
// Op="unsupported" if none is.
func (r *Registry) Lookup(ext string) (Codec, error) {
	r.mu.Lock()
	c, ok := r.codecs[ext]
	r.mu.Unlock()
	if !ok {
		return nil, &Error{Op: "unsupported", Extension: ext, Cause: fmt.Errorf("no codec registered for extension %q", ext)}
	}
	return c, nil
}

// Decode looks up ext and decodes r, wrapping any decode failure with key
// and extension context.
func (r *Registry) Decode(key, ext string, rd io.Reader) (interface{}, error) {
	c, err := r.Lookup(ext)
	if err != nil {
		return nil, err
	}
	v, err := c.Decode(rd)
	if err != nil {
		return nil, &Error{Op: "decode", Key: key, Extension: ext, Cause: err}
	}
	return v, nil
}

// Encode looks up ext and encodes v to w.
func (r *Registry) Encode(key, ext string, w io.Writer, v interface{}) error {
	c, err := r.Lookup(ext)
	if err != nil {
		return err
	}
	if err := c.Encode(w, v); err != nil {
		return &Error{Op: "encode", Key: key, Extension: ext, Cause: err}
	}
	return nil
}

// CategoryOf returns the category registered for ext, if any.
func (r *Registry) CategoryOf(ext string) (Category, bool) {
	r.mu.Lock()
	c, ok := r.codecs[ext]
	r.mu.Unlock()
	if !ok {
		return "", false
	}
	return c.Category(), true
}
