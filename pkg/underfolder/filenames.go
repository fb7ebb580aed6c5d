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

import "strings"

// parseDataFilename splits a data/ entry name "<id>_<key>.<ext>" at the
// first underscore (spec §4.5 step 2: "the first underscore partition
// <stem>=<id>_<key>"). A key may itself contain underscores; only the id
// prefix is required to be underscore-free relative to this split.
func parseDataFilename(name string) (id, key, ext string, ok bool) {
	if strings.HasPrefix(name, ".") {
		return "", "", "", false
	}
	idx := strings.IndexByte(name, '_')
	if idx < 0 {
		return "", "", "", false
	}
	id = name[:idx]
	rest := name[idx+1:]
	dot := strings.LastIndexByte(rest, '.')
	if dot < 0 {
		key, ext = rest, ""
	} else {
		key, ext = rest[:dot], rest[dot+1:]
	}
	if key == "" {
		return "", "", "", false
	}
	return id, key, ext, true
}

// parseRootFilename splits a root-level entry name "<key>.<ext>" (or
// "_<key>.<ext>" for the private qualifier, spec §4.5 step 3).
func parseRootFilename(name string) (key, ext string, private bool, ok bool) {
	if strings.HasPrefix(name, ".") {
		return "", "", false, false
	}
	stem := name
	dot := strings.LastIndexByte(stem, '.')
	if dot < 0 {
		key, ext = stem, ""
	} else {
		key, ext = stem[:dot], stem[dot+1:]
	}
	if strings.HasPrefix(key, "_") {
		return key[1:], ext, true, true
	}
	return key, ext, false, true
}

// dataFilename builds a data/ entry name from an already-formatted
// basename (the writer is responsible for zero-padding numeric ids).
func dataFilename(basename, key, ext string) string {
	if ext == "" {
		return basename + "_" + key
	}
	return basename + "_" + key + "." + ext
}

func rootFilename(key, ext string, private bool) string {
	name := key
	if private {
		name = "_" + key
	}
	if ext == "" {
		return name
	}
	return name + "." + ext
}
