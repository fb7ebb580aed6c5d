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

// Template is the (extension_map, root_keys, index_width) triple a reader
// produces and a writer consumes to round-trip a layout (spec §3's
// "Reader template").
type Template struct {
	ExtensionMap map[string]string // key -> file extension
	RootKeys     map[string]bool   // keys written as root files, public qualifier stripped
	IndexWidth   int
}

func newTemplate() Template {
	return Template{ExtensionMap: make(map[string]string), RootKeys: make(map[string]bool)}
}
