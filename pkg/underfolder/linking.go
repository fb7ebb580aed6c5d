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

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const linksFileName = "_underfolder_links.yml"

func linksFilePath(root string) string { return filepath.Join(root, linksFileName) }

func readLinksFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var links []string
	if err := yaml.Unmarshal(data, &links); err != nil {
		return nil, fmt.Errorf("underfolder: decoding %s: %w", path, err)
	}
	return links, nil
}

func writeLinksFile(path string, links []string) error {
	data, err := yaml.Marshal(links)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Link appends targetRoot's absolute path to source_root/_underfolder_links.yml
// (design-level operation of spec §4.5), creating the file if absent.
// Idempotent: linking the same canonicalized target twice is a no-op
// (supplement #2 of SPEC_FULL.md).
func Link(sourceRoot, targetRoot string) error {
	targetAbs, err := filepath.Abs(targetRoot)
	if err != nil {
		return &Error{Op: "link", Root: sourceRoot, Cause: err}
	}
	path := linksFilePath(sourceRoot)
	existing, err := readLinksFile(path)
	if err != nil {
		return &Error{Op: "link", Root: sourceRoot, Cause: err}
	}
	for _, l := range existing {
		canon, err := filepath.Abs(l)
		if err == nil && canon == targetAbs {
			return nil
		}
	}
	existing = append(existing, targetAbs)
	if err := writeLinksFile(path, existing); err != nil {
		return &Error{Op: "link", Root: sourceRoot, Cause: err}
	}
	return nil
}
